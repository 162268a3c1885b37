package prompt

import "github.com/hpungsan/quill/internal/content"

// Mode is the closed set of generation inputs. Exactly one of Briefs,
// Analysis or Connection.
type Mode interface {
	Kind() content.Mode
	isMode()
}

// Briefs drafts a post from one planning brief.
type Briefs struct {
	Brief content.Brief
}

// Analysis drafts a post in the style of an analyzed corpus.
// An empty Topic lets the model pick any topic that fits the brand.
type Analysis struct {
	Analysis *content.StyleAnalysis
	Topic    string
}

// Connection drafts a short networking post.
type Connection struct {
	ConnectionType string
}

func (Briefs) Kind() content.Mode     { return content.ModeBriefs }
func (Analysis) Kind() content.Mode   { return content.ModeAnalysis }
func (Connection) Kind() content.Mode { return content.ModeConnection }

func (Briefs) isMode()     {}
func (Analysis) isMode()   {}
func (Connection) isMode() {}

// RequiresCTA reports whether drafts for m must end on a complete call-to-action sentence.
func RequiresCTA(m Mode) bool {
	switch v := m.(type) {
	case Briefs:
		return true
	case Analysis:
		return v.Topic != ""
	}
	return false
}
