package content

import "time"

// Post is a previously published post used as input to style analysis.
type Post struct {
	ID        string    `json:"id,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Brief is a structured content prompt from the planning database.
type Brief struct {
	PageID         string    `json:"page_id"`
	Topic          string    `json:"topic"`
	Pillar         string    `json:"pillar,omitempty"`
	Platforms      []string  `json:"platforms,omitempty"`
	PostTypes      []string  `json:"post_types,omitempty"`
	Status         string    `json:"status,omitempty"`
	CreatedTime    time.Time `json:"created_time"`
	LastEditedTime time.Time `json:"last_edited_time"`
}

// Structure trait keys used in StyleAnalysis.StructureRatios.
const (
	UsesBullets        = "uses_bullets"
	UsesQuestions      = "uses_questions"
	UsesNumberedLists  = "uses_numbered_lists"
	HasParagraphBreaks = "has_paragraph_breaks"
)

// StructureTraits lists the trait keys in rendering order.
var StructureTraits = []string{UsesBullets, UsesQuestions, UsesNumberedLists, HasParagraphBreaks}

// StyleAnalysis is the aggregate style summary of a post corpus.
type StyleAnalysis struct {
	TotalPosts      int                `json:"total_posts"`
	AverageLength   int                `json:"average_length"`
	CommonOpeners   []string           `json:"common_openers"`
	CommonClosers   []string           `json:"common_closers"`
	StructureRatios map[string]float64 `json:"structure_ratios"`
	ExamplePosts    []string           `json:"example_posts"`
}

// Mode identifies which generation path produced a draft.
type Mode string

const (
	ModeBriefs     Mode = "briefs"
	ModeAnalysis   Mode = "analysis"
	ModeConnection Mode = "connection"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, bool) {
	switch m := Mode(s); m {
	case ModeBriefs, ModeAnalysis, ModeConnection:
		return m, true
	}
	return "", false
}

// GeneratedDraft is the validated output of one generation call.
type GeneratedDraft struct {
	Text           string         `json:"text"`
	Mode           Mode           `json:"mode"`
	SourceMetadata map[string]any `json:"source_metadata,omitempty"`
}
