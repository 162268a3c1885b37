// Package brand loads the brand profile document used as prompt context.
package brand

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// MaxContextExamples caps the example posts rendered into prompt context.
const MaxContextExamples = 3

// Profile is a parsed brand profile. The zero value is an empty profile.
type Profile struct {
	Name            string   `json:"name,omitempty"`
	Tone            string   `json:"tone,omitempty"`
	Voice           string   `json:"voice,omitempty"`
	Audience        string   `json:"audience,omitempty"`
	KeyTopics       []string `json:"key_topics,omitempty"`
	StyleGuidelines []string `json:"style_guidelines,omitempty"`
	ExamplePosts    []string `json:"example_posts,omitempty"`
	DoNotUse        []string `json:"do_not_use,omitempty"`
}

// frontMatter holds the optional YAML header of a profile document.
type frontMatter struct {
	Name     string `yaml:"name"`
	Tone     string `yaml:"tone"`
	Voice    string `yaml:"voice"`
	Audience string `yaml:"audience"`
}

type field int

const (
	fieldNone field = iota
	fieldTone
	fieldVoice
	fieldAudience
	fieldKeyTopics
	fieldStyleGuidelines
	fieldExamplePosts
	fieldDoNotUse
)

// sectionFields maps lowercase "## " headings to profile fields.
var sectionFields = map[string]field{
	"tone":                fieldTone,
	"voice":               fieldVoice,
	"positioning":         fieldVoice,
	"one-liner":           fieldVoice,
	"audience":            fieldAudience,
	"target audience":     fieldAudience,
	"key topics":          fieldKeyTopics,
	"topics":              fieldKeyTopics,
	"core capabilities":   fieldKeyTopics,
	"supporting services": fieldKeyTopics,
	"style guidelines":    fieldStyleGuidelines,
	"guidelines":          fieldStyleGuidelines,
	"example posts":       fieldExamplePosts,
	"examples":            fieldExamplePosts,
	"do not use":          fieldDoNotUse,
	"avoid":               fieldDoNotUse,
}

// Load reads and parses the profile at path. A missing file yields an empty profile.
func Load(path string) (*Profile, error) {
	if path == "" {
		return &Profile{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Profile{}, nil
		}
		return nil, fmt.Errorf("read brand profile: %w", err)
	}
	return Parse(data)
}

// Parse parses a profile document: optional YAML front matter followed by markdown.
func Parse(data []byte) (*Profile, error) {
	fm, body, err := splitFrontMatter(data)
	if err != nil {
		return nil, err
	}

	p := parseMarkdown(body)

	if fm != nil {
		if fm.Name != "" {
			p.Name = fm.Name
		}
		if fm.Tone != "" {
			p.Tone = fm.Tone
		}
		if fm.Voice != "" {
			p.Voice = fm.Voice
		}
		if fm.Audience != "" {
			p.Audience = fm.Audience
		}
	}
	return p, nil
}

// splitFrontMatter separates a leading "---" YAML block from the markdown body.
func splitFrontMatter(data []byte) (*frontMatter, []byte, error) {
	normalized := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return nil, data, nil
	}
	rest := normalized[len("---\n"):]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, data, nil
	}

	var fm frontMatter
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return nil, nil, fmt.Errorf("parse brand front matter: %w", err)
	}

	body := rest[end+len("\n---"):]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}
	return &fm, body, nil
}

func parseMarkdown(src []byte) *Profile {
	p := &Profile{}
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	current := fieldNone
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := strings.TrimSpace(nodeText(node, src))
			switch node.Level {
			case 1:
				p.Name = title
				current = fieldNone
			case 2:
				current = sectionFields[strings.ToLower(title)]
			default:
				// Deeper headings stay inside the current section.
			}
		case *ast.List:
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				var line string
				if first := item.FirstChild(); first != nil {
					line = strings.TrimSpace(nodeText(first, src))
				}
				if line != "" {
					p.addItem(current, line)
				}
			}
		case *ast.Paragraph:
			if line := strings.TrimSpace(nodeText(node, src)); line != "" {
				p.addText(current, line)
			}
		}
	}
	return p
}

func (p *Profile) addItem(f field, item string) {
	switch f {
	case fieldKeyTopics:
		p.KeyTopics = append(p.KeyTopics, item)
	case fieldStyleGuidelines:
		p.StyleGuidelines = append(p.StyleGuidelines, item)
	case fieldExamplePosts:
		p.ExamplePosts = append(p.ExamplePosts, item)
	case fieldDoNotUse:
		p.DoNotUse = append(p.DoNotUse, item)
	default:
		p.addText(f, item)
	}
}

func (p *Profile) addText(f field, line string) {
	switch f {
	case fieldTone:
		p.Tone = joinSpace(p.Tone, line)
	case fieldVoice:
		p.Voice = joinSpace(p.Voice, line)
	case fieldAudience:
		p.Audience = joinSpace(p.Audience, line)
	}
}

func joinSpace(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}

// nodeText concatenates the text segments below n. Soft line breaks become spaces.
func nodeText(n ast.Node, src []byte) string {
	var buf strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// IsEmpty reports whether nothing was loaded.
func (p *Profile) IsEmpty() bool {
	return p == nil || (p.Name == "" && p.Tone == "" && p.Voice == "" && p.Audience == "" &&
		len(p.KeyTopics) == 0 && len(p.StyleGuidelines) == 0 && len(p.ExamplePosts) == 0 && len(p.DoNotUse) == 0)
}

// Context renders the profile as prompt context. An empty profile renders "".
func (p *Profile) Context() string {
	if p.IsEmpty() {
		return ""
	}

	var parts []string
	if p.Name != "" {
		parts = append(parts, "Brand: "+p.Name)
	}
	if p.Tone != "" {
		parts = append(parts, "Tone: "+p.Tone)
	}
	if p.Voice != "" {
		parts = append(parts, "Voice: "+p.Voice)
	}
	if p.Audience != "" {
		parts = append(parts, "Target Audience: "+p.Audience)
	}
	if len(p.KeyTopics) > 0 {
		parts = append(parts, "Key Topics: "+strings.Join(p.KeyTopics, ", "))
	}
	parts = appendList(parts, "Style Guidelines:", p.StyleGuidelines)
	examples := p.ExamplePosts
	if len(examples) > MaxContextExamples {
		examples = examples[:MaxContextExamples]
	}
	parts = appendList(parts, "Example Post Styles:", examples)
	parts = appendList(parts, "Avoid:", p.DoNotUse)

	return strings.Join(parts, "\n")
}

func appendList(parts []string, heading string, items []string) []string {
	if len(items) == 0 {
		return parts
	}
	parts = append(parts, "\n"+heading)
	for _, item := range items {
		parts = append(parts, "- "+item)
	}
	return parts
}
