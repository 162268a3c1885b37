// Package prompt renders generation inputs into model instructions.
package prompt

import (
	"fmt"
	"strings"

	"github.com/hpungsan/quill/internal/brand"
	"github.com/hpungsan/quill/internal/content"
)

// SystemMessage is sent as the system role on every completion.
const SystemMessage = "You are a social media content creator specializing in engaging, authentic Threads posts. " +
	"Keep posts under 500 characters, conversational, and valuable."

// Prompt is a rendered instruction plus what the generator needs to validate the result.
type Prompt struct {
	Text        string
	Kind        content.Mode
	RequiresCTA bool
	MaxChars    int
	Metadata    map[string]any
}

// Strict returns a copy of p with the stricter character budget appended.
func (p Prompt) Strict() Prompt {
	p.Text = p.Text + "\n\n" + StrictLengthInstruction(p.MaxChars)
	return p
}

// StrictLengthInstruction is the amended budget line used when a draft came back too long.
func StrictLengthInstruction(maxChars int) string {
	return fmt.Sprintf("CRITICAL: MAXIMUM %d characters - MUST be under %d. Aim for %d-%d characters. Be very concise.",
		maxChars, maxChars, maxChars*4/5, maxChars*9/10)
}

// Builder renders prompts for a given character budget.
type Builder struct {
	MaxChars int
}

// NewBuilder returns a Builder. maxChars <= 0 uses content.DefaultMaxChars.
func NewBuilder(maxChars int) *Builder {
	if maxChars <= 0 {
		maxChars = content.DefaultMaxChars
	}
	return &Builder{MaxChars: maxChars}
}

var defaultBuilder = NewBuilder(0)

// BuildBriefPrompt renders a brief prompt with the default budget.
func BuildBriefPrompt(brief content.Brief, profile *brand.Profile) string {
	return defaultBuilder.Build(Briefs{Brief: brief}, profile).Text
}

// BuildStylePrompt renders a style-matching prompt with the default budget.
func BuildStylePrompt(analysis *content.StyleAnalysis, profile *brand.Profile, topic string) string {
	return defaultBuilder.Build(Analysis{Analysis: analysis, Topic: topic}, profile).Text
}

// BuildConnectionPrompt renders a networking prompt with the default budget.
func BuildConnectionPrompt(connectionType string, profile *brand.Profile) string {
	return defaultBuilder.Build(Connection{ConnectionType: connectionType}, profile).Text
}

// Build renders mode into a Prompt. Sections are always, in order: brand context,
// the mode section, the requirements footer.
func (b *Builder) Build(mode Mode, profile *brand.Profile) Prompt {
	var sections []string

	if ctx := profile.Context(); ctx != "" {
		sections = append(sections, "Brand Context:\n"+ctx)
	}

	var metadata map[string]any
	switch m := mode.(type) {
	case Briefs:
		sections = append(sections, briefSection(m.Brief))
		metadata = map[string]any{"brief": m.Brief}
	case Analysis:
		sections = append(sections, styleSection(m.Analysis, m.Topic))
		metadata = map[string]any{"analysis": m.Analysis}
		if m.Topic != "" {
			metadata["topic"] = m.Topic
		}
	case Connection:
		sections = append(sections, connectionSection(m.ConnectionType))
		metadata = map[string]any{}
		if m.ConnectionType != "" {
			metadata["connection_type"] = m.ConnectionType
		}
	}

	requiresCTA := RequiresCTA(mode)
	sections = append(sections, requirementsFooter(b.MaxChars, requiresCTA))

	return Prompt{
		Text:        strings.Join(sections, "\n\n"),
		Kind:        mode.Kind(),
		RequiresCTA: requiresCTA,
		MaxChars:    b.MaxChars,
		Metadata:    metadata,
	}
}

func briefSection(brief content.Brief) string {
	lines := []string{"Create an engaging Threads post about: " + brief.Topic}
	if brief.Pillar != "" {
		lines = append(lines, "Content pillar: "+brief.Pillar)
	}
	if len(brief.PostTypes) > 0 && !(len(brief.PostTypes) == 1 && brief.PostTypes[0] == "Text") {
		lines = append(lines, "Post type: "+strings.Join(brief.PostTypes, ", "))
	}
	return strings.Join(lines, "\n")
}

// traitPhrases names each structure trait for rendering.
var traitPhrases = map[string]string{
	content.UsesBullets:        "bullet points",
	content.UsesQuestions:      "questions",
	content.UsesNumberedLists:  "numbered lists",
	content.HasParagraphBreaks: "paragraph breaks",
}

// DescribeRatio renders one structure ratio as a human-readable preference.
func DescribeRatio(trait string, ratio float64) string {
	phrase := traitPhrases[trait]
	pct := int(ratio*100 + 0.5)
	switch {
	case ratio > 0.5:
		return fmt.Sprintf("frequently uses %s (%d%% of posts)", phrase, pct)
	case ratio > 0:
		return fmt.Sprintf("occasionally uses %s (%d%% of posts)", phrase, pct)
	default:
		return fmt.Sprintf("rarely uses %s", phrase)
	}
}

func styleSection(a *content.StyleAnalysis, topic string) string {
	if a == nil {
		a = &content.StyleAnalysis{}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "POST STYLE ANALYSIS (%d posts, average length %d characters)\n", a.TotalPosts, a.AverageLength)

	if len(a.ExamplePosts) > 0 {
		sb.WriteString("\nExample posts to match in style:\n")
		for i, p := range a.ExamplePosts {
			fmt.Fprintf(&sb, "\nExample %d:\n%s\n", i+1, p)
		}
	}

	writeList(&sb, "Common opening patterns:", a.CommonOpeners)
	writeList(&sb, "Common closing patterns:", a.CommonClosers)

	sb.WriteString("\nStructure preferences:\n")
	for _, trait := range content.StructureTraits {
		ratio, ok := a.StructureRatios[trait]
		if !ok {
			continue
		}
		sb.WriteString("- " + DescribeRatio(trait, ratio) + "\n")
	}

	sb.WriteString("\n")
	if topic != "" {
		fmt.Fprintf(&sb, "Write a new post centered on this topic: %s. Keep the voice, structure and patterns shown above.", topic)
	} else {
		sb.WriteString("Choose any topic consistent with the brand voice and write a new post that matches the style above.")
	}
	return sb.String()
}

func writeList(sb *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("\n" + heading + "\n")
	for _, item := range items {
		sb.WriteString("- " + item + "\n")
	}
}

func connectionSection(connectionType string) string {
	who := connectionType
	if who == "" {
		who = "people working in the same space"
	}
	return "Write a short networking post inviting " + who + " to connect.\n" +
		"Say briefly who you are and what you are working on, then who you would like to meet and why.\n" +
		"Keep it under 280 characters and genuinely personal."
}

func requirementsFooter(maxChars int, requiresCTA bool) string {
	lines := []string{
		"CRITICAL REQUIREMENTS:",
		fmt.Sprintf("- MAXIMUM %d characters - aim for %d-%d characters to be safe", maxChars, maxChars*4/5, maxChars*9/10),
		"- NEVER use emojis - they are strictly forbidden",
		"- Use only plain text and simple symbols for decoration",
		"- Allowed symbols: " + strings.Join(content.ListMarkers, " ") + " (bullets, arrows, stars only)",
		"- Be concise and direct, make it conversational and authentic",
		"- No hashtags unless natural",
	}
	if requiresCTA {
		lines = append(lines, "- End with a call-to-action or question written as a complete sentence")
	} else {
		lines = append(lines, "- End with a question or call-to-action when natural")
	}
	lines = append(lines, "", fmt.Sprintf("Generate ONLY the post text, nothing else. No quotes, no explanations. NO EMOJIS. MAX %d CHARACTERS.", maxChars))
	return strings.Join(lines, "\n")
}
