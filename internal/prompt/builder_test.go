package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/quill/internal/brand"
	"github.com/hpungsan/quill/internal/content"
)

func testProfile() *brand.Profile {
	return &brand.Profile{
		Name:            "Northwind Labs",
		Tone:            "Direct and warm.",
		StyleGuidelines: []string{"Short sentences"},
	}
}

func testAnalysis() *content.StyleAnalysis {
	return &content.StyleAnalysis{
		TotalPosts:    3,
		AverageLength: 42,
		CommonOpeners: []string{"great tip", "hot take"},
		CommonClosers: []string{"what do you think"},
		StructureRatios: map[string]float64{
			content.UsesBullets:        0.75,
			content.UsesQuestions:      0.25,
			content.UsesNumberedLists:  0,
			content.HasParagraphBreaks: 0.5,
		},
		ExamplePosts: []string{"Great tip! Try X.\n\nQuestion?", "Hot take. Docs matter."},
	}
}

// assertOrdered checks that each needle appears in text after the previous one.
func assertOrdered(t *testing.T, text string, needles ...string) {
	t.Helper()
	pos := 0
	for _, n := range needles {
		i := strings.Index(text[pos:], n)
		if !assert.GreaterOrEqualf(t, i, 0, "%q not found after offset %d", n, pos) {
			return
		}
		pos += i + len(n)
	}
}

func TestBuildStylePrompt_ContainsExamplesVerbatim(t *testing.T) {
	a := testAnalysis()
	out := BuildStylePrompt(a, testProfile(), "")

	for _, ex := range a.ExamplePosts {
		assert.Contains(t, out, ex)
	}
}

func TestBuildStylePrompt_ContainsOpener(t *testing.T) {
	a := &content.StyleAnalysis{TotalPosts: 1, CommonOpeners: []string{"great tip"}}
	out := BuildStylePrompt(a, &brand.Profile{}, "")
	assert.Contains(t, out, "great tip")
}

func TestBuildStylePrompt_SectionOrder(t *testing.T) {
	out := BuildStylePrompt(testAnalysis(), testProfile(), "")

	assertOrdered(t, out,
		"Brand Context:",
		"Brand: Northwind Labs",
		"POST STYLE ANALYSIS",
		"Example 1:",
		"Example 2:",
		"Common opening patterns:",
		"- great tip",
		"Common closing patterns:",
		"- what do you think",
		"Structure preferences:",
		"frequently uses bullet points",
		"Choose any topic consistent with the brand voice",
		"CRITICAL REQUIREMENTS:",
	)
}

func TestBuildStylePrompt_RatioRendering(t *testing.T) {
	out := BuildStylePrompt(testAnalysis(), nil, "")

	assert.Contains(t, out, "frequently uses bullet points (75% of posts)")
	assert.Contains(t, out, "occasionally uses questions (25% of posts)")
	assert.Contains(t, out, "rarely uses numbered lists")
	// 0.5 is not "frequently".
	assert.Contains(t, out, "occasionally uses paragraph breaks (50% of posts)")
}

func TestBuildStylePrompt_Topic(t *testing.T) {
	out := BuildStylePrompt(testAnalysis(), nil, "on-call culture")

	assert.Contains(t, out, "centered on this topic: on-call culture")
	assert.NotContains(t, out, "Choose any topic")
	assert.Contains(t, out, "call-to-action or question written as a complete sentence")
}

func TestBuildStylePrompt_NoBrandSectionWhenEmpty(t *testing.T) {
	out := BuildStylePrompt(testAnalysis(), &brand.Profile{}, "")
	assert.NotContains(t, out, "Brand Context:")
	assert.True(t, strings.HasPrefix(out, "POST STYLE ANALYSIS"))
}

func TestBuildBriefPrompt(t *testing.T) {
	brief := content.Brief{Topic: "Incident reviews", Pillar: "Reliability", PostTypes: []string{"Tip", "Story"}}
	out := BuildBriefPrompt(brief, testProfile())

	assertOrdered(t, out,
		"Brand Context:",
		"Create an engaging Threads post about: Incident reviews",
		"Content pillar: Reliability",
		"Post type: Tip, Story",
		"MAXIMUM 500 characters",
		"NEVER use emojis",
		"complete sentence",
	)
}

func TestBuildBriefPrompt_PlainTextTypeOmitted(t *testing.T) {
	out := BuildBriefPrompt(content.Brief{Topic: "x", PostTypes: []string{"Text"}}, nil)
	assert.NotContains(t, out, "Post type:")
}

func TestBuild_Metadata(t *testing.T) {
	b := NewBuilder(0)

	p := b.Build(Briefs{Brief: content.Brief{Topic: "t"}}, nil)
	assert.Equal(t, content.ModeBriefs, p.Kind)
	assert.True(t, p.RequiresCTA)
	assert.Equal(t, content.DefaultMaxChars, p.MaxChars)
	assert.Contains(t, p.Metadata, "brief")

	p = b.Build(Analysis{Analysis: testAnalysis()}, nil)
	assert.False(t, p.RequiresCTA)
	assert.NotContains(t, p.Metadata, "topic")

	p = b.Build(Analysis{Analysis: testAnalysis(), Topic: "x"}, nil)
	assert.True(t, p.RequiresCTA)
	assert.Equal(t, "x", p.Metadata["topic"])

	p = b.Build(Connection{ConnectionType: "founders"}, nil)
	assert.Equal(t, content.ModeConnection, p.Kind)
	assert.False(t, p.RequiresCTA)
	assert.Contains(t, p.Text, "inviting founders to connect")
	assert.Equal(t, "founders", p.Metadata["connection_type"])
}

func TestBuild_Deterministic(t *testing.T) {
	b := NewBuilder(400)
	first := b.Build(Analysis{Analysis: testAnalysis(), Topic: "x"}, testProfile())
	second := b.Build(Analysis{Analysis: testAnalysis(), Topic: "x"}, testProfile())
	require.Equal(t, first.Text, second.Text)
	assert.Contains(t, first.Text, "MAXIMUM 400 characters")
}

func TestStrict(t *testing.T) {
	p := NewBuilder(0).Build(Connection{}, nil)
	s := p.Strict()

	assert.True(t, strings.HasPrefix(s.Text, p.Text))
	assert.True(t, strings.HasSuffix(s.Text, StrictLengthInstruction(500)))
	assert.Contains(t, s.Text, "MUST be under 500. Aim for 400-450 characters.")
	assert.NotContains(t, p.Text, "MUST be under")
}

func TestFooterHasNoEmoji(t *testing.T) {
	out := BuildConnectionPrompt("", testProfile())
	assert.Empty(t, content.FindEmoji(out))
}
