package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple lowercase", input: "Hello World", want: "hello world"},
		{name: "trim whitespace", input: "  hello  ", want: "hello"},
		{name: "collapse internal whitespace", input: "hello    world", want: "hello world"},
		{name: "tabs and newlines", input: "hello\t\n  world", want: "hello world"},
		{name: "empty string", input: "", want: ""},
		{name: "only whitespace", input: "   \t\n   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCountChars_Runes(t *testing.T) {
	assert.Equal(t, 5, CountChars("hello"))
	assert.Equal(t, 3, CountChars("•→★"))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short", 200))
	assert.Equal(t, "abc...", Preview("abcdef", 3))
	assert.Equal(t, "•→★...", Preview("•→★•→★", 3))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusApproved))
	assert.True(t, CanTransition(StatusPending, StatusRejected))
	assert.True(t, CanTransition(StatusApproved, StatusPublished))

	assert.False(t, CanTransition(StatusPending, StatusPublished))
	assert.False(t, CanTransition(StatusRejected, StatusApproved))
	assert.False(t, CanTransition(StatusPublished, StatusApproved))
	assert.False(t, CanTransition(StatusApproved, StatusRejected))
}

func TestParseStatusAndMode(t *testing.T) {
	st, ok := ParseStatus(" Approved ")
	assert.True(t, ok)
	assert.Equal(t, StatusApproved, st)

	_, ok = ParseStatus("draft")
	assert.False(t, ok)

	m, ok := ParseMode("connection")
	assert.True(t, ok)
	assert.Equal(t, ModeConnection, m)

	_, ok = ParseMode("Briefs")
	assert.False(t, ok)
}

func TestIsEmoji(t *testing.T) {
	for _, g := range []string{"🚀", "🤔", "🔒", "👇", "😀", "✅", "⭐", "⭐\uFE0F", "☀\uFE0F", "▶\uFE0F"} {
		assert.Truef(t, IsEmoji(g), "%q should be emoji", g)
	}
	for _, g := range []string{
		"•", "→", "➤", "➜", "▸", "▪", "▫", "◦", "○", "◇", "◆", "★", "☆", "✧", "✦", "✩", "♥", "▶",
		"─", "━", "│", "┌", "←", "↑", "⇒", "➨", "➾",
		"✓", "✗", "❶", "☐", "✎", "➔",
		"☀\uFE0E", "a", "Z", "9", "?", "!", "",
	} {
		assert.Falsef(t, IsEmoji(g), "%q should not be emoji", g)
	}
}

func TestFindEmoji_Distinct(t *testing.T) {
	assert.Equal(t, []string{"🚀", "🔥"}, FindEmoji("go 🚀 go 🚀 🔥"))
	assert.Nil(t, FindEmoji("• plain → text ★"))
	assert.Nil(t, FindEmoji("Launch checklist:\n✓ tests pass\n✓ docs updated\n❶ ☐ ✎ ➔"))
}

func TestEndsWithTerminal(t *testing.T) {
	assert.True(t, EndsWithTerminal("Try it today."))
	assert.True(t, EndsWithTerminal("What do you think?  \n"))
	assert.True(t, EndsWithTerminal(`He said "go!"`))
	assert.True(t, EndsWithTerminal("(see the docs.)"))
	assert.False(t, EndsWithTerminal("Reply with your"))
	assert.False(t, EndsWithTerminal(""))
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		r := Validate(ValidateInput{Text: "A perfectly fine post. Try it.", RequireCTA: true})
		assert.True(t, r.Valid)
		assert.Equal(t, DefaultMaxChars, r.MaxChars)
	})

	t.Run("empty", func(t *testing.T) {
		r := Validate(ValidateInput{Text: "   "})
		assert.False(t, r.Valid)
		assert.True(t, r.Empty)
	})

	t.Run("too large", func(t *testing.T) {
		r := Validate(ValidateInput{Text: strings.Repeat("a", 501) + "."})
		assert.False(t, r.Valid)
		assert.True(t, r.TooLarge)
		assert.Equal(t, 502, r.ActualChars)
	})

	t.Run("exactly max is fine", func(t *testing.T) {
		r := Validate(ValidateInput{Text: strings.Repeat("a", 499) + "."})
		assert.True(t, r.Valid)
	})

	t.Run("emoji", func(t *testing.T) {
		r := Validate(ValidateInput{Text: "Ship it 🚀 today."})
		assert.False(t, r.Valid)
		assert.Equal(t, []string{"🚀"}, r.Emoji)
	})

	t.Run("mid sentence only matters with cta", func(t *testing.T) {
		assert.True(t, Validate(ValidateInput{Text: "Thinking out loud here"}).Valid)
		r := Validate(ValidateInput{Text: "Thinking out loud here", RequireCTA: true})
		assert.False(t, r.Valid)
		assert.True(t, r.EndsMidSentence)
	})

	t.Run("too short", func(t *testing.T) {
		r := Validate(ValidateInput{Text: "Hi."})
		assert.False(t, r.Valid)
		assert.True(t, r.TooShort)
	})
}

func TestToSummary(t *testing.T) {
	d := &Draft{ID: "01", Text: strings.Repeat("x", 130), Chars: 130, Mode: ModeBriefs, Status: StatusPending}
	s := d.ToSummary()
	assert.Equal(t, "01", s.ID)
	assert.Equal(t, ListPreviewChars+3, len(s.Preview))
	assert.Equal(t, StatusPending, s.Status)
}
