package content

import (
	"strings"
	"unicode"

	"github.com/forPelevin/gomoji"
	"github.com/rivo/uniseg"
)

// Content limits for a single post.
const (
	DefaultMaxChars = 500
	MinChars        = 10
)

// ValidateInput contains parameters for validating generated text.
type ValidateInput struct {
	Text       string
	MaxChars   int
	RequireCTA bool
}

// ValidateResult contains the results of validating generated text.
type ValidateResult struct {
	Valid           bool
	Empty           bool
	TooLarge        bool
	TooShort        bool
	Emoji           []string // offending emoji, in order of appearance
	EndsMidSentence bool
	ActualChars     int
	MaxChars        int
}

// Validate checks text against the post rules.
func Validate(input ValidateInput) *ValidateResult {
	maxChars := input.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	result := &ValidateResult{
		Valid:       true,
		ActualChars: CountChars(input.Text),
		MaxChars:    maxChars,
	}

	if strings.TrimSpace(input.Text) == "" {
		result.Empty = true
		result.Valid = false
		return result
	}

	if result.ActualChars > maxChars {
		result.TooLarge = true
		result.Valid = false
	}
	if result.ActualChars < MinChars {
		result.TooShort = true
		result.Valid = false
	}

	result.Emoji = FindEmoji(input.Text)
	if len(result.Emoji) > 0 {
		result.Valid = false
	}

	if input.RequireCTA && !EndsWithTerminal(input.Text) {
		result.EndsMidSentence = true
		result.Valid = false
	}

	return result
}

// allowedSymbols are the bullets, arrows, stars and card suits suggested for
// formatting. A few of them (▶ ▪ ▫ ♥ ♦ ♣ ♠) have emoji forms; they are allowed
// unless forced into emoji presentation with U+FE0F.
var allowedSymbols = map[string]bool{
	"•": true, "→": true, "➤": true, "➜": true, "▶": true, "▸": true, "▪": true,
	"▫": true, "◦": true, "○": true, "◇": true, "◆": true,
	"★": true, "☆": true, "✧": true, "✦": true, "✩": true, "✪": true, "✫": true,
	"✬": true, "✭": true, "✮": true, "✯": true, "✰": true,
	"♡": true, "♥": true, "♦": true, "♣": true, "♠": true,
}

// ListMarkers are the bullet symbols suggested to the model.
var ListMarkers = []string{"•", "→", "➤", "▸", "▪", "★", "✧", "✦"}

const (
	textPresentation  = "\uFE0E"
	emojiPresentation = "\uFE0F"
)

// IsEmoji reports whether the grapheme cluster g is an emoji according to the
// Unicode emoji list. Plain dingbats such as ✓ ❶ ☐ are not emoji, and an
// explicit text presentation selector opts a symbol out.
func IsEmoji(g string) bool {
	if g == "" || strings.HasSuffix(g, textPresentation) || allowedSymbols[g] {
		return false
	}
	if gomoji.ContainsEmoji(g) {
		return true
	}
	// the list spells some emoji with U+FE0F and some without
	bare := strings.ReplaceAll(g, emojiPresentation, "")
	return bare != g && bare != "" && gomoji.ContainsEmoji(bare)
}

// FindEmoji returns the distinct emoji in text, in order of appearance.
func FindEmoji(text string) []string {
	var found []string
	seen := make(map[string]bool)
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		g := gr.Str()
		if !seen[g] && IsEmoji(g) {
			seen[g] = true
			found = append(found, g)
		}
	}
	return found
}

// closingMarks may follow terminal punctuation at the very end of a sentence.
const closingMarks = "\"'”’)]»"

// EndsWithTerminal reports whether text ends with sentence-final punctuation.
func EndsWithTerminal(text string) bool {
	trimmed := strings.TrimRightFunc(text, unicode.IsSpace)
	trimmed = strings.TrimRight(trimmed, closingMarks)
	if trimmed == "" {
		return false
	}
	last := []rune(trimmed)
	switch last[len(last)-1] {
	case '.', '!', '?', '…':
		return true
	}
	return false
}
