// Package analyzer turns a set of historical posts into a style summary.
package analyzer

import (
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/hpungsan/quill/internal/content"
	"github.com/hpungsan/quill/internal/errors"
)

// Selection limits.
const (
	MaxPatterns = 5
	MaxExamples = 5
)

var (
	// sentenceEnd matches a run of terminal punctuation followed by whitespace or end of text.
	sentenceEnd = regexp.MustCompile(`[.!?]+(?:\s+|$)`)

	bulletLine   = regexp.MustCompile(`(?m)^[ \t]*(?:•|-|→)`)
	numberedLine = regexp.MustCompile(`(?m)^[ \t]*\d+\.`)
	blankLine    = regexp.MustCompile(`\n[ \t]*\n`)
)

// trailingPunct is stripped from normalized opener/closer candidates.
const trailingPunct = ".!?,;:…-–—\"'”’)"

// Analyze builds a StyleAnalysis from posts. It is pure: the same input in the
// same order always produces the same result.
func Analyze(posts []content.Post) (*content.StyleAnalysis, error) {
	if len(posts) == 0 {
		return nil, errors.NewInsufficientData("no posts to analyze")
	}

	openers := newRanker()
	closers := newRanker()
	traitCounts := make(map[string]int, len(content.StructureTraits))
	totalChars := 0

	for _, p := range posts {
		totalChars += content.CountChars(p.Text)

		for trait, ok := range Traits(p.Text) {
			if ok {
				traitCounts[trait]++
			}
		}

		sentences := SplitSentences(p.Text)
		if len(sentences) == 0 {
			continue
		}
		openers.add(normalizePattern(sentences[0]))
		closers.add(normalizePattern(sentences[len(sentences)-1]))
	}

	n := len(posts)
	ratios := make(map[string]float64, len(content.StructureTraits))
	for _, trait := range content.StructureTraits {
		ratios[trait] = float64(traitCounts[trait]) / float64(n)
	}

	return &content.StyleAnalysis{
		TotalPosts:      n,
		AverageLength:   totalChars / n,
		CommonOpeners:   openers.top(MaxPatterns),
		CommonClosers:   closers.top(MaxPatterns),
		StructureRatios: ratios,
		ExamplePosts:    selectExamples(posts, MaxExamples),
	}, nil
}

// SplitSentences splits text on terminal punctuation followed by whitespace or
// end of text. Whitespace is collapsed first. Fragments with no word content are dropped.
func SplitSentences(text string) []string {
	text = content.CollapseSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		sentences = appendSentence(sentences, text[start:loc[1]])
		start = loc[1]
	}
	if start < len(text) {
		sentences = appendSentence(sentences, text[start:])
	}
	return sentences
}

func appendSentence(sentences []string, s string) []string {
	s = strings.TrimSpace(s)
	if strings.Trim(s, trailingPunct+" ") == "" {
		return sentences
	}
	return append(sentences, s)
}

// Traits reports which structural traits a single post exhibits.
func Traits(text string) map[string]bool {
	text = strings.ReplaceAll(text, "\r", "")
	return map[string]bool{
		content.UsesBullets:        bulletLine.MatchString(text),
		content.UsesQuestions:      strings.Contains(text, "?"),
		content.UsesNumberedLists:  numberedLine.MatchString(text),
		content.HasParagraphBreaks: blankLine.MatchString(text),
	}
}

// normalizePattern lowercases a sentence and trims trailing punctuation.
func normalizePattern(s string) string {
	return strings.TrimRight(content.Normalize(s), trailingPunct+" ")
}

// ranker counts strings and remembers where each was first seen.
type ranker struct {
	counts map[string]int
	first  map[string]int
	seq    int
}

func newRanker() *ranker {
	return &ranker{counts: make(map[string]int), first: make(map[string]int)}
}

func (r *ranker) add(s string) {
	if s == "" {
		return
	}
	if _, ok := r.first[s]; !ok {
		r.first[s] = r.seq
	}
	r.seq++
	r.counts[s]++
}

// top returns up to n strings by descending count, ties by earliest first occurrence.
func (r *ranker) top(n int) []string {
	keys := make([]string, 0, len(r.counts))
	for k := range r.counts {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if r.counts[a] != r.counts[b] {
			return r.counts[b] - r.counts[a]
		}
		return r.first[a] - r.first[b]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// selectExamples picks the n most recent posts, ties broken by input order.
func selectExamples(posts []content.Post, n int) []string {
	idx := make([]int, len(posts))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return posts[idx[a]].CreatedAt.After(posts[idx[b]].CreatedAt)
	})
	if len(idx) > n {
		idx = idx[:n]
	}
	examples := make([]string, len(idx))
	for i, j := range idx {
		examples[i] = posts[j].Text
	}
	return examples
}
