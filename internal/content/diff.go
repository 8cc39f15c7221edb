package content

import (
	"strings"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Span operations
const (
	SpanUnchanged = "unchanged"
	SpanAdded     = "added"
	SpanRemoved   = "removed"
)

// Span is one run of a word-level diff. Concatenating the unchanged and
// added spans reproduces the new text; unchanged and removed spans reproduce
// the old text.
type Span struct {
	Op   string `json:"op"`
	Text string `json:"text"`
}

// DiffWords computes a word-level diff from oldText to newText. Tokens are
// maximal runs of non-whitespace or whitespace, so the spans carry the
// original spacing verbatim.
func DiffWords(oldText, newText string) []Span {
	oldTokens := tokenizeWords(oldText)
	newTokens := tokenizeWords(newText)
	oldRunes, newRunes, tokens := tokensToRunes(oldTokens, newTokens)

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMainRunes(oldRunes, newRunes, false)

	spans := make([]Span, 0, len(diffs))
	for _, d := range diffs {
		var text strings.Builder
		for _, r := range d.Text {
			text.WriteString(tokens[r])
		}
		span := Span{Text: text.String()}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			span.Op = SpanAdded
		case diffmatchpatch.DiffDelete:
			span.Op = SpanRemoved
		default:
			span.Op = SpanUnchanged
		}
		spans = append(spans, span)
	}
	return spans
}

// tokenizeWords splits text into alternating runs of non-whitespace and
// whitespace. No characters are dropped.
func tokenizeWords(text string) []string {
	var tokens []string
	runes := []rune(text)
	start := 0
	for i := 0; i <= len(runes); i++ {
		if i == len(runes) {
			if start < i {
				tokens = append(tokens, string(runes[start:i]))
			}
			break
		}
		if i > start && unicode.IsSpace(runes[i]) != unicode.IsSpace(runes[start]) {
			tokens = append(tokens, string(runes[start:i]))
			start = i
		}
	}
	return tokens
}

// tokensToRunes assigns each distinct token a rune so the diff runs over
// tokens instead of characters. Rune 0 stays unused.
func tokensToRunes(oldTokens, newTokens []string) ([]rune, []rune, map[rune]string) {
	index := make(map[string]rune)
	tokens := make(map[rune]string)
	next := rune(1)

	encode := func(list []string) []rune {
		out := make([]rune, len(list))
		for i, tok := range list {
			r, ok := index[tok]
			if !ok {
				r = next
				next++
				index[tok] = r
				tokens[r] = tok
			}
			out[i] = r
		}
		return out
	}

	return encode(oldTokens), encode(newTokens), tokens
}
