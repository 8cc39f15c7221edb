package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reconstructOld(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		if s.Op != SpanAdded {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

func reconstructNew(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		if s.Op != SpanRemoved {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

func TestDiffWords_Identical(t *testing.T) {
	spans := DiffWords("hello world", "hello world")

	require.Len(t, spans, 1)
	assert.Equal(t, SpanUnchanged, spans[0].Op)
	assert.Equal(t, "hello world", spans[0].Text)
}

func TestDiffWords_WordReplacement(t *testing.T) {
	spans := DiffWords("the quick brown fox", "the slow brown fox")

	assert.Equal(t, "the quick brown fox", reconstructOld(spans))
	assert.Equal(t, "the slow brown fox", reconstructNew(spans))

	var removed, added []string
	for _, s := range spans {
		switch s.Op {
		case SpanRemoved:
			removed = append(removed, s.Text)
		case SpanAdded:
			added = append(added, s.Text)
		}
	}
	assert.Equal(t, []string{"quick"}, removed)
	assert.Equal(t, []string{"slow"}, added)
}

func TestDiffWords_ReconstructionRoundTrips(t *testing.T) {
	cases := []struct {
		name string
		old  string
		new  string
	}{
		{"append", "one two", "one two three"},
		{"prepend", "two three", "one two three"},
		{"delete all", "gone entirely", ""},
		{"from empty", "", "fresh text"},
		{"whitespace only change", "a  b", "a b"},
		{"multiline", "line one\nline two", "line one\nline 2\nline three"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spans := DiffWords(tc.old, tc.new)
			assert.Equal(t, tc.old, reconstructOld(spans))
			assert.Equal(t, tc.new, reconstructNew(spans))
		})
	}
}

func TestDiffWords_KeepsWholeWords(t *testing.T) {
	// "cat" -> "caterpillar" must be a word replacement, not a char splice
	spans := DiffWords("a cat sat", "a caterpillar sat")

	for _, s := range spans {
		if s.Op == SpanRemoved {
			assert.Equal(t, "cat", s.Text)
		}
		if s.Op == SpanAdded {
			assert.Equal(t, "caterpillar", s.Text)
		}
	}
}
