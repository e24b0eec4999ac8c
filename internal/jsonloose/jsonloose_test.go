package jsonloose

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWholeString(t *testing.T) {
	v, ok := Parse(`{"labels": ["a"], "confidence": 0.5}`)
	require.True(t, ok)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	require.Equal(t, 0.5, m["confidence"])
}

func TestParseArrayWithProse(t *testing.T) {
	v, ok := Parse("Sure, here are the names:\n[\"foo\", \"bar\"]\nLet me know if you need more.")
	require.True(t, ok)
	arr, ok := v.([]any)
	require.True(t, ok)
	require.Equal(t, []any{"foo", "bar"}, arr)
}

func TestParseObjectWithNestedBraceInString(t *testing.T) {
	text := `Here you go: {"labels": ["a {weird} label"], "confidence": 0.5} Thanks!`
	v, ok := Parse(text)
	require.True(t, ok)
	m := v.(map[string]any)
	labels := m["labels"].([]any)
	require.Equal(t, "a {weird} label", labels[0])
}

func TestParseTotalFailure(t *testing.T) {
	_, ok := Parse("I cannot help with that request.")
	require.False(t, ok)
}

func TestParsePrefersWholeStringOverSubstring(t *testing.T) {
	// The whole string itself is valid JSON containing a nested object;
	// Parse must not instead try to peel out the inner object.
	v, ok := Parse(`{"outer": {"inner": 1}}`)
	require.True(t, ok)
	m := v.(map[string]any)
	require.Contains(t, m, "outer")
}
