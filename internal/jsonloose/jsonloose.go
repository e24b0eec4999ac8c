// Package jsonloose extracts the first valid JSON value from a free-form
// model response. Model outputs in practice include leading/trailing prose
// despite instructions, and a single stray sentence must not fail an
// otherwise-useful response.
package jsonloose

import "encoding/json"

// Parse tries, in order: the whole string; the first balanced [...] block;
// the first balanced {...} block. Returns (value, true) on the first
// strategy that produces valid JSON, or (nil, false) if none do.
func Parse(text string) (any, bool) {
	if v, ok := tryUnmarshal(text); ok {
		return v, true
	}
	if block, ok := extractBalanced(text, '[', ']'); ok {
		if v, ok := tryUnmarshal(block); ok {
			return v, true
		}
	}
	if block, ok := extractBalanced(text, '{', '}'); ok {
		if v, ok := tryUnmarshal(block); ok {
			return v, true
		}
	}
	return nil, false
}

func tryUnmarshal(s string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

// extractBalanced returns the substring spanning the first open..matching
// close pair, correctly skipping occurrences of open/close that appear
// inside quoted strings. This is stricter than the non-greedy regex the
// source project uses (which mis-extracts when the payload contains a
// brace inside a string literal, e.g. {"labels": ["a {weird} label"]}).
func extractBalanced(s string, open, close byte) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if start == -1 {
			if c == open {
				start = i
				depth = 1
			}
			continue
		}

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
