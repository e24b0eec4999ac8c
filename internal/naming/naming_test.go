package naming

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeS4(t *testing.T) {
	raw := `办公室 <诱惑>:/\|?*   女主角`
	clean := Sanitize(raw, 80)

	require.NotContains(t, clean, "<")
	require.NotContains(t, clean, ">")
	require.NotContains(t, clean, ":")
	require.NotContains(t, clean, "/")
	require.NotContains(t, clean, `\`)
	require.NotContains(t, clean, "|")
	require.NotContains(t, clean, "?")
	require.NotContains(t, clean, "*")
	require.NotContains(t, clean, "  ")
	require.LessOrEqual(t, len([]rune(clean)), 80)
	require.NotEmpty(t, clean)
}

func TestSanitizeTruncatesByRune(t *testing.T) {
	raw := ""
	for i := 0; i < 100; i++ {
		raw += "名"
	}
	clean := Sanitize(raw, 10)
	require.Equal(t, 10, len([]rune(clean)))
}

func TestSanitizeEmptyAfterCleanup(t *testing.T) {
	clean := Sanitize("   ", 80)
	require.Empty(t, clean)
}

func TestSanitizeCollapsesWhitespace(t *testing.T) {
	clean := Sanitize("a    b\t\tc", 80)
	require.Equal(t, "a b c", clean)
}
