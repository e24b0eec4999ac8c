package transcript

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDummyExtractorAlwaysEmptyAndUnavailable(t *testing.T) {
	e := DummyExtractor{}
	text, err := e.Extract(context.Background(), "/tmp/whatever.mp4")
	require.NoError(t, err)
	require.Empty(t, text)
	require.False(t, e.IsAvailable())
}

func TestNewFallsBackToDummyForUnimplementedBackends(t *testing.T) {
	e := New(true, "gemini")
	require.False(t, e.IsAvailable())
}

func TestNewReturnsDummyWhenDisabled(t *testing.T) {
	e := New(false, "gemini")
	require.False(t, e.IsAvailable())
}
