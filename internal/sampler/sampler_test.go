package sampler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecideFPSClamps(t *testing.T) {
	require.InDelta(t, 0.1, decideFPS(96, 10000), 0.0001)
	require.InDelta(t, 6.0, decideFPS(96, 1), 0.0001)
	require.InDelta(t, 0.96, decideFPS(96, 100), 0.0001)
}

func TestEvenSampleExactFit(t *testing.T) {
	frames := make([]string, 10)
	for i := range frames {
		frames[i] = string(rune('a' + i))
	}
	out := evenSample(frames, 20)
	require.Equal(t, frames, out)
}

func TestEvenSampleCoversSpan(t *testing.T) {
	frames := make([]string, 100)
	for i := range frames {
		frames[i] = string(rune(i))
	}
	out := evenSample(frames, 10)
	require.LessOrEqual(t, len(out), 10)
	require.Equal(t, frames[0], out[0])
	require.Equal(t, frames[len(frames)-1], out[len(out)-1])
}

func TestEvenSampleSingleTarget(t *testing.T) {
	frames := []string{"a", "b", "c"}
	out := evenSample(frames, 1)
	require.Equal(t, []string{"a"}, out)
}
