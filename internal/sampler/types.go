package sampler

import "time"

// FrameSet is the product of Sample: a bounded, deduplicated, evenly-spaced
// set of still frames extracted from one video.
type FrameSet struct {
	Directory    string
	Frames       []string // absolute paths, sorted by emission index
	Duration     time.Duration
	EffectiveFPS float64
}
