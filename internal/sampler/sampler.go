// Package sampler decodes a video into a bounded, deduplicated, evenly
// spaced set of still frames on disk, shelling out to ffmpeg/ffprobe the
// way original_source/services/video.py does.
package sampler

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"vrenamer/internal/verrors"
)

const (
	fallbackDurationSec = 180.0
	minFPS              = 0.1
	maxFPS              = 6.0
	scaleWidth          = 640
	phashMaxDistance    = 5
)

// Sampler decodes videos via the ffmpeg/ffprobe binaries on PATH.
type Sampler struct {
	TargetFrames int // default 96, frames requested from ffmpeg before capping
	TargetMax    int // default 96, final cap after dedup
}

// New returns a Sampler with spec defaults.
func New(targetFrames, targetMax int) *Sampler {
	if targetFrames <= 0 {
		targetFrames = 96
	}
	if targetMax <= 0 {
		targetMax = 96
	}
	return &Sampler{TargetFrames: targetFrames, TargetMax: targetMax}
}

// Sample decodes video into outDir, producing a FrameSet. outDir is
// cleaned of any pre-existing *.jpg files first.
func (s *Sampler) Sample(ctx context.Context, video, outDir string) (*FrameSet, error) {
	if err := checkDependencies(); err != nil {
		return nil, err
	}

	if err := prepareOutDir(outDir); err != nil {
		return nil, &verrors.VideoDecodeError{Path: video, Cause: err}
	}

	duration := probeDuration(ctx, video)
	fps := decideFPS(float64(s.TargetFrames), duration.Seconds())

	if err := runFFmpeg(ctx, video, outDir, fps); err != nil {
		return nil, &verrors.VideoDecodeError{Path: video, Cause: err}
	}

	frames, err := listFrames(outDir)
	if err != nil {
		return nil, &verrors.VideoDecodeError{Path: video, Cause: err}
	}
	if len(frames) == 0 {
		return nil, &verrors.VideoDecodeError{Path: video, Cause: fmt.Errorf("decoder produced zero frames")}
	}

	frames, err = dedupeExact(frames)
	if err != nil {
		return nil, &verrors.VideoDecodeError{Path: video, Cause: err}
	}
	frames = dedupePerceptual(frames)

	frames = evenSample(frames, s.TargetMax)

	return &FrameSet{
		Directory:    outDir,
		Frames:       frames,
		Duration:     duration,
		EffectiveFPS: fps,
	}, nil
}

func checkDependencies() error {
	var missing []string
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			missing = append(missing, bin)
		}
	}
	if len(missing) > 0 {
		return &verrors.VideoDecodeError{
			Path:  "",
			Cause: fmt.Errorf("missing required binaries on PATH: %s (install ffmpeg: https://ffmpeg.org/download.html)", strings.Join(missing, ", ")),
		}
	}
	return nil
}

func prepareOutDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.jpg"))
	if err != nil {
		return fmt.Errorf("glob output dir: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return fmt.Errorf("clean stale frame %s: %w", m, err)
		}
	}
	return nil
}

// probeDuration shells out to ffprobe; on any failure it assumes 180s and
// logs a warning, matching original_source's graceful degrade.
func probeDuration(ctx context.Context, video string) time.Duration {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		video,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		log.Printf("[Sampler] WARNING: ffprobe failed for %s, assuming %.0fs: %v", video, fallbackDurationSec, err)
		return time.Duration(fallbackDurationSec * float64(time.Second))
	}

	secs, err := strconv.ParseFloat(strings.TrimSpace(out.String()), 64)
	if err != nil || secs <= 0 {
		log.Printf("[Sampler] WARNING: unparseable ffprobe duration %q for %s, assuming %.0fs", out.String(), video, fallbackDurationSec)
		return time.Duration(fallbackDurationSec * float64(time.Second))
	}
	if secs < 1.0 {
		secs = 1.0
	}
	return time.Duration(secs * float64(time.Second))
}

func decideFPS(targetFrames, durationSec float64) float64 {
	if durationSec <= 0 {
		durationSec = fallbackDurationSec
	}
	fps := targetFrames / durationSec
	return clamp(fps, minFPS, maxFPS)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func runFFmpeg(ctx context.Context, video, outDir string, fps float64) error {
	pattern := filepath.Join(outDir, "frame_%05d.jpg")
	vf := fmt.Sprintf("fps=%.4f,scale=%d:-1", fps, scaleWidth)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-i", video,
		"-vf", vf,
		"-vsync", "vfr",
		pattern,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, stderr.String())
	}
	return nil
}

func listFrames(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "frame_*.jpg"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// dedupeExact removes byte-identical frames via MD5. Collision-tolerant:
// false positives are rare and the cost is losing one near-identical
// frame, not correctness of the overall summary.
func dedupeExact(frames []string) ([]string, error) {
	seen := make(map[string]struct{}, len(frames))
	var kept []string
	for _, f := range frames {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read frame %s: %w", f, err)
		}
		sum := md5.Sum(data)
		key := hex.EncodeToString(sum[:])
		if _, dup := seen[key]; dup {
			_ = os.Remove(f)
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, f)
	}
	return kept, nil
}

// evenSample caps frames to max by evenly-spaced index sampling, then
// order-preservingly de-duplicates the result (rounding can collapse two
// indices onto the same frame when max is close to len(frames)).
func evenSample(frames []string, max int) []string {
	n := len(frames)
	if n <= max {
		return frames
	}
	if max <= 1 {
		return frames[:1]
	}

	step := float64(n-1) / float64(max-1)
	seen := make(map[int]struct{}, max)
	var out []string
	for i := 0; i < max; i++ {
		idx := int(math.Round(float64(i) * step))
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, frames[idx])
	}
	return out
}
