package sampler

import (
	"log"
	"os"

	"github.com/corona10/goimagehash"

	_ "image/jpeg" // decode support for goimagehash.PerceptionHash
)

// dedupePerceptual removes near-duplicate frames using a perceptual hash
// with Hamming distance <= phashMaxDistance against the set of already-
// retained frames. Best-effort: a frame that fails to decode or hash is
// retained rather than aborting the whole pass, matching
// original_source's graceful ImportError fallback to MD5-only dedup.
func dedupePerceptual(frames []string) []string {
	var kept []string
	var keptHashes []*goimagehash.ImageHash

	for _, f := range frames {
		h, err := hashFrame(f)
		if err != nil {
			log.Printf("[Sampler] perceptual hash unavailable for %s, keeping: %v", f, err)
			kept = append(kept, f)
			continue
		}

		dup := false
		for _, kh := range keptHashes {
			dist, err := h.Distance(kh)
			if err == nil && dist <= phashMaxDistance {
				dup = true
				break
			}
		}
		if dup {
			_ = os.Remove(f)
			continue
		}
		kept = append(kept, f)
		keptHashes = append(keptHashes, h)
	}
	return kept
}

func hashFrame(path string) (*goimagehash.ImageHash, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := decodeImage(f)
	if err != nil {
		return nil, err
	}
	return goimagehash.PerceptionHash(img)
}
