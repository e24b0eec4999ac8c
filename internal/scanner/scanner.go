// Package scanner walks a directory tree for video files and flags
// filenames likely to be garbled, grounded on
// original_source/services/scanner.py's ScannerService.
package scanner

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

var videoExtensions = map[string]bool{
	".mp4": true, ".avi": true, ".mkv": true, ".mov": true, ".wmv": true,
	".flv": true, ".webm": true, ".m4v": true, ".mpg": true, ".mpeg": true,
}

var skippedDirNames = map[string]bool{
	"logs": true, "temp": true, "tmp": true, "frames": true,
}

// Scanner walks directories applying a minimum-size floor, matching the
// original's min_size_mb default of 10MB.
type Scanner struct {
	MinSizeBytes int64
}

func New(minSizeMB float64) *Scanner {
	return &Scanner{MinSizeBytes: int64(minSizeMB * 1024 * 1024)}
}

// IsVideoFile reports whether path's extension is a recognized video
// container.
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// ScanDirectory walks root (recursively, unless recursive is false),
// skipping dotdirs and logs/temp/tmp/frames, and returns every file that
// is a recognized video container at or above MinSizeBytes.
func (s *Scanner) ScanDirectory(root string, recursive bool) ([]string, error) {
	var found []string

	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			path := filepath.Join(root, e.Name())
			if s.shouldInclude(path) {
				found = append(found, path)
			}
		}
		return found, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("[Scanner] WARNING: cannot walk %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skippedDirNames[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.shouldInclude(path) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (s *Scanner) shouldInclude(path string) bool {
	if !IsVideoFile(path) {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Size() >= s.MinSizeBytes
}

// IsGarbledFilename reports whether the filename stem (extension
// stripped) looks like a mojibake/garbled name rather than meaningful
// text: pure ASCII is never garbled; CJK-range runs are never garbled;
// otherwise a name is garbled once more than 30% of its runes are
// "special" (neither alphanumeric nor one of " -_.").
func IsGarbledFilename(path string) bool {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	isASCII := true
	for _, r := range name {
		if r > unicode.MaxASCII {
			isASCII = false
			break
		}
	}
	if isASCII {
		return false
	}

	for _, r := range name {
		if isCJK(r) {
			return false
		}
	}

	if len(name) == 0 {
		return false
	}
	special := 0
	total := 0
	for _, r := range name {
		total++
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune(" -_.", r) {
			special++
		}
	}
	return float64(special) > float64(total)*0.3
}

func isCJK(r rune) bool {
	return (r >= 0x4e00 && r <= 0x9fff) ||
		(r >= 0x3040 && r <= 0x30ff) ||
		(r >= 0xac00 && r <= 0xd7af)
}

// Summary is the aggregate result of scanning a file list.
type Summary struct {
	Total       int
	Garbled     int
	TotalSizeMB float64
}

// GetScanSummary mirrors ScannerService.get_scan_summary: counts files,
// counts how many have garbled stems, and totals their size in MB. Files
// that vanish between listing and stat are skipped rather than failing
// the whole summary.
func GetScanSummary(files []string) Summary {
	summary := Summary{Total: len(files)}
	var totalBytes int64
	for _, f := range files {
		if IsGarbledFilename(f) {
			summary.Garbled++
		}
		if info, err := os.Stat(f); err == nil {
			totalBytes += info.Size()
		}
	}
	summary.TotalSizeMB = float64(totalBytes) / (1024 * 1024)
	return summary
}
