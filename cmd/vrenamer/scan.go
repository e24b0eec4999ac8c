package main

import (
	"fmt"

	"vrenamer/internal/config"
	"vrenamer/internal/scanner"
)

func runScan(cfg *config.AppConfig, dir string, recursive bool) error {
	s := scanner.New(10)
	files, err := s.ScanDirectory(dir, recursive)
	if err != nil {
		return fmt.Errorf("scan %s: %w", dir, err)
	}

	summary := scanner.GetScanSummary(files)
	fmt.Printf("Found %d video file(s), %d look garbled, %.1f MB total\n",
		summary.Total, summary.Garbled, summary.TotalSizeMB)

	for _, f := range files {
		marker := ""
		if scanner.IsGarbledFilename(f) {
			marker = "  [garbled name]"
		}
		fmt.Printf("  %s%s\n", f, marker)
	}
	return nil
}
