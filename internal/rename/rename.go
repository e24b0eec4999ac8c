// Package rename applies a chosen naming candidate to a source file with
// collision suffixing, writing an append-only JSON-lines audit record
// before the filesystem rename commits. The collision-suffix loop is
// grounded on original_source/cli/interactive.py's _apply_rename; the
// audit/rollback mechanism itself is new, designed in the teacher's
// marshal-then-os.WriteFile idiom since no original_source analog exists.
package rename

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vrenamer/internal/verrors"
)

// Record is one append-only audit line. Written before the rename commits
// so that recovery is possible even if the rename itself fails partway.
type Record struct {
	Source    string              `json:"source"`
	Target    string              `json:"target"`
	Report    map[string][]string `json:"report"`
	Timestamp time.Time           `json:"timestamp"`
	DryRun    bool                `json:"dry_run"`
}

// Executor applies renames against one audit log file.
type Executor struct {
	AuditLogPath string
}

func NewExecutor(auditLogPath string) *Executor {
	return &Executor{AuditLogPath: auditLogPath}
}

// Apply computes a collision-free target name for filename (no
// extension) next to source, writes the audit record, then performs the
// rename unless dryRun is set. On a failed rename, the audit record is
// left in place (it carries the intended state) and a FileOperationError
// is returned.
func (e *Executor) Apply(source, filename string, report map[string][]string, dryRun bool) (string, error) {
	target := resolveCollisionFreeTarget(source, filename)

	rec := Record{
		Source:    source,
		Target:    target,
		Report:    report,
		Timestamp: time.Now(),
		DryRun:    dryRun,
	}
	if err := e.appendRecord(rec); err != nil {
		return "", &verrors.FileOperationError{Path: e.AuditLogPath, Cause: err}
	}

	if dryRun {
		return target, nil
	}

	if err := os.Rename(source, target); err != nil {
		return "", &verrors.FileOperationError{Path: source, Cause: err}
	}
	return target, nil
}

// resolveCollisionFreeTarget computes dir(source)/(filename+ext), then
// probes filename_1, filename_2, ... until a free path is found, matching
// cli/interactive.py's while new_path.exists(): counter += 1 loop exactly.
func resolveCollisionFreeTarget(source, filename string) string {
	dir := filepath.Dir(source)
	ext := filepath.Ext(source)

	target := filepath.Join(dir, filename+ext)
	if !exists(target) {
		return target
	}

	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", filename, i, ext))
		if !exists(candidate) {
			return candidate
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (e *Executor) appendRecord(rec Record) error {
	f, err := os.OpenFile(e.AuditLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log %s: %w", e.AuditLogPath, err)
	}
	defer f.Close()

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}

// Rollback reads auditLogPath in reverse order and, for every record whose
// target exists on disk and whose source does not, renames target back to
// source. Records not matching that precondition are skipped (already
// rolled back, or never actually committed in the dry-run case), so
// running Rollback twice in a row is a no-op.
func Rollback(auditLogPath string) (restored int, err error) {
	records, err := readRecords(auditLogPath)
	if err != nil {
		return 0, err
	}

	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		if rec.DryRun {
			continue
		}
		if exists(rec.Target) && !exists(rec.Source) {
			if err := os.Rename(rec.Target, rec.Source); err != nil {
				return restored, &verrors.FileOperationError{Path: rec.Target, Cause: err}
			}
			restored++
		}
	}
	return restored, nil
}

func readRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &verrors.FileOperationError{Path: path, Cause: err}
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, &verrors.FileOperationError{Path: path, Cause: fmt.Errorf("parse audit line: %w", err)}
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, &verrors.FileOperationError{Path: path, Cause: err}
	}
	return records, nil
}
