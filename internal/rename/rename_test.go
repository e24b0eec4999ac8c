package rename

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestApplyRenamesAndWritesAudit(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "IMG_0001.mp4")
	touch(t, source)

	exec := NewExecutor(filepath.Join(dir, "audit.jsonl"))
	target, err := exec.Apply(source, "office seduction scene", map[string][]string{"role": {"A"}}, false)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "office seduction scene.mp4"), target)

	require.NoFileExists(t, source)
	require.FileExists(t, target)

	data, err := os.ReadFile(filepath.Join(dir, "audit.jsonl"))
	require.NoError(t, err)
	require.Contains(t, string(data), `"source"`)
	require.Contains(t, string(data), source)
}

func TestApplyCollisionSuffixS5(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "a.mp4")
	touch(t, source)
	touch(t, filepath.Join(dir, "scene.mp4"))
	touch(t, filepath.Join(dir, "scene_1.mp4"))

	exec := NewExecutor(filepath.Join(dir, "audit.jsonl"))
	target, err := exec.Apply(source, "scene", nil, false)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "scene_2.mp4"), target)
}

func TestApplyDryRunDoesNotRename(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "a.mp4")
	touch(t, source)

	exec := NewExecutor(filepath.Join(dir, "audit.jsonl"))
	target, err := exec.Apply(source, "new name", nil, true)
	require.NoError(t, err)

	require.FileExists(t, source)
	require.NoFileExists(t, target)

	data, err := os.ReadFile(filepath.Join(dir, "audit.jsonl"))
	require.NoError(t, err)
	require.Contains(t, string(data), `"dry_run":true`)
}

func TestRollbackS6(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "a.mp4")
	touch(t, source)

	exec := NewExecutor(filepath.Join(dir, "audit.jsonl"))
	target, err := exec.Apply(source, "renamed", nil, false)
	require.NoError(t, err)
	require.FileExists(t, target)

	restored, err := Rollback(exec.AuditLogPath)
	require.NoError(t, err)
	require.Equal(t, 1, restored)
	require.FileExists(t, source)
	require.NoFileExists(t, target)
}

func TestRollbackTwiceIsNoOp(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "a.mp4")
	touch(t, source)

	exec := NewExecutor(filepath.Join(dir, "audit.jsonl"))
	_, err := exec.Apply(source, "renamed", nil, false)
	require.NoError(t, err)

	_, err = Rollback(exec.AuditLogPath)
	require.NoError(t, err)

	restored, err := Rollback(exec.AuditLogPath)
	require.NoError(t, err)
	require.Equal(t, 0, restored)
}

func TestRollbackSkipsDryRunRecords(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "a.mp4")
	touch(t, source)

	exec := NewExecutor(filepath.Join(dir, "audit.jsonl"))
	_, err := exec.Apply(source, "would-be name", nil, true)
	require.NoError(t, err)

	restored, err := Rollback(exec.AuditLogPath)
	require.NoError(t, err)
	require.Equal(t, 0, restored)
	require.FileExists(t, source)
}
