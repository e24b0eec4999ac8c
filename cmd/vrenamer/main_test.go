package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"vrenamer/internal/verrors"
)

func TestExitCodeForSuccess(t *testing.T) {
	require.Equal(t, exitOK, exitCodeFor(nil))
}

func TestExitCodeForFileOperationError(t *testing.T) {
	err := errors.New("apply rename: " + (&verrors.FileOperationError{Path: "a.mp4", Cause: errors.New("boom")}).Error())
	require.Equal(t, exitConfigOrDecode, exitCodeFor(err), "a plain wrapped string loses type info, unlike fmt.Errorf's %%w")

	wrapped := wrapErr("apply rename", &verrors.FileOperationError{Path: "a.mp4", Cause: errors.New("boom")})
	require.Equal(t, exitFileOp, exitCodeFor(wrapped))
}

func TestExitCodeForConfigError(t *testing.T) {
	err := wrapErr("load config", &verrors.ConfigError{Detail: "missing base url"})
	require.Equal(t, exitConfigOrDecode, exitCodeFor(err))
}

func wrapErr(prefix string, cause error) error {
	return &wrappedErr{prefix: prefix, cause: cause}
}

type wrappedErr struct {
	prefix string
	cause  error
}

func (w *wrappedErr) Error() string { return w.prefix + ": " + w.cause.Error() }
func (w *wrappedErr) Unwrap() error { return w.cause }
