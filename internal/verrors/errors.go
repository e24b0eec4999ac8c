// Package verrors defines the closed set of error kinds that may surface
// out of the analysis pipeline. Everything else (per-batch API failures,
// per-subtask prompt failures) is absorbed and degraded inside the engine.
package verrors

import "fmt"

// ConfigError reports missing or invalid configuration, or a prompt file
// that failed to load or render. Fatal to whichever operation needed it.
type ConfigError struct {
	Detail string
	Cause  error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config error: %s: %v", e.Detail, e.Cause)
	}
	return fmt.Sprintf("config error: %s", e.Detail)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// VideoDecodeError reports a missing or failing external decoder. Fatal
// to the pipeline run that needed a frame set.
type VideoDecodeError struct {
	Path  string
	Cause error
}

func (e *VideoDecodeError) Error() string {
	return fmt.Sprintf("video decode error for %s: %v", e.Path, e.Cause)
}

func (e *VideoDecodeError) Unwrap() error { return e.Cause }

// APIError reports an LLM backend request failure. Always contained to one
// batch or one style call; never propagates past the scheduler.
type APIError struct {
	Status int
	Body   string
	Cause  error
}

func (e *APIError) Error() string {
	snippet := e.Body
	if len(snippet) > 500 {
		snippet = snippet[:500] + "...(truncated)"
	}
	if e.Cause != nil {
		return fmt.Sprintf("api error (status=%d): %v: %s", e.Status, e.Cause, snippet)
	}
	return fmt.Sprintf("api error (status=%d): %s", e.Status, snippet)
}

func (e *APIError) Unwrap() error { return e.Cause }

// FileOperationError reports a rename that could not be completed: either
// collision-suffix resolution was exhausted or the filesystem refused the
// operation. Always reported to the caller, never silently swallowed.
type FileOperationError struct {
	Path  string
	Cause error
}

func (e *FileOperationError) Error() string {
	return fmt.Sprintf("file operation error on %s: %v", e.Path, e.Cause)
}

func (e *FileOperationError) Unwrap() error { return e.Cause }
