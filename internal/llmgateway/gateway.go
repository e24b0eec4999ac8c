// Package llmgateway adapts two capabilities — multimodal Classify and
// text Generate — over a pluggable HTTP backend, shielding callers from
// wire format. This is the only package that knows a request's shape on
// the wire; everything upstream works in terms of Classify/Generate.
package llmgateway

import "context"

// Opts parameterizes one call. JSON requests a structured/JSON-mode
// response; Temperature and MaxTokens are forwarded to the backend.
type Opts struct {
	JSON        bool
	Temperature float64
	MaxTokens   int
}

// Gateway is the capability surface the rest of the system depends on.
// Implementations select a wire format by configuration, never by
// inheritance.
type Gateway interface {
	// Classify sends prompt plus the images at the given file paths to the
	// backend and returns its raw text response. images are read and
	// encoded by the implementation.
	Classify(ctx context.Context, prompt string, images []string, opts Opts) (string, error)

	// Generate sends a text-only prompt and returns the backend's raw text
	// response.
	Generate(ctx context.Context, prompt string, opts Opts) (string, error)
}

// New constructs the configured backend. kind is one of "openai_compat" or
// "native"; an unrecognized kind is a caller programming error (the config
// package validates this before a Gateway is ever constructed).
func New(kind, baseURL, apiKey, model string, timeoutSec int) (Gateway, error) {
	switch kind {
	case "openai_compat":
		return NewOpenAICompat(baseURL, apiKey, model, timeoutSec), nil
	case "native":
		return NewNative(baseURL, apiKey, model, timeoutSec), nil
	default:
		return nil, &unsupportedBackend{kind: kind}
	}
}

type unsupportedBackend struct{ kind string }

func (e *unsupportedBackend) Error() string {
	return "llmgateway: unsupported backend kind " + e.kind
}
