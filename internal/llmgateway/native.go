package llmgateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"vrenamer/internal/verrors"
)

// Native talks to a generateContent-shaped REST endpoint (the wire format
// original_source/llm/gemini.py speaks), since no Go SDK for that shape
// exists anywhere in the example pack. It reproduces the source's most
// load-bearing detail: the body is always read fully into memory and
// JSON-decoded manually, never handed to a streaming decoder that assumes
// the transport already decompressed it — a specific upstream has been
// observed to advertise Content-Encoding while returning raw bytes, and a
// decoder that trusts that header silently corrupts the response.
type Native struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
}

func NewNative(baseURL, apiKey, model string, timeoutSec int) *Native {
	if timeoutSec <= 0 {
		timeoutSec = 30
	}
	return &Native{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		timeout:    time.Duration(timeoutSec) * time.Second,
	}
}

type nativePart struct {
	Text       string        `json:"text,omitempty"`
	InlineData *nativeInline `json:"inline_data,omitempty"`
}

type nativeInline struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type nativeContent struct {
	Parts []nativePart `json:"parts"`
}

type nativeRequest struct {
	Contents         []nativeContent `json:"contents"`
	GenerationConfig map[string]any  `json:"generationConfig,omitempty"`
}

type nativeResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *Native) Classify(ctx context.Context, prompt string, images []string, opts Opts) (string, error) {
	parts := []nativePart{}
	if prompt != "" {
		parts = append(parts, nativePart{Text: prompt})
	}
	for _, path := range images {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", &verrors.APIError{Cause: fmt.Errorf("read image %s: %w", path, err)}
		}
		parts = append(parts, nativePart{InlineData: &nativeInline{
			MimeType: "image/jpeg",
			Data:     base64.StdEncoding.EncodeToString(data),
		}})
	}
	return g.generateContent(ctx, parts, opts)
}

func (g *Native) Generate(ctx context.Context, prompt string, opts Opts) (string, error) {
	return g.generateContent(ctx, []nativePart{{Text: prompt}}, opts)
}

func (g *Native) generateContent(ctx context.Context, parts []nativePart, opts Opts) (string, error) {
	genCfg := map[string]any{"temperature": opts.Temperature}
	if opts.MaxTokens > 0 {
		genCfg["maxOutputTokens"] = opts.MaxTokens
	}
	if opts.JSON {
		genCfg["responseMimeType"] = "application/json"
	}

	reqBody := nativeRequest{
		Contents:         []nativeContent{{Parts: parts}},
		GenerationConfig: genCfg,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &verrors.APIError{Cause: fmt.Errorf("marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)

	timeoutCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", &verrors.APIError{Cause: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &verrors.APIError{Cause: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	// Always read the full body as raw bytes, then decode manually.
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &verrors.APIError{Status: resp.StatusCode, Cause: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &verrors.APIError{Status: resp.StatusCode, Body: string(raw)}
	}

	var parsed nativeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &verrors.APIError{Status: resp.StatusCode, Body: string(raw), Cause: fmt.Errorf("decode response: %w", err)}
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", &verrors.APIError{Status: resp.StatusCode, Body: string(raw), Cause: fmt.Errorf("empty candidates array")}
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
