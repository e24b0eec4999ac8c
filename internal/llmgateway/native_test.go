package llmgateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNativeGenerateHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": `{"names":["foo"]}`}}}},
			},
		})
	}))
	defer srv.Close()

	g := NewNative(srv.URL, "key", "gemini-flash-latest", 5)
	out, err := g.Generate(context.Background(), "name this video", Opts{JSON: true, Temperature: 0.7})
	require.NoError(t, err)
	require.Equal(t, `{"names":["foo"]}`, out)
}

func TestNativeNon2xxSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	g := NewNative(srv.URL, "key", "gemini-flash-latest", 5)
	_, err := g.Generate(context.Background(), "hello", Opts{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestNativeEmptyCandidatesSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer srv.Close()

	g := NewNative(srv.URL, "key", "gemini-flash-latest", 5)
	_, err := g.Generate(context.Background(), "hello", Opts{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty candidates")
}
