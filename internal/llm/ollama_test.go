package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaClient_Generate(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(ollamaResponse{Response: "  niteesh_nlp.pdf \n"})
	}))
	defer srv.Close()

	cfg := DefaultOllamaConfig()
	cfg.BaseURL = srv.URL + "/"
	c := NewOllamaClient(cfg, srv.Client())

	out, err := c.GenerateContent(context.Background(), "pick one", TierLite)
	require.NoError(t, err)
	assert.Equal(t, "niteesh_nlp.pdf", out)
	assert.Equal(t, "llama3", got.Model)
	assert.False(t, got.Stream)
	assert.Empty(t, got.Format)
}

func TestOllamaClient_GenerateJSONSetsFormat(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(ollamaResponse{Response: "```json\n{\"a\":1}\n```"})
	}))
	defer srv.Close()

	cfg := DefaultOllamaConfig()
	cfg.BaseURL = srv.URL
	out, err := NewOllamaClient(cfg, srv.Client()).GenerateJSON(context.Background(), "p", TierStandard)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
	assert.Equal(t, "json", got.Format)
}

func TestOllamaClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := DefaultOllamaConfig()
	cfg.BaseURL = srv.URL
	_, err := NewOllamaClient(cfg, srv.Client()).GenerateContent(context.Background(), "p", TierLite)

	var apiErr *APICallError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestOllamaClient_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaResponse{Response: "   "})
	}))
	defer srv.Close()

	cfg := DefaultOllamaConfig()
	cfg.BaseURL = srv.URL
	_, err := NewOllamaClient(cfg, srv.Client()).GenerateContent(context.Background(), "p", TierLite)
	assert.Error(t, err)
}
