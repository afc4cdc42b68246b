package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAI(t *testing.T, mux *http.ServeMux) *OpenAIService {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOpenAIService("test-key", server.URL+"/v1", "", "", log)
}

func TestOpenAIService_GenerateImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/images/generations", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "b64_json", req["response_format"])
		assert.Equal(t, DefaultOpenAIImageModel, req["model"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data":    []map[string]any{{"b64_json": base64.StdEncoding.EncodeToString(png)}},
		})
	})

	img, err := newTestOpenAI(t, mux).GenerateImage(context.Background(), "A fox in a meadow")
	require.NoError(t, err)
	assert.Equal(t, png, img)
}

func TestOpenAIService_GenerateImage_Empty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/images/generations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[]}`))
	})

	_, err := newTestOpenAI(t, mux).GenerateImage(context.Background(), "anything")
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestOpenAIService_GenerateText(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  DefaultOpenAITextModel,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "<STORY>Hi.</STORY>"},
			}},
		})
	})

	text, err := newTestOpenAI(t, mux).GenerateText(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "<STORY>Hi.</STORY>", text)
}

func TestOpenAIService_GenerateText_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})

	_, err := newTestOpenAI(t, mux).GenerateText(context.Background(), "prompt")
	assert.Error(t, err)
}
