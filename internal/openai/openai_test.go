package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eddogola/comic-gen/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAI_GenerateText(t *testing.T) {
	var request struct {
		Model       string        `json:"model"`
		Temperature float64       `json:"temperature"`
		Messages    []chatMessage `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"one\ntwo"}}]}`)
	}))
	defer server.Close()

	o := New("sk-test", server.URL+"/")
	got, err := o.GenerateText(context.Background(), providers.Config{
		Model:        "gpt-4o",
		Temperature:  0.7,
		SystemPrompt: "be a comic writer",
		Prompt:       "a dog learns to fly",
	})
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", got)

	assert.Equal(t, "gpt-4o", request.Model)
	assert.Equal(t, 0.7, request.Temperature)
	assert.Equal(t, []chatMessage{
		{Role: "system", Content: "be a comic writer"},
		{Role: "user", Content: "a dog learns to fly"},
	}, request.Messages)
}

func TestOpenAI_GenerateText_Responses(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
		wantErr  bool
	}{
		{name: "null content", status: http.StatusOK, body: `{"choices":[{"message":{"content":null}}]}`, expected: ""},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: true},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantErr: true},
		{name: "bad json", status: http.StatusOK, body: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			got, err := New("sk-test", server.URL).GenerateText(context.Background(), providers.Config{Prompt: "p"})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestOpenAI_GenerateText_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := New("sk-test", server.URL).GenerateText(context.Background(), providers.Config{Prompt: "p"})
	var se *providers.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
}

func TestOpenAI_GenerateText_MissingKey(t *testing.T) {
	_, err := New("", "").GenerateText(context.Background(), providers.Config{Prompt: "p"})
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}
