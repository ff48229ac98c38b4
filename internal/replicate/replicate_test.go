package replicate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eddogola/comic-gen/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var imageConfig = providers.ImageConfig{
	Model:      "black-forest-labs/flux-dev",
	Prompt:     "a dog with wings",
	NumOutputs: 1,
	Width:      768,
	Height:     768,
}

func TestReplicate_GenerateImage_Immediate(t *testing.T) {
	var body map[string]map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/models/black-forest-labs/flux-dev/predictions", r.URL.Path)
		assert.Equal(t, "Bearer r8-test", r.Header.Get("Authorization"))
		assert.Equal(t, "wait", r.Header.Get("Prefer"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"p1","status":"succeeded","output":["https://replicate.delivery/a.png","https://replicate.delivery/b.png"]}`)
	}))
	defer server.Close()

	r := New("r8-test", server.URL)
	got, err := r.GenerateImage(context.Background(), imageConfig)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://replicate.delivery/a.png", "https://replicate.delivery/b.png"}, got)

	input := body["input"]
	assert.Equal(t, "a dog with wings", input["prompt"])
	assert.EqualValues(t, 1, input["num_outputs"])
	assert.EqualValues(t, 768, input["width"])
	assert.EqualValues(t, 768, input["height"])
}

func TestReplicate_GenerateImage_Polls(t *testing.T) {
	var polls atomic.Int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer r8-test", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/v1/models/black-forest-labs/flux-dev/predictions":
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"id":"p1","status":"starting","urls":{"get":"%s/v1/predictions/p1"}}`, server.URL)
		case "/v1/predictions/p1":
			if polls.Add(1) < 2 {
				fmt.Fprintf(w, `{"id":"p1","status":"processing","urls":{"get":"%s/v1/predictions/p1"}}`, server.URL)
				return
			}
			fmt.Fprint(w, `{"id":"p1","status":"succeeded","output":["https://replicate.delivery/only.png"]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	r := New("r8-test", server.URL)
	r.PollInterval = time.Millisecond

	got, err := r.GenerateImage(context.Background(), imageConfig)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://replicate.delivery/only.png"}, got)
	assert.Equal(t, int32(2), polls.Load())
}

func TestReplicate_GenerateImage_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    string
		notWantErr string
	}{
		{name: "failed prediction", status: http.StatusCreated, body: `{"id":"p1","status":"failed","error":"NSFW content detected"}`, wantErr: "NSFW content detected"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"detail":"invalid token"}`, wantErr: "status 401", notWantErr: "invalid token"},
		{name: "malformed output", status: http.StatusCreated, body: `{"id":"p1","status":"succeeded","output":{"x":1}}`, wantErr: "prediction output is not a list"},
		{name: "single string output", status: http.StatusCreated, body: `{"id":"p1","status":"succeeded","output":"https://replicate.delivery/only.png"}`, wantErr: "prediction output is not a list"},
		{name: "settling without polling url", status: http.StatusCreated, body: `{"id":"p1","status":"starting"}`, wantErr: "no polling url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := New("r8-test", server.URL).GenerateImage(context.Background(), imageConfig)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			if tt.notWantErr != "" {
				assert.NotContains(t, err.Error(), tt.notWantErr)
			}
		})
	}
}

func TestReplicate_GenerateImage_CancelsAbandonedPrediction(t *testing.T) {
	var canceled atomic.Bool
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer r8-test", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/v1/predictions/p1/cancel":
			assert.Equal(t, http.MethodPost, r.Method)
			canceled.Store(true)
			fmt.Fprint(w, `{"id":"p1","status":"canceled"}`)
		default:
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"id":"p1","status":"processing","urls":{"get":"%[1]s/v1/predictions/p1","cancel":"%[1]s/v1/predictions/p1/cancel"}}`, server.URL)
		}
	}))
	defer server.Close()

	r := New("r8-test", server.URL)
	r.PollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.GenerateImage(ctx, imageConfig)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, canceled.Load(), "prediction should be canceled once the caller gives up")
}

func TestReplicate_GenerateImage_NullOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"p1","status":"succeeded","output":null}`)
	}))
	defer server.Close()

	got, err := New("r8-test", server.URL).GenerateImage(context.Background(), imageConfig)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReplicate_GenerateImage_MissingToken(t *testing.T) {
	_, err := New("", "").GenerateImage(context.Background(), imageConfig)
	assert.ErrorContains(t, err, "REPLICATE_API_TOKEN")
}
