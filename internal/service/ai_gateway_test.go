package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"examforge_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGatewayForServer(srv *httptest.Server) *AIGateway {
	return NewAIGateway(config.AIConfig{
		BaseURL:        srv.URL,
		APIKey:         "test-key",
		Model:          "test-model",
		RequestTimeout: 5 * time.Second,
	})
}

func TestGatewayCompleteSuccess(t *testing.T) {
	var gotAuth string
	var gotBody chatCompletionRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "generated text"}},
			},
		})
	}))
	defer srv.Close()

	g := newGatewayForServer(srv)
	out, err := g.Complete(context.Background(), "draft something", CompletionOptions{Temperature: 0.7, MaxTokens: 2000})

	require.NoError(t, err)
	assert.Equal(t, "generated text", out)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotBody.Model)
	assert.InDelta(t, 0.7, gotBody.Temperature, 0.001)
	assert.Equal(t, 2000, gotBody.MaxTokens)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "draft something", gotBody.Messages[0].Content)
}

func TestGatewayCompleteStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		kind   GatewayErrorKind
	}{
		{http.StatusTooManyRequests, GatewayRateLimited},
		{http.StatusPaymentRequired, GatewayQuotaExhausted},
		{http.StatusInternalServerError, GatewayUnavailable},
		{http.StatusBadGateway, GatewayUnavailable},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		g := newGatewayForServer(srv)
		_, err := g.Complete(context.Background(), "p", draftOptions)
		srv.Close()

		var gerr *GatewayError
		require.ErrorAs(t, err, &gerr, "status %d", tt.status)
		assert.Equal(t, tt.kind, gerr.Kind)
		assert.Equal(t, tt.status, gerr.StatusCode)
	}
}

func TestGatewayCompleteMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	g := newGatewayForServer(srv)
	_, err := g.Complete(context.Background(), "p", draftOptions)

	var gerr *GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, GatewayTransport, gerr.Kind)
}

func TestGatewayCompleteEmbeddedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"message": "model overloaded"}}`))
	}))
	defer srv.Close()

	g := newGatewayForServer(srv)
	_, err := g.Complete(context.Background(), "p", draftOptions)

	var gerr *GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, GatewayUnavailable, gerr.Kind)
	assert.Contains(t, gerr.Error(), "model overloaded")
}

func TestGatewayCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	g := newGatewayForServer(srv)
	_, err := g.Complete(context.Background(), "p", draftOptions)

	var gerr *GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, GatewayUnavailable, gerr.Kind)
}

func TestGatewayCompleteConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // deliberately closed before the call

	g := newGatewayForServer(srv)
	_, err := g.Complete(context.Background(), "p", draftOptions)

	var gerr *GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, GatewayTransport, gerr.Kind)
}
