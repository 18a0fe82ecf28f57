package generator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sladedevelops/email-microwave/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.OpenAIConfig{
		APIKey:  "test-key",
		Model:   "gpt-3.5-turbo",
		BaseURL: srv.URL,
	}, zap.NewNop())
}

func completionResponse(content string) []byte {
	out, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return out
}

func TestGenerate_ParsesJSONDraft(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "Dana")
		assert.Contains(t, string(body), "Acme Corp")

		w.Write(completionResponse(`{"subject":"Quick question","content":"Hi Dana,..."}`))
	})

	draft, err := client.Generate(context.Background(), Request{
		RecipientName:         "Dana",
		RecipientOrganization: "Acme Corp",
		DesiredOutcome:        "schedule a call",
		Tone:                  "warm",
	})
	require.NoError(t, err)
	assert.Equal(t, "Quick question", draft.Subject)
	assert.Equal(t, "Hi Dana,...", draft.Content)
}

func TestGenerate_FallbackOnPlainText(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionResponse("Dear Dana, here is a plain email."))
	})

	draft, err := client.Generate(context.Background(), Request{
		RecipientName:         "Dana",
		RecipientOrganization: "Acme Corp",
		DesiredOutcome:        "schedule a call",
		Tone:                  "formal",
	})
	require.NoError(t, err)
	assert.Equal(t, "Professional Communication", draft.Subject)
	assert.Equal(t, "Dear Dana, here is a plain email.", draft.Content)
}

func TestGenerate_UpstreamError(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limit"}`, http.StatusTooManyRequests)
	})

	_, err := client.Generate(context.Background(), Request{
		RecipientName:         "Dana",
		RecipientOrganization: "Acme Corp",
		DesiredOutcome:        "schedule a call",
		Tone:                  "casual",
	})
	assert.Error(t, err)
}

func TestGenerate_EmptyChoices(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Generate(context.Background(), Request{
		RecipientName:         "Dana",
		RecipientOrganization: "Acme Corp",
		DesiredOutcome:        "schedule a call",
		Tone:                  "warm",
	})
	assert.Error(t, err)
}
