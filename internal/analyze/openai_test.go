package analyze

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperpulse/paperpulse/internal/domain"
)

func analysisPaper() domain.PaperRecord {
	return domain.PaperRecord{
		ID:    "arxiv:2608.01234",
		Title: "Test Paper",
		Authors: []domain.Author{
			{Name: "Ada Lovelace"},
		},
	}
}

func analysisContent() *domain.ExtractedContent {
	return &domain.ExtractedContent{
		PaperID: "arxiv:2608.01234",
		Text:    "We propose a method that improves accuracy by 4 points.",
	}
}

func openAISuccessBody(t *testing.T, analysis llmAnalysis) []byte {
	t.Helper()
	inner, err := json.Marshal(analysis)
	require.NoError(t, err)
	outer, err := json.Marshal(map[string]any{
		"id": "chatcmpl-1",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": string(inner)}},
		},
	})
	require.NoError(t, err)
	return outer
}

func newOpenAIProvider(baseURL string) *OpenAIProvider {
	return NewOpenAIProvider(OpenAIConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: baseURL,
	}, 0.3, 2*time.Second, 1000)
}

func TestOpenAIProvider_Analyze(t *testing.T) {
	t.Run("parses structured analysis", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var req chatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "json_object", req.ResponseFormat.Type)

			_, _ = w.Write(openAISuccessBody(t, llmAnalysis{
				TLDR:              "A method improves accuracy by 4 points.",
				KeyContributions:  []string{"New method", "4 point gain"},
				TechnicalInsights: []string{"Uses contrastive loss"},
				Topics:            []string{"representation learning"},
			}))
		}))
		defer server.Close()

		provider := newOpenAIProvider(server.URL)
		result, err := provider.Analyze(context.Background(), analysisPaper(), analysisContent())
		require.NoError(t, err)

		assert.Equal(t, "arxiv:2608.01234", result.PaperID)
		assert.Equal(t, "A method improves accuracy by 4 points.", result.TLDR)
		assert.Len(t, result.KeyContributions, 2)
		assert.Equal(t, "gpt-4o-mini", result.Model)
	})

	t.Run("429 is rate limited and transient", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": {"message": "Rate limit reached", "type": "rate_limit_error"}}`))
		}))
		defer server.Close()

		provider := newOpenAIProvider(server.URL)
		_, err := provider.Analyze(context.Background(), analysisPaper(), analysisContent())
		require.Error(t, err)

		var anaErr *domain.AnalysisError
		require.ErrorAs(t, err, &anaErr)
		assert.Equal(t, domain.ReasonRateLimited, anaErr.Reason)
		assert.True(t, anaErr.Transient())
	})

	t.Run("400 is a permanent model error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": {"message": "context length exceeded", "type": "invalid_request_error"}}`))
		}))
		defer server.Close()

		provider := newOpenAIProvider(server.URL)
		_, err := provider.Analyze(context.Background(), analysisPaper(), analysisContent())
		require.Error(t, err)

		var anaErr *domain.AnalysisError
		require.ErrorAs(t, err, &anaErr)
		assert.Equal(t, domain.ReasonModelError, anaErr.Reason)
		assert.False(t, anaErr.Transient())
	})

	t.Run("5xx is unreachable and transient", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		provider := newOpenAIProvider(server.URL)
		_, err := provider.Analyze(context.Background(), analysisPaper(), analysisContent())
		require.Error(t, err)

		var anaErr *domain.AnalysisError
		require.ErrorAs(t, err, &anaErr)
		assert.Equal(t, domain.ReasonUnreachable, anaErr.Reason)
		assert.True(t, domain.IsTransient(err))
	})

	t.Run("unparseable model output is a model error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			outer, _ := json.Marshal(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"role": "assistant", "content": "not json at all"}},
				},
			})
			_, _ = w.Write(outer)
		}))
		defer server.Close()

		provider := newOpenAIProvider(server.URL)
		_, err := provider.Analyze(context.Background(), analysisPaper(), analysisContent())
		require.Error(t, err)

		var anaErr *domain.AnalysisError
		require.ErrorAs(t, err, &anaErr)
		assert.Equal(t, domain.ReasonModelError, anaErr.Reason)
	})

	t.Run("connection failure is unreachable", func(t *testing.T) {
		provider := newOpenAIProvider("http://127.0.0.1:1")
		_, err := provider.Analyze(context.Background(), analysisPaper(), analysisContent())
		require.Error(t, err)

		var anaErr *domain.AnalysisError
		require.ErrorAs(t, err, &anaErr)
		assert.Equal(t, domain.ReasonUnreachable, anaErr.Reason)
	})
}
