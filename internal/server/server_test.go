package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"financeguru/internal/usecase"
)

type stubAdvisor struct {
	chatOut      usecase.ChatOutput
	chatErr      error
	chatIn       usecase.ChatInput
	sentimentOut usecase.SentimentOutput
	sentimentIn  string
}

func (s *stubAdvisor) Chat(_ context.Context, in usecase.ChatInput) (usecase.ChatOutput, error) {
	s.chatIn = in
	return s.chatOut, s.chatErr
}

func (s *stubAdvisor) Sentiment(_ context.Context, text string) usecase.SentimentOutput {
	s.sentimentIn = text
	return s.sentimentOut
}

func newTestServer(t *testing.T, advisor AdvisorUseCase, cfg Config) *httptest.Server {
	t.Helper()
	srv, err := New(advisor, cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestNew_ValidatesDependency(t *testing.T) {
	_, err := New(nil, Config{})
	require.Error(t, err)
}

func TestChat_HappyPath(t *testing.T) {
	advisor := &stubAdvisor{chatOut: usecase.ChatOutput{Response: "Diversify.", UserID: "user-1"}}
	ts := newTestServer(t, advisor, Config{Model: "mistral-tiny", APIKeyConfigured: true})

	resp := postJSON(t, ts.URL+"/api/chat", `{
		"user_input": "how should I invest 5000?",
		"user_id": "user-1",
		"conversation_history": [{"user_message": "hi", "assistant_message": "Welcome!"}]
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	out := decode[chatResponse](t, resp)
	require.Equal(t, "Diversify.", out.Response)
	require.Equal(t, "user-1", out.UserID)
	require.Nil(t, out.Validated)
	require.Empty(t, out.Err)

	require.Equal(t, "how should I invest 5000?", advisor.chatIn.UserInput)
	require.Len(t, advisor.chatIn.History, 1)
	require.Equal(t, "hi", advisor.chatIn.History[0].UserMessage)
}

func TestChat_EmptyInput(t *testing.T) {
	advisor := &stubAdvisor{chatErr: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "empty_user_input"}}
	ts := newTestServer(t, advisor, Config{})

	resp := postJSON(t, ts.URL+"/api/chat", `{"user_input": ""}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	out := decode[errorResponse](t, resp)
	require.Equal(t, "Please provide user input", out.Error)
}

func TestChat_MalformedBody(t *testing.T) {
	ts := newTestServer(t, &stubAdvisor{}, Config{})

	resp := postJSON(t, ts.URL+"/api/chat", `not-json`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChat_ValidationRejectionCarriesFlag(t *testing.T) {
	rejected := false
	advisor := &stubAdvisor{chatOut: usecase.ChatOutput{
		Response:  "Could you please confirm your actual age?",
		UserID:    "anonymous",
		Validated: &rejected,
	}}
	ts := newTestServer(t, advisor, Config{})

	resp := postJSON(t, ts.URL+"/api/chat", `{"user_input": "I am 1000 years old and want to invest"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[chatResponse](t, resp)
	require.NotNil(t, out.Validated)
	require.False(t, *out.Validated)
}

func TestChat_FallbackErrorDetailInBody(t *testing.T) {
	advisor := &stubAdvisor{chatOut: usecase.ChatOutput{
		Response: "Thanks for reaching out to FinanceGuru!",
		UserID:   "anonymous",
		Err:      "mistral: rate limited after 3 attempts: 429",
	}}
	ts := newTestServer(t, advisor, Config{})

	resp := postJSON(t, ts.URL+"/api/chat", `{"user_input": "should I buy stocks now?"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[chatResponse](t, resp)
	require.Contains(t, out.Err, "rate limited")
}

func TestSentiment_HappyPath(t *testing.T) {
	advisor := &stubAdvisor{sentimentOut: usecase.SentimentOutput{Sentiment: "negative", InputText: "markets fell"}}
	ts := newTestServer(t, advisor, Config{})

	resp := postJSON(t, ts.URL+"/api/sentiment", `{"text": "markets fell"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[sentimentResponse](t, resp)
	require.Equal(t, "negative", out.Sentiment)
	require.Equal(t, "markets fell", out.InputText)
	require.Equal(t, "markets fell", advisor.sentimentIn)
}

func TestSentiment_MissingText(t *testing.T) {
	ts := newTestServer(t, &stubAdvisor{}, Config{})

	resp := postJSON(t, ts.URL+"/api/sentiment", `{"text": ""}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	out := decode[errorResponse](t, resp)
	require.Equal(t, "Please provide text for analysis", out.Error)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &stubAdvisor{}, Config{Model: "mistral-tiny", APIKeyConfigured: true})

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[healthResponse](t, resp)
	require.Equal(t, "ok", out.Status)
	require.Equal(t, "connected", out.MistralStatus)
	require.Equal(t, "mistral-tiny", out.Model)
}

func TestHealth_UnconfiguredKey(t *testing.T) {
	ts := newTestServer(t, &stubAdvisor{}, Config{Model: "mistral-tiny"})

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	out := decode[healthResponse](t, resp)
	require.Equal(t, "error", out.Status)
	require.Equal(t, "error: Invalid API key", out.MistralStatus)
}

func TestRequestID_Propagated(t *testing.T) {
	ts := newTestServer(t, &stubAdvisor{}, Config{Model: "m", APIKeyConfigured: true})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "req-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "req-123", resp.Header.Get("X-Request-Id"))
}
