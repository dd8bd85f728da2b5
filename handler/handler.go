// Package handler adapts the advisor use case to the Lambda proxy event
// model. It mirrors the JSON contract of the HTTP server package.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"financeguru/internal/domain"
	"financeguru/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

type AdvisorUseCase interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
	Sentiment(ctx context.Context, text string) usecase.SentimentOutput
}

type Handler struct {
	advisor AdvisorUseCase
	model   string
	keyOK   bool
}

type chatRequest struct {
	UserInput string                    `json:"user_input"`
	UserID    string                    `json:"user_id"`
	History   []domain.ConversationTurn `json:"conversation_history"`
}

type chatResponse struct {
	Response  string `json:"response"`
	UserID    string `json:"user_id"`
	Validated *bool  `json:"validated,omitempty"`
	Err       string `json:"error,omitempty"`
}

type sentimentRequest struct {
	Text string `json:"text"`
}

type sentimentResponse struct {
	Sentiment string `json:"sentiment"`
	InputText string `json:"input_text"`
	Err       string `json:"error,omitempty"`
}

type healthResponse struct {
	Status        string `json:"status"`
	MistralStatus string `json:"mistral_api_status"`
	Model         string `json:"model"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHandler(advisor AdvisorUseCase, model string, keyOK bool) (*Handler, error) {
	if advisor == nil {
		return nil, errors.New("handler: advisor use case must not be nil")
	}
	return &Handler{advisor: advisor, model: model, keyOK: keyOK}, nil
}

// Handle routes a proxy event to the matching endpoint. Transport errors are
// expressed as status codes in the response, never as a returned error.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := correlationIDFrom(event.Headers)

	switch {
	case event.HTTPMethod == http.MethodPost && event.Path == "/api/chat":
		return h.handleChat(ctx, event, correlationID), nil
	case event.HTTPMethod == http.MethodPost && event.Path == "/api/sentiment":
		return h.handleSentiment(ctx, event, correlationID), nil
	case event.HTTPMethod == http.MethodGet && event.Path == "/api/health":
		return h.handleHealth(correlationID), nil
	}

	return respond(http.StatusNotFound, errorResponse{Error: "not found"}, correlationID), nil
}

func (h *Handler) handleChat(ctx context.Context, event events.APIGatewayProxyRequest, correlationID string) events.APIGatewayProxyResponse {
	var req chatRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		return respond(http.StatusBadRequest, errorResponse{Error: "Please provide user input"}, correlationID)
	}

	out, err := h.advisor.Chat(ctx, usecase.ChatInput{
		UserInput: req.UserInput,
		UserID:    req.UserID,
		History:   req.History,
	})
	if err != nil {
		var ucErr *usecase.Error
		if errors.As(err, &ucErr) && ucErr.Code == usecase.ErrorInvalidInput {
			return respond(http.StatusBadRequest, errorResponse{Error: "Please provide user input"}, correlationID)
		}
		slog.Error("chat request failed", "correlation_id", correlationID, "err", err)
		return respond(http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)}, correlationID)
	}

	return respond(http.StatusOK, chatResponse{
		Response:  out.Response,
		UserID:    out.UserID,
		Validated: out.Validated,
		Err:       out.Err,
	}, correlationID)
}

func (h *Handler) handleSentiment(ctx context.Context, event events.APIGatewayProxyRequest, correlationID string) events.APIGatewayProxyResponse {
	var req sentimentRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil || req.Text == "" {
		return respond(http.StatusBadRequest, errorResponse{Error: "Please provide text for analysis"}, correlationID)
	}

	out := h.advisor.Sentiment(ctx, req.Text)
	return respond(http.StatusOK, sentimentResponse{
		Sentiment: out.Sentiment,
		InputText: out.InputText,
		Err:       out.Err,
	}, correlationID)
}

func (h *Handler) handleHealth(correlationID string) events.APIGatewayProxyResponse {
	resp := healthResponse{Status: "ok", MistralStatus: "connected", Model: h.model}
	if !h.keyOK {
		resp.Status = "error"
		resp.MistralStatus = "error: Invalid API key"
	}
	return respond(http.StatusOK, resp, correlationID)
}

func correlationIDFrom(headers map[string]string) string {
	for key, value := range headers {
		if http.CanonicalHeaderKey(key) == correlationHeader && value != "" {
			return value
		}
	}
	return uuid.NewString()
}

func respond(status int, body any, correlationID string) events.APIGatewayProxyResponse {
	encoded, err := json.Marshal(body)
	if err != nil {
		slog.Error("failed to encode response body", "err", err)
		status = http.StatusInternalServerError
		encoded = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(encoded),
	}
}
