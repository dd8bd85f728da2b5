// Package server exposes the advisor over HTTP for container and local
// deployments. The Lambda deployment uses the handler package instead; both
// speak the same JSON shapes.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"financeguru/internal/domain"
	"financeguru/internal/usecase"
)

const requestIDHeader = "X-Request-Id"

// AdvisorUseCase is the slice of the chat service the transport needs.
type AdvisorUseCase interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
	Sentiment(ctx context.Context, text string) usecase.SentimentOutput
}

type Config struct {
	// AllowOrigins feeds the CORS policy; requests from other origins are
	// rejected by the browser, not the server.
	AllowOrigins []string
	// Model is reported by the health endpoint.
	Model string
	// APIKeyConfigured reflects the startup key-shape check; health reports
	// an error status when it is false.
	APIKeyConfigured bool
}

type Server struct {
	advisor AdvisorUseCase
	cfg     Config
	engine  *gin.Engine
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

func New(advisor AdvisorUseCase, cfg Config) (*Server, error) {
	if advisor == nil {
		return nil, errors.New("server: advisor use case must not be nil")
	}

	s := &Server{advisor: advisor, cfg: cfg}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	engine.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", requestIDHeader},
		MaxAge:       12 * time.Hour,
	}))

	api := engine.Group("/api")
	api.POST("/chat", s.handleChat)
	api.POST("/sentiment", s.handleSentiment)
	api.GET("/health", s.handleHealth)

	s.engine = engine
	return s, nil
}

// Handler returns the HTTP entry point for the caller's http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Please provide user input"})
		return
	}

	out, err := s.advisor.Chat(c.Request.Context(), usecase.ChatInput{
		UserInput: req.UserInput,
		UserID:    req.UserID,
		History:   req.History,
	})
	if err != nil {
		var ucErr *usecase.Error
		if errors.As(err, &ucErr) && ucErr.Code == usecase.ErrorInvalidInput {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "Please provide user input"})
			return
		}
		slog.Error("chat request failed", "err", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)})
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		Response:  out.Response,
		UserID:    out.UserID,
		Validated: out.Validated,
		Err:       out.Err,
	})
}

func (s *Server) handleSentiment(c *gin.Context) {
	var req sentimentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Please provide text for analysis"})
		return
	}

	out := s.advisor.Sentiment(c.Request.Context(), req.Text)
	c.JSON(http.StatusOK, sentimentResponse{
		Sentiment: out.Sentiment,
		InputText: out.InputText,
		Err:       out.Err,
	})
}

// handleHealth reports key configuration without spending remote quota.
func (s *Server) handleHealth(c *gin.Context) {
	resp := healthResponse{
		Status:        "ok",
		MistralStatus: "connected",
		Model:         s.cfg.Model,
	}
	if !s.cfg.APIKeyConfigured {
		resp.Status = "error"
		resp.MistralStatus = "error: Invalid API key"
	}
	c.JSON(http.StatusOK, resp)
}

// requestLogger tags each request with an id and emits one summary line.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, requestID)

		start := time.Now()
		c.Next()

		slog.Info("request handled",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
