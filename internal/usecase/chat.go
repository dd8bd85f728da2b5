// Package usecase orchestrates a single chat request: heuristic validation,
// prompt assembly, the resilient remote call, post-processing, and the
// deterministic fallback when the remote path fails.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"financeguru/internal/domain"
	"financeguru/internal/fallback"
	"financeguru/internal/validate"
)

const (
	defaultUserID = "anonymous"

	shortInputLimit = 5

	chatTemperature = 0.7
	chatMaxTokens   = 800
	chatMaxRetries  = 3

	sentimentTemperature = 0.1
	sentimentMaxTokens   = 50
	sentimentMaxRetries  = 3

	welcomePhrase = "welcome to financeguru"

	welcomeMessage    = "Welcome to FinanceGuru, your personalized financial planning assistant. How can I help with your financial planning today?"
	helloAgainMessage = "Hello again! Do you have any specific financial questions I can help with?"
	moreDetailMessage = "Could you provide more details so I can better assist with your financial planning?"
	techIssueMessage  = "Sorry, there was a technical issue with our financial system. Please try asking a simpler question about investing or saving."

	unusualAgeOverride = "I notice you mentioned an unusual age. To provide you with accurate financial advice, could you please share your actual age? Financial advice should be tailored to realistic life stages and timelines."
)

var greetingTokens = map[string]bool{
	"hi":    true,
	"hello": true,
	"hey":   true,
	"hii":   true,
}

// CompletionClient is the remote completion capability. In production it is
// the retrying Mistral client; tests inject stubs.
type CompletionClient interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}

// Config is assembled once at process start and injected; request handling
// never reads ambient globals.
type Config struct {
	Model         string
	SystemMessage string // defaults to DefaultSystemMessage when empty
}

type AdvisorService struct {
	llm           CompletionClient
	model         string
	systemMessage string
}

type ChatInput struct {
	UserInput string
	UserID    string
	History   []domain.ConversationTurn
	// SentimentHint optionally annotates the system message with a
	// previously computed sentiment.
	SentimentHint string
}

type ChatOutput struct {
	Response string
	UserID   string
	// Validated is false when heuristic validation rejected the input, nil
	// when validation was not the deciding step.
	Validated *bool
	// Err carries the underlying remote failure when the response came from
	// the fallback path. The request itself still succeeds.
	Err string
}

type SentimentOutput struct {
	Sentiment string
	InputText string
	Err       string
}

func NewAdvisorService(llm CompletionClient, cfg Config) (*AdvisorService, error) {
	if llm == nil {
		return nil, errors.New("usecase: completion client must not be nil")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	systemMessage := cfg.SystemMessage
	if systemMessage == "" {
		systemMessage = DefaultSystemMessage
	}
	return &AdvisorService{
		llm:           llm,
		model:         cfg.Model,
		systemMessage: systemMessage,
	}, nil
}

// Chat runs the full pipeline for one request. It returns an error only for
// missing input; every other failure mode degrades into a normal response
// with the detail embedded in ChatOutput.Err.
func (s *AdvisorService) Chat(ctx context.Context, in ChatInput) (out ChatOutput, err error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		userID = defaultUserID
	}
	out.UserID = userID

	input := strings.TrimSpace(in.UserInput)
	if input == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "empty_user_input", nil)
	}

	// The caller must never see a hard failure from this flow; a panic
	// anywhere below becomes the fixed technical-difficulty response.
	defer func() {
		if r := recover(); r != nil {
			out = ChatOutput{
				Response: techIssueMessage,
				UserID:   userID,
				Err:      fmt.Sprintf("%v", r),
			}
			err = nil
		}
	}()

	if len(input) < shortInputLimit {
		out.Response = shortInputResponse(input, len(in.History) > 0)
		return out, nil
	}

	if v := validate.Validate(input); !v.Valid {
		rejected := false
		out.Response = v.Message
		out.Validated = &rejected
		return out, nil
	}

	messages := buildPromptMessages(
		annotateWithSentiment(s.systemMessage+additionalChatRules, in.SentimentHint),
		in.History,
		input,
	)

	text, llmErr := s.llm.Complete(ctx, domain.CompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
		MaxRetries:  chatMaxRetries,
	})
	if llmErr != nil {
		out.Response = fallback.Build(input)
		out.Err = llmErr.Error()
		return out, nil
	}

	out.Response = postProcess(input, strings.TrimSpace(text), len(in.History) > 0)
	return out, nil
}

// Sentiment classifies financial text as negative, neutral or positive.
// Remote failures degrade to neutral with the detail attached.
func (s *AdvisorService) Sentiment(ctx context.Context, text string) SentimentOutput {
	messages := []domain.ChatMessage{
		{Role: "system", Content: "You are a financial sentiment analysis assistant."},
		{Role: "user", Content: fmt.Sprintf("What is the sentiment of this financial text? Please respond with only one word: negative, neutral, or positive.\n\nText: %s", text)},
	}

	raw, err := s.llm.Complete(ctx, domain.CompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: sentimentTemperature,
		MaxTokens:   sentimentMaxTokens,
		MaxRetries:  sentimentMaxRetries,
	})
	if err != nil {
		return SentimentOutput{Sentiment: "neutral", InputText: text, Err: err.Error()}
	}

	return SentimentOutput{Sentiment: classifySentiment(raw), InputText: text}
}

func classifySentiment(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(lowered, "negative"):
		return "negative"
	case strings.Contains(lowered, "positive"):
		return "positive"
	case strings.Contains(lowered, "neutral"):
		return "neutral"
	}
	return "unknown"
}

// shortInputResponse handles inputs under the length threshold without
// touching validation or the remote model.
func shortInputResponse(input string, hasHistory bool) string {
	if greetingTokens[strings.ToLower(input)] {
		if hasHistory {
			return helloAgainMessage
		}
		return welcomeMessage
	}
	return moreDetailMessage
}

// postProcess applies the welcome-phrase strip and the unusual-age safety
// override. The override cannot be bypassed by the remote model's output.
func postProcess(input, text string, hasHistory bool) string {
	if hasHistory {
		if idx := strings.Index(strings.ToLower(text), welcomePhrase); idx >= 0 {
			text = capitalizeFirst(strings.TrimSpace(text[idx+len(welcomePhrase):]))
		}
	}

	loweredInput := strings.ToLower(input)
	if strings.Contains(loweredInput, "1000 year") || strings.Contains(loweredInput, "500 year") {
		loweredText := strings.ToLower(text)
		if strings.Contains(loweredText, "investment plan") || strings.Contains(loweredText, "allocation") {
			return unusualAgeOverride
		}
	}
	return text
}

func capitalizeFirst(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
