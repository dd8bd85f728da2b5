package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"financeguru/handler"
	"financeguru/internal/integrations/mistral"
	"financeguru/internal/integrations/paramstore"
	"financeguru/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	paramPrefix := mustEnv("PARAM_PREFIX")
	model := envDefault("MISTRAL_MODEL", "mistral-tiny")

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	apiKey, err := ssmClient.GetSecret(ctx, paramPrefix+"/mistral-api-key")
	if err != nil {
		slog.Error("failed to fetch API key", "err", err)
		os.Exit(1)
	}

	mistralClient, err := mistral.NewClient(apiKey)
	if err != nil {
		slog.Error("failed to create Mistral client", "err", err)
		os.Exit(1)
	}
	retrier, err := mistral.NewRetrier(mistralClient)
	if err != nil {
		slog.Error("failed to create retrier", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	advisor, err := usecase.NewAdvisorService(retrier, usecase.Config{Model: model})
	if err != nil {
		slog.Error("failed to create advisor service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(advisor, model, mistral.ValidKeyShape(apiKey))
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
