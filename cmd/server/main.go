package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"

	"financeguru/internal/integrations/mistral"
	"financeguru/internal/integrations/paramstore"
	"financeguru/internal/server"
	"financeguru/internal/usecase"
)

func main() {
	ctx := context.Background()

	// Local development convenience; absent .env files are not an error.
	_ = godotenv.Load()

	// ---- Configuration (read only here) ----
	model := envDefault("MISTRAL_MODEL", "mistral-tiny")
	port := envInt("PORT", 5000)
	origins := strings.Split(envDefault("CORS_ORIGINS", "https://finance-bot-frontend.vercel.app"), ",")

	apiKey, err := resolveAPIKey(ctx)
	if err != nil {
		slog.Error("failed to resolve API key", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
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

	// ---- Service and server ----
	advisor, err := usecase.NewAdvisorService(retrier, usecase.Config{Model: model})
	if err != nil {
		slog.Error("failed to create advisor service", "err", err)
		os.Exit(1)
	}

	srv, err := server.New(advisor, server.Config{
		AllowOrigins:     origins,
		Model:            model,
		APIKeyConfigured: mistral.ValidKeyShape(apiKey),
	})
	if err != nil {
		slog.Error("failed to create server", "err", err)
		os.Exit(1)
	}

	addr := ":" + strconv.Itoa(port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("listening", "addr", addr, "model", model)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// resolveAPIKey prefers the environment and falls back to Parameter Store
// when PARAM_PREFIX is set.
func resolveAPIKey(ctx context.Context) (string, error) {
	if key := os.Getenv("MISTRAL_API_KEY"); key != "" {
		return key, nil
	}

	paramPrefix := mustEnv("PARAM_PREFIX")
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return "", err
	}
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		return "", err
	}
	return ssmClient.GetSecret(ctx, paramPrefix+"/mistral-api-key")
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

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
