package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/hirosato/go-bill-ledger/internal/api/middleware"
	"github.com/hirosato/go-bill-ledger/internal/app"
	envconfig "github.com/hirosato/go-bill-ledger/internal/common/config"
	"github.com/hirosato/go-bill-ledger/internal/domain/mcp"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	config, err := envconfig.LoadFromEnv()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.SlogLevel()}))
	slog.SetDefault(logger)

	// Open the configured store. Lambda reuses the process, so the
	// repositories live until the runtime shuts it down.
	repos, err := app.OpenRepositories(context.Background(), config, logger)
	if err != nil {
		logger.Error("Failed to open store", "backend", config.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer repos.Close()

	services := app.NewServices(repos, config.DefaultCurrency, logger)

	mcpService := mcp.NewService(logger, newRegistry(services))
	handler := NewMCPRequestHandler(mcpService, !config.IsProd())

	lambda.Start(middleware.Chain(logger, handler.HandleRequest,
		middleware.NewLoggingMiddleware(),
		middleware.NewRecoveryMiddleware(),
	))
}
