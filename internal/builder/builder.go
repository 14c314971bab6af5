package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/futig/joke-flows/internal/api"
	flowapi "github.com/futig/joke-flows/internal/api/flow"
	"github.com/futig/joke-flows/internal/api/middleware"
	"github.com/futig/joke-flows/internal/cli"
	"github.com/futig/joke-flows/internal/config"
	"github.com/futig/joke-flows/internal/pkg/logger"
	"github.com/futig/joke-flows/internal/telegram"
)

// Build assembles the HTTP server for the given environment
func Build(environment string) (*App, error) {
	cfg, err := config.LoadConfig(environment)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	return BuildWithConfig(context.Background(), cfg, log)
}

// BuildWithConfig assembles the HTTP server from an already parsed config
func BuildWithConfig(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	log.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
		zap.String("vector_store", cfg.VectorStore),
		zap.Bool("mocks", cfg.EnableMocks),
	)

	services, err := buildServices(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	auth, err := middleware.Auth(cfg.AuthCfg)
	if err != nil {
		services.Close()
		return nil, fmt.Errorf("setup auth: %w", err)
	}

	flowHandler := flowapi.NewHandler(services.Flows, services.Ingester, services.Validator)
	router := api.SetupRouter(flowHandler, auth, services.Metrics, log)
	log.Info("HTTP router configured", zap.String("auth_policy", cfg.AuthCfg.Policy))

	// Flow runs wait on the model and the joke API, so writes get more room than reads
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server:   server,
		services: services,
		logger:   log,
	}, nil
}

// BuildTelegramBot creates the Telegram bot. The returned func releases its resources.
func BuildTelegramBot(environment string) (telegram.Bot, *zap.Logger, func(), error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig(environment)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	log.Info("Building Telegram bot",
		zap.String("environment", cfg.Environment),
		zap.String("flow", cfg.TelegramCfg.Flow),
	)

	services, err := buildServices(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}

	bot, err := telegram.NewBot(&cfg.TelegramCfg, services.Flows, log)
	if err != nil {
		services.Close()
		return nil, nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	log.Info("Telegram bot built successfully")
	return bot, log, services.Close, nil
}

// LoadCLIServices is the flowctl loader. CLI output goes to stdout, so logs stay at warn.
func LoadCLIServices(ctx context.Context, environment string) (*cli.Services, error) {
	cfg, err := config.LoadConfig(environment)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.LogLevel
	if level == "info" || level == "debug" {
		level = "warn"
	}
	log, err := logger.New(level)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	services, err := buildServices(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return &cli.Services{
		Flows:    services.Flows,
		Ingester: services.Ingester,
		Logger:   log,
		Close: func() {
			services.Close()
			_ = log.Sync()
		},
	}, nil
}
