package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/acarlson90/polls/internal/api"
	"github.com/acarlson90/polls/internal/api/middleware"
	"github.com/acarlson90/polls/internal/auth"
	"github.com/acarlson90/polls/internal/config"
	"github.com/acarlson90/polls/internal/database"
	"github.com/acarlson90/polls/internal/metrics"
	"github.com/acarlson90/polls/internal/poll"
	"github.com/acarlson90/polls/internal/policy"
	"github.com/acarlson90/polls/internal/token"
	"github.com/acarlson90/polls/openapi"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "polls: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, cfg.DatabaseURL); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("database migrations applied")
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	codec, err := token.NewCodec([]byte(cfg.JWTSecret), cfg.JWTTTL)
	if err != nil {
		return fmt.Errorf("building token codec: %w", err)
	}

	accessPolicy := policy.Default()
	if cfg.AccessPolicyFile != "" {
		accessPolicy, err = policy.Load(cfg.AccessPolicyFile)
		if err != nil {
			return fmt.Errorf("loading access policy: %w", err)
		}
		logger.Info("access policy loaded", zap.String("file", cfg.AccessPolicyFile), zap.Int("rules", len(accessPolicy.Rules())))
	}

	reg := metrics.NewRegistry()

	userRepo := auth.NewRepository(db.Pool())
	pollRepo := poll.NewRepository(db.Pool())

	authService := auth.NewService(userRepo, codec, cfg.BcryptCost, logger.Named("auth"))
	if _, err := authService.BootstrapAdmin(ctx, auth.AdminAccount{
		Username: cfg.BootstrapAdminUsername,
		Email:    cfg.BootstrapAdminEmail,
		Password: cfg.BootstrapAdminPassword,
	}); err != nil {
		return fmt.Errorf("bootstrapping admin: %w", err)
	}

	aggregator := poll.NewAggregator(pollRepo, userRepo)
	ledger := poll.NewLedger(pollRepo, aggregator, reg)
	pollService := poll.NewService(pollRepo, userRepo, aggregator)

	router := api.NewRouter(api.RouterDeps{
		Logger:         logger,
		Metrics:        reg,
		DBPinger:       db,
		Version:        cfg.Version,
		OpenAPISpec:    openapi.Document,
		RequestTimeout: cfg.RequestTimeout,
		Authenticator:  middleware.NewAuthenticator(codec, auth.NewResolver(userRepo), reg, logger.Named("authn")),
		Policy:         accessPolicy,
		Polls:          pollService,
		Votes:          ledger,
		SignIn:         authService,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting polls server", zap.Int("port", cfg.Port), zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down server")
	case err := <-serverErr:
		return fmt.Errorf("serving http: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
