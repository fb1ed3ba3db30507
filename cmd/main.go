package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedly-sync/account"
	"feedly-sync/config"
	"feedly-sync/driver"
	"feedly-sync/handler"
	"feedly-sync/operation"
	"feedly-sync/repository"
	"feedly-sync/security"
	"feedly-sync/service"
	"feedly-sync/service/scheduler"
	"feedly-sync/usecase"

	_ "github.com/lib/pq"
)

func main() {
	healthCheck := flag.Bool("health-check", false, "Probe the local /health endpoint and exit")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	if *healthCheck {
		os.Exit(runHealthCheck(os.Getenv("HTTP_PORT"), os.Stdout))
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("feedly-sync starting",
		"service", cfg.ServiceName,
		"sync_interval", cfg.Sync.Interval,
		"page_size", cfg.Feedly.PageSize,
		"kubernetes_token_storage", cfg.Kubernetes.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("feedly-sync failed", "error", err)
		os.Exit(1)
	}
	logger.Info("feedly-sync stopped")
}

func parseLogLevel(value string) slog.Level {
	switch value {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	tokenRepo, err := newTokenRepository(cfg, logger)
	if err != nil {
		return err
	}

	apiClient := driver.NewFeedlyAPIClient(cfg.Feedly.ClientID, cfg.Feedly.ClientSecret, cfg.Feedly.BaseURL, logger)
	apiClient.SetRateLimit(cfg.RateLimit.RequestInterval, cfg.RateLimit.Burst)
	quota := service.NewRateLimitManager(logger)
	apiClient.SetResponseObserver(quota)

	tokens := service.NewTokenManager(tokenRepo, apiClient, cfg.OAuth2.RefreshToken, cfg.OAuth2.RefreshBuffer, logger)
	feedly := service.NewFeedlyClient(apiClient, tokens, nil, cfg.Feedly.PageSize, logger)
	feedly.SetQuotaGuard(quota)

	userID, err := resolveUserID(ctx, cfg, tokens, logger)
	if err != nil {
		return err
	}

	articleRepo := repository.NewPostgreSQLArticleRepository(db, logger)
	subscriptionRepo := repository.NewPostgreSQLSubscriptionRepository(db, logger)
	syncStateRepo := repository.NewPostgreSQLSyncStateRepository(db, logger)

	syncConfig := usecase.StreamSyncConfig{
		MaxPages:      cfg.Sync.MaxPages,
		MaxConcurrent: cfg.Sync.MaxConcurrent,
	}
	if cfg.Sync.RetryFetches {
		syncConfig.RetryPolicy = operation.DefaultRetryPolicy
	}
	streamSync := usecase.NewStreamSyncUsecase(service.UserAccount(userID), feedly, articleRepo, syncStateRepo, syncConfig, logger)
	acct := account.NewAccount(userID, articleRepo, subscriptionRepo, streamSync, logger)

	subscriptionSync := service.NewSubscriptionSyncService(feedly, subscriptionRepo, syncStateRepo, cfg.Sync.SubscriptionInterval, logger)

	sched := scheduler.NewScheduler(syncStateRepo, subscriptionSync, streamSync, logger)
	sched.Start(ctx, scheduler.Config{
		FetchInterval:   cfg.Sync.Interval,
		RefreshInterval: cfg.Sync.SubscriptionInterval,
		UnreadOnly:      cfg.Sync.UnreadOnly,
		RunTimeout:      scheduler.DefaultConfig().RunTimeout,
	})
	defer sched.Stop()

	authenticator, err := newAuthenticator(cfg, logger)
	if err != nil {
		return err
	}
	limiter := security.NewClientRateLimiter(cfg.Admin.RequestsPerHour, cfg.Admin.Burst, logger)
	defer limiter.Stop()

	health := handler.NewHealthHandler(logger)
	health.AddCheck("database", db.PingContext)
	health.AddCheck("oauth2_token", func(ctx context.Context) error {
		_, err := tokens.Status(ctx)
		return err
	})
	health.AddCheck("feedly_quota", func(context.Context) error { return quota.CheckAllowed() })
	if secrets, ok := tokenRepo.(interface{ IsHealthy(context.Context) error }); ok {
		health.AddCheck("token_secret", secrets.IsHealthy)
	}

	mux := http.NewServeMux()
	health.Register(mux)
	handler.NewAdminAPIHandler(streamSync, acct, tokens, authenticator, limiter, logger).Register(mux)

	server := &http.Server{
		Addr:         net.JoinHostPort("", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func newTokenRepository(cfg *config.Config, logger *slog.Logger) (repository.OAuth2TokenRepository, error) {
	if !cfg.Kubernetes.Enabled {
		logger.Warn("Kubernetes token storage disabled, tokens are kept in memory")
		return repository.NewMemoryTokenRepository(), nil
	}

	clientset, err := cfg.Kubernetes.CreateKubernetesClient()
	if err != nil {
		return nil, err
	}
	return repository.NewKubernetesSecretRepositoryWithClientset(clientset, cfg.Kubernetes.Namespace, cfg.Kubernetes.TokenSecretName, logger), nil
}

// resolveUserID prefers the configured ID over the one the token endpoint reports
func resolveUserID(ctx context.Context, cfg *config.Config, tokens *service.TokenManager, logger *slog.Logger) (string, error) {
	if cfg.Feedly.UserID != "" {
		return cfg.Feedly.UserID, nil
	}

	userID, err := tokens.UserID(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve feedly user id: %w", err)
	}
	logger.Warn("FEEDLY_USER_ID not set, using the ID from the token response", "user_id", userID)
	return userID, nil
}

func newAuthenticator(cfg *config.Config, logger *slog.Logger) (handler.Authenticator, error) {
	if cfg.Admin.TokenPublicKeyPath == "" {
		logger.Warn("ADMIN_TOKEN_PUBLIC_KEY_PATH not set, admin API authentication is disabled")
		return nil, nil
	}

	key, err := security.LoadPublicKey(cfg.Admin.TokenPublicKeyPath)
	if err != nil {
		return nil, err
	}
	return security.NewServiceAccountAuthenticator(key, cfg.Kubernetes.AllowedServiceAccounts, cfg.Admin.TokenAudience, logger), nil
}
