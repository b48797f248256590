package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"learnledger/adapters/jsonfile"
	mem "learnledger/adapters/memory"
	redisAdapter "learnledger/adapters/redis"
	sqlxAdapter "learnledger/adapters/sqlx"
	"learnledger/analytics"
	"learnledger/api/httpapi"
	"learnledger/config"
	"learnledger/core"
	"learnledger/engine"
	"learnledger/integrations/issuance"
	"learnledger/integrations/webhook"
	"learnledger/leaderboard"
	"learnledger/ledger"
	"learnledger/realtime"
)

// App aggregates the assembled server components.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Hub       *realtime.Hub
	Board     leaderboard.Board
	Analytics *analyticsStack
	Service   *engine.LedgerService
	Handler   http.Handler
	Server    *http.Server
}

// analyticsStack bundles the KPI reporter with its export pipeline. Nil
// when analytics is disabled.
type analyticsStack struct {
	Reporter *analytics.Reporter
	Exporter analytics.Exporter
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Environment == config.EnvProduction {
		if err := cfg.LoadSecretsFromEnv(ctx); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideBoard() leaderboard.Board {
	return leaderboard.NewSkipList()
}

func provideStorage(ctx context.Context, cfg *config.Config) (engine.Storage, error) {
	return setupStorage(ctx, cfg)
}

func provideNotifier(cfg *config.Config) (engine.Notifier, error) {
	return setupNotifier(cfg)
}

func provideAnalytics(cfg *config.Config, logger *slog.Logger) *analyticsStack {
	if !cfg.Analytics.Enabled {
		return nil
	}
	exporters := []analytics.Exporter{analytics.NewLogExporter(logger)}
	if cfg.Analytics.ExportEndpoint != "" {
		exporters = append(exporters, analytics.NewHTTPExporter(
			cfg.Analytics.ExportEndpoint,
			cfg.Analytics.ExportAPIKey,
			cfg.Analytics.ExportBatchSize,
		))
	}
	return &analyticsStack{
		Reporter: analytics.NewReporter(cfg.Analytics.AggregationInterval),
		Exporter: analytics.NewMultiExporter(exporters...),
	}
}

func provideService(cfg *config.Config, hub *realtime.Hub, board leaderboard.Board, stack *analyticsStack, storage engine.Storage, notifier engine.Notifier) *engine.LedgerService {
	svc := ledger.New(
		ledger.WithRealtime(hub),
		ledger.WithStorage(storage),
		ledger.WithRules(cfg.Rules),
		ledger.WithNotifier(notifier),
		ledger.WithDispatchMode(engine.DispatchAsync),
	)
	leaderboard.Follow(board, svc.Subscribe)

	var hooks []analytics.Hook
	if stack != nil {
		hooks = append(hooks, stack.Reporter)
	}
	if len(cfg.Analytics.Webhooks) > 0 {
		hooks = append(hooks, webhook.New(cfg.Analytics.Webhooks))
	}
	if len(hooks) > 0 {
		bridge := analytics.NewBridge(hooks...)
		for _, typ := range []core.EventType{
			core.EventPointsRecorded,
			core.EventLevelUp,
			core.EventAchievementUnlocked,
			core.EventRewardMinted,
		} {
			svc.Subscribe(typ, func(_ context.Context, e core.Event) { bridge.OnEvent(e) })
		}
	}
	return svc
}

func provideHandler(svc *engine.LedgerService, hub *realtime.Hub, board leaderboard.Board, cfg *config.Config) http.Handler {
	return httpapi.NewMux(svc, hub, board, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the appropriate storage adapter based on configuration.
func setupStorage(_ context.Context, cfg *config.Config) (engine.Storage, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), nil
	case "redis":
		return redisAdapter.New(cfg.Storage.Redis)
	case "sql":
		return sqlxAdapter.New(cfg.Storage.SQL)
	case "file":
		return jsonfile.New(cfg.Storage.File.Path)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}

// setupNotifier builds the external issuance client, or returns nil when
// no endpoint is configured (rewards then stay unverified locally).
func setupNotifier(cfg *config.Config) (engine.Notifier, error) {
	if cfg.Issuance.Endpoint == "" {
		return nil, nil
	}
	timeout := cfg.Issuance.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return issuance.New(cfg.Issuance.Endpoint,
		issuance.WithAPIKey(cfg.Issuance.APIKey),
		issuance.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
}
