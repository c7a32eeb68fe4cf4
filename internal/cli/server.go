package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"prepost-poll/internal/app"
	"prepost-poll/internal/config"
	"prepost-poll/internal/infra/memory"
	infraredis "prepost-poll/internal/infra/redis"
	"prepost-poll/internal/logging"
	"prepost-poll/internal/metrics"
	"prepost-poll/internal/pollclient"
	transport "prepost-poll/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the front end.
func NewServeCmd(configPath, port, backend *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the poll front end",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port, *backend)
		},
	}
}

func loadConfig(configPath, backend string) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if backend != "" {
		cfg.Backend.BaseURL = backend
	}
	return cfg, nil
}

func newPollClient(cfg config.Config, logger *zap.Logger, m *metrics.Metrics) *pollclient.Client {
	timeout := config.TTLDuration(cfg.Backend.Timeout, 10*time.Second)
	return pollclient.New(cfg.Backend.BaseURL, timeout, logger, m)
}

func runServer(ctx context.Context, configPath, portFlag, backend string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(configPath, backend)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	m := metrics.New()
	client := newPollClient(cfg, logger, m)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	schemaTTL := config.TTLDuration(cfg.Schema.TTL, time.Minute)
	var schemas app.SchemaRepository
	if redisClient != nil {
		schemas = infraredis.NewSchemaRepository(redisClient, client, schemaTTL)
	} else {
		schemas = memory.NewSchemaRepository(client, schemaTTL)
	}

	sessionTTL := config.TTLDuration(cfg.Session.TTL, 30*time.Minute)
	if cfg.Redis.TTL != "" {
		sessionTTL = config.TTLDuration(cfg.Redis.TTL, sessionTTL)
	}
	var store app.SessionRepository
	if redisClient != nil {
		store = infraredis.NewSessionStore(redisClient, sessionTTL)
	} else {
		store = memory.NewSessionStore(sessionTTL)
	}

	service := app.NewPageService(store, schemas, client, cfg.Presenter.AccessCode, logger)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, logger, m),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting poll front end",
			zap.String("addr", server.Addr),
			zap.String("backend", cfg.Backend.BaseURL),
			zap.Bool("redis", redisClient != nil))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
