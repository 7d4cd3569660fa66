package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/hashicorp/go-hclog"
	"github.com/saddiabu4/telegram-web-app-backend/internal/auth"
	"github.com/saddiabu4/telegram-web-app-backend/internal/blob"
	"github.com/saddiabu4/telegram-web-app-backend/internal/bot"
	"github.com/saddiabu4/telegram-web-app-backend/internal/config"
	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"github.com/saddiabu4/telegram-web-app-backend/internal/events"
	"github.com/saddiabu4/telegram-web-app-backend/internal/metrics"
	"github.com/saddiabu4/telegram-web-app-backend/internal/repository"
	"github.com/saddiabu4/telegram-web-app-backend/internal/service"
	httpTransport "github.com/saddiabu4/telegram-web-app-backend/internal/transport/http"
	websocketTransport "github.com/saddiabu4/telegram-web-app-backend/internal/transport/websocket"
	"github.com/spf13/cobra"
	"net/http"
	"os"
	"sync"
	"time"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when BOT_TOKEN is set, the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, newLogger(cfg, os.Stderr))
		},
	}
}

// serve starts every component in order, blocks until ctx is cancelled and
// then stops them in reverse order.
func serve(ctx context.Context, cfg *config.Config, logger hclog.Logger) error {
	m := metrics.New()
	validation := domain.NewValidation()

	logger.Info("Opening store", "backend", repository.DetectKind(cfg.DatabaseURL))
	store, err := repository.Open(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Error closing store", "error", err)
		}
	}()

	blobs, local, err := openBlobs(cfg, logger.Named("blob"))
	if err != nil {
		return err
	}

	// Initialize the event bus - shared by the product service and the live feed
	eventBus := events.NewEventBus[any]()
	eventBus.OnDrop(func(any) { m.DroppedEvents.Inc() })

	ps := service.NewProductService(
		store.Products(),
		blobs,
		validation,
		eventBus,
		m,
		logger.Named("product-service"),
	)
	as := auth.NewService(
		store.Users(),
		auth.NewTokens(cfg.JWTSecret, auth.TokenTTL),
		validation,
		logger.Named("auth-service"),
	)

	responder := httpTransport.NewResponder(logger.Named("http"), cfg.Development())
	routerCfg := httpTransport.RouterConfig{
		Products: httpTransport.NewProductHandler(ps, responder, cfg.MaxUploadBytes, logger.Named("http-handler")),
		Auth:     httpTransport.NewAuthHandler(as, responder, logger.Named("auth-handler")),
		Middleware: httpTransport.NewMiddleware(
			logger.Named("http"),
			as,
			responder,
			m,
			httpTransport.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow),
		),
		WebSocket:   websocketTransport.NewHandler(logger.Named("websocket-handler"), eventBus, cfg.CORSOrigins),
		Metrics:     m.Handler(),
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
		Logger:      logger,
	}
	if local != nil {
		routerCfg.Uploads = httpTransport.NewUploads(logger.Named("uploads"), local)
	}

	server := &http.Server{
		Addr:              cfg.BindAddress,
		Handler:           httpTransport.NewRouter(routerCfg),
		ErrorLog:          logger.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true}),
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "bind_address", cfg.BindAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stopBot := startBot(cfg, ps, m, logger.Named("bot"))

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-serverErr:
		runErr = fmt.Errorf("http server: %w", err)
		logger.Error("Server failed", "error", err)
	}

	stopBot()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down server", "error", err)
	}

	return runErr
}

// openBlobs picks Cloudinary when it is configured and the upload directory
// otherwise. local is nil for remote storage.
func openBlobs(cfg *config.Config, logger hclog.Logger) (blob.Store, *blob.Local, error) {
	if cfg.Cloudinary.Enabled() {
		c, err := blob.NewCloudinary(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("cloudinary: %w", err)
		}
		logger.Info("Storing images in Cloudinary", "cloud", cfg.Cloudinary.CloudName, "folder", blob.CloudinaryFolder)
		return blob.NewGuard(c, cfg.MaxUploadBytes), nil, nil
	}

	local, err := blob.NewLocal(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("upload dir: %w", err)
	}
	logger.Info("Storing images on disk", "dir", local.Dir())
	return blob.NewGuard(local, cfg.MaxUploadBytes), local, nil
}

// startBot launches the Telegram bot when a token is configured. The
// returned func stops it and waits for polling to end.
func startBot(cfg *config.Config, ps service.ProductService, m *metrics.Metrics, logger hclog.Logger) func() {
	if cfg.BotToken == "" {
		logger.Info("BOT_TOKEN not set, bot disabled")
		return func() {}
	}

	tg, err := bot.NewTelegram(cfg.BotToken, logger.Named("telegram"))
	if err != nil {
		logger.Error("Unable to start bot, continuing without it", "error", err)
		return func() {}
	}

	b := bot.New(ps, tg, bot.Config{WebAppURL: cfg.WebAppURL, PublicURL: cfg.PublicURL}, m, logger)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		tg.Run(ctx, b.Handle)
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}
