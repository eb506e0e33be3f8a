package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/allez-ride/chat-service/config"
	"github.com/allez-ride/chat-service/internal/chat"
	"github.com/allez-ride/chat-service/internal/postgres"
	"github.com/allez-ride/chat-service/internal/relay"
	"github.com/allez-ride/chat-service/internal/service"
	httpx "github.com/allez-ride/chat-service/internal/transport/http"
	"github.com/allez-ride/chat-service/internal/transport/ws"
	"github.com/allez-ride/chat-service/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting chat-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	ttl := cfg.Chat.MessageTTLOr(time.Hour)
	msgRepo := postgres.NewMessageRepository(db.Pool, ttl)

	// --- room registry ---
	registry := chat.NewRegistry(
		msgRepo,
		cfg.Chat.HistoryLimit,
		cfg.Chat.StoreTimeoutOr(3*time.Second),
		cfg.Chat.EmptyGraceOr(5*time.Second),
	)

	// --- unread + relay ---
	unreadSvc := service.NewUnreadService(
		msgRepo,
		cfg.Chat.UnreadWindowOr(24*time.Hour),
		cfg.Chat.StoreTimeoutOr(3*time.Second),
	)

	var notifySvc *service.NotifyService
	if cfg.Relay.URL != "" {
		relayClient := relay.NewClient(cfg.Relay.URL, cfg.Relay.APIKey, cfg.Relay.TimeoutOr(5*time.Second))
		notifySvc = service.NewNotifyService(relayClient, unreadSvc)
	} else {
		slog.Warn("relay url is empty, count updates disabled")
	}

	// --- WS + HTTP ---
	var notifier ws.Notifier
	if notifySvc != nil {
		notifier = notifySvc
	}
	wsServer := ws.NewServer(registry, notifier, cfg.Chat.TypingIdleOr(time.Second), cfg.Chat.MaxMessageLen)

	handler := httpx.NewHandler(msgRepo, cfg.Chat.HistoryLimit)
	router := httpx.NewRouter(handler, wsServer)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- retention sweeper ---
	sweepCtx, stopSweep := context.WithCancel(ctx)
	go sweepExpired(sweepCtx, msgRepo, ttl/4)

	// --- run ---
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	stopSweep()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}

// sweepExpired периодически удаляет сообщения старше TTL — замена
// TTL-индекса, которого у Postgres нет.
func sweepExpired(ctx context.Context, repo *postgres.MessageRepository, every time.Duration) {
	if every < time.Minute {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				slog.Warn("retention sweep failed", "err", err)
				continue
			}
			if n > 0 {
				slog.Debug("retention sweep", "deleted", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
