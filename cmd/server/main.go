package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"forumhub/internal/core"
	"forumhub/internal/events"
	httpProtocol "forumhub/internal/protocols/http"
	wsProtocol "forumhub/internal/protocols/websocket"
	"forumhub/internal/repository"
	"forumhub/internal/store"
	"forumhub/pkg/config"
	"forumhub/pkg/database"
	"forumhub/pkg/logger"
)

func main() {
	configPath := flag.String("config", "./configs/server.yaml", "path to the server config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Logging)
	logger.Info("Starting forumhub server...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to open %s store: %v", cfg.Store.Backend, err)
	}
	defer closeStore()

	accounts, pool, err := openAccounts(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to open accounts: %v", err)
	}
	if pool != nil {
		defer pool.Close()
	}

	publisher := events.Publisher(events.Discard{})
	if cfg.NATS.URL != "" {
		client, err := events.Connect(events.Config{
			URL:           cfg.NATS.URL,
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
			ClientName:    cfg.NATS.ClientName,
		})
		if err != nil {
			logger.Fatalf("Failed to connect to NATS: %v", err)
		}
		publisher = client
		logger.Infof("Publishing changes to NATS at %s", cfg.NATS.URL)
		if cfg.NATS.LogChanges {
			if _, err := client.LogChanges(); err != nil {
				logger.Warnf("Change log disabled: %v", err)
			}
		}
	}
	defer publisher.Close()

	authSvc := core.NewAuthService(accounts, st, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)

	hub := wsProtocol.NewHub(st)
	wsHandler := wsProtocol.NewHandler(hub, authSvc, cfg.Server.AllowedOrigins)
	server := httpProtocol.NewServer(cfg, authSvc, st, publisher, wsHandler)

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: server.Router(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Starting HTTP server on %s", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down servers...")

		hub.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("Server stopped with error: %v", err)
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.Store.Backend != config.BackendRedis {
		logger.Info("Using in-memory store")
		return store.NewMemory(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Store.Redis.Addr,
		Password: cfg.Store.Redis.Password,
		DB:       cfg.Store.Redis.DB,
	})
	st := store.NewRedis(client, cfg.Store.Redis.Prefix)
	if err := st.Ping(ctx); err != nil {
		client.Close()
		return nil, nil, err
	}
	logger.Infof("Using redis store at %s", cfg.Store.Redis.Addr)
	return st, func() { client.Close() }, nil
}

func openAccounts(ctx context.Context, cfg *config.Config) (repository.AccountRepository, *pgxpool.Pool, error) {
	if !cfg.Database.Enabled() {
		logger.Warn("No database configured, accounts are kept in memory")
		return repository.NewMemoryAccountRepository(), nil, nil
	}

	pool, err := database.NewPGXPool(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	repo := repository.NewAccountRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("Connected to PostgreSQL database")
	return repo, pool, nil
}
