package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"forumhub/internal/core"
	"forumhub/internal/identity"
	"forumhub/internal/remote"
	"forumhub/internal/repository"
	"forumhub/internal/store"
	"forumhub/internal/tui/config"
	"forumhub/internal/tui/views"
	"forumhub/pkg/logger"
)

// Backend is the store, auth and session the screens run against
type Backend struct {
	Kind  string
	Store store.Store
	// Auth is a remote.Client or a local core.AuthService
	Auth    views.Authenticator
	Session *identity.Session
	closers []func()
}

// OpenBackend connects the backend named by cfg.Backend.Kind
func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{Kind: cfg.Backend.Kind, Session: identity.NewSession()}

	switch cfg.Backend.Kind {
	case config.BackendRemote:
		client := remote.NewClient(cfg.GetHTTPBaseURL(), b.Session)
		if err := client.Health(ctx); err != nil {
			logger.Warnf("Server %s not reachable yet: %v", client.BaseURL(), err)
		}
		b.Store = remote.NewStore(client)
		b.Auth = client

	case config.BackendMemory:
		b.Store = store.NewMemory()
		b.Auth = localAuth(cfg, b.Store)

	case config.BackendRedis:
		rc := cfg.Backend.Redis
		client := redis.NewClient(&redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
		st := store.NewRedis(client, rc.Prefix)
		if err := st.Ping(ctx); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis %s: %w", rc.Addr, err)
		}
		b.Store = st
		b.Auth = localAuth(cfg, st)
		b.closers = append(b.closers, func() { client.Close() })

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend.Kind)
	}

	logger.Infof("TUI using %s backend", b.Kind)
	return b, nil
}

// localAuth keeps accounts in memory for the in-process backends
func localAuth(cfg *config.Config, st store.Store) core.AuthService {
	return core.NewAuthService(repository.NewMemoryAccountRepository(), st, cfg.Backend.JWTSecret, "forumhub-tui", 24*time.Hour)
}

// Close releases backend connections
func (b *Backend) Close() {
	for _, fn := range b.closers {
		fn()
	}
}
