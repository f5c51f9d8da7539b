package repository

import (
	"context"
	"log/slog"
	"sync"

	"healthtrack/backend/internal/store"
)

// SessionRepositories hands out one SessionRepository per owner, each kept
// under its own store key and loaded on first use.
type SessionRepositories struct {
	mu     sync.Mutex
	store  store.Store
	logger *slog.Logger
	repos  map[string]*SessionRepository
}

func NewSessionRepositories(st store.Store, logger *slog.Logger) *SessionRepositories {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionRepositories{
		store:  st,
		logger: logger,
		repos:  make(map[string]*SessionRepository),
	}
}

// For returns the owner's repository, loading it on first use. A repository
// whose load failed is not kept; the next call tries again.
func (r *SessionRepositories) For(ctx context.Context, ownerID string) (*SessionRepository, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if repo, ok := r.repos[ownerID]; ok {
		return repo, nil
	}
	repo, err := NewSessionRepository(ctx, r.store, SessionsKeyFor(ownerID), r.logger.With("owner", ownerID))
	if err != nil {
		r.logger.Warn("load owner sessions failed", "owner", ownerID, "error", err)
		return nil, err
	}
	r.repos[ownerID] = repo
	return repo, nil
}

func SessionsKeyFor(ownerID string) string {
	return SessionsKey + ":" + ownerID
}
