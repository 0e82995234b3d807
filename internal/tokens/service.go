package tokens

import (
	"context"
	"log/slog"
	"time"
)

// Service fronts the Postgres ledger with an optional cache. Reads are
// cache-aside; every write refreshes the cached entry so the next balance
// check observes the debit. Cache failures are logged and never fail the
// ledger operation.
type Service struct {
	repo   *Repository
	cache  *Cache // nil when caching is disabled
	logger *slog.Logger
}

func NewService(repo *Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

func (s *Service) BalanceFor(ctx context.Context, uid string) (Balance, error) {
	if s.cache != nil {
		if b, ok := s.cache.Get(ctx, uid); ok {
			return b, nil
		}
	}

	b, err := s.repo.BalanceFor(ctx, uid)
	if err != nil {
		return Balance{}, err
	}
	// Requesters without a ledger entry read as a zero balance; those are
	// not cached so their first purchase is visible immediately.
	if s.cache != nil && !b.LastUpdated.IsZero() {
		if err := s.cache.Set(ctx, b); err != nil {
			s.logger.Warn("caching token balance failed", "uid", uid, "error", err)
		}
	}
	return b, nil
}

func (s *Service) Debit(ctx context.Context, uid string, cost int, readAt time.Time) (Balance, error) {
	b, err := s.repo.Debit(ctx, uid, cost, readAt)
	if err != nil {
		// The cached entry may be the stale read that caused this; drop it.
		if s.cache != nil {
			if cacheErr := s.cache.Invalidate(ctx, uid); cacheErr != nil {
				s.logger.Warn("invalidating token balance failed", "uid", uid, "error", cacheErr)
			}
		}
		return Balance{}, err
	}
	s.refresh(ctx, b)
	return b, nil
}

func (s *Service) Grant(ctx context.Context, uid, email, plan string, amount int, validFor time.Duration) (Balance, error) {
	b, err := s.repo.Grant(ctx, uid, email, plan, amount, time.Now().Add(validFor))
	if err != nil {
		return Balance{}, err
	}
	s.refresh(ctx, b)
	return b, nil
}

func (s *Service) refresh(ctx context.Context, b Balance) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, b); err != nil {
		s.logger.Warn("refreshing token balance cache failed", "uid", b.UID, "error", err)
	}
}
