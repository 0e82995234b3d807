package tokens

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

// ErrStaleBalance is returned by Debit when the ledger row changed between
// the balance read and the write. The consultation result still exists at
// that point; the caller decides how to surface the missed debit.
var ErrStaleBalance = errors.New("token balance changed since it was read")

// Repository stores token balances in Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// BalanceFor loads the ledger entry for a requester. A requester with no
// entry is treated as having a zero balance, not as an error.
func (r *Repository) BalanceFor(ctx context.Context, uid string) (Balance, error) {
	query := `SELECT uid, email, plan, total_tokens, used_tokens, last_updated, expiration_date
		FROM token_usage WHERE uid = $1`

	var b Balance
	err := r.db.QueryRowContext(ctx, query, uid).Scan(
		&b.UID,
		&b.Email,
		&b.Plan,
		&b.TotalTokens,
		&b.UsedTokens,
		&b.LastUpdated,
		&b.ExpirationDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Balance{UID: uid}, nil
		}
		return Balance{}, errors.Wrap(err, "querying token balance")
	}
	return b, nil
}

// Debit adds cost to used_tokens, but only if the row still carries the
// last_updated timestamp observed at read time. A concurrent writer makes
// the update match zero rows, which surfaces as ErrStaleBalance instead of
// silently double-spending.
func (r *Repository) Debit(ctx context.Context, uid string, cost int, readAt time.Time) (Balance, error) {
	query := `UPDATE token_usage
		SET used_tokens = used_tokens + $2, last_updated = NOW()
		WHERE uid = $1 AND last_updated = $3
		RETURNING uid, email, plan, total_tokens, used_tokens, last_updated, expiration_date`

	var b Balance
	err := r.db.QueryRowContext(ctx, query, uid, cost, readAt).Scan(
		&b.UID,
		&b.Email,
		&b.Plan,
		&b.TotalTokens,
		&b.UsedTokens,
		&b.LastUpdated,
		&b.ExpirationDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Balance{}, ErrStaleBalance
		}
		return Balance{}, errors.Wrap(err, "debiting token balance")
	}
	return b, nil
}

// Grant credits purchased tokens, creating the ledger entry on first
// purchase. Tokens accumulate across purchases; plan and expiration follow
// the latest one.
func (r *Repository) Grant(ctx context.Context, uid, email, plan string, amount int, expiresAt time.Time) (Balance, error) {
	query := `INSERT INTO token_usage (uid, email, plan, total_tokens, used_tokens, last_updated, expiration_date)
		VALUES ($1, $2, $3, $4, 0, NOW(), $5)
		ON CONFLICT (uid) DO UPDATE SET
			email = EXCLUDED.email,
			plan = EXCLUDED.plan,
			total_tokens = token_usage.total_tokens + EXCLUDED.total_tokens,
			last_updated = NOW(),
			expiration_date = EXCLUDED.expiration_date
		RETURNING uid, email, plan, total_tokens, used_tokens, last_updated, expiration_date`

	var b Balance
	err := r.db.QueryRowContext(ctx, query, uid, email, plan, amount, expiresAt).Scan(
		&b.UID,
		&b.Email,
		&b.Plan,
		&b.TotalTokens,
		&b.UsedTokens,
		&b.LastUpdated,
		&b.ExpirationDate,
	)
	if err != nil {
		return Balance{}, errors.Wrap(err, "granting tokens")
	}
	return b, nil
}
