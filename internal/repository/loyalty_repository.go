package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pl974/dealchain/internal/model"
	"github.com/pl974/dealchain/internal/service"
	"github.com/pl974/dealchain/pkg/database"
)

const badgeColumns = `id, user_id, tier, deals_purchased, total_saved::text, points, created_at`

// LoyaltyRepository provides data access for loyalty badges using pgx.
type LoyaltyRepository struct {
	pool PoolInterface
}

// NewLoyaltyRepository creates a new LoyaltyRepository with the given pool.
func NewLoyaltyRepository(pool *pgxpool.Pool) *LoyaltyRepository {
	return &LoyaltyRepository{pool: pool}
}

// NewLoyaltyRepositoryWithPool creates a new LoyaltyRepository with a custom pool interface.
// This is primarily used for testing.
func NewLoyaltyRepositoryWithPool(pool PoolInterface) *LoyaltyRepository {
	return &LoyaltyRepository{pool: pool}
}

// Insert inserts a badge within a transaction.
// Returns service.ErrBadgeExists if the user already has one.
func (r *LoyaltyRepository) Insert(ctx context.Context, tx database.TxQuerier, b *model.LoyaltyBadge) error {
	query := `INSERT INTO loyalty_badges (id, user_id, tier, deals_purchased, total_saved, points, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)`

	_, err := tx.Exec(ctx, query,
		b.ID, b.User, string(b.Tier), b.DealsPurchased, numeric(b.TotalSaved), b.Points, b.CreatedAt)
	if err != nil {
		return mapWriteError(err, service.ErrBadgeExists, "insert loyalty badge")
	}
	return nil
}

// GetByUser retrieves a user's badge.
// Returns nil, nil if the user has none (service layer handles this).
func (r *LoyaltyRepository) GetByUser(ctx context.Context, user string) (*model.LoyaltyBadge, error) {
	query := `SELECT ` + badgeColumns + ` FROM loyalty_badges WHERE user_id = $1`

	b, err := scanBadge(r.pool.QueryRow(ctx, query, user))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get loyalty badge %s: %w", user, err)
	}
	return b, nil
}

// GetForUpdate retrieves a user's badge with a row lock.
// Returns service.ErrBadgeNotFound if the user has none.
func (r *LoyaltyRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, user string) (*model.LoyaltyBadge, error) {
	query := `SELECT ` + badgeColumns + ` FROM loyalty_badges WHERE user_id = $1 FOR UPDATE`

	b, err := scanBadge(tx.QueryRow(ctx, query, user))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrBadgeNotFound
		}
		return nil, fmt.Errorf("get loyalty badge for update %s: %w", user, err)
	}
	return b, nil
}

// Update writes the badge's counters and tier.
// Must be called within a transaction after locking the row.
func (r *LoyaltyRepository) Update(ctx context.Context, tx database.TxQuerier, b *model.LoyaltyBadge) error {
	query := `UPDATE loyalty_badges SET
		tier = $2, deals_purchased = $3, total_saved = $4::numeric, points = $5
	WHERE user_id = $1`

	_, err := tx.Exec(ctx, query, b.User, string(b.Tier), b.DealsPurchased, numeric(b.TotalSaved), b.Points)
	if err != nil {
		return mapWriteError(err, nil, fmt.Sprintf("update loyalty badge %s", b.User))
	}
	return nil
}

func scanBadge(row pgx.Row) (*model.LoyaltyBadge, error) {
	var (
		b           model.LoyaltyBadge
		tier, saved string
	)
	if err := row.Scan(&b.ID, &b.User, &tier, &b.DealsPurchased, &saved, &b.Points, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.Tier = model.LoyaltyTier(tier)
	var err error
	if b.TotalSaved, err = parseNumeric("total_saved", saved); err != nil {
		return nil, err
	}
	return &b, nil
}
