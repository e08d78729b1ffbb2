package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pl974/dealchain/internal/model"
	"github.com/pl974/dealchain/internal/service"
	"github.com/pl974/dealchain/pkg/database"
)

const merchantColumns = `id, authority, name, description,
	total_coupons_created, total_redemptions, total_revenue::text,
	rating_sum::text, rating_count, is_verified, is_paused, created_at`

// MerchantRepository provides data access for merchants using pgx.
type MerchantRepository struct {
	pool PoolInterface
}

// NewMerchantRepository creates a new MerchantRepository with the given pool.
func NewMerchantRepository(pool *pgxpool.Pool) *MerchantRepository {
	return &MerchantRepository{pool: pool}
}

// NewMerchantRepositoryWithPool creates a new MerchantRepository with a custom pool interface.
// This is primarily used for testing.
func NewMerchantRepositoryWithPool(pool PoolInterface) *MerchantRepository {
	return &MerchantRepository{pool: pool}
}

// Insert inserts a new merchant within a transaction.
// Returns service.ErrMerchantExists if the authority already has a merchant.
func (r *MerchantRepository) Insert(ctx context.Context, tx database.TxQuerier, m *model.Merchant) error {
	query := `INSERT INTO merchants (
		id, authority, name, description,
		total_coupons_created, total_redemptions, total_revenue,
		rating_sum, rating_count, is_verified, is_paused, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9, $10, $11, $12)`

	_, err := tx.Exec(ctx, query,
		m.ID, m.Authority, m.Name, m.Description,
		m.TotalCouponsCreated, m.TotalRedemptions, numeric(m.TotalRevenue),
		numeric(m.RatingSum), m.RatingCount, m.IsVerified, m.IsPaused, m.CreatedAt,
	)
	if err != nil {
		return mapWriteError(err, service.ErrMerchantExists, "insert merchant")
	}
	return nil
}

// GetByID retrieves a merchant by id.
// Returns nil, nil if the merchant is not found (service layer handles this).
func (r *MerchantRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE id = $1`

	m, err := scanMerchant(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get merchant %s: %w", id, err)
	}
	return m, nil
}

// GetForUpdate retrieves a merchant with a row lock (SELECT FOR UPDATE).
// Returns service.ErrMerchantNotFound if the merchant doesn't exist.
func (r *MerchantRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE id = $1 FOR UPDATE`

	m, err := scanMerchant(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrMerchantNotFound
		}
		return nil, fmt.Errorf("get merchant for update %s: %w", id, err)
	}
	return m, nil
}

// UpdateCounters writes the merchant's counters and rating aggregates.
// Must be called within a transaction after locking the row.
func (r *MerchantRepository) UpdateCounters(ctx context.Context, tx database.TxQuerier, m *model.Merchant) error {
	query := `UPDATE merchants SET
		total_coupons_created = $2,
		total_redemptions = $3,
		total_revenue = $4::numeric,
		rating_sum = $5::numeric,
		rating_count = $6
	WHERE id = $1`

	_, err := tx.Exec(ctx, query,
		m.ID, m.TotalCouponsCreated, m.TotalRedemptions,
		numeric(m.TotalRevenue), numeric(m.RatingSum), m.RatingCount,
	)
	if err != nil {
		return mapWriteError(err, nil, fmt.Sprintf("update merchant counters %s", m.ID))
	}
	return nil
}

// SetPaused sets the merchant's pause flag.
func (r *MerchantRepository) SetPaused(ctx context.Context, tx database.TxQuerier, id uuid.UUID, paused bool) error {
	_, err := tx.Exec(ctx, `UPDATE merchants SET is_paused = $2 WHERE id = $1`, id, paused)
	if err != nil {
		return fmt.Errorf("set merchant paused %s: %w", id, err)
	}
	return nil
}

func scanMerchant(row pgx.Row) (*model.Merchant, error) {
	var (
		m                  model.Merchant
		revenue, ratingSum string
	)
	err := row.Scan(
		&m.ID,
		&m.Authority,
		&m.Name,
		&m.Description,
		&m.TotalCouponsCreated,
		&m.TotalRedemptions,
		&revenue,
		&ratingSum,
		&m.RatingCount,
		&m.IsVerified,
		&m.IsPaused,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if m.TotalRevenue, err = parseNumeric("total_revenue", revenue); err != nil {
		return nil, err
	}
	if m.RatingSum, err = parseNumeric("rating_sum", ratingSum); err != nil {
		return nil, err
	}
	return &m, nil
}
