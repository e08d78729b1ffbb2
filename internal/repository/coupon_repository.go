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

const couponColumns = `id, mint, merchant_id, discount_percent, discount_fixed::text,
	price::text, expiry_timestamp, max_redemptions, current_redemptions,
	total_purchases, category, is_transferable, is_active, metadata_uri, created_at`

// CouponRepository provides data access for coupons using pgx.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom pool interface.
// This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Insert inserts a new coupon within a transaction.
// Returns service.ErrCouponExists if a coupon already exists for the mint.
func (r *CouponRepository) Insert(ctx context.Context, tx database.TxQuerier, c *model.Coupon) error {
	query := `INSERT INTO coupons (
		id, mint, merchant_id, discount_percent, discount_fixed, price,
		expiry_timestamp, max_redemptions, current_redemptions, total_purchases,
		category, is_transferable, is_active, metadata_uri, created_at
	) VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := tx.Exec(ctx, query,
		c.ID, c.Mint, c.MerchantID, int16(c.DiscountPercent), numeric(c.DiscountFixed), numeric(c.Price),
		c.ExpiryTimestamp, c.MaxRedemptions, c.CurrentRedemptions, c.TotalPurchases,
		string(c.Category), c.IsTransferable, c.IsActive, c.MetadataURI, c.CreatedAt,
	)
	if err != nil {
		return mapWriteError(err, service.ErrCouponExists, "insert coupon")
	}
	return nil
}

// GetByID retrieves a coupon by id.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	c, err := scanCoupon(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon %s: %w", id, err)
	}
	return c, nil
}

// GetForUpdate retrieves a coupon with a row lock (SELECT FOR UPDATE).
// This locks the row until the transaction completes.
// Returns service.ErrCouponNotFound if the coupon doesn't exist.
func (r *CouponRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1 FOR UPDATE`

	c, err := scanCoupon(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrCouponNotFound
		}
		return nil, fmt.Errorf("get coupon for update %s: %w", id, err)
	}
	return c, nil
}

// UpdateCounters writes total_purchases and current_redemptions.
// Must be called within a transaction after locking the row.
func (r *CouponRepository) UpdateCounters(ctx context.Context, tx database.TxQuerier, c *model.Coupon) error {
	query := `UPDATE coupons SET total_purchases = $2, current_redemptions = $3 WHERE id = $1`

	_, err := tx.Exec(ctx, query, c.ID, c.TotalPurchases, c.CurrentRedemptions)
	if err != nil {
		return mapWriteError(err, nil, fmt.Sprintf("update coupon counters %s", c.ID))
	}
	return nil
}

// SetActive sets the coupon's active flag.
func (r *CouponRepository) SetActive(ctx context.Context, tx database.TxQuerier, id uuid.UUID, active bool) error {
	_, err := tx.Exec(ctx, `UPDATE coupons SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set coupon active %s: %w", id, err)
	}
	return nil
}

// Delete removes the coupon row. Redemption records and reviews are kept.
func (r *CouponRepository) Delete(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var (
		c                    model.Coupon
		discountPercent      int16
		discountFixed, price string
		category             string
	)
	err := row.Scan(
		&c.ID,
		&c.Mint,
		&c.MerchantID,
		&discountPercent,
		&discountFixed,
		&price,
		&c.ExpiryTimestamp,
		&c.MaxRedemptions,
		&c.CurrentRedemptions,
		&c.TotalPurchases,
		&category,
		&c.IsTransferable,
		&c.IsActive,
		&c.MetadataURI,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.DiscountPercent = uint8(discountPercent)
	c.Category = model.CouponCategory(category)
	if c.DiscountFixed, err = parseNumeric("discount_fixed", discountFixed); err != nil {
		return nil, err
	}
	if c.Price, err = parseNumeric("price", price); err != nil {
		return nil, err
	}
	return &c, nil
}
