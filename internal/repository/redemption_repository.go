package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pl974/dealchain/internal/model"
	"github.com/pl974/dealchain/internal/service"
	"github.com/pl974/dealchain/pkg/database"
)

// RedemptionRepository stores redemption records. The (coupon, user) pair is
// unique twice over: through the derived primary key and through
// UNIQUE(coupon_id, user_id).
// Every method runs on the caller's transaction, so it holds no pool.
type RedemptionRepository struct{}

// NewRedemptionRepository creates a new RedemptionRepository.
func NewRedemptionRepository() *RedemptionRepository {
	return &RedemptionRepository{}
}

// Insert inserts a redemption record within a transaction.
// Returns service.ErrDuplicateRedemption if the user already redeemed the coupon.
func (r *RedemptionRepository) Insert(ctx context.Context, tx database.TxQuerier, rec *model.RedemptionRecord) error {
	query := `INSERT INTO redemption_records (id, coupon_id, user_id, redeemed_at) VALUES ($1, $2, $3, $4)`

	_, err := tx.Exec(ctx, query, rec.ID, rec.CouponID, rec.User, rec.Timestamp)
	if err != nil {
		return mapWriteError(err, service.ErrDuplicateRedemption, "insert redemption")
	}
	return nil
}

// Exists reports whether user has redeemed couponID.
func (r *RedemptionRepository) Exists(ctx context.Context, tx database.TxQuerier, couponID uuid.UUID, user string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM redemption_records WHERE coupon_id = $1 AND user_id = $2)`

	var exists bool
	if err := tx.QueryRow(ctx, query, couponID, user).Scan(&exists); err != nil {
		return false, fmt.Errorf("check redemption %s/%s: %w", couponID, user, err)
	}
	return exists, nil
}
