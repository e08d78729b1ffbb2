package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pl974/dealchain/internal/model"
	"github.com/pl974/dealchain/internal/service"
	"github.com/pl974/dealchain/pkg/database"
)

// ReviewRepository provides data access for reviews using pgx.
type ReviewRepository struct {
	pool PoolInterface
}

// NewReviewRepository creates a new ReviewRepository with the given pool.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// NewReviewRepositoryWithPool creates a new ReviewRepository with a custom pool interface.
// This is primarily used for testing.
func NewReviewRepositoryWithPool(pool PoolInterface) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Insert inserts a review within a transaction.
// Returns service.ErrDuplicateReview if the user already reviewed the coupon.
func (r *ReviewRepository) Insert(ctx context.Context, tx database.TxQuerier, rev *model.Review) error {
	query := `INSERT INTO reviews (id, coupon_id, user_id, rating, comment, created_at) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query, rev.ID, rev.CouponID, rev.User, int16(rev.Rating), rev.Comment, rev.Timestamp)
	if err != nil {
		return mapWriteError(err, service.ErrDuplicateReview, "insert review")
	}
	return nil
}

// ListByCoupon returns a coupon's reviews, oldest first.
// On success, returns an empty slice (not nil) when there are none.
func (r *ReviewRepository) ListByCoupon(ctx context.Context, couponID uuid.UUID) ([]model.Review, error) {
	query := `SELECT id, coupon_id, user_id, rating, comment, created_at
		FROM reviews WHERE coupon_id = $1 ORDER BY created_at, user_id`

	rows, err := r.pool.Query(ctx, query, couponID)
	if err != nil {
		return nil, fmt.Errorf("list reviews for coupon %s: %w", couponID, err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var (
			rev    model.Review
			rating int16
		)
		if err := rows.Scan(&rev.ID, &rev.CouponID, &rev.User, &rating, &rev.Comment, &rev.Timestamp); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		rev.Rating = uint8(rating)
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}
