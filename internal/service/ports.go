package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pl974/dealchain/internal/model"
	"github.com/pl974/dealchain/pkg/database"
)

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// MerchantRepositoryInterface defines the interface for merchant data access.
type MerchantRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, merchant *model.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Merchant, error)
	GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Merchant, error)
	UpdateCounters(ctx context.Context, tx database.TxQuerier, merchant *model.Merchant) error
	SetPaused(ctx context.Context, tx database.TxQuerier, id uuid.UUID, paused bool) error
}

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, coupon *model.Coupon) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
	GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Coupon, error)
	UpdateCounters(ctx context.Context, tx database.TxQuerier, coupon *model.Coupon) error
	SetActive(ctx context.Context, tx database.TxQuerier, id uuid.UUID, active bool) error
	Delete(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error
}

// RedemptionRepositoryInterface defines the interface for redemption records.
// Insert must fail with ErrDuplicateRedemption when the derived key exists.
type RedemptionRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, record *model.RedemptionRecord) error
	Exists(ctx context.Context, tx database.TxQuerier, couponID uuid.UUID, user string) (bool, error)
}

// ReviewRepositoryInterface defines the interface for reviews.
// Insert must fail with ErrDuplicateReview when the derived key exists.
type ReviewRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, review *model.Review) error
	ListByCoupon(ctx context.Context, couponID uuid.UUID) ([]model.Review, error)
}

// LoyaltyRepositoryInterface defines the interface for loyalty badges.
type LoyaltyRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, badge *model.LoyaltyBadge) error
	GetByUser(ctx context.Context, user string) (*model.LoyaltyBadge, error)
	GetForUpdate(ctx context.Context, tx database.TxQuerier, user string) (*model.LoyaltyBadge, error)
	Update(ctx context.Context, tx database.TxQuerier, badge *model.LoyaltyBadge) error
}

// AssetLedger is the external asset service. It takes part in the caller's
// transaction so a failed transfer or burn rolls the whole operation back.
type AssetLedger interface {
	Holding(ctx context.Context, tx database.TxQuerier, asset, holder string) (model.Holding, error)
	Transfer(ctx context.Context, tx database.TxQuerier, asset, from, to string, amount uint64) error
	Burn(ctx context.Context, tx database.TxQuerier, asset, holder string, amount uint64) error
}

// EventPublisher records a notification within the caller's transaction.
type EventPublisher interface {
	Publish(ctx context.Context, tx database.TxQuerier, evt model.Event) error
}

// Clock is the trusted time source.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
