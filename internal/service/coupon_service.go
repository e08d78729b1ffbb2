package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/pl974/dealchain/internal/model"
)

// CouponService owns the coupon lifecycle outside of purchase and redeem:
// creation, the active toggle and closing after expiry.
type CouponService struct {
	pool      TxBeginner
	coupons   CouponRepositoryInterface
	merchants MerchantRepositoryInterface
	reviews   ReviewRepositoryInterface
	events    EventPublisher
	clock     Clock

	settlementAsset string
}

// NewCouponService creates a new CouponService.
func NewCouponService(
	pool TxBeginner,
	coupons CouponRepositoryInterface,
	merchants MerchantRepositoryInterface,
	reviews ReviewRepositoryInterface,
	events EventPublisher,
	clock Clock,
	settlementAsset string,
) *CouponService {
	return &CouponService{
		pool:            pool,
		coupons:         coupons,
		merchants:       merchants,
		reviews:         reviews,
		events:          events,
		clock:           clock,
		settlementAsset: settlementAsset,
	}
}

// Create issues a coupon for merchantID on behalf of caller. Checks run in
// the order authority, pause, terms, so a paused merchant or a stranger is
// told so before anything about the terms.
// Returns:
//   - ErrMerchantNotFound if the merchant doesn't exist
//   - ErrUnauthorized if caller is not the merchant authority
//   - ErrMerchantPaused if the merchant is paused
//   - a validation error for out-of-range terms
//   - ErrReservedMint if the mint names the settlement asset
//   - ErrCouponExists if a coupon already exists for the mint
//   - ErrArithmeticOverflow if total_coupons_created is exhausted
func (s *CouponService) Create(ctx context.Context, merchantID uuid.UUID, caller string, terms model.CouponTerms) (*model.Coupon, error) {
	now := s.clock.Now().Unix()

	var coupon *model.Coupon
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		merchant, err := s.merchants.GetForUpdate(ctx, tx, merchantID)
		if err != nil {
			return err
		}
		if merchant.Authority != caller {
			return ErrUnauthorized
		}
		if merchant.IsPaused {
			return ErrMerchantPaused
		}

		if err := validateCouponTerms(terms, now); err != nil {
			return err
		}
		if terms.Mint == s.settlementAsset {
			return ErrReservedMint
		}

		created, err := addUint32(merchant.TotalCouponsCreated, 1)
		if err != nil {
			return err
		}

		coupon = &model.Coupon{
			ID:              model.CouponKey(terms.Mint),
			Mint:            terms.Mint,
			MerchantID:      merchantID,
			DiscountPercent: terms.DiscountPercent,
			DiscountFixed:   terms.DiscountFixed,
			Price:           terms.Price,
			ExpiryTimestamp: terms.ExpiryTimestamp,
			MaxRedemptions:  terms.MaxRedemptions,
			Category:        terms.Category,
			IsTransferable:  terms.IsTransferable,
			IsActive:        true,
			MetadataURI:     terms.MetadataURI,
			CreatedAt:       now,
		}
		if err := s.coupons.Insert(ctx, tx, coupon); err != nil {
			return err
		}
		merchant.TotalCouponsCreated = created
		if err := s.merchants.UpdateCounters(ctx, tx, merchant); err != nil {
			return err
		}
		return s.events.Publish(ctx, tx, model.NewCouponCreatedEvent(coupon))
	})
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("coupon_id", coupon.ID.String()).
		Str("merchant_id", coupon.MerchantID.String()).
		Str("mint", coupon.Mint).
		Msg("coupon created")
	return coupon, nil
}

// SetActive sets the coupon's active flag. It gates new purchases and
// redemptions only; units already sold are untouched.
func (s *CouponService) SetActive(ctx context.Context, couponID uuid.UUID, caller string, active bool) (*model.Coupon, error) {
	var coupon *model.Coupon
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		coupon, err = s.coupons.GetForUpdate(ctx, tx, couponID)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, tx, coupon, caller); err != nil {
			return err
		}

		coupon.IsActive = active
		if err := s.coupons.SetActive(ctx, tx, coupon.ID, active); err != nil {
			return err
		}
		return s.events.Publish(ctx, tx, model.NewCouponStatusUpdatedEvent(coupon, s.clock.Now().Unix()))
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("coupon_id", coupon.ID.String()).Bool("is_active", active).Msg("coupon status updated")
	return coupon, nil
}

// CloseExpired deletes a coupon once now > expiry + GracePeriod.
// Redemption records and reviews outlive the coupon.
func (s *CouponService) CloseExpired(ctx context.Context, couponID uuid.UUID, caller string) error {
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		coupon, err := s.coupons.GetForUpdate(ctx, tx, couponID)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, tx, coupon, caller); err != nil {
			return err
		}

		now := s.clock.Now().Unix()
		if now <= coupon.ExpiryTimestamp+GracePeriod {
			return ErrCouponNotExpiredYet
		}

		if err := s.coupons.Delete(ctx, tx, coupon.ID); err != nil {
			return err
		}
		return s.events.Publish(ctx, tx, model.NewCouponClosedEvent(coupon, now))
	})
	if err != nil {
		return err
	}
	log.Debug().Str("coupon_id", couponID.String()).Msg("expired coupon closed")
	return nil
}

// Get retrieves a coupon by id.
// Returns ErrCouponNotFound if it doesn't exist.
func (s *CouponService) Get(ctx context.Context, couponID uuid.UUID) (*model.Coupon, error) {
	coupon, err := s.coupons.GetByID(ctx, couponID)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// ListReviews returns the reviews left on a coupon, oldest first.
func (s *CouponService) ListReviews(ctx context.Context, couponID uuid.UUID) ([]model.Review, error) {
	reviews, err := s.reviews.ListByCoupon(ctx, couponID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// authorize locks the coupon's merchant and checks caller is its authority.
func (s *CouponService) authorize(ctx context.Context, tx pgx.Tx, coupon *model.Coupon, caller string) error {
	merchant, err := s.merchants.GetForUpdate(ctx, tx, coupon.MerchantID)
	if err != nil {
		return err
	}
	if merchant.Authority != caller {
		return ErrUnauthorized
	}
	return nil
}
