package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/pl974/dealchain/internal/model"
)

// RedemptionService redeems purchased coupon units. A user redeems a coupon
// at most once: the redemption record is inserted under
// model.RedemptionKey(coupon, user), and a second insert for the same pair
// fails on the primary key, aborting the whole transaction.
type RedemptionService struct {
	pool        TxBeginner
	coupons     CouponRepositoryInterface
	merchants   MerchantRepositoryInterface
	redemptions RedemptionRepositoryInterface
	assets      AssetLedger
	events      EventPublisher
	clock       Clock
}

// NewRedemptionService creates a new RedemptionService.
func NewRedemptionService(
	pool TxBeginner,
	coupons CouponRepositoryInterface,
	merchants MerchantRepositoryInterface,
	redemptions RedemptionRepositoryInterface,
	assets AssetLedger,
	events EventPublisher,
	clock Clock,
) *RedemptionService {
	return &RedemptionService{
		pool:        pool,
		coupons:     coupons,
		merchants:   merchants,
		redemptions: redemptions,
		assets:      assets,
		events:      events,
		clock:       clock,
	}
}

// Redeem redeems couponID for user and burns the redeemed unit.
// Returns:
//   - ErrCouponNotFound if the coupon doesn't exist
//   - ErrCouponInactive, ErrMerchantPaused, ErrCouponExpired,
//     ErrAllRedemptionsUsed for the first lifecycle check that fails
//   - ErrDuplicateRedemption if user already redeemed this coupon
//   - ErrWrongAsset / ErrInvalidAssetAmount if user does not hold exactly
//     one unit of the coupon's mint
//   - ErrArithmeticOverflow if a counter is exhausted
func (s *RedemptionService) Redeem(ctx context.Context, couponID uuid.UUID, user string) (*model.RedemptionRecord, error) {
	if err := validatePrincipal(user); err != nil {
		return nil, err
	}

	var record *model.RedemptionRecord
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		coupon, err := s.coupons.GetForUpdate(ctx, tx, couponID)
		if err != nil {
			return err
		}
		merchant, err := s.merchants.GetForUpdate(ctx, tx, coupon.MerchantID)
		if err != nil {
			return err
		}

		now := s.clock.Now().Unix()
		if err := checkCouponLive(coupon, merchant, now); err != nil {
			return err
		}
		if coupon.CurrentRedemptions >= coupon.MaxRedemptions {
			return ErrAllRedemptionsUsed
		}

		// The unit is burned on redeem, so a repeat attempt would otherwise
		// surface as a missing unit. This lookup only picks the clearer error;
		// the insert below is what enforces uniqueness.
		redeemed, err := s.redemptions.Exists(ctx, tx, coupon.ID, user)
		if err != nil {
			return err
		}
		if redeemed {
			return ErrDuplicateRedemption
		}

		holding, err := s.assets.Holding(ctx, tx, model.CouponAsset(coupon.Mint), user)
		if err != nil {
			return err
		}
		if err := verifyRedemptionProof(coupon, user, holding); err != nil {
			return err
		}

		redemptions, err := addUint32(coupon.CurrentRedemptions, 1)
		if err != nil {
			return err
		}
		merchantRedemptions, err := addUint32(merchant.TotalRedemptions, 1)
		if err != nil {
			return err
		}

		record = model.NewRedemptionRecord(coupon.ID, user, now)
		if err := s.redemptions.Insert(ctx, tx, record); err != nil {
			return err
		}
		coupon.CurrentRedemptions = redemptions
		merchant.TotalRedemptions = merchantRedemptions
		if err := s.coupons.UpdateCounters(ctx, tx, coupon); err != nil {
			return err
		}
		if err := s.merchants.UpdateCounters(ctx, tx, merchant); err != nil {
			return err
		}

		if err := s.assets.Burn(ctx, tx, model.CouponAsset(coupon.Mint), user, 1); err != nil {
			return err
		}

		return s.events.Publish(ctx, tx, model.NewCouponRedeemedEvent(coupon, user, now))
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("coupon_id", couponID.String()).Str("user", user).Msg("coupon redeemed")
	return record, nil
}

// verifyRedemptionProof requires an exact (coupon asset, holder) match
// holding exactly one unit.
func verifyRedemptionProof(coupon *model.Coupon, user string, holding model.Holding) error {
	if holding.Asset != model.CouponAsset(coupon.Mint) || holding.Holder != user {
		return ErrWrongAsset
	}
	if holding.Amount != 1 {
		return ErrInvalidAssetAmount
	}
	return nil
}
