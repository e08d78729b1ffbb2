package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/pl974/dealchain/internal/model"
)

// PurchaseService sells coupon units. Every purchase runs
// checks -> effects -> interaction in that order: the settlement transfer
// is issued only after the sale is recorded in the coupon and merchant
// counters, so a re-entrant or concurrent purchase sees the new
// total_purchases and is refused by the SoldOut check.
type PurchaseService struct {
	pool            TxBeginner
	coupons         CouponRepositoryInterface
	merchants       MerchantRepositoryInterface
	assets          AssetLedger
	events          EventPublisher
	clock           Clock
	settlementAsset string
}

// NewPurchaseService creates a new PurchaseService that settles in
// settlementAsset.
func NewPurchaseService(
	pool TxBeginner,
	coupons CouponRepositoryInterface,
	merchants MerchantRepositoryInterface,
	assets AssetLedger,
	events EventPublisher,
	clock Clock,
	settlementAsset string,
) *PurchaseService {
	return &PurchaseService{
		pool:            pool,
		coupons:         coupons,
		merchants:       merchants,
		assets:          assets,
		events:          events,
		clock:           clock,
		settlementAsset: settlementAsset,
	}
}

// Purchase buys one unit of couponID for buyer.
// Returns:
//   - ErrCouponNotFound if the coupon doesn't exist
//   - ErrCouponInactive, ErrMerchantPaused, ErrCouponExpired, ErrSoldOut
//     for the first lifecycle check that fails
//   - ErrInsufficientFunds if buyer cannot cover the price
//   - ErrArithmeticOverflow if a counter is exhausted
func (s *PurchaseService) Purchase(ctx context.Context, couponID uuid.UUID, buyer string) (*model.Coupon, error) {
	if err := validatePrincipal(buyer); err != nil {
		return nil, err
	}

	var coupon *model.Coupon
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		// 1. Lock coupon then merchant (SELECT FOR UPDATE)
		coupon, err = s.coupons.GetForUpdate(ctx, tx, couponID)
		if err != nil {
			return err
		}
		merchant, err := s.merchants.GetForUpdate(ctx, tx, coupon.MerchantID)
		if err != nil {
			return err
		}

		// 2. Checks, against the locked rows
		now := s.clock.Now().Unix()
		if err := checkCouponLive(coupon, merchant, now); err != nil {
			return err
		}
		if coupon.TotalPurchases >= coupon.MaxRedemptions {
			return ErrSoldOut
		}
		funds, err := s.lockSettlement(ctx, tx, buyer, merchant.Authority)
		if err != nil {
			return err
		}
		if funds.Amount < coupon.Price {
			return ErrInsufficientFunds
		}

		// 3. Effects: compute every counter first so an overflow writes nothing
		purchases, err := addUint32(coupon.TotalPurchases, 1)
		if err != nil {
			return err
		}
		revenue, err := addUint64(merchant.TotalRevenue, coupon.Price)
		if err != nil {
			return err
		}
		coupon.TotalPurchases = purchases
		merchant.TotalRevenue = revenue
		if err := s.coupons.UpdateCounters(ctx, tx, coupon); err != nil {
			return err
		}
		if err := s.merchants.UpdateCounters(ctx, tx, merchant); err != nil {
			return err
		}

		// 4. Interaction: the only external call, last
		if err := s.assets.Transfer(ctx, tx, s.settlementAsset, buyer, merchant.Authority, coupon.Price); err != nil {
			return err
		}

		return s.events.Publish(ctx, tx, model.NewCouponPurchasedEvent(coupon, buyer, now))
	})
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("coupon_id", coupon.ID.String()).
		Str("buyer", buyer).
		Uint32("total_purchases", coupon.TotalPurchases).
		Msg("coupon purchased")
	return coupon, nil
}

// lockSettlement locks the buyer's and the payee's settlement balances in
// holder order, so two authorities buying from each other at the same time
// queue instead of deadlocking. It returns the buyer's holding.
func (s *PurchaseService) lockSettlement(ctx context.Context, tx pgx.Tx, buyer, payee string) (model.Holding, error) {
	holders := []string{buyer, payee}
	if payee < buyer {
		holders[0], holders[1] = payee, buyer
	}

	var funds model.Holding
	for _, holder := range holders {
		holding, err := s.assets.Holding(ctx, tx, s.settlementAsset, holder)
		if err != nil {
			return model.Holding{}, err
		}
		if holder == buyer {
			funds = holding
		}
	}
	return funds, nil
}
