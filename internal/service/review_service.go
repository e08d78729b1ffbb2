package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/pl974/dealchain/internal/model"
)

// ReviewService accepts one review per (coupon, user) from users who hold
// the coupon's asset or have redeemed it.
type ReviewService struct {
	pool        TxBeginner
	coupons     CouponRepositoryInterface
	merchants   MerchantRepositoryInterface
	redemptions RedemptionRepositoryInterface
	reviews     ReviewRepositoryInterface
	assets      AssetLedger
	events      EventPublisher
	clock       Clock
}

// NewReviewService creates a new ReviewService.
func NewReviewService(
	pool TxBeginner,
	coupons CouponRepositoryInterface,
	merchants MerchantRepositoryInterface,
	redemptions RedemptionRepositoryInterface,
	reviews ReviewRepositoryInterface,
	assets AssetLedger,
	events EventPublisher,
	clock Clock,
) *ReviewService {
	return &ReviewService{
		pool:        pool,
		coupons:     coupons,
		merchants:   merchants,
		redemptions: redemptions,
		reviews:     reviews,
		assets:      assets,
		events:      events,
		clock:       clock,
	}
}

// Submit records user's review of couponID and folds the rating into the
// merchant's aggregates.
// Returns:
//   - ErrInvalidRating, ErrCommentTooLong, ErrInvalidCharacters for bad input
//   - ErrCouponNotFound if the coupon doesn't exist
//   - ErrMustOwnCouponToReview without purchase or redemption proof
//   - ErrDuplicateReview if user already reviewed this coupon
//   - ErrArithmeticOverflow if a rating aggregate is exhausted
func (s *ReviewService) Submit(ctx context.Context, couponID uuid.UUID, user string, rating int, comment string) (*model.Review, error) {
	if err := validateReview(rating, comment); err != nil {
		return nil, err
	}
	if err := validatePrincipal(user); err != nil {
		return nil, err
	}

	var review *model.Review
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		coupon, err := s.coupons.GetForUpdate(ctx, tx, couponID)
		if err != nil {
			return err
		}
		merchant, err := s.merchants.GetForUpdate(ctx, tx, coupon.MerchantID)
		if err != nil {
			return err
		}

		if err := s.verifyReviewer(ctx, tx, coupon, user); err != nil {
			return err
		}

		ratingSum, err := addUint64(merchant.RatingSum, uint64(rating))
		if err != nil {
			return err
		}
		ratingCount, err := addUint32(merchant.RatingCount, 1)
		if err != nil {
			return err
		}

		review = &model.Review{
			ID:        model.ReviewKey(coupon.ID, user),
			CouponID:  coupon.ID,
			User:      user,
			Rating:    uint8(rating),
			Comment:   comment,
			Timestamp: s.clock.Now().Unix(),
		}
		if err := s.reviews.Insert(ctx, tx, review); err != nil {
			return err
		}
		merchant.RatingSum = ratingSum
		merchant.RatingCount = ratingCount
		if err := s.merchants.UpdateCounters(ctx, tx, merchant); err != nil {
			return err
		}
		return s.events.Publish(ctx, tx, model.NewReviewSubmittedEvent(review))
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("coupon_id", couponID.String()).Str("user", user).Int("rating", rating).Msg("review submitted")
	return review, nil
}

// verifyReviewer accepts a holding of the coupon's own asset by user, or an
// existing redemption record for (coupon, user).
func (s *ReviewService) verifyReviewer(ctx context.Context, tx pgx.Tx, coupon *model.Coupon, user string) error {
	asset := model.CouponAsset(coupon.Mint)
	holding, err := s.assets.Holding(ctx, tx, asset, user)
	if err != nil {
		return err
	}
	if holding.Asset == asset && holding.Holder == user && holding.Amount >= 1 {
		return nil
	}

	redeemed, err := s.redemptions.Exists(ctx, tx, coupon.ID, user)
	if err != nil {
		return err
	}
	if !redeemed {
		return ErrMustOwnCouponToReview
	}
	return nil
}
