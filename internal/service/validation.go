package service

import (
	"strings"
	"unicode/utf8"

	"github.com/pl974/dealchain/internal/model"
	"github.com/pl974/dealchain/internal/validator"
)

// Ledger bounds. Lengths count characters (runes).
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
	MaxURILength         = 200
	MaxCommentLength     = 500

	MinPrice uint64 = 1_000
	MaxPrice uint64 = 1_000_000_000_000

	MinExpiryDuration int64 = 3_600
	MaxExpiryDuration int64 = 31_536_000
	GracePeriod       int64 = 86_400

	MaxRedemptionsPerCoupon uint32 = 10_000
	MaxDiscountPercent      uint8  = 100

	MinRating = 1
	MaxRating = 5
)

func validatePrincipal(id string) error {
	if !validator.IsPrincipal(id) {
		return ErrInvalidIdentity
	}
	return nil
}

func validateMerchantProfile(name, description string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameEmpty
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrNameTooLong
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if !validator.HasNoControlChars(name) || !validator.HasNoControlChars(description) {
		return ErrInvalidCharacters
	}
	return nil
}

// validateCouponTerms checks everything about new terms that does not need
// stored state. Expiry must fall strictly inside
// (now+MinExpiryDuration, now+MaxExpiryDuration).
func validateCouponTerms(terms model.CouponTerms, now int64) error {
	if err := validatePrincipal(terms.Mint); err != nil {
		return err
	}
	if terms.DiscountPercent > MaxDiscountPercent {
		return ErrInvalidDiscount
	}
	if terms.Price < MinPrice || terms.Price > MaxPrice {
		return ErrInvalidPrice
	}
	if terms.ExpiryTimestamp <= now+MinExpiryDuration {
		return ErrExpiryTooSoon
	}
	if terms.ExpiryTimestamp >= now+MaxExpiryDuration {
		return ErrExpiryTooFar
	}
	if terms.MaxRedemptions == 0 || terms.MaxRedemptions > MaxRedemptionsPerCoupon {
		return ErrInvalidQuantity
	}
	if terms.MetadataURI == "" {
		return ErrURIEmpty
	}
	if utf8.RuneCountInString(terms.MetadataURI) > MaxURILength {
		return ErrURITooLong
	}
	if !validator.HasApprovedScheme(terms.MetadataURI) || !validator.HasNoControlChars(terms.MetadataURI) {
		return ErrInvalidURI
	}
	if !terms.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

func validateReview(rating int, comment string) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return ErrCommentTooLong
	}
	if !validator.HasNoControlChars(comment) {
		return ErrInvalidCharacters
	}
	return nil
}

func validateLoyaltyAmounts(purchaseAmount, savingsAmount uint64) error {
	if purchaseAmount > MaxPrice || savingsAmount > MaxPrice {
		return ErrInvalidAmount
	}
	return nil
}

// checkCouponLive is the gate shared by purchase and redeem: the coupon must
// be active, its merchant unpaused and the expiry not yet reached.
func checkCouponLive(coupon *model.Coupon, merchant *model.Merchant, now int64) error {
	if !coupon.IsActive {
		return ErrCouponInactive
	}
	if merchant.IsPaused {
		return ErrMerchantPaused
	}
	if now >= coupon.ExpiryTimestamp {
		return ErrCouponExpired
	}
	return nil
}
