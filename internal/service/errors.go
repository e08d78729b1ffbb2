package service

import "errors"

// Kind classifies ledger errors so callers can tell "fix the input" from
// "not allowed" from "try later".
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthorization
	KindNotFound
	KindState
	KindOverflow
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindAuthorization:
		return "AuthorizationError"
	case KindNotFound:
		return "NotFound"
	case KindState:
		return "StateError"
	case KindOverflow:
		return "ArithmeticOverflow"
	default:
		return "InternalError"
	}
}

// Error is a coded ledger error. Every instance is a package-level sentinel,
// so errors.Is compares identity.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of the first *Error in err's chain, or "" when
// there is none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Validation errors.
var (
	ErrNameEmpty          = newError(KindValidation, "NameEmpty", "name cannot be empty")
	ErrNameTooLong        = newError(KindValidation, "NameTooLong", "name is too long (max 100 characters)")
	ErrDescriptionTooLong = newError(KindValidation, "DescriptionTooLong", "description is too long (max 500 characters)")
	ErrInvalidCharacters  = newError(KindValidation, "InvalidCharacters", "text contains invalid or control characters")
	ErrInvalidIdentity    = newError(KindValidation, "InvalidIdentity", "identity must be 1-64 printable characters")
	ErrInvalidDiscount    = newError(KindValidation, "InvalidDiscount", "invalid discount percentage (must be 0-100)")
	ErrInvalidPrice       = newError(KindValidation, "InvalidPrice", "invalid price (must be between 1000 and 1000000000000)")
	ErrExpiryTooSoon      = newError(KindValidation, "ExpiryTooSoon", "expiry is too soon (minimum 1 hour from now)")
	ErrExpiryTooFar       = newError(KindValidation, "ExpiryTooFar", "expiry is too far in the future (maximum 1 year)")
	ErrInvalidQuantity    = newError(KindValidation, "InvalidQuantity", "invalid quantity (must be between 1 and 10000)")
	ErrURIEmpty           = newError(KindValidation, "UriEmpty", "metadata uri cannot be empty")
	ErrURITooLong         = newError(KindValidation, "UriTooLong", "metadata uri is too long (max 200 characters)")
	ErrInvalidURI         = newError(KindValidation, "InvalidUri", "invalid uri format (must start with ipfs://, https://, or ar://)")
	ErrInvalidCategory    = newError(KindValidation, "InvalidCategory", "invalid coupon category")
	ErrReservedMint       = newError(KindValidation, "ReservedMint", "mint is reserved for the settlement asset")
	ErrInvalidRating      = newError(KindValidation, "InvalidRating", "invalid rating (must be between 1 and 5)")
	ErrCommentTooLong     = newError(KindValidation, "CommentTooLong", "comment is too long (max 500 characters)")
	ErrInvalidAmount      = newError(KindValidation, "InvalidAmount", "invalid amount provided")
	ErrInsufficientFunds  = newError(KindValidation, "InsufficientFunds", "insufficient funds")
	ErrInvalidAssetAmount = newError(KindValidation, "InvalidAssetAmount", "must hold exactly one unit of the coupon asset")
	ErrWrongAsset         = newError(KindValidation, "WrongAsset", "ownership proof is for a different asset or holder")
	ErrInvalidRequest     = newError(KindValidation, "InvalidRequest", "invalid request")
)

// Authorization errors.
var (
	ErrUnauthorized          = newError(KindAuthorization, "Unauthorized", "caller is not the merchant authority")
	ErrMustOwnCouponToReview = newError(KindAuthorization, "MustOwnCouponToReview", "must own or have redeemed the coupon to review")
)

// Not-found errors.
var (
	ErrMerchantNotFound = newError(KindNotFound, "MerchantNotFound", "merchant not found")
	ErrCouponNotFound   = newError(KindNotFound, "CouponNotFound", "coupon not found")
	ErrBadgeNotFound    = newError(KindNotFound, "LoyaltyBadgeNotFound", "loyalty badge not found")
)

// State errors.
var (
	ErrMerchantExists      = newError(KindState, "MerchantAlreadyRegistered", "merchant already registered for this authority")
	ErrCouponExists        = newError(KindState, "CouponAlreadyExists", "coupon already exists for this mint")
	ErrBadgeExists         = newError(KindState, "LoyaltyBadgeExists", "loyalty badge already exists")
	ErrMerchantPaused      = newError(KindState, "MerchantPaused", "merchant operations are paused")
	ErrCouponInactive      = newError(KindState, "CouponInactive", "coupon is inactive")
	ErrCouponExpired       = newError(KindState, "CouponExpired", "coupon has expired")
	ErrSoldOut             = newError(KindState, "SoldOut", "all coupons have been sold")
	ErrAllRedemptionsUsed  = newError(KindState, "AllRedemptionsUsed", "all redemptions have been used")
	ErrCouponNotExpiredYet = newError(KindState, "CouponNotExpiredYet", "coupon not expired yet (24h grace period required)")
	ErrDuplicateRedemption = newError(KindState, "DuplicateRedemption", "coupon already redeemed by user")
	ErrDuplicateReview     = newError(KindState, "DuplicateReview", "coupon already reviewed by user")
)

// ErrArithmeticOverflow is returned when a counter would exceed its range.
var ErrArithmeticOverflow = newError(KindOverflow, "ArithmeticOverflow", "arithmetic overflow detected")
