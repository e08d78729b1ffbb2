package model

import (
	"math"

	"github.com/google/uuid"
)

// CouponCategory classifies a deal.
type CouponCategory string

const (
	CategoryTravel        CouponCategory = "travel"
	CategoryFood          CouponCategory = "food"
	CategoryShopping      CouponCategory = "shopping"
	CategoryEntertainment CouponCategory = "entertainment"
	CategoryServices      CouponCategory = "services"
	CategoryHealth        CouponCategory = "health"
	CategoryEducation     CouponCategory = "education"
	CategoryOther         CouponCategory = "other"
)

var couponCategories = map[CouponCategory]struct{}{
	CategoryTravel:        {},
	CategoryFood:          {},
	CategoryShopping:      {},
	CategoryEntertainment: {},
	CategoryServices:      {},
	CategoryHealth:        {},
	CategoryEducation:     {},
	CategoryOther:         {},
}

// Valid reports whether c is one of the known categories.
func (c CouponCategory) Valid() bool {
	_, ok := couponCategories[c]
	return ok
}

// CouponAssetPrefix namespaces coupon units in the asset ledger, apart from
// the settlement asset.
const CouponAssetPrefix = "coupon:"

// CouponAsset returns the asset-ledger id of the units minted for mint.
func CouponAsset(mint string) string {
	return CouponAssetPrefix + mint
}

// Coupon is a priced, quantity-limited, time-bounded offer tied to one
// asset type (Mint).
type Coupon struct {
	ID                 uuid.UUID      `json:"id"`
	Mint               string         `json:"mint"`
	MerchantID         uuid.UUID      `json:"merchant_id"`
	DiscountPercent    uint8          `json:"discount_percent"`
	DiscountFixed      uint64         `json:"discount_fixed"`
	Price              uint64         `json:"price"`
	ExpiryTimestamp    int64          `json:"expiry_timestamp"`
	MaxRedemptions     uint32         `json:"max_redemptions"`
	CurrentRedemptions uint32         `json:"current_redemptions"`
	TotalPurchases     uint32         `json:"total_purchases"`
	Category           CouponCategory `json:"category"`
	IsTransferable     bool           `json:"is_transferable"`
	IsActive           bool           `json:"is_active"`
	MetadataURI        string         `json:"metadata_uri"`
	CreatedAt          int64          `json:"created_at"`
}

// CouponTerms are the merchant-supplied terms of a new coupon.
type CouponTerms struct {
	Mint            string
	DiscountPercent uint8
	DiscountFixed   uint64
	Price           uint64
	ExpiryTimestamp int64
	MaxRedemptions  uint32
	Category        CouponCategory
	IsTransferable  bool
	MetadataURI     string
}

// CreateCouponRequest is the DTO for creating a coupon. It carries no
// validate tags: the terms are checked by the coupon service after the
// caller's authority and the merchant's pause flag.
type CreateCouponRequest struct {
	Mint            string `json:"mint"`
	DiscountPercent *int   `json:"discount_percent"`
	DiscountFixed   uint64 `json:"discount_fixed"`
	Price           uint64 `json:"price"`
	ExpiryTimestamp int64  `json:"expiry_timestamp"`
	MaxRedemptions  uint32 `json:"max_redemptions"`
	Category        string `json:"category"`
	IsTransferable  bool   `json:"is_transferable"`
	MetadataURI     string `json:"metadata_uri"`
}

// Terms converts the request into coupon terms. A missing or unrepresentable
// discount becomes math.MaxUint8 so it still fails the discount bound.
func (r *CreateCouponRequest) Terms() CouponTerms {
	discount := uint8(math.MaxUint8)
	if r.DiscountPercent != nil && *r.DiscountPercent >= 0 && *r.DiscountPercent <= math.MaxUint8 {
		discount = uint8(*r.DiscountPercent)
	}
	return CouponTerms{
		Mint:            r.Mint,
		DiscountPercent: discount,
		DiscountFixed:   r.DiscountFixed,
		Price:           r.Price,
		ExpiryTimestamp: r.ExpiryTimestamp,
		MaxRedemptions:  r.MaxRedemptions,
		Category:        CouponCategory(r.Category),
		IsTransferable:  r.IsTransferable,
		MetadataURI:     r.MetadataURI,
	}
}

// SetCouponActiveRequest is the DTO for toggling a coupon's active flag
type SetCouponActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}
