package model

import "github.com/google/uuid"

// Merchant is an account that issues coupons. It is created once per
// authority and never destroyed; its counters only grow.
type Merchant struct {
	ID                  uuid.UUID `json:"id"`
	Authority           string    `json:"authority"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	TotalCouponsCreated uint32    `json:"total_coupons_created"`
	TotalRedemptions    uint32    `json:"total_redemptions"`
	TotalRevenue        uint64    `json:"total_revenue"`
	RatingSum           uint64    `json:"rating_sum"`
	RatingCount         uint32    `json:"rating_count"`
	IsVerified          bool      `json:"is_verified"`
	IsPaused            bool      `json:"is_paused"`
	CreatedAt           int64     `json:"created_at"`
}

// AverageRating returns rating_sum / rating_count, or 0 without reviews.
func (m *Merchant) AverageRating() float64 {
	if m.RatingCount == 0 {
		return 0
	}
	return float64(m.RatingSum) / float64(m.RatingCount)
}

// MerchantResponse is the API response DTO for GET /api/merchants/:merchantID
type MerchantResponse struct {
	*Merchant
	AverageRating float64 `json:"average_rating"`
}

// NewMerchantResponse wraps a merchant with its derived fields.
func NewMerchantResponse(m *Merchant) *MerchantResponse {
	return &MerchantResponse{Merchant: m, AverageRating: m.AverageRating()}
}

// RegisterMerchantRequest is the DTO for registering a merchant
type RegisterMerchantRequest struct {
	Name        string `json:"name" validate:"required,notblank,max=100,nocontrol"`
	Description string `json:"description" validate:"max=500,nocontrol"`
}
