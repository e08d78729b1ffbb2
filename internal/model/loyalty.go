package model

import "github.com/google/uuid"

// LoyaltyTier is a benefits band derived from accumulated points.
type LoyaltyTier string

const (
	TierBronze   LoyaltyTier = "bronze"
	TierSilver   LoyaltyTier = "silver"
	TierGold     LoyaltyTier = "gold"
	TierPlatinum LoyaltyTier = "platinum"
)

// Valid reports whether t is a known tier.
func (t LoyaltyTier) Valid() bool {
	switch t {
	case TierBronze, TierSilver, TierGold, TierPlatinum:
		return true
	}
	return false
}

// LoyaltyBadge tracks a user's verified purchases and tier.
type LoyaltyBadge struct {
	ID             uuid.UUID   `json:"id"`
	User           string      `json:"user"`
	Tier           LoyaltyTier `json:"tier"`
	DealsPurchased uint32      `json:"deals_purchased"`
	TotalSaved     uint64      `json:"total_saved"`
	Points         uint32      `json:"points"`
	CreatedAt      int64       `json:"created_at"`
}

// VerifiedPurchaseRequest is the DTO for crediting a verified purchase
type VerifiedPurchaseRequest struct {
	PurchaseAmount uint64 `json:"purchase_amount" validate:"lte=1000000000000"`
	SavingsAmount  uint64 `json:"savings_amount" validate:"lte=1000000000000"`
}
