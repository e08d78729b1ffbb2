package model

import "github.com/google/uuid"

// RedemptionRecord marks that a user redeemed a coupon. Its id is
// RedemptionKey(CouponID, User); the record's existence is the guard
// against a second redemption, so it is never updated or deleted.
type RedemptionRecord struct {
	ID        uuid.UUID `json:"id"`
	CouponID  uuid.UUID `json:"coupon_id"`
	User      string    `json:"user"`
	Timestamp int64     `json:"timestamp"`
}

// NewRedemptionRecord builds the record for (couponID, user) under its
// derived key.
func NewRedemptionRecord(couponID uuid.UUID, user string, ts int64) *RedemptionRecord {
	return &RedemptionRecord{
		ID:        RedemptionKey(couponID, user),
		CouponID:  couponID,
		User:      user,
		Timestamp: ts,
	}
}

// Holding is what the asset ledger reports a holder owns of one asset type.
// It is the proof of ownership checked on redeem and review.
type Holding struct {
	Asset  string `json:"asset"`
	Holder string `json:"holder"`
	Amount uint64 `json:"amount"`
}
