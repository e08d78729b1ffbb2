package model

import "github.com/google/uuid"

// Review is a rating left by a user who bought or redeemed a coupon.
type Review struct {
	ID        uuid.UUID `json:"id"`
	CouponID  uuid.UUID `json:"coupon_id"`
	User      string    `json:"user"`
	Rating    uint8     `json:"rating"`
	Comment   string    `json:"comment"`
	Timestamp int64     `json:"timestamp"`
}

// SubmitReviewRequest is the DTO for submitting a review
type SubmitReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=500,nocontrol"`
}
