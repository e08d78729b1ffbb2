package model

import "github.com/google/uuid"

// Event names published to the ledger_events outbox. They are a stable
// contract for external indexers.
const (
	EventMerchantRegistered   = "MerchantRegistered"
	EventMerchantPauseToggled = "MerchantPauseToggled"
	EventCouponCreated        = "CouponCreated"
	EventCouponStatusUpdated  = "CouponStatusUpdated"
	EventCouponClosed         = "CouponClosed"
	EventCouponPurchased      = "CouponPurchased"
	EventCouponRedeemed       = "CouponRedeemed"
	EventReviewSubmitted      = "ReviewSubmitted"
	EventLoyaltyBadgeCreated  = "LoyaltyBadgeCreated"
	EventLoyaltyBadgeUpdated  = "LoyaltyBadgeUpdated"
)

// Event is one notification, written in the same transaction as the state
// change it describes.
type Event struct {
	ID        uuid.UUID
	Name      string
	Payload   any
	Timestamp int64
}

func newEvent(name string, ts int64, payload any) Event {
	return Event{ID: uuid.New(), Name: name, Payload: payload, Timestamp: ts}
}

type MerchantRegistered struct {
	Merchant  uuid.UUID `json:"merchant"`
	Authority string    `json:"authority"`
	Timestamp int64     `json:"timestamp"`
}

type MerchantPauseToggled struct {
	Merchant  uuid.UUID `json:"merchant"`
	IsPaused  bool      `json:"is_paused"`
	Timestamp int64     `json:"timestamp"`
}

type CouponCreated struct {
	Coupon          uuid.UUID      `json:"coupon"`
	Mint            string         `json:"mint"`
	Merchant        uuid.UUID      `json:"merchant"`
	DiscountPercent uint8          `json:"discount_percent"`
	Price           uint64         `json:"price"`
	MaxRedemptions  uint32         `json:"max_redemptions"`
	Category        CouponCategory `json:"category"`
	Timestamp       int64          `json:"timestamp"`
}

type CouponStatusUpdated struct {
	Coupon    uuid.UUID `json:"coupon"`
	IsActive  bool      `json:"is_active"`
	Timestamp int64     `json:"timestamp"`
}

type CouponClosed struct {
	Coupon    uuid.UUID `json:"coupon"`
	Merchant  uuid.UUID `json:"merchant"`
	Timestamp int64     `json:"timestamp"`
}

type CouponPurchased struct {
	Coupon    uuid.UUID `json:"coupon"`
	Buyer     string    `json:"buyer"`
	Price     uint64    `json:"price"`
	Timestamp int64     `json:"timestamp"`
}

type CouponRedeemed struct {
	Coupon    uuid.UUID `json:"coupon"`
	User      string    `json:"user"`
	Merchant  uuid.UUID `json:"merchant"`
	Timestamp int64     `json:"timestamp"`
}

type ReviewSubmitted struct {
	Review    uuid.UUID `json:"review"`
	Coupon    uuid.UUID `json:"coupon"`
	User      string    `json:"user"`
	Rating    uint8     `json:"rating"`
	Timestamp int64     `json:"timestamp"`
}

type LoyaltyBadgeCreated struct {
	Badge     uuid.UUID `json:"badge"`
	User      string    `json:"user"`
	Timestamp int64     `json:"timestamp"`
}

type LoyaltyBadgeUpdated struct {
	Badge     uuid.UUID   `json:"badge"`
	User      string      `json:"user"`
	Tier      LoyaltyTier `json:"tier"`
	Points    uint32      `json:"points"`
	Timestamp int64       `json:"timestamp"`
}

func NewMerchantRegisteredEvent(m *Merchant) Event {
	return newEvent(EventMerchantRegistered, m.CreatedAt, MerchantRegistered{
		Merchant:  m.ID,
		Authority: m.Authority,
		Timestamp: m.CreatedAt,
	})
}

func NewMerchantPauseToggledEvent(m *Merchant, ts int64) Event {
	return newEvent(EventMerchantPauseToggled, ts, MerchantPauseToggled{
		Merchant:  m.ID,
		IsPaused:  m.IsPaused,
		Timestamp: ts,
	})
}

func NewCouponCreatedEvent(c *Coupon) Event {
	return newEvent(EventCouponCreated, c.CreatedAt, CouponCreated{
		Coupon:          c.ID,
		Mint:            c.Mint,
		Merchant:        c.MerchantID,
		DiscountPercent: c.DiscountPercent,
		Price:           c.Price,
		MaxRedemptions:  c.MaxRedemptions,
		Category:        c.Category,
		Timestamp:       c.CreatedAt,
	})
}

func NewCouponStatusUpdatedEvent(c *Coupon, ts int64) Event {
	return newEvent(EventCouponStatusUpdated, ts, CouponStatusUpdated{
		Coupon:    c.ID,
		IsActive:  c.IsActive,
		Timestamp: ts,
	})
}

func NewCouponClosedEvent(c *Coupon, ts int64) Event {
	return newEvent(EventCouponClosed, ts, CouponClosed{
		Coupon:    c.ID,
		Merchant:  c.MerchantID,
		Timestamp: ts,
	})
}

func NewCouponPurchasedEvent(c *Coupon, buyer string, ts int64) Event {
	return newEvent(EventCouponPurchased, ts, CouponPurchased{
		Coupon:    c.ID,
		Buyer:     buyer,
		Price:     c.Price,
		Timestamp: ts,
	})
}

func NewCouponRedeemedEvent(c *Coupon, user string, ts int64) Event {
	return newEvent(EventCouponRedeemed, ts, CouponRedeemed{
		Coupon:    c.ID,
		User:      user,
		Merchant:  c.MerchantID,
		Timestamp: ts,
	})
}

func NewReviewSubmittedEvent(r *Review) Event {
	return newEvent(EventReviewSubmitted, r.Timestamp, ReviewSubmitted{
		Review:    r.ID,
		Coupon:    r.CouponID,
		User:      r.User,
		Rating:    r.Rating,
		Timestamp: r.Timestamp,
	})
}

func NewLoyaltyBadgeCreatedEvent(b *LoyaltyBadge) Event {
	return newEvent(EventLoyaltyBadgeCreated, b.CreatedAt, LoyaltyBadgeCreated{
		Badge:     b.ID,
		User:      b.User,
		Timestamp: b.CreatedAt,
	})
}

func NewLoyaltyBadgeUpdatedEvent(b *LoyaltyBadge, ts int64) Event {
	return newEvent(EventLoyaltyBadgeUpdated, ts, LoyaltyBadgeUpdated{
		Badge:     b.ID,
		User:      b.User,
		Tier:      b.Tier,
		Points:    b.Points,
		Timestamp: ts,
	})
}
