package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pl974/dealchain/internal/metrics"
	"github.com/pl974/dealchain/internal/middleware"
	"github.com/pl974/dealchain/internal/model"
)

// PurchaseServiceInterface defines the interface for coupon purchases.
type PurchaseServiceInterface interface {
	Purchase(ctx context.Context, couponID uuid.UUID, buyer string) (*model.Coupon, error)
}

// RedemptionServiceInterface defines the interface for coupon redemptions.
type RedemptionServiceInterface interface {
	Redeem(ctx context.Context, couponID uuid.UUID, user string) (*model.RedemptionRecord, error)
}

// ReviewServiceInterface defines the interface for coupon reviews.
type ReviewServiceInterface interface {
	Submit(ctx context.Context, couponID uuid.UUID, user string, rating int, comment string) (*model.Review, error)
}

// DealHandler handles the buyer side of a coupon: purchase, redeem, review.
type DealHandler struct {
	purchases   PurchaseServiceInterface
	redemptions RedemptionServiceInterface
	reviews     ReviewServiceInterface
	validator   *validator.Validate
}

// NewDealHandler creates a new DealHandler with the given services and validator.
func NewDealHandler(
	purchases PurchaseServiceInterface,
	redemptions RedemptionServiceInterface,
	reviews ReviewServiceInterface,
	v *validator.Validate,
) *DealHandler {
	return &DealHandler{
		purchases:   purchases,
		redemptions: redemptions,
		reviews:     reviews,
		validator:   v,
	}
}

// Purchase handles POST /api/coupons/:couponID/purchase.
func (h *DealHandler) Purchase(c *fiber.Ctx) error {
	id, err := parseID(c, "couponID")
	if err != nil {
		return respondError(c, err, "")
	}

	buyer := middleware.Caller(c)
	coupon, err := h.purchases.Purchase(c.Context(), id, buyer)
	metrics.Ledger().RecordOperation(metrics.OpPurchase, err)
	if err != nil {
		return respondError(c, err, "failed to purchase coupon")
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("coupon_id", coupon.ID.String()).
		Str("buyer", buyer).
		Uint32("total_purchases", coupon.TotalPurchases).
		Msg("coupon purchased")

	return c.JSON(coupon)
}

// Redeem handles POST /api/coupons/:couponID/redeem.
func (h *DealHandler) Redeem(c *fiber.Ctx) error {
	id, err := parseID(c, "couponID")
	if err != nil {
		return respondError(c, err, "")
	}

	user := middleware.Caller(c)
	record, err := h.redemptions.Redeem(c.Context(), id, user)
	metrics.Ledger().RecordOperation(metrics.OpRedeem, err)
	if err != nil {
		return respondError(c, err, "failed to redeem coupon")
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("coupon_id", id.String()).
		Str("user", user).
		Msg("coupon redeemed")

	return c.Status(fiber.StatusCreated).JSON(record)
}

// SubmitReview handles POST /api/coupons/:couponID/reviews.
func (h *DealHandler) SubmitReview(c *fiber.Ctx) error {
	id, err := parseID(c, "couponID")
	if err != nil {
		return respondError(c, err, "")
	}

	var req model.SubmitReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if err := h.validator.Struct(req); err != nil {
		verr := formatValidationError(err)
		metrics.Ledger().RecordOperation(metrics.OpSubmitReview, verr)
		return respondError(c, verr, "")
	}

	user := middleware.Caller(c)
	review, err := h.reviews.Submit(c.Context(), id, user, req.Rating, req.Comment)
	metrics.Ledger().RecordOperation(metrics.OpSubmitReview, err)
	if err != nil {
		return respondError(c, err, "failed to submit review")
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("coupon_id", id.String()).
		Str("user", user).
		Uint8("rating", review.Rating).
		Msg("review submitted")

	return c.Status(fiber.StatusCreated).JSON(review)
}
