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

// CouponServiceInterface defines the interface for coupon business logic.
type CouponServiceInterface interface {
	Create(ctx context.Context, merchantID uuid.UUID, caller string, terms model.CouponTerms) (*model.Coupon, error)
	SetActive(ctx context.Context, couponID uuid.UUID, caller string, active bool) (*model.Coupon, error)
	CloseExpired(ctx context.Context, couponID uuid.UUID, caller string) error
	Get(ctx context.Context, couponID uuid.UUID) (*model.Coupon, error)
	ListReviews(ctx context.Context, couponID uuid.UUID) ([]model.Review, error)
}

// CouponHandler handles HTTP requests for coupon operations.
type CouponHandler struct {
	service   CouponServiceInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and validator.
func NewCouponHandler(svc CouponServiceInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// CreateCoupon handles POST /api/merchants/:merchantID/coupons.
// The terms go to the service unchecked: it reports authority and pause
// failures before any problem with the terms.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	merchantID, err := parseID(c, "merchantID")
	if err != nil {
		return respondError(c, err, "")
	}

	var req model.CreateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	coupon, err := h.service.Create(c.Context(), merchantID, middleware.Caller(c), req.Terms())
	metrics.Ledger().RecordOperation(metrics.OpCreateCoupon, err)
	if err != nil {
		return respondError(c, err, "failed to create coupon")
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("merchant_id", merchantID.String()).
		Str("coupon_id", coupon.ID.String()).
		Str("mint", coupon.Mint).
		Msg("coupon created")

	return c.Status(fiber.StatusCreated).JSON(coupon)
}

// GetCoupon handles GET /api/coupons/:couponID.
func (h *CouponHandler) GetCoupon(c *fiber.Ctx) error {
	id, err := parseID(c, "couponID")
	if err != nil {
		return respondError(c, err, "")
	}

	coupon, err := h.service.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err, "failed to get coupon")
	}
	return c.JSON(coupon)
}

// SetCouponActive handles PATCH /api/coupons/:couponID/active.
func (h *CouponHandler) SetCouponActive(c *fiber.Ctx) error {
	id, err := parseID(c, "couponID")
	if err != nil {
		return respondError(c, err, "")
	}

	var req model.SetCouponActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, formatValidationError(err), "")
	}

	coupon, err := h.service.SetActive(c.Context(), id, middleware.Caller(c), *req.IsActive)
	metrics.Ledger().RecordOperation(metrics.OpSetCouponActive, err)
	if err != nil {
		return respondError(c, err, "failed to update coupon status")
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("coupon_id", coupon.ID.String()).
		Bool("is_active", coupon.IsActive).
		Msg("coupon status updated")

	return c.JSON(coupon)
}

// CloseExpiredCoupon handles DELETE /api/coupons/:couponID.
func (h *CouponHandler) CloseExpiredCoupon(c *fiber.Ctx) error {
	id, err := parseID(c, "couponID")
	if err != nil {
		return respondError(c, err, "")
	}

	err = h.service.CloseExpired(c.Context(), id, middleware.Caller(c))
	metrics.Ledger().RecordOperation(metrics.OpCloseExpired, err)
	if err != nil {
		return respondError(c, err, "failed to close coupon")
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("coupon_id", id.String()).
		Msg("expired coupon closed")

	return c.SendStatus(fiber.StatusNoContent)
}

// ListReviews handles GET /api/coupons/:couponID/reviews.
func (h *CouponHandler) ListReviews(c *fiber.Ctx) error {
	id, err := parseID(c, "couponID")
	if err != nil {
		return respondError(c, err, "")
	}

	reviews, err := h.service.ListReviews(c.Context(), id)
	if err != nil {
		return respondError(c, err, "failed to list reviews")
	}
	return c.JSON(fiber.Map{"reviews": reviews})
}
