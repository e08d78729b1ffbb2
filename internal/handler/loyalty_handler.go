package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/pl974/dealchain/internal/metrics"
	"github.com/pl974/dealchain/internal/middleware"
	"github.com/pl974/dealchain/internal/model"
)

// LoyaltyServiceInterface defines the interface for loyalty badges.
type LoyaltyServiceInterface interface {
	Initialize(ctx context.Context, user string) (*model.LoyaltyBadge, error)
	OnVerifiedPurchase(ctx context.Context, user string, purchaseAmount, savingsAmount uint64) (*model.LoyaltyBadge, error)
	Get(ctx context.Context, user string) (*model.LoyaltyBadge, error)
}

// LoyaltyHandler handles HTTP requests for loyalty badges.
type LoyaltyHandler struct {
	service   LoyaltyServiceInterface
	validator *validator.Validate
}

// NewLoyaltyHandler creates a new LoyaltyHandler with the given service and validator.
func NewLoyaltyHandler(svc LoyaltyServiceInterface, v *validator.Validate) *LoyaltyHandler {
	return &LoyaltyHandler{service: svc, validator: v}
}

// InitializeBadge handles POST /api/loyalty for the caller.
func (h *LoyaltyHandler) InitializeBadge(c *fiber.Ctx) error {
	user := middleware.Caller(c)
	badge, err := h.service.Initialize(c.Context(), user)
	metrics.Ledger().RecordOperation(metrics.OpInitializeBadge, err)
	if err != nil {
		return respondError(c, err, "failed to initialize loyalty badge")
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("user", user).
		Msg("loyalty badge created")

	return c.Status(fiber.StatusCreated).JSON(badge)
}

// GetBadge handles GET /api/loyalty/:user.
func (h *LoyaltyHandler) GetBadge(c *fiber.Ctx) error {
	badge, err := h.service.Get(c.Context(), c.Params("user"))
	if err != nil {
		return respondError(c, err, "failed to get loyalty badge")
	}
	return c.JSON(badge)
}

// RecordPurchase handles POST /api/loyalty/:user/purchases. The route is
// restricted to settlement callers.
func (h *LoyaltyHandler) RecordPurchase(c *fiber.Ctx) error {
	var req model.VerifiedPurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if err := h.validator.Struct(req); err != nil {
		verr := formatValidationError(err)
		metrics.Ledger().RecordOperation(metrics.OpVerifiedPurchase, verr)
		return respondError(c, verr, "")
	}

	user := c.Params("user")
	badge, err := h.service.OnVerifiedPurchase(c.Context(), user, req.PurchaseAmount, req.SavingsAmount)
	metrics.Ledger().RecordOperation(metrics.OpVerifiedPurchase, err)
	if err != nil {
		return respondError(c, err, "failed to record verified purchase")
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("user", user).
		Str("tier", string(badge.Tier)).
		Uint32("points", badge.Points).
		Msg("verified purchase recorded")

	return c.JSON(badge)
}
