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

// MerchantServiceInterface defines the interface for merchant business logic.
type MerchantServiceInterface interface {
	Register(ctx context.Context, authority, name, description string) (*model.Merchant, error)
	TogglePause(ctx context.Context, merchantID uuid.UUID, caller string) (*model.Merchant, error)
	Get(ctx context.Context, merchantID uuid.UUID) (*model.Merchant, error)
}

// MerchantHandler handles HTTP requests for merchant operations.
type MerchantHandler struct {
	service   MerchantServiceInterface
	validator *validator.Validate
}

// NewMerchantHandler creates a new MerchantHandler with the given service and validator.
func NewMerchantHandler(svc MerchantServiceInterface, v *validator.Validate) *MerchantHandler {
	return &MerchantHandler{service: svc, validator: v}
}

// RegisterMerchant handles POST /api/merchants. The caller becomes the
// merchant's authority.
func (h *MerchantHandler) RegisterMerchant(c *fiber.Ctx) error {
	var req model.RegisterMerchantRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if err := h.validator.Struct(req); err != nil {
		verr := formatValidationError(err)
		metrics.Ledger().RecordOperation(metrics.OpRegisterMerchant, verr)
		return respondError(c, verr, "")
	}

	caller := middleware.Caller(c)
	merchant, err := h.service.Register(c.Context(), caller, req.Name, req.Description)
	metrics.Ledger().RecordOperation(metrics.OpRegisterMerchant, err)
	if err != nil {
		return respondError(c, err, "failed to register merchant")
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("merchant_id", merchant.ID.String()).
		Str("authority", caller).
		Msg("merchant registered")

	return c.Status(fiber.StatusCreated).JSON(model.NewMerchantResponse(merchant))
}

// GetMerchant handles GET /api/merchants/:merchantID.
func (h *MerchantHandler) GetMerchant(c *fiber.Ctx) error {
	id, err := parseID(c, "merchantID")
	if err != nil {
		return respondError(c, err, "")
	}

	merchant, err := h.service.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err, "failed to get merchant")
	}
	return c.JSON(model.NewMerchantResponse(merchant))
}

// TogglePause handles POST /api/merchants/:merchantID/pause.
func (h *MerchantHandler) TogglePause(c *fiber.Ctx) error {
	id, err := parseID(c, "merchantID")
	if err != nil {
		return respondError(c, err, "")
	}

	merchant, err := h.service.TogglePause(c.Context(), id, middleware.Caller(c))
	metrics.Ledger().RecordOperation(metrics.OpTogglePause, err)
	if err != nil {
		return respondError(c, err, "failed to toggle merchant pause")
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("merchant_id", merchant.ID.String()).
		Bool("is_paused", merchant.IsPaused).
		Msg("merchant pause toggled")

	return c.JSON(model.NewMerchantResponse(merchant))
}
