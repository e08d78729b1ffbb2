package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pl974/dealchain/internal/service"
)

// statusFor maps an error's kind to its HTTP status.
func statusFor(err error) int {
	switch service.KindOf(err) {
	case service.KindValidation:
		return fiber.StatusBadRequest
	case service.KindAuthorization:
		return fiber.StatusForbidden
	case service.KindNotFound:
		return fiber.StatusNotFound
	case service.KindState:
		return fiber.StatusConflict
	case service.KindOverflow:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as {"error", "code"}. Errors without a ledger
// code are logged and hidden behind a generic 500.
func respondError(c *fiber.Ctx, err error, msg string) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg(msg)
		return c.Status(status).JSON(fiber.Map{"error": "internal server error", "code": "InternalError"})
	}

	var e *service.Error
	errors.As(err, &e)
	return c.Status(status).JSON(fiber.Map{"error": e.Message, "code": e.Code})
}

// badBody answers a request whose JSON body could not be parsed.
func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "invalid request body",
		"code":  service.ErrInvalidRequest.Code,
	})
}

// parseID reads a UUID path parameter.
func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, service.ErrInvalidRequest
	}
	return id, nil
}

// formatValidationError converts validator errors into the ledger error the
// service layer would return for the same input, so both paths answer with
// the same code.
func formatValidationError(err error) *service.Error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return service.ErrInvalidRequest
	}

	fe := ve[0]
	tag := fe.Tag()
	if tag == "nocontrol" {
		return service.ErrInvalidCharacters
	}

	switch fe.Field() {
	case "Name":
		if tag == "max" {
			return service.ErrNameTooLong
		}
		return service.ErrNameEmpty
	case "Description":
		return service.ErrDescriptionTooLong
	case "Rating":
		return service.ErrInvalidRating
	case "Comment":
		return service.ErrCommentTooLong
	case "PurchaseAmount", "SavingsAmount":
		return service.ErrInvalidAmount
	default:
		return service.ErrInvalidRequest
	}
}
