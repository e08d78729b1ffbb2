package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/pl974/dealchain/internal/validator"
)

// RoleSettlement is carried by tokens issued to the settlement service that
// reports verified purchases.
const RoleSettlement = "settlement"

const (
	localsCaller = "caller"
	localsRole   = "role"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims are the JWT claims accepted by the API. The subject is the caller's
// principal.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for subject.
func IssueToken(secret, issuer, subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies tokenString and returns its claims.
func ParseToken(secret, issuer, tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !validator.IsPrincipal(claims.Subject) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate requires a valid bearer token and stores the caller's
// principal and role for the handlers.
func Authenticate(secret, issuer string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return unauthenticated(c, ErrMissingToken)
		}

		claims, err := ParseToken(secret, issuer, strings.TrimSpace(parts[1]))
		if err != nil {
			return unauthenticated(c, err)
		}

		c.Locals(localsCaller, claims.Subject)
		c.Locals(localsRole, claims.Role)
		return c.Next()
	}
}

// RequireRole rejects authenticated callers whose token lacks role.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if got, _ := c.Locals(localsRole).(string); got != role {
			log.Warn().
				Str("request_id", c.GetRespHeader("X-Request-ID")).
				Str("path", c.Path()).
				Str("caller", Caller(c)).
				Str("required_role", role).
				Msg("caller lacks required role")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "caller lacks the " + role + " role",
				"code":  "Forbidden",
			})
		}
		return c.Next()
	}
}

// Caller returns the authenticated principal, or "" outside Authenticate.
func Caller(c *fiber.Ctx) string {
	caller, _ := c.Locals(localsCaller).(string)
	return caller
}

func unauthenticated(c *fiber.Ctx, err error) error {
	log.Warn().
		Err(err).
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg("authentication failed")
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": err.Error(),
		"code":  "Unauthenticated",
	})
}
