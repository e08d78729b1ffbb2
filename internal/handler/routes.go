package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pl974/dealchain/internal/middleware"
)

// Routes bundles the handlers served by the API. Authenticate guards every
// /api route.
type Routes struct {
	Health       *HealthHandler
	Merchant     *MerchantHandler
	Coupon       *CouponHandler
	Deal         *DealHandler
	Loyalty      *LoyaltyHandler
	Authenticate fiber.Handler
}

// Register mounts the route table on app.
func (r Routes) Register(app *fiber.App) {
	app.Get("/health", r.Health.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api", r.Authenticate)

	// Merchant routes
	api.Post("/merchants", r.Merchant.RegisterMerchant)
	api.Get("/merchants/:merchantID", r.Merchant.GetMerchant)
	api.Post("/merchants/:merchantID/pause", r.Merchant.TogglePause)
	api.Post("/merchants/:merchantID/coupons", r.Coupon.CreateCoupon)

	// Coupon routes
	api.Get("/coupons/:couponID", r.Coupon.GetCoupon)
	api.Patch("/coupons/:couponID/active", r.Coupon.SetCouponActive)
	api.Delete("/coupons/:couponID", r.Coupon.CloseExpiredCoupon)
	api.Post("/coupons/:couponID/purchase", r.Deal.Purchase)
	api.Post("/coupons/:couponID/redeem", r.Deal.Redeem)
	api.Post("/coupons/:couponID/reviews", r.Deal.SubmitReview)
	api.Get("/coupons/:couponID/reviews", r.Coupon.ListReviews)

	// Loyalty routes
	api.Post("/loyalty", r.Loyalty.InitializeBadge)
	api.Get("/loyalty/:user", r.Loyalty.GetBadge)
	api.Post("/loyalty/:user/purchases", middleware.RequireRole(middleware.RoleSettlement), r.Loyalty.RecordPurchase)
}
