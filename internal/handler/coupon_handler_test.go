package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pl974/dealchain/internal/model"
	"github.com/pl974/dealchain/internal/service"
	"github.com/pl974/dealchain/internal/validator"
)

// mockCouponService is a mock implementation of CouponServiceInterface.
type mockCouponService struct {
	createFn       func(ctx context.Context, merchantID uuid.UUID, caller string, terms model.CouponTerms) (*model.Coupon, error)
	setActiveFn    func(ctx context.Context, couponID uuid.UUID, caller string, active bool) (*model.Coupon, error)
	closeExpiredFn func(ctx context.Context, couponID uuid.UUID, caller string) error
	getFn          func(ctx context.Context, couponID uuid.UUID) (*model.Coupon, error)
	listReviewsFn  func(ctx context.Context, couponID uuid.UUID) ([]model.Review, error)
}

func (m *mockCouponService) Create(ctx context.Context, merchantID uuid.UUID, caller string, terms model.CouponTerms) (*model.Coupon, error) {
	if m.createFn != nil {
		return m.createFn(ctx, merchantID, caller, terms)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCouponService) SetActive(ctx context.Context, couponID uuid.UUID, caller string, active bool) (*model.Coupon, error) {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, couponID, caller, active)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCouponService) CloseExpired(ctx context.Context, couponID uuid.UUID, caller string) error {
	if m.closeExpiredFn != nil {
		return m.closeExpiredFn(ctx, couponID, caller)
	}
	return errors.New("not implemented")
}

func (m *mockCouponService) Get(ctx context.Context, couponID uuid.UUID) (*model.Coupon, error) {
	if m.getFn != nil {
		return m.getFn(ctx, couponID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCouponService) ListReviews(ctx context.Context, couponID uuid.UUID) ([]model.Review, error) {
	if m.listReviewsFn != nil {
		return m.listReviewsFn(ctx, couponID)
	}
	return nil, errors.New("not implemented")
}

func setupCouponApp(svc *mockCouponService) *fiber.App {
	app, api := newAuthedApp()
	h := NewCouponHandler(svc, validator.New())
	api.Post("/merchants/:merchantID/coupons", h.CreateCoupon)
	api.Get("/coupons/:couponID", h.GetCoupon)
	api.Patch("/coupons/:couponID/active", h.SetCouponActive)
	api.Delete("/coupons/:couponID", h.CloseExpiredCoupon)
	api.Get("/coupons/:couponID/reviews", h.ListReviews)
	return app
}

const validCouponBody = `{
	"mint": "mint-coupon-1",
	"discount_percent": 20,
	"discount_fixed": 0,
	"price": 1000000,
	"expiry_timestamp": 1700604800,
	"max_redemptions": 100,
	"category": "food",
	"is_transferable": true,
	"metadata_uri": "ipfs://QmDealMetadata"
}`

func TestCreateCoupon_Success(t *testing.T) {
	merchantID := uuid.New()
	couponID := uuid.New()
	var gotTerms model.CouponTerms
	var gotCaller string
	svc := &mockCouponService{
		createFn: func(ctx context.Context, mID uuid.UUID, caller string, terms model.CouponTerms) (*model.Coupon, error) {
			gotTerms, gotCaller = terms, caller
			return &model.Coupon{ID: couponID, MerchantID: mID, Mint: terms.Mint, IsActive: true}, nil
		},
	}

	resp := call(t, setupCouponApp(svc), "POST", "/api/merchants/"+merchantID.String()+"/coupons", testAuthority, validCouponBody)

	require.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Body))
	assert.Equal(t, testAuthority, gotCaller)
	assert.Equal(t, model.CouponTerms{
		Mint:            "mint-coupon-1",
		DiscountPercent: 20,
		Price:           1_000_000,
		ExpiryTimestamp: 1_700_604_800,
		MaxRedemptions:  100,
		Category:        model.CategoryFood,
		IsTransferable:  true,
		MetadataURI:     "ipfs://QmDealMetadata",
	}, gotTerms)

	body := resp.decode(t)
	assert.Equal(t, couponID.String(), body["id"])
	assert.Equal(t, merchantID.String(), body["merchant_id"])
}

func TestCreateCoupon_ZeroDiscountAccepted(t *testing.T) {
	svc := &mockCouponService{
		createFn: func(ctx context.Context, mID uuid.UUID, caller string, terms model.CouponTerms) (*model.Coupon, error) {
			assert.Equal(t, uint8(0), terms.DiscountPercent)
			return &model.Coupon{ID: uuid.New()}, nil
		},
	}
	body := `{"mint":"m","discount_percent":0,"price":1000,"expiry_timestamp":1700604800,
		"max_redemptions":1,"category":"other","metadata_uri":"ar://x"}`

	resp := call(t, setupCouponApp(svc), "POST", "/api/merchants/"+uuid.NewString()+"/coupons", testAuthority, body)

	assert.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Body))
}

func TestCreateCoupon_TermsCheckedByService(t *testing.T) {
	invalidPrice := `{"mint":"m","discount_percent":20,"price":1,"expiry_timestamp":1,"max_redemptions":1,"category":"food","metadata_uri":"ipfs://x"}`

	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"stranger", service.ErrUnauthorized, fiber.StatusForbidden},
		{"paused merchant", service.ErrMerchantPaused, fiber.StatusConflict},
		{"authority", service.ErrInvalidPrice, fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotTerms model.CouponTerms
			svc := &mockCouponService{
				createFn: func(ctx context.Context, mID uuid.UUID, caller string, terms model.CouponTerms) (*model.Coupon, error) {
					gotTerms = terms
					return nil, tt.serviceErr
				},
			}

			resp := call(t, setupCouponApp(svc), "POST", "/api/merchants/"+uuid.NewString()+"/coupons", testAuthority, invalidPrice)

			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, service.CodeOf(tt.serviceErr), resp.decode(t)["code"])
			assert.Equal(t, uint64(1), gotTerms.Price)
		})
	}
}

func TestCreateCoupon_OutOfRangeDiscountReachesService(t *testing.T) {
	var gotDiscount uint8
	svc := &mockCouponService{
		createFn: func(ctx context.Context, mID uuid.UUID, caller string, terms model.CouponTerms) (*model.Coupon, error) {
			gotDiscount = terms.DiscountPercent
			return nil, service.ErrInvalidDiscount
		},
	}
	body := `{"mint":"m","discount_percent":150,"price":1000000,"expiry_timestamp":1,"max_redemptions":1,"category":"food","metadata_uri":"ipfs://x"}`

	resp := call(t, setupCouponApp(svc), "POST", "/api/merchants/"+uuid.NewString()+"/coupons", testAuthority, body)

	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	assert.Equal(t, "InvalidDiscount", resp.decode(t)["code"])
	assert.Equal(t, uint8(150), gotDiscount)
}

func TestCreateCoupon_MalformedBody(t *testing.T) {
	called := false
	svc := &mockCouponService{
		createFn: func(ctx context.Context, mID uuid.UUID, caller string, terms model.CouponTerms) (*model.Coupon, error) {
			called = true
			return nil, nil
		},
	}

	resp := call(t, setupCouponApp(svc), "POST", "/api/merchants/"+uuid.NewString()+"/coupons", testAuthority, `{"price":"cheap"`)

	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	assert.Equal(t, "InvalidRequest", resp.decode(t)["code"])
	assert.False(t, called)
}

func TestCreateCoupon_ServiceErrors(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{service.ErrExpiryTooSoon, fiber.StatusBadRequest},
		{service.ErrUnauthorized, fiber.StatusForbidden},
		{service.ErrMerchantNotFound, fiber.StatusNotFound},
		{service.ErrMerchantPaused, fiber.StatusConflict},
		{service.ErrCouponExists, fiber.StatusConflict},
		{service.ErrArithmeticOverflow, fiber.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(service.CodeOf(tt.err), func(t *testing.T) {
			svc := &mockCouponService{
				createFn: func(ctx context.Context, mID uuid.UUID, caller string, terms model.CouponTerms) (*model.Coupon, error) {
					return nil, tt.err
				},
			}
			resp := call(t, setupCouponApp(svc), "POST", "/api/merchants/"+uuid.NewString()+"/coupons", testAuthority, validCouponBody)

			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, service.CodeOf(tt.err), resp.decode(t)["code"])
		})
	}
}

func TestGetCoupon(t *testing.T) {
	id := uuid.New()
	svc := &mockCouponService{
		getFn: func(ctx context.Context, couponID uuid.UUID) (*model.Coupon, error) {
			if couponID != id {
				return nil, service.ErrCouponNotFound
			}
			return &model.Coupon{ID: id, Price: 1_000_000, TotalPurchases: 3}, nil
		},
	}
	app := setupCouponApp(svc)

	resp := call(t, app, "GET", "/api/coupons/"+id.String(), testUser, "")
	assert.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, float64(3), resp.decode(t)["total_purchases"])

	resp = call(t, app, "GET", "/api/coupons/"+uuid.NewString(), testUser, "")
	assert.Equal(t, fiber.StatusNotFound, resp.Status)
}

func TestSetCouponActive(t *testing.T) {
	id := uuid.New()
	var gotActive bool
	svc := &mockCouponService{
		setActiveFn: func(ctx context.Context, couponID uuid.UUID, caller string, active bool) (*model.Coupon, error) {
			gotActive = active
			return &model.Coupon{ID: couponID, IsActive: active}, nil
		},
	}
	app := setupCouponApp(svc)

	resp := call(t, app, "PATCH", "/api/coupons/"+id.String()+"/active", testAuthority, `{"is_active":false}`)
	assert.Equal(t, fiber.StatusOK, resp.Status)
	assert.False(t, gotActive)
	assert.Equal(t, false, resp.decode(t)["is_active"])

	resp = call(t, app, "PATCH", "/api/coupons/"+id.String()+"/active", testAuthority, `{}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	assert.Equal(t, "InvalidRequest", resp.decode(t)["code"])
}

func TestCloseExpiredCoupon(t *testing.T) {
	id := uuid.New()
	svc := &mockCouponService{
		closeExpiredFn: func(ctx context.Context, couponID uuid.UUID, caller string) error {
			if caller != testAuthority {
				return service.ErrUnauthorized
			}
			return nil
		},
	}
	app := setupCouponApp(svc)

	resp := call(t, app, "DELETE", "/api/coupons/"+id.String(), testAuthority, "")
	assert.Equal(t, fiber.StatusNoContent, resp.Status)
	assert.Empty(t, resp.Body)

	resp = call(t, app, "DELETE", "/api/coupons/"+id.String(), testUser, "")
	assert.Equal(t, fiber.StatusForbidden, resp.Status)
}

func TestCloseExpiredCoupon_GracePeriod(t *testing.T) {
	svc := &mockCouponService{
		closeExpiredFn: func(ctx context.Context, couponID uuid.UUID, caller string) error {
			return service.ErrCouponNotExpiredYet
		},
	}

	resp := call(t, setupCouponApp(svc), "DELETE", "/api/coupons/"+uuid.NewString(), testAuthority, "")

	assert.Equal(t, fiber.StatusConflict, resp.Status)
	assert.Equal(t, "CouponNotExpiredYet", resp.decode(t)["code"])
}

func TestListReviews(t *testing.T) {
	id := uuid.New()
	svc := &mockCouponService{
		listReviewsFn: func(ctx context.Context, couponID uuid.UUID) ([]model.Review, error) {
			return []model.Review{
				{CouponID: couponID, User: "u1", Rating: 5},
				{CouponID: couponID, User: "u2", Rating: 3},
			}, nil
		},
	}

	resp := call(t, setupCouponApp(svc), "GET", "/api/coupons/"+id.String()+"/reviews", testUser, "")

	assert.Equal(t, fiber.StatusOK, resp.Status)
	reviews, ok := resp.decode(t)["reviews"].([]any)
	require.True(t, ok)
	assert.Len(t, reviews, 2)
}
