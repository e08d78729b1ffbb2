package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pl974/dealchain/internal/model"
)

const (
	testAuthority  = "merchant-authority"
	testBuyer      = "buyer-1"
	testMint       = "mint-coupon-1"
	testSettlement = "USDC"
)

var testNow = time.Unix(1_700_000_000, 0)

// testLedger wires every service to one fakeStore.
type testLedger struct {
	store *fakeStore
	clock *fakeClock

	merchants   *MerchantService
	coupons     *CouponService
	purchases   *PurchaseService
	redemptions *RedemptionService
	reviews     *ReviewService
	loyalty     *LoyaltyService
}

func newTestLedger(t *testing.T) *testLedger {
	t.Helper()

	store := newFakeStore()
	clock := &fakeClock{now: testNow}

	merchants := fakeMerchants{store}
	coupons := fakeCoupons{store}
	redemptions := fakeRedemptions{store}
	reviews := fakeReviews{store}
	badges := fakeBadges{store}
	assets := fakeAssets{store}
	events := fakeEvents{store}

	return &testLedger{
		store:       store,
		clock:       clock,
		merchants:   NewMerchantService(store, merchants, events, clock),
		coupons:     NewCouponService(store, coupons, merchants, reviews, events, clock, testSettlement),
		purchases:   NewPurchaseService(store, coupons, merchants, assets, events, clock, testSettlement),
		redemptions: NewRedemptionService(store, coupons, merchants, redemptions, assets, events, clock),
		reviews:     NewReviewService(store, coupons, merchants, redemptions, reviews, assets, events, clock),
		loyalty:     NewLoyaltyService(store, badges, events, clock),
	}
}

func validTerms(mint string) model.CouponTerms {
	return model.CouponTerms{
		Mint:            mint,
		DiscountPercent: 20,
		Price:           1_000_000,
		ExpiryTimestamp: testNow.Unix() + 7*86_400,
		MaxRedemptions:  100,
		Category:        model.CategoryFood,
		MetadataURI:     "ipfs://QmDealMetadata",
	}
}

func (l *testLedger) registerMerchant(t *testing.T, authority string) *model.Merchant {
	t.Helper()
	m, err := l.merchants.Register(context.Background(), authority, "Coffee Corner", "Fresh beans daily")
	require.NoError(t, err)
	return m
}

func (l *testLedger) createCoupon(t *testing.T, merchant *model.Merchant, terms model.CouponTerms) *model.Coupon {
	t.Helper()
	c, err := l.coupons.Create(context.Background(), merchant.ID, merchant.Authority, terms)
	require.NoError(t, err)
	return c
}

// setupCoupon registers the test merchant and creates one coupon for it.
func (l *testLedger) setupCoupon(t *testing.T, mutate func(terms *model.CouponTerms)) (*model.Merchant, *model.Coupon) {
	t.Helper()
	merchant := l.registerMerchant(t, testAuthority)
	terms := validTerms(testMint)
	if mutate != nil {
		mutate(&terms)
	}
	return merchant, l.createCoupon(t, merchant, terms)
}
