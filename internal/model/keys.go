package model

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// keyNamespace scopes every derived record key to this ledger.
var keyNamespace = uuid.MustParse("6f1d7c2e-5b0a-4c8e-9a37-2e4d1b6c9f03")

// Key seeds. Each record type derives its primary key from its own seed so
// that keys of different record types can never collide.
const (
	seedMerchant   = "merchant"
	seedCoupon     = "coupon"
	seedRedemption = "redemption"
	seedReview     = "review"
	seedLoyalty    = "loyalty"
)

// MerchantKey returns the merchant id owned by an authority principal.
// One authority can therefore own at most one merchant record.
func MerchantKey(authority string) uuid.UUID {
	return deriveKey(seedMerchant, authority)
}

// CouponKey returns the coupon id for an asset type (mint).
func CouponKey(mint string) uuid.UUID {
	return deriveKey(seedCoupon, mint)
}

// RedemptionKey returns the redemption record id for a (coupon, user) pair.
// Inserting a second record under the same key is how a repeated redemption
// is rejected.
func RedemptionKey(couponID uuid.UUID, user string) uuid.UUID {
	return deriveKey(seedRedemption, couponID.String(), user)
}

// ReviewKey returns the review id for a (coupon, user) pair.
func ReviewKey(couponID uuid.UUID, user string) uuid.UUID {
	return deriveKey(seedReview, couponID.String(), user)
}

// LoyaltyKey returns the loyalty badge id for a user.
func LoyaltyKey(user string) uuid.UUID {
	return deriveKey(seedLoyalty, user)
}

// deriveKey hashes the seed and parts into a name-based (SHA-1) UUID.
// Parts are length-prefixed so ("ab","c") and ("a","bc") differ.
func deriveKey(seed string, parts ...string) uuid.UUID {
	size := 4 + len(seed)
	for _, p := range parts {
		size += 4 + len(p)
	}
	buf := make([]byte, 0, size)
	buf = appendPart(buf, seed)
	for _, p := range parts {
		buf = appendPart(buf, p)
	}
	return uuid.NewSHA1(keyNamespace, buf)
}

func appendPart(buf []byte, part string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(part)))
	return append(buf, part...)
}
