package database

import (
	"context"
	"fmt"
)

// Column ranges. u32 counters live in BIGINT, u64 amounts in NUMERIC(20,0);
// the CHECK constraints keep stored values inside the Go types they scan into.
const schema = `
CREATE TABLE IF NOT EXISTS merchants (
	id                    UUID PRIMARY KEY,
	authority             VARCHAR(64) NOT NULL UNIQUE,
	name                  VARCHAR(100) NOT NULL,
	description           VARCHAR(500) NOT NULL DEFAULT '',
	total_coupons_created BIGINT NOT NULL DEFAULT 0 CHECK (total_coupons_created BETWEEN 0 AND 4294967295),
	total_redemptions     BIGINT NOT NULL DEFAULT 0 CHECK (total_redemptions BETWEEN 0 AND 4294967295),
	total_revenue         NUMERIC(20,0) NOT NULL DEFAULT 0 CHECK (total_revenue BETWEEN 0 AND 18446744073709551615),
	rating_sum            NUMERIC(20,0) NOT NULL DEFAULT 0 CHECK (rating_sum BETWEEN 0 AND 18446744073709551615),
	rating_count          BIGINT NOT NULL DEFAULT 0 CHECK (rating_count BETWEEN 0 AND 4294967295),
	is_verified           BOOLEAN NOT NULL DEFAULT FALSE,
	is_paused             BOOLEAN NOT NULL DEFAULT FALSE,
	created_at            BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS coupons (
	id                  UUID PRIMARY KEY,
	mint                VARCHAR(64) NOT NULL UNIQUE,
	merchant_id         UUID NOT NULL REFERENCES merchants(id),
	discount_percent    SMALLINT NOT NULL CHECK (discount_percent BETWEEN 0 AND 100),
	discount_fixed      NUMERIC(20,0) NOT NULL DEFAULT 0 CHECK (discount_fixed BETWEEN 0 AND 18446744073709551615),
	price               NUMERIC(20,0) NOT NULL CHECK (price BETWEEN 1000 AND 1000000000000),
	expiry_timestamp    BIGINT NOT NULL,
	max_redemptions     BIGINT NOT NULL CHECK (max_redemptions BETWEEN 1 AND 10000),
	current_redemptions BIGINT NOT NULL DEFAULT 0,
	total_purchases     BIGINT NOT NULL DEFAULT 0,
	category            VARCHAR(16) NOT NULL CHECK (category IN
		('travel', 'food', 'shopping', 'entertainment', 'services', 'health', 'education', 'other')),
	is_transferable     BOOLEAN NOT NULL DEFAULT FALSE,
	is_active           BOOLEAN NOT NULL DEFAULT TRUE,
	metadata_uri        VARCHAR(200) NOT NULL,
	created_at          BIGINT NOT NULL,
	CHECK (current_redemptions BETWEEN 0 AND max_redemptions),
	CHECK (total_purchases BETWEEN 0 AND max_redemptions)
);

CREATE INDEX IF NOT EXISTS idx_coupons_merchant_id ON coupons(merchant_id);

-- Redemption records and reviews outlive their coupon, so coupon_id carries
-- no foreign key.
CREATE TABLE IF NOT EXISTS redemption_records (
	id          UUID PRIMARY KEY,
	coupon_id   UUID NOT NULL,
	user_id     VARCHAR(64) NOT NULL,
	redeemed_at BIGINT NOT NULL,
	UNIQUE (coupon_id, user_id)
);

CREATE TABLE IF NOT EXISTS reviews (
	id         UUID PRIMARY KEY,
	coupon_id  UUID NOT NULL,
	user_id    VARCHAR(64) NOT NULL,
	rating     SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
	comment    VARCHAR(500) NOT NULL DEFAULT '',
	created_at BIGINT NOT NULL,
	UNIQUE (coupon_id, user_id)
);

CREATE TABLE IF NOT EXISTS loyalty_badges (
	id              UUID PRIMARY KEY,
	user_id         VARCHAR(64) NOT NULL UNIQUE,
	tier            VARCHAR(16) NOT NULL CHECK (tier IN ('bronze', 'silver', 'gold', 'platinum')),
	deals_purchased BIGINT NOT NULL DEFAULT 0 CHECK (deals_purchased BETWEEN 0 AND 4294967295),
	total_saved     NUMERIC(20,0) NOT NULL DEFAULT 0 CHECK (total_saved BETWEEN 0 AND 18446744073709551615),
	points          BIGINT NOT NULL DEFAULT 0 CHECK (points BETWEEN 0 AND 4294967295),
	created_at      BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS asset_balances (
	asset      VARCHAR(64) NOT NULL,
	holder     VARCHAR(64) NOT NULL,
	amount     NUMERIC(20,0) NOT NULL DEFAULT 0 CHECK (amount BETWEEN 0 AND 18446744073709551615),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	PRIMARY KEY (asset, holder)
);

CREATE TABLE IF NOT EXISTS ledger_events (
	id           UUID PRIMARY KEY,
	name         VARCHAR(64) NOT NULL,
	payload      JSONB NOT NULL,
	occurred_at  BIGINT NOT NULL,
	created_at   TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	published_at TIMESTAMP WITH TIME ZONE
);

CREATE INDEX IF NOT EXISTS idx_ledger_events_unpublished
	ON ledger_events(created_at) WHERE published_at IS NULL;
`

// Tables lists every ledger table, parents last, for truncation in tests.
var Tables = []string{
	"ledger_events",
	"asset_balances",
	"loyalty_badges",
	"reviews",
	"redemption_records",
	"coupons",
	"merchants",
}

// Migrate creates the ledger schema. It is idempotent.
func Migrate(ctx context.Context, db TxQuerier) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
