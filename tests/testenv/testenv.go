//go:build integration

// Package testenv starts a disposable Postgres with dockertest and wires the
// ledger services against it for the integration and stress suites.
package testenv

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/pl974/dealchain/internal/model"
	"github.com/pl974/dealchain/internal/repository"
	"github.com/pl974/dealchain/internal/service"
	"github.com/pl974/dealchain/pkg/database"
)

// SettlementAsset is the asset buyers pay in throughout the suites.
const SettlementAsset = "USDC"

// Postgres is a running container plus a migrated pool.
type Postgres struct {
	Pool     *pgxpool.Pool
	docker   *dockertest.Pool
	resource *dockertest.Resource
}

// StartPostgres runs postgres:15-alpine, connects through database.NewPool
// and applies the schema.
func StartPostgres() (*Postgres, error) {
	dockerPool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("construct docker pool: %w", err)
	}
	if err := dockerPool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("connect to docker: %w", err)
	}

	resource, err := dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=testpass",
			"POSTGRES_USER=testuser",
			"POSTGRES_DB=dealchain",
			"listen_addresses='*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	databaseURL := fmt.Sprintf("postgres://testuser:testpass@%s/dealchain?sslmode=disable&pool_max_conns=50",
		resource.GetHostPort("5432/tcp"))
	log.Println("Connecting to database on url:", databaseURL)

	_ = resource.Expire(300) // Tell docker to kill the container after 5 minutes

	pg := &Postgres{docker: dockerPool, resource: resource}
	dockerPool.MaxWait = 120 * time.Second
	if err := dockerPool.Retry(func() error {
		var err error
		pg.Pool, err = database.NewPool(context.Background(), databaseURL, 1)
		return err
	}); err != nil {
		_ = dockerPool.Purge(resource)
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := database.Migrate(context.Background(), pg.Pool); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}

// Close releases the pool and removes the container.
func (p *Postgres) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
	if err := p.docker.Purge(p.resource); err != nil {
		log.Printf("Could not purge resource: %s", err)
	}
}

// Reset empties every ledger table.
func (p *Postgres) Reset(t *testing.T) {
	t.Helper()
	_, err := p.Pool.Exec(context.Background(), "TRUNCATE TABLE "+strings.Join(database.Tables, ", ")+" CASCADE")
	if err != nil {
		t.Fatalf("Failed to cleanup tables: %v", err)
	}
}

// Clock is a settable service.Clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Ledger is every service wired to the real repositories.
type Ledger struct {
	Clock  *Clock
	Assets *repository.AssetRepository
	Events *repository.EventRepository
	pool   *pgxpool.Pool

	Merchants   *service.MerchantService
	Coupons     *service.CouponService
	Purchases   *service.PurchaseService
	Redemptions *service.RedemptionService
	Reviews     *service.ReviewService
	Loyalty     *service.LoyaltyService
}

// NewLedger wires the services to pool with a clock starting at now.
func NewLedger(pool *pgxpool.Pool, now time.Time) *Ledger {
	clock := &Clock{now: now}

	merchantRepo := repository.NewMerchantRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	redemptionRepo := repository.NewRedemptionRepository()
	reviewRepo := repository.NewReviewRepository(pool)
	loyaltyRepo := repository.NewLoyaltyRepository(pool)
	assetRepo := repository.NewAssetRepository(pool)
	eventRepo := repository.NewEventRepository(pool)

	return &Ledger{
		Clock:       clock,
		Assets:      assetRepo,
		Events:      eventRepo,
		pool:        pool,
		Merchants:   service.NewMerchantService(pool, merchantRepo, eventRepo, clock),
		Coupons:     service.NewCouponService(pool, couponRepo, merchantRepo, reviewRepo, eventRepo, clock, SettlementAsset),
		Purchases:   service.NewPurchaseService(pool, couponRepo, merchantRepo, assetRepo, eventRepo, clock, SettlementAsset),
		Redemptions: service.NewRedemptionService(pool, couponRepo, merchantRepo, redemptionRepo, assetRepo, eventRepo, clock),
		Reviews:     service.NewReviewService(pool, couponRepo, merchantRepo, redemptionRepo, reviewRepo, assetRepo, eventRepo, clock),
		Loyalty:     service.NewLoyaltyService(pool, loyaltyRepo, eventRepo, clock),
	}
}

// Fund credits amount of asset to holder outside any ledger operation. It
// stands in for the external issuer minting coupon units and stablecoins.
func (l *Ledger) Fund(ctx context.Context, asset, holder string, amount uint64) error {
	return l.Assets.Credit(ctx, l.pool, asset, holder, amount)
}

// Balance reads holder's balance of asset.
func (l *Ledger) Balance(ctx context.Context, asset, holder string) (uint64, error) {
	return l.Assets.Balance(ctx, asset, holder)
}

// FundCoupon hands holder amount units of the coupon asset minted for mint.
func (l *Ledger) FundCoupon(ctx context.Context, mint, holder string, amount uint64) error {
	return l.Fund(ctx, model.CouponAsset(mint), holder, amount)
}

// Units reads holder's balance of the coupon asset minted for mint.
func (l *Ledger) Units(ctx context.Context, mint, holder string) (uint64, error) {
	return l.Balance(ctx, model.CouponAsset(mint), holder)
}

// EventCount counts outbox rows named name.
func (l *Ledger) EventCount(ctx context.Context, name string) (int, error) {
	return l.Events.Count(ctx, name)
}
