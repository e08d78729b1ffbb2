package service

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pl974/dealchain/internal/model"
	"github.com/pl974/dealchain/pkg/database"
)

// fakeStore is an in-memory record store with the transaction semantics the
// services rely on: one transaction at a time (like row locks on the shared
// rows), all writes undone on rollback, derived-key inserts that fail on
// collision.
type fakeStore struct {
	mu sync.Mutex

	state storeState

	// Hooks for fault injection.
	transferErr error
	burnErr     error
	publishErr  error
	onTransfer  func(s *storeState)

	// holdingReads records every Holding lookup in call order.
	holdingReads []balanceKey
}

type storeState struct {
	merchants   map[uuid.UUID]model.Merchant
	coupons     map[uuid.UUID]model.Coupon
	redemptions map[uuid.UUID]model.RedemptionRecord
	reviews     map[uuid.UUID]model.Review
	badges      map[string]model.LoyaltyBadge
	balances    map[balanceKey]uint64
	events      []model.Event
}

type balanceKey struct {
	asset  string
	holder string
}

func newFakeStore() *fakeStore {
	return &fakeStore{state: storeState{
		merchants:   map[uuid.UUID]model.Merchant{},
		coupons:     map[uuid.UUID]model.Coupon{},
		redemptions: map[uuid.UUID]model.RedemptionRecord{},
		reviews:     map[uuid.UUID]model.Review{},
		badges:      map[string]model.LoyaltyBadge{},
		balances:    map[balanceKey]uint64{},
	}}
}

func (s storeState) clone() storeState {
	return storeState{
		merchants:   maps.Clone(s.merchants),
		coupons:     maps.Clone(s.coupons),
		redemptions: maps.Clone(s.redemptions),
		reviews:     maps.Clone(s.reviews),
		badges:      maps.Clone(s.badges),
		balances:    maps.Clone(s.balances),
		events:      append([]model.Event(nil), s.events...),
	}
}

// Begin locks the store until Commit or Rollback.
func (s *fakeStore) Begin(ctx context.Context) (pgx.Tx, error) {
	s.mu.Lock()
	return &fakeTx{store: s, snapshot: s.state.clone()}, nil
}

// view runs fn outside a transaction.
func (s *fakeStore) view(fn func(st *storeState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

func (s *fakeStore) merchant(id uuid.UUID) model.Merchant {
	var m model.Merchant
	s.view(func(st *storeState) { m = st.merchants[id] })
	return m
}

func (s *fakeStore) coupon(id uuid.UUID) (model.Coupon, bool) {
	var c model.Coupon
	var ok bool
	s.view(func(st *storeState) { c, ok = st.coupons[id] })
	return c, ok
}

func (s *fakeStore) balance(asset, holder string) uint64 {
	var b uint64
	s.view(func(st *storeState) { b = st.balances[balanceKey{asset, holder}] })
	return b
}

func (s *fakeStore) setBalance(asset, holder string, amount uint64) {
	s.view(func(st *storeState) { st.balances[balanceKey{asset, holder}] = amount })
}

// setUnits and units address the coupon asset minted for mint.
func (s *fakeStore) setUnits(mint, holder string, amount uint64) {
	s.setBalance(model.CouponAsset(mint), holder, amount)
}

func (s *fakeStore) units(mint, holder string) uint64 {
	return s.balance(model.CouponAsset(mint), holder)
}

func (s *fakeStore) eventNames() []string {
	var names []string
	s.view(func(st *storeState) {
		for _, e := range st.events {
			names = append(names, e.Name)
		}
	})
	return names
}

func (s *fakeStore) redemptionCount() int {
	var n int
	s.view(func(st *storeState) { n = len(st.redemptions) })
	return n
}

func (s *fakeStore) reviewCount() int {
	var n int
	s.view(func(st *storeState) { n = len(st.reviews) })
	return n
}

func (s *fakeStore) updateMerchant(id uuid.UUID, fn func(m *model.Merchant)) {
	s.view(func(st *storeState) {
		m := st.merchants[id]
		fn(&m)
		st.merchants[id] = m
	})
}

func (s *fakeStore) updateCoupon(id uuid.UUID, fn func(c *model.Coupon)) {
	s.view(func(st *storeState) {
		c := st.coupons[id]
		fn(&c)
		st.coupons[id] = c
	})
}

func (s *fakeStore) updateBadge(user string, fn func(b *model.LoyaltyBadge)) {
	s.view(func(st *storeState) {
		b := st.badges[user]
		fn(&b)
		st.badges[user] = b
	})
}

// fakeTx implements pgx.Tx over fakeStore.
type fakeTx struct {
	store    *fakeStore
	snapshot storeState
	done     bool
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.state = t.snapshot
	t.store.mu.Unlock()
	return nil
}

func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }

func (t *fakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func (t *fakeTx) Conn() *pgx.Conn { return nil }

// Repositories over the shared store. Methods taking a tx run while the
// store is locked by Begin; the others lock it themselves.

type fakeMerchants struct{ s *fakeStore }

func (r fakeMerchants) Insert(ctx context.Context, tx database.TxQuerier, m *model.Merchant) error {
	if _, ok := r.s.state.merchants[m.ID]; ok {
		return ErrMerchantExists
	}
	r.s.state.merchants[m.ID] = *m
	return nil
}

func (r fakeMerchants) GetByID(ctx context.Context, id uuid.UUID) (*model.Merchant, error) {
	var out *model.Merchant
	r.s.view(func(st *storeState) {
		if m, ok := st.merchants[id]; ok {
			out = &m
		}
	})
	return out, nil
}

func (r fakeMerchants) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Merchant, error) {
	m, ok := r.s.state.merchants[id]
	if !ok {
		return nil, ErrMerchantNotFound
	}
	return &m, nil
}

func (r fakeMerchants) UpdateCounters(ctx context.Context, tx database.TxQuerier, m *model.Merchant) error {
	stored := r.s.state.merchants[m.ID]
	stored.TotalCouponsCreated = m.TotalCouponsCreated
	stored.TotalRedemptions = m.TotalRedemptions
	stored.TotalRevenue = m.TotalRevenue
	stored.RatingSum = m.RatingSum
	stored.RatingCount = m.RatingCount
	r.s.state.merchants[m.ID] = stored
	return nil
}

func (r fakeMerchants) SetPaused(ctx context.Context, tx database.TxQuerier, id uuid.UUID, paused bool) error {
	stored := r.s.state.merchants[id]
	stored.IsPaused = paused
	r.s.state.merchants[id] = stored
	return nil
}

type fakeCoupons struct{ s *fakeStore }

func (r fakeCoupons) Insert(ctx context.Context, tx database.TxQuerier, c *model.Coupon) error {
	if _, ok := r.s.state.coupons[c.ID]; ok {
		return ErrCouponExists
	}
	r.s.state.coupons[c.ID] = *c
	return nil
}

func (r fakeCoupons) GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	var out *model.Coupon
	r.s.view(func(st *storeState) {
		if c, ok := st.coupons[id]; ok {
			out = &c
		}
	})
	return out, nil
}

func (r fakeCoupons) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Coupon, error) {
	c, ok := r.s.state.coupons[id]
	if !ok {
		return nil, ErrCouponNotFound
	}
	return &c, nil
}

func (r fakeCoupons) UpdateCounters(ctx context.Context, tx database.TxQuerier, c *model.Coupon) error {
	stored := r.s.state.coupons[c.ID]
	stored.TotalPurchases = c.TotalPurchases
	stored.CurrentRedemptions = c.CurrentRedemptions
	r.s.state.coupons[c.ID] = stored
	return nil
}

func (r fakeCoupons) SetActive(ctx context.Context, tx database.TxQuerier, id uuid.UUID, active bool) error {
	stored := r.s.state.coupons[id]
	stored.IsActive = active
	r.s.state.coupons[id] = stored
	return nil
}

func (r fakeCoupons) Delete(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
	delete(r.s.state.coupons, id)
	return nil
}

type fakeRedemptions struct{ s *fakeStore }

func (r fakeRedemptions) Insert(ctx context.Context, tx database.TxQuerier, rec *model.RedemptionRecord) error {
	if _, ok := r.s.state.redemptions[rec.ID]; ok {
		return ErrDuplicateRedemption
	}
	r.s.state.redemptions[rec.ID] = *rec
	return nil
}

func (r fakeRedemptions) Exists(ctx context.Context, tx database.TxQuerier, couponID uuid.UUID, user string) (bool, error) {
	_, ok := r.s.state.redemptions[model.RedemptionKey(couponID, user)]
	return ok, nil
}

type fakeReviews struct{ s *fakeStore }

func (r fakeReviews) Insert(ctx context.Context, tx database.TxQuerier, rev *model.Review) error {
	if _, ok := r.s.state.reviews[rev.ID]; ok {
		return ErrDuplicateReview
	}
	r.s.state.reviews[rev.ID] = *rev
	return nil
}

func (r fakeReviews) ListByCoupon(ctx context.Context, couponID uuid.UUID) ([]model.Review, error) {
	out := []model.Review{}
	r.s.view(func(st *storeState) {
		for _, rev := range st.reviews {
			if rev.CouponID == couponID {
				out = append(out, rev)
			}
		}
	})
	return out, nil
}

type fakeBadges struct{ s *fakeStore }

func (r fakeBadges) Insert(ctx context.Context, tx database.TxQuerier, b *model.LoyaltyBadge) error {
	if _, ok := r.s.state.badges[b.User]; ok {
		return ErrBadgeExists
	}
	r.s.state.badges[b.User] = *b
	return nil
}

func (r fakeBadges) GetByUser(ctx context.Context, user string) (*model.LoyaltyBadge, error) {
	var out *model.LoyaltyBadge
	r.s.view(func(st *storeState) {
		if b, ok := st.badges[user]; ok {
			out = &b
		}
	})
	return out, nil
}

func (r fakeBadges) GetForUpdate(ctx context.Context, tx database.TxQuerier, user string) (*model.LoyaltyBadge, error) {
	b, ok := r.s.state.badges[user]
	if !ok {
		return nil, ErrBadgeNotFound
	}
	return &b, nil
}

func (r fakeBadges) Update(ctx context.Context, tx database.TxQuerier, b *model.LoyaltyBadge) error {
	r.s.state.badges[b.User] = *b
	return nil
}

type fakeAssets struct{ s *fakeStore }

func (a fakeAssets) Holding(ctx context.Context, tx database.TxQuerier, asset, holder string) (model.Holding, error) {
	a.s.holdingReads = append(a.s.holdingReads, balanceKey{asset, holder})
	return model.Holding{
		Asset:  asset,
		Holder: holder,
		Amount: a.s.state.balances[balanceKey{asset, holder}],
	}, nil
}

func (a fakeAssets) Transfer(ctx context.Context, tx database.TxQuerier, asset, from, to string, amount uint64) error {
	if a.s.onTransfer != nil {
		a.s.onTransfer(&a.s.state)
	}
	if a.s.transferErr != nil {
		return a.s.transferErr
	}
	fromKey := balanceKey{asset, from}
	if a.s.state.balances[fromKey] < amount {
		return ErrInsufficientFunds
	}
	a.s.state.balances[fromKey] -= amount
	a.s.state.balances[balanceKey{asset, to}] += amount
	return nil
}

func (a fakeAssets) Burn(ctx context.Context, tx database.TxQuerier, asset, holder string, amount uint64) error {
	if a.s.burnErr != nil {
		return a.s.burnErr
	}
	key := balanceKey{asset, holder}
	if a.s.state.balances[key] < amount {
		return ErrInvalidAssetAmount
	}
	a.s.state.balances[key] -= amount
	return nil
}

type fakeEvents struct{ s *fakeStore }

func (e fakeEvents) Publish(ctx context.Context, tx database.TxQuerier, evt model.Event) error {
	if e.s.publishErr != nil {
		return e.s.publishErr
	}
	e.s.state.events = append(e.s.state.events, evt)
	return nil
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
