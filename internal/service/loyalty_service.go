package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/pl974/dealchain/internal/model"
)

// pointsDivisor converts settlement base units into loyalty points
// (one point per whole unit of a six-decimal asset).
const pointsDivisor uint64 = 1_000_000

// Tier thresholds, inclusive lower bounds.
const (
	silverPoints   uint32 = 100
	goldPoints     uint32 = 500
	platinumPoints uint32 = 1_000
)

// TierForPoints maps accumulated points to a tier.
func TierForPoints(points uint32) model.LoyaltyTier {
	switch {
	case points >= platinumPoints:
		return model.TierPlatinum
	case points >= goldPoints:
		return model.TierGold
	case points >= silverPoints:
		return model.TierSilver
	default:
		return model.TierBronze
	}
}

// LoyaltyService maintains loyalty badges. OnVerifiedPurchase trusts its
// caller; the HTTP layer only exposes it to settlement principals.
type LoyaltyService struct {
	pool   TxBeginner
	badges LoyaltyRepositoryInterface
	events EventPublisher
	clock  Clock
}

// NewLoyaltyService creates a new LoyaltyService.
func NewLoyaltyService(pool TxBeginner, badges LoyaltyRepositoryInterface, events EventPublisher, clock Clock) *LoyaltyService {
	return &LoyaltyService{
		pool:   pool,
		badges: badges,
		events: events,
		clock:  clock,
	}
}

// Initialize creates user's badge at Bronze with zeroed counters.
// Returns ErrBadgeExists if the user already has one.
func (s *LoyaltyService) Initialize(ctx context.Context, user string) (*model.LoyaltyBadge, error) {
	if err := validatePrincipal(user); err != nil {
		return nil, err
	}

	badge := &model.LoyaltyBadge{
		ID:        model.LoyaltyKey(user),
		User:      user,
		Tier:      model.TierBronze,
		CreatedAt: s.clock.Now().Unix(),
	}

	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.badges.Insert(ctx, tx, badge); err != nil {
			return err
		}
		return s.events.Publish(ctx, tx, model.NewLoyaltyBadgeCreatedEvent(badge))
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("user", user).Msg("loyalty badge created")
	return badge, nil
}

// OnVerifiedPurchase credits a verified purchase to user's badge and
// recomputes the tier.
func (s *LoyaltyService) OnVerifiedPurchase(ctx context.Context, user string, purchaseAmount, savingsAmount uint64) (*model.LoyaltyBadge, error) {
	if err := validateLoyaltyAmounts(purchaseAmount, savingsAmount); err != nil {
		return nil, err
	}

	var badge *model.LoyaltyBadge
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		badge, err = s.badges.GetForUpdate(ctx, tx, user)
		if err != nil {
			return err
		}

		deals, err := addUint32(badge.DealsPurchased, 1)
		if err != nil {
			return err
		}
		saved, err := addUint64(badge.TotalSaved, savingsAmount)
		if err != nil {
			return err
		}
		// purchaseAmount <= MaxPrice, so newPoints fits in uint32
		newPoints := uint32(purchaseAmount / pointsDivisor)
		points, err := addUint32(badge.Points, newPoints)
		if err != nil {
			return err
		}

		badge.DealsPurchased = deals
		badge.TotalSaved = saved
		badge.Points = points
		badge.Tier = TierForPoints(points)
		if err := s.badges.Update(ctx, tx, badge); err != nil {
			return err
		}
		return s.events.Publish(ctx, tx, model.NewLoyaltyBadgeUpdatedEvent(badge, s.clock.Now().Unix()))
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("user", user).Str("tier", string(badge.Tier)).Uint32("points", badge.Points).Msg("verified purchase credited")
	return badge, nil
}

// Get retrieves user's badge.
// Returns ErrBadgeNotFound if the user has none.
func (s *LoyaltyService) Get(ctx context.Context, user string) (*model.LoyaltyBadge, error) {
	badge, err := s.badges.GetByUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("get loyalty badge: %w", err)
	}
	if badge == nil {
		return nil, ErrBadgeNotFound
	}
	return badge, nil
}
