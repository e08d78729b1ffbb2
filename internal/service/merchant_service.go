package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/pl974/dealchain/internal/model"
)

// MerchantService registers merchants and toggles their pause flag.
type MerchantService struct {
	pool      TxBeginner
	merchants MerchantRepositoryInterface
	events    EventPublisher
	clock     Clock
}

// NewMerchantService creates a new MerchantService.
func NewMerchantService(pool TxBeginner, merchants MerchantRepositoryInterface, events EventPublisher, clock Clock) *MerchantService {
	return &MerchantService{
		pool:      pool,
		merchants: merchants,
		events:    events,
		clock:     clock,
	}
}

// Register creates the merchant owned by authority.
// Returns ErrMerchantExists if the authority already registered one.
func (s *MerchantService) Register(ctx context.Context, authority, name, description string) (*model.Merchant, error) {
	if err := validatePrincipal(authority); err != nil {
		return nil, err
	}
	if err := validateMerchantProfile(name, description); err != nil {
		return nil, err
	}

	merchant := &model.Merchant{
		ID:          model.MerchantKey(authority),
		Authority:   authority,
		Name:        name,
		Description: description,
		CreatedAt:   s.clock.Now().Unix(),
	}

	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.merchants.Insert(ctx, tx, merchant); err != nil {
			return err
		}
		return s.events.Publish(ctx, tx, model.NewMerchantRegisteredEvent(merchant))
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("merchant_id", merchant.ID.String()).Str("authority", authority).Msg("merchant registered")
	return merchant, nil
}

// TogglePause flips the merchant's pause flag. Only the authority may do so.
func (s *MerchantService) TogglePause(ctx context.Context, merchantID uuid.UUID, caller string) (*model.Merchant, error) {
	var merchant *model.Merchant
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		merchant, err = s.merchants.GetForUpdate(ctx, tx, merchantID)
		if err != nil {
			return err
		}
		if merchant.Authority != caller {
			return ErrUnauthorized
		}

		merchant.IsPaused = !merchant.IsPaused
		if err := s.merchants.SetPaused(ctx, tx, merchant.ID, merchant.IsPaused); err != nil {
			return err
		}
		return s.events.Publish(ctx, tx, model.NewMerchantPauseToggledEvent(merchant, s.clock.Now().Unix()))
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("merchant_id", merchant.ID.String()).Bool("is_paused", merchant.IsPaused).Msg("merchant pause toggled")
	return merchant, nil
}

// Get retrieves a merchant by id.
// Returns ErrMerchantNotFound if it doesn't exist.
func (s *MerchantService) Get(ctx context.Context, merchantID uuid.UUID) (*model.Merchant, error) {
	merchant, err := s.merchants.GetByID(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("get merchant: %w", err)
	}
	if merchant == nil {
		return nil, ErrMerchantNotFound
	}
	return merchant, nil
}
