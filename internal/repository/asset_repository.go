package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pl974/dealchain/internal/model"
	"github.com/pl974/dealchain/internal/service"
	"github.com/pl974/dealchain/pkg/database"
)

// AssetRepository is a balance ledger keyed by (asset, holder). It backs both
// the settlement asset and the per-coupon mints, and it writes through the
// caller's transaction so balances move atomically with the ledger records.
type AssetRepository struct {
	pool PoolInterface
}

// NewAssetRepository creates a new AssetRepository with the given pool.
func NewAssetRepository(pool *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{pool: pool}
}

// NewAssetRepositoryWithPool creates a new AssetRepository with a custom pool interface.
// This is primarily used for testing.
func NewAssetRepositoryWithPool(pool PoolInterface) *AssetRepository {
	return &AssetRepository{pool: pool}
}

// Balance reads holder's balance of asset without locking it. A holder with
// no row holds zero.
func (r *AssetRepository) Balance(ctx context.Context, asset, holder string) (uint64, error) {
	query := `SELECT amount::text FROM asset_balances WHERE asset = $1 AND holder = $2`

	var amount string
	err := r.pool.QueryRow(ctx, query, asset, holder).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get balance %s/%s: %w", asset, holder, err)
	}
	return parseNumeric("amount", amount)
}

// Holding locks and returns holder's balance of asset. A holder with no row
// holds zero.
func (r *AssetRepository) Holding(ctx context.Context, tx database.TxQuerier, asset, holder string) (model.Holding, error) {
	query := `SELECT amount::text FROM asset_balances WHERE asset = $1 AND holder = $2 FOR UPDATE`

	holding := model.Holding{Asset: asset, Holder: holder}
	var amount string
	err := tx.QueryRow(ctx, query, asset, holder).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return holding, nil
		}
		return model.Holding{}, fmt.Errorf("get holding %s/%s: %w", asset, holder, err)
	}
	if holding.Amount, err = parseNumeric("amount", amount); err != nil {
		return model.Holding{}, err
	}
	return holding, nil
}

// Transfer moves amount of asset from one holder to another.
// Returns service.ErrInsufficientFunds if from holds less than amount.
func (r *AssetRepository) Transfer(ctx context.Context, tx database.TxQuerier, asset, from, to string, amount uint64) error {
	if err := r.debit(ctx, tx, asset, from, amount, service.ErrInsufficientFunds); err != nil {
		return err
	}
	return r.Credit(ctx, tx, asset, to, amount)
}

// Burn destroys amount of holder's asset.
// Returns service.ErrInvalidAssetAmount if holder holds less than amount.
func (r *AssetRepository) Burn(ctx context.Context, tx database.TxQuerier, asset, holder string, amount uint64) error {
	return r.debit(ctx, tx, asset, holder, amount, service.ErrInvalidAssetAmount)
}

// Credit adds amount of asset to holder, creating the balance row if needed.
// Asset issuance goes through here.
func (r *AssetRepository) Credit(ctx context.Context, tx database.TxQuerier, asset, holder string, amount uint64) error {
	query := `INSERT INTO asset_balances (asset, holder, amount) VALUES ($1, $2, $3::numeric)
		ON CONFLICT (asset, holder) DO UPDATE
		SET amount = asset_balances.amount + EXCLUDED.amount, updated_at = NOW()`

	_, err := tx.Exec(ctx, query, asset, holder, numeric(amount))
	if err != nil {
		if database.IsCheckViolation(err) {
			return service.ErrArithmeticOverflow
		}
		return mapWriteError(err, nil, fmt.Sprintf("credit %s/%s", asset, holder))
	}
	return nil
}

// debit subtracts amount only when the balance covers it; short is returned
// when it does not.
func (r *AssetRepository) debit(ctx context.Context, tx database.TxQuerier, asset, holder string, amount uint64, short error) error {
	query := `UPDATE asset_balances SET amount = amount - $3::numeric, updated_at = NOW()
		WHERE asset = $1 AND holder = $2 AND amount >= $3::numeric`

	tag, err := tx.Exec(ctx, query, asset, holder, numeric(amount))
	if err != nil {
		return fmt.Errorf("debit %s/%s: %w", asset, holder, err)
	}
	if tag.RowsAffected() == 0 {
		return short
	}
	return nil
}
