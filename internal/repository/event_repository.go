package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pl974/dealchain/internal/model"
	"github.com/pl974/dealchain/pkg/database"
)

// EventRepository appends ledger events to the ledger_events outbox. Rows are
// written in the caller's transaction, so an event exists exactly when the
// state change it describes was committed.
type EventRepository struct {
	pool PoolInterface
}

// NewEventRepository creates a new EventRepository with the given pool.
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// NewEventRepositoryWithPool creates a new EventRepository with a custom pool interface.
// This is primarily used for testing.
func NewEventRepositoryWithPool(pool PoolInterface) *EventRepository {
	return &EventRepository{pool: pool}
}

// Publish writes evt to the outbox.
func (r *EventRepository) Publish(ctx context.Context, tx database.TxQuerier, evt model.Event) error {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", evt.Name, err)
	}

	query := `INSERT INTO ledger_events (id, name, payload, occurred_at) VALUES ($1, $2, $3, $4)`
	if _, err := tx.Exec(ctx, query, evt.ID, evt.Name, payload, evt.Timestamp); err != nil {
		return fmt.Errorf("insert %s event: %w", evt.Name, err)
	}
	return nil
}

// Count returns how many outbox rows are named name.
func (r *EventRepository) Count(ctx context.Context, name string) (int, error) {
	query := `SELECT COUNT(*) FROM ledger_events WHERE name = $1`

	var n int
	if err := r.pool.QueryRow(ctx, query, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s events: %w", name, err)
	}
	return n, nil
}
