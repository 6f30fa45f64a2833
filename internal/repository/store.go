package repository

import (
	"context"
	"fmt"

	"github.com/Paul-Karonji/Juba-Errands/internal/db"
	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/Paul-Karonji/Juba-Errands/internal/ports"
)

// Store hands out repositories bound either to the pool or to one transaction.
type Store struct {
	DB *db.Postgres
}

var _ ports.Transactor = Store{}

type boundRepositories struct {
	q db.Querier
}

func (b boundRepositories) Parties(role domain.PartyRole) ports.PartyStore {
	return PartyRepository{DB: b.q, Role: role}
}

func (b boundRepositories) Shipments() ports.ShipmentStore { return ShipmentRepository{DB: b.q} }
func (b boundRepositories) Charges() ports.ChargeStore     { return ChargeRepository{DB: b.q} }
func (b boundRepositories) Payments() ports.PaymentStore   { return PaymentRepository{DB: b.q} }

func (s Store) Parties(role domain.PartyRole) ports.PartyStore {
	return boundRepositories{q: s.DB.Pool}.Parties(role)
}

func (s Store) Shipments() ports.ShipmentStore { return boundRepositories{q: s.DB.Pool}.Shipments() }
func (s Store) Charges() ports.ChargeStore     { return boundRepositories{q: s.DB.Pool}.Charges() }
func (s Store) Payments() ports.PaymentStore   { return boundRepositories{q: s.DB.Pool}.Payments() }

// WithinTx runs fn in a single transaction bound to ctx. Cancelling ctx aborts it.
func (s Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Repositories) error) error {
	tx, err := s.DB.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, boundRepositories{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
