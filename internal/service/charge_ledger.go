package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/Paul-Karonji/Juba-Errands/internal/ports"
	"github.com/shopspring/decimal"
)

const defaultChargeListLimit = 500

// ChargeLedger owns the charge breakdown of shipments. The stored total is always
// derived from the components here.
type ChargeLedger struct {
	Store    ports.Transactor
	Currency string
}

// ComputeTotal sums the components. Negative components are rejected.
func (l ChargeLedger) ComputeTotal(c domain.ChargeComponents) (decimal.Decimal, error) {
	if err := c.Validate(); err != nil {
		return decimal.Zero, err
	}
	return c.Total(), nil
}

// UpsertForShipment merges the supplied components into the shipment's active charge
// row, or inserts one, recomputing the total.
func (l ChargeLedger) UpsertForShipment(ctx context.Context, shipmentID int64, in domain.ChargeInput) (*domain.Charge, error) {
	if err := domain.ValidateStruct(in); err != nil {
		return nil, prefixFields("charges", err)
	}
	var out *domain.Charge
	err := l.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Repositories) error {
		if _, err := tx.Shipments().Get(ctx, shipmentID); err != nil {
			return err
		}
		c, err := upsertCharge(ctx, tx.Charges(), shipmentID, in, l.currency())
		out = c
		return err
	})
	if err != nil {
		return nil, domain.Storage("upsert charge", err)
	}
	return out, nil
}

// GetForShipment returns the active charge row or nil when the shipment has none.
func (l ChargeLedger) GetForShipment(ctx context.Context, shipmentID int64) (*domain.Charge, error) {
	c, err := l.Store.Charges().GetByShipment(ctx, shipmentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Storage("get charge", err)
	}
	return c, nil
}

func (l ChargeLedger) Get(ctx context.Context, id int64) (*domain.Charge, error) {
	c, err := l.Store.Charges().Get(ctx, id)
	if err != nil {
		return nil, domain.Storage("get charge", err)
	}
	return c, nil
}

func (l ChargeLedger) List(ctx context.Context) ([]domain.Charge, error) {
	items, err := l.Store.Charges().List(ctx, defaultChargeListLimit)
	if err != nil {
		return nil, domain.Storage("list charges", err)
	}
	return items, nil
}

func (l ChargeLedger) Delete(ctx context.Context, id int64) error {
	return domain.Storage("delete charge", l.Store.Charges().Delete(ctx, id))
}

func (l ChargeLedger) currency() string {
	if l.Currency == "" {
		return domain.DefaultCurrency
	}
	return l.Currency
}

// upsertCharge is the transactional core shared with the shipment transaction manager.
func upsertCharge(ctx context.Context, store ports.ChargeStore, shipmentID int64, in domain.ChargeInput, currency string) (*domain.Charge, error) {
	existing, err := store.GetByShipment(ctx, shipmentID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	base := domain.ChargeComponents{}
	if existing != nil {
		base = existing.ChargeComponents
	}
	components := in.MergeInto(base).Rounded()
	if err := components.Validate(); err != nil {
		return nil, err
	}

	cur := strings.ToUpper(strings.TrimSpace(in.Currency))
	switch {
	case cur != "":
	case existing != nil && existing.Currency != "":
		cur = existing.Currency
	default:
		cur = currency
	}

	row := domain.Charge{
		ShipmentID:       shipmentID,
		ChargeComponents: components,
		Total:            components.Total(),
		Currency:         cur,
	}
	if existing == nil {
		return store.Insert(ctx, row)
	}
	row.ID = existing.ID
	return store.Update(ctx, row)
}

// prefixFields prepends prefix to every field of a validation error.
func prefixFields(prefix string, err error) error {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	out := &domain.ValidationError{}
	for _, f := range verr.Fields {
		out.Add(prefix+"."+f.Field, f.Message)
	}
	return out
}
