package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/Paul-Karonji/Juba-Errands/internal/ports"
	"github.com/shopspring/decimal"
)

const defaultPaymentListLimit = 500

// PaymentStatus summarises what a shipment owes against what was paid.
type PaymentStatus struct {
	ShipmentID   int64
	TotalPaid    decimal.Decimal
	TotalCharges decimal.Decimal
	HasCharge    bool
	IsComplete   bool
}

// PaymentLedger records payments against shipments.
type PaymentLedger struct {
	Store ports.Transactor
}

// Record validates and inserts a new payment row for an existing shipment.
func (l PaymentLedger) Record(ctx context.Context, shipmentID int64, in domain.PaymentInput) (*domain.Payment, error) {
	p := in.NewPayment(shipmentID)
	if err := validatePayment(p, in); err != nil {
		return nil, err
	}
	var out *domain.Payment
	err := l.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Repositories) error {
		if _, err := tx.Shipments().Get(ctx, shipmentID); err != nil {
			return err
		}
		saved, err := tx.Payments().Insert(ctx, p)
		out = saved
		return err
	})
	if err != nil {
		return nil, domain.Storage("record payment", err)
	}
	paymentsRecorded.WithLabelValues(string(p.Method)).Inc()
	return out, nil
}

// Correct rewrites the supplied fields of an existing payment in place.
func (l PaymentLedger) Correct(ctx context.Context, paymentID int64, in domain.PaymentInput) (*domain.Payment, error) {
	var out *domain.Payment
	err := l.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Repositories) error {
		existing, err := tx.Payments().Get(ctx, paymentID)
		if err != nil {
			return err
		}
		p, err := correctPayment(ctx, tx.Payments(), *existing, in)
		out = p
		return err
	})
	if err != nil {
		return nil, domain.Storage("correct payment", err)
	}
	return out, nil
}

// TotalPaid sums every payment of the shipment; zero when there are none.
func (l PaymentLedger) TotalPaid(ctx context.Context, shipmentID int64) (decimal.Decimal, error) {
	total, err := l.Store.Payments().SumByShipment(ctx, shipmentID)
	if err != nil {
		return decimal.Zero, domain.Storage("sum payments", err)
	}
	return total, nil
}

// IsComplete reports whether payments cover the charge total. No charge row means false.
func (l PaymentLedger) IsComplete(ctx context.Context, shipmentID int64) (bool, error) {
	st, err := l.Status(ctx, shipmentID)
	if err != nil {
		return false, err
	}
	return st.IsComplete, nil
}

func (l PaymentLedger) Status(ctx context.Context, shipmentID int64) (PaymentStatus, error) {
	st := PaymentStatus{ShipmentID: shipmentID}
	if _, err := l.Store.Shipments().Get(ctx, shipmentID); err != nil {
		return st, domain.Storage("get shipment", err)
	}
	paid, err := l.TotalPaid(ctx, shipmentID)
	if err != nil {
		return st, err
	}
	st.TotalPaid = paid
	charge, err := l.Store.Charges().GetByShipment(ctx, shipmentID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return st, nil
	case err != nil:
		return st, domain.Storage("get charge", err)
	}
	st.HasCharge = true
	st.TotalCharges = charge.Total
	st.IsComplete = paid.GreaterThanOrEqual(charge.Total)
	return st, nil
}

// Latest returns the most recent payment of the shipment, or nil.
func (l PaymentLedger) Latest(ctx context.Context, shipmentID int64) (*domain.Payment, error) {
	p, err := l.Store.Payments().LatestByShipment(ctx, shipmentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Storage("latest payment", err)
	}
	return p, nil
}

func (l PaymentLedger) Get(ctx context.Context, id int64) (*domain.Payment, error) {
	p, err := l.Store.Payments().Get(ctx, id)
	if err != nil {
		return nil, domain.Storage("get payment", err)
	}
	return p, nil
}

func (l PaymentLedger) ListByShipment(ctx context.Context, shipmentID int64) ([]domain.Payment, error) {
	items, err := l.Store.Payments().ListByShipment(ctx, shipmentID)
	if err != nil {
		return nil, domain.Storage("list payments", err)
	}
	return items, nil
}

// List returns the newest payments across all shipments.
func (l PaymentLedger) List(ctx context.Context) ([]domain.Payment, error) {
	items, err := l.Store.Payments().List(ctx, defaultPaymentListLimit)
	if err != nil {
		return nil, domain.Storage("list payments", err)
	}
	return items, nil
}

func (l PaymentLedger) Delete(ctx context.Context, id int64) error {
	return domain.Storage("delete payment", l.Store.Payments().Delete(ctx, id))
}

func correctPayment(ctx context.Context, store ports.PaymentStore, existing domain.Payment, in domain.PaymentInput) (*domain.Payment, error) {
	p := in.ApplyTo(existing)
	if err := validatePayment(p, in); err != nil {
		return nil, err
	}
	return store.Update(ctx, p)
}

// validatePayment checks the resolved payment row; in supplies field-level tag checks.
func validatePayment(p domain.Payment, in domain.PaymentInput) error {
	verr := &domain.ValidationError{}
	if err := domain.ValidateStruct(in); err != nil {
		var tagErr *domain.ValidationError
		if errors.As(err, &tagErr) {
			for _, f := range tagErr.Fields {
				verr.Add("payment."+f.Field, f.Message)
			}
		}
	}
	if !p.Method.Valid() && in.Method == nil {
		verr.Add("payment.paymentMethod", "must be one of Cash, M-Pesa, Bank, Card")
	}
	if p.Method.RequiresAccount() && strings.TrimSpace(p.PayerAccountNo) == "" {
		verr.Add("payment.payerAccountNo", "is required for "+string(p.Method)+" payments")
	}
	if p.AmountPaid.IsNegative() && in.AmountPaid == nil {
		verr.Add("payment.amountPaid", "cannot be negative")
	}
	return verr.OrNil()
}
