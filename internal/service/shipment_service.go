package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/Paul-Karonji/Juba-Errands/internal/ports"
	"github.com/shopspring/decimal"
)

// ShipmentOptions tunes the transaction manager.
type ShipmentOptions struct {
	Currency                 string
	WaybillBaseline          int64
	MaxAttempts              int
	EnforceStatusTransitions bool
}

// ShipmentService creates, updates and deletes shipments together with their
// parties, charge and payment rows, each operation in one transaction.
type ShipmentService struct {
	Store   ports.Transactor
	Reader  ports.ShipmentReader
	Logger  *slog.Logger
	Options ShipmentOptions
	Now     func() time.Time
}

// written collects the rows of one shipment as a write transaction left them.
type written struct {
	shipment domain.Shipment
	sender   domain.Party
	receiver domain.Party
	charge   *domain.Charge
	// latest payment, with the sum and count of all of them
	payment  *domain.Payment
	paid     decimal.Decimal
	payments int64
}

// CreateShipment validates the input, then writes parties, shipment, charge and
// payment atomically. A duplicate waybill retries the whole unit.
func (s ShipmentService) CreateShipment(ctx context.Context, in domain.CreateShipmentInput) (*domain.ShipmentView, error) {
	in = normalizeCreate(in)
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	attempts := s.Options.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var (
		out *written
		err error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		err = s.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Repositories) error {
			c, err := s.createInTx(ctx, tx, in)
			out = c
			return err
		})
		if !errors.Is(err, domain.ErrConflict) || ctx.Err() != nil {
			break
		}
		waybillConflicts.Inc()
		s.logger().WarnContext(ctx, "waybill conflict, retrying shipment create", "attempt", attempt, "err", err)
	}
	if err != nil {
		if domain.Kind(err) == domain.KindStorage {
			s.logger().ErrorContext(ctx, "create shipment failed", "err", err)
		}
		return nil, domain.Storage("create shipment", err)
	}
	shipmentsCreated.Inc()
	return s.materialize(ctx, out), nil
}

func (s ShipmentService) createInTx(ctx context.Context, tx ports.Repositories, in domain.CreateShipmentInput) (*written, error) {
	sender, _, err := resolveParty(ctx, tx.Parties(domain.RoleSender), domain.RoleSender, in.Sender)
	if err != nil {
		return nil, err
	}
	receiver, _, err := resolveParty(ctx, tx.Parties(domain.RoleReceiver), domain.RoleReceiver, in.Receiver)
	if err != nil {
		return nil, err
	}

	shipments := tx.Shipments()
	if err := shipments.LockWaybillAllocation(ctx); err != nil {
		return nil, fmt.Errorf("lock waybill allocation: %w", err)
	}
	waybill, err := shipments.NextWaybillNumber(ctx, s.baseline())
	if err != nil {
		waybill = timestampWaybill(s.now())
		waybillFallbacks.Inc()
		s.logger().WarnContext(ctx, "waybill allocation failed, using timestamp waybill", "waybill", waybill, "err", err)
	}

	row := domain.Shipment{
		WaybillNo:        waybill,
		Date:             s.today(),
		SenderID:         sender.ID,
		ReceiverID:       receiver.ID,
		Quantity:         in.Quantity,
		WeightKg:         in.WeightKg,
		Description:      in.Description,
		CommercialValue:  decimal.Zero,
		DeliveryLocation: in.DeliveryLocation,
		Status:           domain.StatusPending,
		Notes:            in.Notes,
		ReceiptReference: in.ReceiptReference,
		CourierName:      in.CourierName,
		StaffNo:          in.StaffNo,
	}
	if in.Date != nil {
		row.Date = dateOnly(*in.Date)
	}
	if in.CommercialValue != nil {
		row.CommercialValue = *in.CommercialValue
	}
	if in.Status != "" {
		row.Status = in.Status
	}
	shipment, err := shipments.Insert(ctx, row)
	if err != nil {
		return nil, err
	}

	out := &written{shipment: *shipment, sender: *sender, receiver: *receiver, paid: decimal.Zero}
	if in.Charges != nil {
		c, err := upsertCharge(ctx, tx.Charges(), shipment.ID, *in.Charges, s.currency())
		if err != nil {
			return nil, err
		}
		out.charge = c
	}
	if in.Payment != nil {
		p, err := tx.Payments().Insert(ctx, in.Payment.NewPayment(shipment.ID))
		if err != nil {
			return nil, err
		}
		paymentsRecorded.WithLabelValues(string(p.Method)).Inc()
		out.payment, out.paid, out.payments = p, p.AmountPaid, 1
	}
	return out, nil
}

// materialize reads the committed shipment back through the read model. If that
// read fails the view is assembled from the rows the transaction returned.
func (s ShipmentService) materialize(ctx context.Context, c *written) *domain.ShipmentView {
	if s.Reader != nil {
		v, err := s.Reader.GetByID(ctx, c.shipment.ID)
		if err == nil {
			return v
		}
		s.logger().WarnContext(ctx, "read back of committed shipment failed", "shipment_id", c.shipment.ID, "err", err)
	}
	v := &domain.ShipmentView{
		Shipment:     c.shipment,
		Sender:       partySummary(c.sender),
		Receiver:     partySummary(c.receiver),
		Charge:       c.charge,
		TotalPaid:    c.paid,
		PaymentCount: c.payments,
	}
	if c.payment != nil {
		v.LatestPayment = &domain.LatestPayment{
			Method:         c.payment.Method,
			PayerAccountNo: c.payment.PayerAccountNo,
			AmountPaid:     c.payment.AmountPaid,
		}
	}
	return v
}

// UpdateShipment applies the present fields, merges a charges block into the active
// charge row and corrects the latest payment (inserting one if none exists).
func (s ShipmentService) UpdateShipment(ctx context.Context, id int64, u domain.ShipmentUpdate) (*domain.ShipmentView, error) {
	u = normalizeUpdate(u)
	if err := domain.ValidateStruct(u); err != nil {
		return nil, err
	}
	var out *written
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Repositories) error {
		current, err := tx.Shipments().Get(ctx, id)
		if err != nil {
			return err
		}
		if u.Status != nil && s.Options.EnforceStatusTransitions && !current.Status.CanTransitionTo(*u.Status) {
			return domain.NewValidationError("status",
				fmt.Sprintf("cannot change from %s to %s", current.Status, *u.Status))
		}
		if err := tx.Shipments().ApplyUpdate(ctx, id, u); err != nil {
			return err
		}
		if u.Charges != nil {
			if _, err := upsertCharge(ctx, tx.Charges(), id, *u.Charges, s.currency()); err != nil {
				return err
			}
		}
		if u.Payment != nil {
			if err := s.applyPaymentBlock(ctx, tx.Payments(), id, *u.Payment); err != nil {
				return err
			}
		}
		out, err = readInTx(ctx, tx, id)
		return err
	})
	if err != nil {
		if domain.Kind(err) == domain.KindStorage {
			s.logger().ErrorContext(ctx, "update shipment failed", "shipment_id", id, "err", err)
		}
		return nil, domain.Storage("update shipment", err)
	}
	return s.materialize(ctx, out), nil
}

// readInTx loads one shipment with its parties, charge and payments.
func readInTx(ctx context.Context, tx ports.Repositories, id int64) (*written, error) {
	sh, err := tx.Shipments().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sender, err := tx.Parties(domain.RoleSender).Get(ctx, sh.SenderID)
	if err != nil {
		return nil, err
	}
	receiver, err := tx.Parties(domain.RoleReceiver).Get(ctx, sh.ReceiverID)
	if err != nil {
		return nil, err
	}
	out := &written{shipment: *sh, sender: *sender, receiver: *receiver, paid: decimal.Zero}
	charge, err := tx.Charges().GetByShipment(ctx, id)
	switch {
	case err == nil:
		out.charge = charge
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}
	payments, err := tx.Payments().ListByShipment(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		out.paid = out.paid.Add(p.AmountPaid)
	}
	out.payments = int64(len(payments))
	if len(payments) > 0 {
		out.payment = &payments[0]
	}
	return out, nil
}

func (s ShipmentService) applyPaymentBlock(ctx context.Context, store ports.PaymentStore, shipmentID int64, in domain.PaymentInput) error {
	latest, err := store.LatestByShipment(ctx, shipmentID)
	if errors.Is(err, domain.ErrNotFound) {
		p := in.NewPayment(shipmentID)
		if err := validatePayment(p, in); err != nil {
			return err
		}
		if _, err := store.Insert(ctx, p); err != nil {
			return err
		}
		paymentsRecorded.WithLabelValues(string(p.Method)).Inc()
		return nil
	}
	if err != nil {
		return err
	}
	_, err = correctPayment(ctx, store, *latest, in)
	return err
}

// DeleteShipment removes the shipment with its payments and charges. It reports
// false when the shipment does not exist. Parties are kept.
func (s ShipmentService) DeleteShipment(ctx context.Context, id int64) (bool, error) {
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Repositories) error {
		if _, err := tx.Shipments().Get(ctx, id); err != nil {
			return err
		}
		if err := tx.Payments().DeleteByShipment(ctx, id); err != nil {
			return err
		}
		if err := tx.Charges().DeleteByShipment(ctx, id); err != nil {
			return err
		}
		return tx.Shipments().Delete(ctx, id)
	})
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		s.logger().ErrorContext(ctx, "delete shipment failed", "shipment_id", id, "err", err)
		return false, domain.Storage("delete shipment", err)
	}
	return true, nil
}

func (s ShipmentService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s ShipmentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s ShipmentService) today() time.Time {
	return dateOnly(s.now())
}

func (s ShipmentService) baseline() int64 {
	if s.Options.WaybillBaseline <= 0 {
		return 10000
	}
	return s.Options.WaybillBaseline
}

func (s ShipmentService) currency() string {
	if s.Options.Currency == "" {
		return domain.DefaultCurrency
	}
	return s.Options.Currency
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// timestampWaybill derives a digit string from the clock: the last eight digits of
// the Unix time in milliseconds.
func timestampWaybill(t time.Time) string {
	ms := strconv.FormatInt(t.UnixMilli(), 10)
	if len(ms) > 8 {
		ms = ms[len(ms)-8:]
	}
	return ms
}

func partySummary(p domain.Party) domain.PartySummary {
	return domain.PartySummary{ID: p.ID, Name: p.Name, Telephone: p.Telephone, Email: p.Email, CompanyName: p.CompanyName}
}

func normalizeCreate(in domain.CreateShipmentInput) domain.CreateShipmentInput {
	in.Sender = normalizeParty(in.Sender)
	in.Receiver = normalizeParty(in.Receiver)
	in.Description = strings.TrimSpace(in.Description)
	in.DeliveryLocation = strings.TrimSpace(in.DeliveryLocation)
	in.WeightKg = roundInRange(in.WeightKg)
	if in.CommercialValue != nil {
		v := roundInRange(*in.CommercialValue)
		in.CommercialValue = &v
	}
	return in
}

// roundInRange rounds d to storage precision so validation sees the stored value.
// Out-of-range values are left for validation to reject.
func roundInRange(d decimal.Decimal) decimal.Decimal {
	if !domain.DecimalInRange(d) {
		return d
	}
	return domain.RoundMoney(d)
}

// validateCreate reports every violated field before anything is written.
func validateCreate(in domain.CreateShipmentInput) error {
	verr := &domain.ValidationError{}
	if err := domain.ValidateStruct(in); err != nil {
		var tagErr *domain.ValidationError
		if !errors.As(err, &tagErr) {
			return err
		}
		verr.Fields = append(verr.Fields, tagErr.Fields...)
	}
	if in.Payment != nil {
		p := in.Payment.NewPayment(0)
		if p.Method.RequiresAccount() && strings.TrimSpace(p.PayerAccountNo) == "" {
			verr.Add("payment.payerAccountNo", "is required for "+string(p.Method)+" payments")
		}
	}
	return verr.OrNil()
}

func normalizeUpdate(u domain.ShipmentUpdate) domain.ShipmentUpdate {
	if u.Description != nil {
		d := strings.TrimSpace(*u.Description)
		u.Description = &d
	}
	if u.DeliveryLocation != nil {
		l := strings.TrimSpace(*u.DeliveryLocation)
		u.DeliveryLocation = &l
	}
	if u.WeightKg != nil {
		w := roundInRange(*u.WeightKg)
		u.WeightKg = &w
	}
	return u
}
