package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Paul-Karonji/Juba-Errands/internal/db"
	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/jackc/pgx/v5"
)

// waybillLockKey identifies the advisory lock guarding waybill allocation.
const waybillLockKey int64 = 0x57415942

type ShipmentRepository struct {
	DB db.Querier
}

const shipmentColumns = `id, waybill_no, date, sender_id, receiver_id, quantity, weight_kg, description,
	commercial_value, COALESCE(delivery_location, ''), status, COALESCE(notes, ''),
	COALESCE(receipt_reference, ''), COALESCE(courier_name, ''), COALESCE(staff_no, ''), created_at, updated_at`

func scanShipment(row pgx.Row) (*domain.Shipment, error) {
	var s domain.Shipment
	var status string
	if err := row.Scan(&s.ID, &s.WaybillNo, &s.Date, &s.SenderID, &s.ReceiverID, &s.Quantity, &s.WeightKg,
		&s.Description, &s.CommercialValue, &s.DeliveryLocation, &status, &s.Notes,
		&s.ReceiptReference, &s.CourierName, &s.StaffNo, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	s.Status = domain.ShipmentStatus(status)
	return &s, nil
}

// LockWaybillAllocation takes a transaction-scoped advisory lock. Outside a
// transaction the lock is released as soon as the statement ends.
func (r ShipmentRepository) LockWaybillAllocation(ctx context.Context) error {
	_, err := r.DB.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, waybillLockKey)
	return err
}

// NextWaybillNumber returns one more than the highest purely numeric waybill, never
// below baseline+1. The query runs under a savepoint so a failure leaves the
// surrounding transaction usable.
func (r ShipmentRepository) NextWaybillNumber(ctx context.Context, baseline int64) (string, error) {
	sp, err := r.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer sp.Rollback(ctx)

	var next int64
	err = sp.QueryRow(ctx, `
		SELECT GREATEST(COALESCE(MAX(CAST(waybill_no AS BIGINT)), $1), $1) + 1
		FROM shipments
		WHERE waybill_no ~ '^[0-9]{1,18}$'
	`, baseline).Scan(&next)
	if err != nil {
		return "", err
	}
	if err := sp.Commit(ctx); err != nil {
		return "", err
	}
	return strconv.FormatInt(next, 10), nil
}

// Insert stores a new shipment. A duplicate waybill number yields ErrConflict.
func (r ShipmentRepository) Insert(ctx context.Context, s domain.Shipment) (*domain.Shipment, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO shipments (waybill_no, date, sender_id, receiver_id, quantity, weight_kg, description,
			commercial_value, delivery_location, status, notes, receipt_reference, courier_name, staff_no,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, NULLIF($11, ''), NULLIF($12, ''),
			NULLIF($13, ''), NULLIF($14, ''), now(), now())
		RETURNING `+shipmentColumns,
		s.WaybillNo, s.Date, s.SenderID, s.ReceiverID, s.Quantity, s.WeightKg, s.Description,
		s.CommercialValue, s.DeliveryLocation, string(s.Status), s.Notes, s.ReceiptReference,
		s.CourierName, s.StaffNo)
	out, err := scanShipment(row)
	if err != nil && db.IsUniqueViolation(err) {
		return nil, fmt.Errorf("waybill %s: %w", s.WaybillNo, domain.ErrConflict)
	}
	return out, err
}

func (r ShipmentRepository) Get(ctx context.Context, id int64) (*domain.Shipment, error) {
	return scanShipment(r.DB.QueryRow(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id=$1`, id))
}

// ApplyUpdate writes only the fields present in u and bumps updated_at.
func (r ShipmentRepository) ApplyUpdate(ctx context.Context, id int64, u domain.ShipmentUpdate) error {
	set, args := shipmentUpdateSet(u)
	args = append(args, id)
	tag, err := r.DB.Exec(ctx, fmt.Sprintf(`UPDATE shipments SET %s WHERE id=$%d`, set, len(args)), args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r ShipmentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM shipments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func shipmentUpdateSet(u domain.ShipmentUpdate) (string, []any) {
	var sets []string
	var args []any
	add := func(expr string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}
	if u.Quantity != nil {
		add("quantity=$%d", *u.Quantity)
	}
	if u.WeightKg != nil {
		add("weight_kg=$%d", *u.WeightKg)
	}
	if u.Description != nil {
		add("description=$%d", *u.Description)
	}
	if u.Status != nil {
		add("status=$%d", string(*u.Status))
	}
	if u.DeliveryLocation != nil {
		add("delivery_location=NULLIF($%d, '')", *u.DeliveryLocation)
	}
	if u.Notes != nil {
		add("notes=NULLIF($%d, '')", *u.Notes)
	}
	sets = append(sets, "updated_at=now()")
	return strings.Join(sets, ", "), args
}
