package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Paul-Karonji/Juba-Errands/internal/db"
	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ShipmentViewRepository reads the denormalized shipment projection. It prefers the
// v_shipment_details view and switches to the equivalent inline join for the rest of
// the process lifetime once the view is reported missing.
type ShipmentViewRepository struct {
	DB          db.Querier
	Logger      *slog.Logger
	viewMissing atomic.Bool
}

func NewShipmentViewRepository(q db.Querier, logger *slog.Logger) *ShipmentViewRepository {
	return &ShipmentViewRepository{DB: q, Logger: logger}
}

const viewColumns = `d.shipment_id, d.waybill_no, d.date, d.sender_id, d.receiver_id, d.quantity, d.weight_kg,
	d.description, d.commercial_value, d.delivery_location, d.status, d.notes, d.receipt_reference,
	d.courier_name, d.staff_no, d.created_at, d.updated_at,
	d.sender_name, d.sender_telephone, d.sender_email, d.sender_company,
	d.receiver_name, d.receiver_telephone, d.receiver_email, d.receiver_company,
	d.charge_id, d.base_charge, d.other, d.insurance, d.extra_delivery, d.vat, d.total, d.currency,
	d.charge_created_at, d.charge_updated_at,
	d.total_paid, d.payment_count, d.latest_payment_method, d.latest_payer_account_no, d.latest_amount_paid`

// UsingView reports whether reads still target the view.
func (r *ShipmentViewRepository) UsingView() bool {
	return !r.viewMissing.Load()
}

func (r *ShipmentViewRepository) withSource(ctx context.Context, fn func(src string) error) error {
	if !r.viewMissing.Load() {
		err := fn(db.ShipmentDetailsView)
		if err == nil || !db.IsUndefinedTable(err) {
			return err
		}
		r.viewMissing.Store(true)
		if r.Logger != nil {
			r.Logger.WarnContext(ctx, "shipment details view missing, using inline projection", "view", db.ShipmentDetailsView, "err", err)
		}
	}
	return fn("(" + db.ShipmentDetailsSelect + ")")
}

func (r *ShipmentViewRepository) List(ctx context.Context, f domain.ShipmentFilter, limit, offset int) ([]domain.ShipmentView, int64, error) {
	where, args := shipmentWhere(f)
	var items []domain.ShipmentView
	var total int64
	err := r.withSource(ctx, func(src string) error {
		if err := r.DB.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s d %s`, src, where), args...).Scan(&total); err != nil {
			return err
		}
		pageArgs := append(append([]any{}, args...), limit, offset)
		query := fmt.Sprintf(`SELECT %s FROM %s d %s ORDER BY d.created_at DESC, d.shipment_id DESC LIMIT $%d OFFSET $%d`,
			viewColumns, src, where, len(args)+1, len(args)+2)
		var err error
		items, err = r.queryViews(ctx, query, pageArgs...)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ShipmentViewRepository) GetByID(ctx context.Context, id int64) (*domain.ShipmentView, error) {
	return r.getOne(ctx, "d.shipment_id=$1", id)
}

func (r *ShipmentViewRepository) GetByWaybill(ctx context.Context, waybillNo string) (*domain.ShipmentView, error) {
	return r.getOne(ctx, "d.waybill_no=$1", strings.TrimSpace(waybillNo))
}

func (r *ShipmentViewRepository) getOne(ctx context.Context, cond string, arg any) (*domain.ShipmentView, error) {
	var out *domain.ShipmentView
	err := r.withSource(ctx, func(src string) error {
		v, err := scanShipmentView(r.DB.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM %s d WHERE %s`, viewColumns, src, cond), arg))
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return out, err
}

// Recent returns the most recently created shipments.
func (r *ShipmentViewRepository) Recent(ctx context.Context, limit int) ([]domain.ShipmentView, error) {
	var items []domain.ShipmentView
	err := r.withSource(ctx, func(src string) error {
		var err error
		items, err = r.queryViews(ctx, fmt.Sprintf(`SELECT %s FROM %s d ORDER BY d.created_at DESC, d.shipment_id DESC LIMIT $1`, viewColumns, src), limit)
		return err
	})
	return items, err
}

// StatusCounts counts shipments per status straight from the base table.
func (r *ShipmentViewRepository) StatusCounts(ctx context.Context) (map[domain.ShipmentStatus]int64, error) {
	rows, err := r.DB.Query(ctx, `SELECT status, COUNT(*) FROM shipments GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[domain.ShipmentStatus]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[domain.ShipmentStatus(status)] = n
	}
	return out, rows.Err()
}

func (r *ShipmentViewRepository) queryViews(ctx context.Context, query string, args ...any) ([]domain.ShipmentView, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.ShipmentView
	for rows.Next() {
		v, err := scanShipmentView(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *v)
	}
	return items, rows.Err()
}

func scanShipmentView(row pgx.Row) (*domain.ShipmentView, error) {
	var v domain.ShipmentView
	var status string
	var chargeID pgtype.Int8
	var base, other, insurance, extra, vat, total decimal.NullDecimal
	var currency pgtype.Text
	var chargeCreated, chargeUpdated pgtype.Timestamptz
	var latestMethod, latestAccount pgtype.Text
	var latestAmount decimal.NullDecimal

	if err := row.Scan(
		&v.ID, &v.WaybillNo, &v.Date, &v.SenderID, &v.ReceiverID, &v.Quantity, &v.WeightKg,
		&v.Description, &v.CommercialValue, &v.DeliveryLocation, &status, &v.Notes, &v.ReceiptReference,
		&v.CourierName, &v.StaffNo, &v.CreatedAt, &v.UpdatedAt,
		&v.Sender.Name, &v.Sender.Telephone, &v.Sender.Email, &v.Sender.CompanyName,
		&v.Receiver.Name, &v.Receiver.Telephone, &v.Receiver.Email, &v.Receiver.CompanyName,
		&chargeID, &base, &other, &insurance, &extra, &vat, &total, &currency,
		&chargeCreated, &chargeUpdated,
		&v.TotalPaid, &v.PaymentCount, &latestMethod, &latestAccount, &latestAmount,
	); err != nil {
		return nil, err
	}
	v.Status = domain.ShipmentStatus(status)
	v.Sender.ID = v.SenderID
	v.Receiver.ID = v.ReceiverID

	if chargeID.Valid {
		v.Charge = &domain.Charge{
			ID:         chargeID.Int64,
			ShipmentID: v.ID,
			ChargeComponents: domain.ChargeComponents{
				BaseCharge:    base.Decimal,
				Other:         other.Decimal,
				Insurance:     insurance.Decimal,
				ExtraDelivery: extra.Decimal,
				VAT:           vat.Decimal,
			},
			Total:     total.Decimal,
			Currency:  strings.TrimSpace(currency.String),
			CreatedAt: timeOrZero(chargeCreated),
			UpdatedAt: timeOrZero(chargeUpdated),
		}
	}
	if latestMethod.Valid {
		v.LatestPayment = &domain.LatestPayment{
			Method:         domain.PaymentMethod(latestMethod.String),
			PayerAccountNo: latestAccount.String,
			AmountPaid:     latestAmount.Decimal,
		}
	}
	return &v, nil
}

func timeOrZero(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time
}

// shipmentWhere renders the list filter against the projection alias d.
func shipmentWhere(f domain.ShipmentFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(expr, "$?", fmt.Sprintf("$%d", len(args))))
	}
	if f.Status != "" {
		add("d.status = $?", string(f.Status))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("(d.waybill_no ILIKE $? OR d.sender_name ILIKE $? OR d.receiver_name ILIKE $?)", likePattern(s))
	}
	if f.DateFrom != nil {
		add("d.date >= $?", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("d.date <= $?", *f.DateTo)
	}
	if f.SenderID > 0 {
		add("d.sender_id = $?", f.SenderID)
	}
	if f.ReceiverID > 0 {
		add("d.receiver_id = $?", f.ReceiverID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
