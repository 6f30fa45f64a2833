package repository

import (
	"context"
	"errors"

	"github.com/Paul-Karonji/Juba-Errands/internal/db"
	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type PaymentRepository struct {
	DB db.Querier
}

const paymentColumns = `id, shipment_id, COALESCE(payer_account_no, ''), payment_method, amount_paid, created_at, updated_at`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	var method string
	if err := row.Scan(&p.ID, &p.ShipmentID, &p.PayerAccountNo, &method, &p.AmountPaid, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	p.Method = domain.PaymentMethod(method)
	return &p, nil
}

func (r PaymentRepository) Insert(ctx context.Context, p domain.Payment) (*domain.Payment, error) {
	return scanPayment(r.DB.QueryRow(ctx, `
		INSERT INTO payments (shipment_id, payer_account_no, payment_method, amount_paid, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, now(), now())
		RETURNING `+paymentColumns,
		p.ShipmentID, p.PayerAccountNo, string(p.Method), p.AmountPaid))
}

// Update corrects an existing payment row in place.
func (r PaymentRepository) Update(ctx context.Context, p domain.Payment) (*domain.Payment, error) {
	return scanPayment(r.DB.QueryRow(ctx, `
		UPDATE payments SET payer_account_no=NULLIF($1, ''), payment_method=$2, amount_paid=$3, updated_at=now()
		WHERE id=$4
		RETURNING `+paymentColumns,
		p.PayerAccountNo, string(p.Method), p.AmountPaid, p.ID))
}

func (r PaymentRepository) Get(ctx context.Context, id int64) (*domain.Payment, error) {
	return scanPayment(r.DB.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id))
}

func (r PaymentRepository) SumByShipment(ctx context.Context, shipmentID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.DB.QueryRow(ctx, `SELECT COALESCE(SUM(amount_paid), 0) FROM payments WHERE shipment_id=$1`, shipmentID).Scan(&total)
	return total, err
}

func (r PaymentRepository) LatestByShipment(ctx context.Context, shipmentID int64) (*domain.Payment, error) {
	return scanPayment(r.DB.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE shipment_id=$1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, shipmentID))
}

func (r PaymentRepository) ListByShipment(ctx context.Context, shipmentID int64) ([]domain.Payment, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE shipment_id=$1
		ORDER BY created_at DESC, id DESC
	`, shipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// List returns the newest payments across all shipments.
func (r PaymentRepository) List(ctx context.Context, limit int) ([]domain.Payment, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

func (r PaymentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM payments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r PaymentRepository) DeleteByShipment(ctx context.Context, shipmentID int64) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM payments WHERE shipment_id=$1`, shipmentID)
	return err
}
