package repository

import (
	"context"
	"errors"

	"github.com/Paul-Karonji/Juba-Errands/internal/db"
	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/jackc/pgx/v5"
)

type ChargeRepository struct {
	DB db.Querier
}

const chargeColumns = `id, shipment_id, base_charge, other, insurance, extra_delivery, vat, total, currency, created_at, updated_at`

func scanCharge(row pgx.Row) (*domain.Charge, error) {
	var c domain.Charge
	if err := row.Scan(&c.ID, &c.ShipmentID, &c.BaseCharge, &c.Other, &c.Insurance, &c.ExtraDelivery,
		&c.VAT, &c.Total, &c.Currency, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetByShipment returns the active (most recent) charge row of a shipment.
func (r ChargeRepository) GetByShipment(ctx context.Context, shipmentID int64) (*domain.Charge, error) {
	return scanCharge(r.DB.QueryRow(ctx, `
		SELECT `+chargeColumns+`
		FROM charges
		WHERE shipment_id=$1
		ORDER BY id DESC
		LIMIT 1
	`, shipmentID))
}

func (r ChargeRepository) Insert(ctx context.Context, c domain.Charge) (*domain.Charge, error) {
	return scanCharge(r.DB.QueryRow(ctx, `
		INSERT INTO charges (shipment_id, base_charge, other, insurance, extra_delivery, vat, total, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+chargeColumns,
		c.ShipmentID, c.BaseCharge, c.Other, c.Insurance, c.ExtraDelivery, c.VAT, c.Total, c.Currency))
}

// Update rewrites the components and total of an existing row in place.
func (r ChargeRepository) Update(ctx context.Context, c domain.Charge) (*domain.Charge, error) {
	return scanCharge(r.DB.QueryRow(ctx, `
		UPDATE charges SET
			base_charge=$1, other=$2, insurance=$3, extra_delivery=$4, vat=$5, total=$6, currency=$7, updated_at=now()
		WHERE id=$8
		RETURNING `+chargeColumns,
		c.BaseCharge, c.Other, c.Insurance, c.ExtraDelivery, c.VAT, c.Total, c.Currency, c.ID))
}

func (r ChargeRepository) Get(ctx context.Context, id int64) (*domain.Charge, error) {
	return scanCharge(r.DB.QueryRow(ctx, `SELECT `+chargeColumns+` FROM charges WHERE id=$1`, id))
}

func (r ChargeRepository) List(ctx context.Context, limit int) ([]domain.Charge, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+chargeColumns+`
		FROM charges
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Charge
	for rows.Next() {
		c, err := scanCharge(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

func (r ChargeRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM charges WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r ChargeRepository) DeleteByShipment(ctx context.Context, shipmentID int64) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM charges WHERE shipment_id=$1`, shipmentID)
	return err
}
