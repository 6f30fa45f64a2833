package db

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// ShipmentDetailsView is the name of the denormalized shipment view.
const ShipmentDetailsView = "v_shipment_details"

// ShipmentDetailsSelect projects one row per shipment with its parties, its latest
// charge row and payment aggregates. The view is created from it and the read path
// inlines it when the view is missing, so both sources expose identical columns.
const ShipmentDetailsSelect = `
SELECT
	s.id AS shipment_id,
	s.waybill_no,
	s.date,
	s.sender_id,
	s.receiver_id,
	s.quantity,
	s.weight_kg,
	s.description,
	s.commercial_value,
	COALESCE(s.delivery_location, '') AS delivery_location,
	s.status,
	COALESCE(s.notes, '') AS notes,
	COALESCE(s.receipt_reference, '') AS receipt_reference,
	COALESCE(s.courier_name, '') AS courier_name,
	COALESCE(s.staff_no, '') AS staff_no,
	s.created_at,
	s.updated_at,
	se.name AS sender_name,
	se.telephone AS sender_telephone,
	COALESCE(se.email, '') AS sender_email,
	COALESCE(se.company_name, '') AS sender_company,
	re.name AS receiver_name,
	re.telephone AS receiver_telephone,
	COALESCE(re.email, '') AS receiver_email,
	COALESCE(re.company_name, '') AS receiver_company,
	c.id AS charge_id,
	c.base_charge,
	c.other,
	c.insurance,
	c.extra_delivery,
	c.vat,
	c.total,
	c.currency,
	c.created_at AS charge_created_at,
	c.updated_at AS charge_updated_at,
	COALESCE(pa.total_paid, 0) AS total_paid,
	COALESCE(pa.payment_count, 0) AS payment_count,
	lp.payment_method AS latest_payment_method,
	lp.payer_account_no AS latest_payer_account_no,
	lp.amount_paid AS latest_amount_paid
FROM shipments s
JOIN senders se ON se.id = s.sender_id
JOIN receivers re ON re.id = s.receiver_id
LEFT JOIN LATERAL (
	SELECT id, base_charge, other, insurance, extra_delivery, vat, total, currency, created_at, updated_at
	FROM charges
	WHERE shipment_id = s.id
	ORDER BY id DESC
	LIMIT 1
) c ON true
LEFT JOIN LATERAL (
	SELECT SUM(amount_paid) AS total_paid, COUNT(*) AS payment_count
	FROM payments
	WHERE shipment_id = s.id
) pa ON true
LEFT JOIN LATERAL (
	SELECT payment_method, COALESCE(payer_account_no, '') AS payer_account_no, amount_paid
	FROM payments
	WHERE shipment_id = s.id
	ORDER BY created_at DESC, id DESC
	LIMIT 1
) lp ON true`

// Migrate creates the tables, indexes and the shipment details view. Every
// statement is idempotent.
func Migrate(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := q.Exec(ctx, "CREATE OR REPLACE VIEW "+ShipmentDetailsView+" AS "+ShipmentDetailsSelect); err != nil {
		return fmt.Errorf("create %s: %w", ShipmentDetailsView, err)
	}
	return nil
}
