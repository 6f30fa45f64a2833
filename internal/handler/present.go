package handler

import (
	"encoding/json"
	"time"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/Paul-Karonji/Juba-Errands/internal/service"
	"github.com/shopspring/decimal"
)

// money renders an amount with two decimals as a JSON number.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(domain.MoneyPlaces))
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func partyJSON(p domain.Party) map[string]any {
	out := map[string]any{
		"id":            p.ID,
		"name":          p.Name,
		"telephone":     p.Telephone,
		"email":         p.Email,
		"idPassport":    p.IDPassportNo,
		"companyName":   p.CompanyName,
		"buildingFloor": p.BuildingFloor,
		"streetAddress": p.StreetAddress,
		"estateTown":    p.EstateTown,
		"address":       p.Address,
		"fullAddress":   p.FullAddress(),
		"createdAt":     p.CreatedAt.Format(time.RFC3339),
		"updatedAt":     p.UpdatedAt.Format(time.RFC3339),
	}
	if p.ShipmentCount != nil {
		out["shipmentCount"] = *p.ShipmentCount
	}
	return out
}

func partySummaryJSON(p domain.PartySummary) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"telephone":   p.Telephone,
		"email":       p.Email,
		"companyName": p.CompanyName,
	}
}

func chargeJSON(c domain.Charge) map[string]any {
	return map[string]any{
		"id":            c.ID,
		"shipmentId":    c.ShipmentID,
		"baseCharge":    money(c.BaseCharge),
		"other":         money(c.Other),
		"insurance":     money(c.Insurance),
		"extraDelivery": money(c.ExtraDelivery),
		"vat":           money(c.VAT),
		"total":         money(c.Total),
		"currency":      c.Currency,
		"createdAt":     c.CreatedAt.Format(time.RFC3339),
		"updatedAt":     c.UpdatedAt.Format(time.RFC3339),
	}
}

func paymentJSON(p domain.Payment) map[string]any {
	var account any
	if p.PayerAccountNo != "" {
		account = p.PayerAccountNo
	}
	return map[string]any{
		"id":             p.ID,
		"shipmentId":     p.ShipmentID,
		"payerAccountNo": account,
		"paymentMethod":  p.Method,
		"amountPaid":     money(p.AmountPaid),
		"createdAt":      p.CreatedAt.Format(time.RFC3339),
		"updatedAt":      p.UpdatedAt.Format(time.RFC3339),
	}
}

func shipmentJSON(v domain.ShipmentView) map[string]any {
	out := map[string]any{
		"id":               v.ID,
		"waybillNo":        v.WaybillNo,
		"date":             v.Date.Format(dateLayout),
		"senderId":         v.SenderID,
		"receiverId":       v.ReceiverID,
		"sender":           partySummaryJSON(v.Sender),
		"receiver":         partySummaryJSON(v.Receiver),
		"quantity":         v.Quantity,
		"weightKg":         number(v.WeightKg),
		"description":      v.Description,
		"commercialValue":  money(v.CommercialValue),
		"deliveryLocation": v.DeliveryLocation,
		"status":           v.Status,
		"notes":            v.Notes,
		"receiptReference": v.ReceiptReference,
		"courierName":      v.CourierName,
		"staffNo":          v.StaffNo,
		"charges":          nil,
		"totalPaid":        money(v.TotalPaid),
		"paymentCount":     v.PaymentCount,
		"latestPayment":    nil,
		"isPaid":           v.IsPaid(),
		"balance":          money(v.Balance()),
		"createdAt":        v.CreatedAt.Format(time.RFC3339),
		"updatedAt":        v.UpdatedAt.Format(time.RFC3339),
	}
	if v.Charge != nil {
		out["charges"] = chargeJSON(*v.Charge)
	}
	if v.LatestPayment != nil {
		var account any
		if v.LatestPayment.PayerAccountNo != "" {
			account = v.LatestPayment.PayerAccountNo
		}
		out["latestPayment"] = map[string]any{
			"paymentMethod":  v.LatestPayment.Method,
			"payerAccountNo": account,
			"amountPaid":     money(v.LatestPayment.AmountPaid),
		}
	}
	return out
}

func shipmentsJSON(items []domain.ShipmentView) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, v := range items {
		out = append(out, shipmentJSON(v))
	}
	return out
}

func shipmentPageJSON(page domain.ShipmentPage) map[string]any {
	return map[string]any{
		"items": shipmentsJSON(page.Items),
		"pagination": map[string]any{
			"total": page.Total,
			"page":  page.Page,
			"limit": page.PageSize,
			"pages": page.TotalPages,
		},
	}
}

func paymentStatusJSON(st service.PaymentStatus) map[string]any {
	return map[string]any{
		"shipmentId":   st.ShipmentID,
		"totalPaid":    money(st.TotalPaid),
		"totalCharges": money(st.TotalCharges),
		"hasCharge":    st.HasCharge,
		"isComplete":   st.IsComplete,
	}
}

func statsJSON(s domain.DashboardStats) map[string]any {
	return map[string]any{
		"totalShipments":       s.TotalShipments,
		"deliveredShipments":   s.DeliveredShipments,
		"pendingShipments":     s.PendingShipments,
		"inTransitShipments":   s.InTransitShipments,
		"cancelledShipments":   s.CancelledShipments,
		"totalRevenue":         money(s.TotalRevenue),
		"averageShipmentValue": money(s.AverageShipmentValue),
		"totalWeight":          number(s.TotalWeight),
	}
}

func statusBreakdownJSON(items []domain.StatusCount) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, map[string]any{
			"status":     it.Status,
			"count":      it.Count,
			"percentage": money(it.Percentage),
		})
	}
	return out
}
