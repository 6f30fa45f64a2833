package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Enumerations
const (
	StatusPending   ShipmentStatus = "Pending"
	StatusInTransit ShipmentStatus = "In Transit"
	StatusDelivered ShipmentStatus = "Delivered"
	StatusCancelled ShipmentStatus = "Cancelled"

	PaymentCash  PaymentMethod = "Cash"
	PaymentMpesa PaymentMethod = "M-Pesa"
	PaymentBank  PaymentMethod = "Bank"
	PaymentCard  PaymentMethod = "Card"

	RoleSender   PartyRole = "sender"
	RoleReceiver PartyRole = "receiver"

	DefaultCurrency = "KES"
)

type ShipmentStatus string
type PaymentMethod string
type PartyRole string

// ShipmentStatuses lists every status in display order.
var ShipmentStatuses = []ShipmentStatus{StatusPending, StatusInTransit, StatusDelivered, StatusCancelled}

// PaymentMethods lists every accepted payment method.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentMpesa, PaymentBank, PaymentCard}

// Party is a sender or a receiver. Both roles share one shape.
type Party struct {
	ID            int64
	Name          string
	Telephone     string
	Email         string
	IDPassportNo  string
	CompanyName   string
	BuildingFloor string
	StreetAddress string
	EstateTown    string
	Address       string
	ShipmentCount *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FullAddress joins the structured address parts, falling back to the free-text address.
func (p Party) FullAddress() string {
	var parts []string
	for _, part := range []string{p.BuildingFloor, p.StreetAddress, p.EstateTown} {
		if s := strings.TrimSpace(part); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(p.Address)
	}
	return strings.Join(parts, ", ")
}

type Shipment struct {
	ID               int64
	WaybillNo        string
	Date             time.Time
	SenderID         int64
	ReceiverID       int64
	Quantity         int
	WeightKg         decimal.Decimal
	Description      string
	CommercialValue  decimal.Decimal
	DeliveryLocation string
	Status           ShipmentStatus
	Notes            string
	ReceiptReference string
	CourierName      string
	StaffNo          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ChargeComponents are the client-supplied parts of a charge. The total is never among them.
type ChargeComponents struct {
	BaseCharge    decimal.Decimal
	Other         decimal.Decimal
	Insurance     decimal.Decimal
	ExtraDelivery decimal.Decimal
	VAT           decimal.Decimal
}

type Charge struct {
	ID         int64
	ShipmentID int64
	ChargeComponents
	Total     decimal.Decimal
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Payment struct {
	ID             int64
	ShipmentID     int64
	PayerAccountNo string
	Method         PaymentMethod
	AmountPaid     decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PartySummary is the slice of a party carried on the shipment read model.
type PartySummary struct {
	ID          int64
	Name        string
	Telephone   string
	Email       string
	CompanyName string
}

// LatestPayment describes the most recent payment row of a shipment.
type LatestPayment struct {
	Method         PaymentMethod
	PayerAccountNo string
	AmountPaid     decimal.Decimal
}

// ShipmentView is the denormalized read model: shipment, both parties, the charge
// breakdown and aggregate payment data. Charge and LatestPayment are nil when absent.
type ShipmentView struct {
	Shipment
	Sender        PartySummary
	Receiver      PartySummary
	Charge        *Charge
	TotalPaid     decimal.Decimal
	PaymentCount  int64
	LatestPayment *LatestPayment
}

// IsPaid reports whether payments cover the charge total. No charge means not paid.
func (v ShipmentView) IsPaid() bool {
	if v.Charge == nil {
		return false
	}
	return v.TotalPaid.GreaterThanOrEqual(v.Charge.Total)
}

// Balance is the amount still owed, never negative.
func (v ShipmentView) Balance() decimal.Decimal {
	if v.Charge == nil {
		return decimal.Zero
	}
	owed := v.Charge.Total.Sub(v.TotalPaid)
	if owed.IsNegative() {
		return decimal.Zero
	}
	return owed
}

// ShipmentFilter narrows the shipment list.
type ShipmentFilter struct {
	Status   ShipmentStatus
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
	// zero matches any party
	SenderID   int64
	ReceiverID int64
}

type Page struct {
	Page     int
	PageSize int
}

type ShipmentPage struct {
	Items      []ShipmentView
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

type StatusCount struct {
	Status     ShipmentStatus
	Count      int64
	Percentage decimal.Decimal
}

type DashboardStats struct {
	TotalShipments       int64
	DeliveredShipments   int64
	PendingShipments     int64
	InTransitShipments   int64
	CancelledShipments   int64
	TotalRevenue         decimal.Decimal
	AverageShipmentValue decimal.Decimal
	TotalWeight          decimal.Decimal
}

type RevenuePoint struct {
	Date             time.Time
	ShipmentCount    int64
	DailyRevenue     decimal.Decimal
	AvgShipmentValue decimal.Decimal
}

type PaymentMethodStat struct {
	Method      PaymentMethod
	Count       int64
	TotalAmount decimal.Decimal
	AvgAmount   decimal.Decimal
}

type LocationStat struct {
	Location      string
	ShipmentCount int64
	TotalRevenue  decimal.Decimal
}
