package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PartyInput is the nested sender/receiver block of a shipment request, also used
// by the party endpoints.
type PartyInput struct {
	Name          string `json:"name" validate:"required"`
	Telephone     string `json:"telephone" validate:"required,phone"`
	Email         string `json:"email" validate:"omitempty,email"`
	IDPassportNo  string `json:"idPassport"`
	CompanyName   string `json:"companyName"`
	BuildingFloor string `json:"buildingFloor"`
	StreetAddress string `json:"streetAddress"`
	EstateTown    string `json:"estateTown"`
	Address       string `json:"address"`
}

// Party converts the input into a party record without an ID.
func (in PartyInput) Party() Party {
	return Party{
		Name:          in.Name,
		Telephone:     in.Telephone,
		Email:         in.Email,
		IDPassportNo:  in.IDPassportNo,
		CompanyName:   in.CompanyName,
		BuildingFloor: in.BuildingFloor,
		StreetAddress: in.StreetAddress,
		EstateTown:    in.EstateTown,
		Address:       in.Address,
	}
}

// ChargeInput carries optional components; nil means "not supplied".
type ChargeInput struct {
	BaseCharge    *decimal.Decimal `json:"baseCharge" validate:"omitempty,gte=0"`
	Other         *decimal.Decimal `json:"other" validate:"omitempty,gte=0"`
	Insurance     *decimal.Decimal `json:"insurance" validate:"omitempty,gte=0"`
	ExtraDelivery *decimal.Decimal `json:"extraDelivery" validate:"omitempty,gte=0"`
	VAT           *decimal.Decimal `json:"vat" validate:"omitempty,gte=0"`
	Currency      string           `json:"currency" validate:"omitempty,len=3"`
}

// Components treats every missing component as zero.
func (in ChargeInput) Components() ChargeComponents {
	return in.MergeInto(ChargeComponents{})
}

// MergeInto overlays the supplied components on base, keeping base values for missing ones.
func (in ChargeInput) MergeInto(base ChargeComponents) ChargeComponents {
	out := base
	if in.BaseCharge != nil {
		out.BaseCharge = *in.BaseCharge
	}
	if in.Other != nil {
		out.Other = *in.Other
	}
	if in.Insurance != nil {
		out.Insurance = *in.Insurance
	}
	if in.ExtraDelivery != nil {
		out.ExtraDelivery = *in.ExtraDelivery
	}
	if in.VAT != nil {
		out.VAT = *in.VAT
	}
	return out
}

// PaymentInput is the optional payment block. Nil fields are left untouched on corrections.
type PaymentInput struct {
	PayerAccountNo *string          `json:"payerAccountNo"`
	Method         *PaymentMethod   `json:"paymentMethod" validate:"omitnil,paymentmethod"`
	AmountPaid     *decimal.Decimal `json:"amountPaid" validate:"omitempty,gte=0"`
}

// ApplyTo overlays the supplied fields on an existing payment.
func (in PaymentInput) ApplyTo(p Payment) Payment {
	if in.PayerAccountNo != nil {
		p.PayerAccountNo = *in.PayerAccountNo
	}
	if in.Method != nil {
		p.Method = *in.Method
	}
	if in.AmountPaid != nil {
		p.AmountPaid = *in.AmountPaid
	}
	return p
}

// NewPayment builds a payment row from the block, defaulting the method to Cash.
func (in PaymentInput) NewPayment(shipmentID int64) Payment {
	return in.ApplyTo(Payment{ShipmentID: shipmentID, Method: PaymentCash, AmountPaid: decimal.Zero})
}

type CreateShipmentInput struct {
	Sender           PartyInput       `json:"sender"`
	Receiver         PartyInput       `json:"receiver"`
	Date             *time.Time       `json:"date"`
	Quantity         int              `json:"quantity" validate:"gt=0"`
	WeightKg         decimal.Decimal  `json:"weightKg" validate:"gt=0"`
	Description      string           `json:"description" validate:"required"`
	CommercialValue  *decimal.Decimal `json:"commercialValue" validate:"omitempty,gte=0"`
	DeliveryLocation string           `json:"deliveryLocation"`
	Status           ShipmentStatus   `json:"status" validate:"omitempty,shipmentstatus"`
	Notes            string           `json:"notes"`
	ReceiptReference string           `json:"receiptReference"`
	CourierName      string           `json:"courierName"`
	StaffNo          string           `json:"staffNo"`
	Charges          *ChargeInput     `json:"charges"`
	Payment          *PaymentInput    `json:"payment"`
}

// ShipmentUpdate applies only the non-nil fields.
type ShipmentUpdate struct {
	Quantity         *int             `json:"quantity" validate:"omitnil,gt=0"`
	WeightKg         *decimal.Decimal `json:"weightKg" validate:"omitnil,gt=0"`
	Description      *string          `json:"description" validate:"omitnil,min=1"`
	Status           *ShipmentStatus  `json:"status" validate:"omitnil,shipmentstatus"`
	DeliveryLocation *string          `json:"deliveryLocation"`
	Notes            *string          `json:"notes"`
	Charges          *ChargeInput     `json:"charges"`
	Payment          *PaymentInput    `json:"payment"`
}

// HasShipmentFields reports whether any column of the shipment row itself changes.
func (u ShipmentUpdate) HasShipmentFields() bool {
	return u.Quantity != nil || u.WeightKg != nil || u.Description != nil ||
		u.Status != nil || u.DeliveryLocation != nil || u.Notes != nil
}
