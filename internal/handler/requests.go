package handler

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/shopspring/decimal"
)

// flexDecimal accepts a JSON number or a numeric string. Empty or non-numeric
// values decode to zero, matching what existing clients send for blank form fields.
// Numbers beyond domain.DecimalInRange decode to zero with outOfRange set.
type flexDecimal struct {
	decimal.Decimal
	outOfRange bool
}

func (f *flexDecimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		d = decimal.Zero
	}
	if !domain.DecimalInRange(d) {
		*f = flexDecimal{Decimal: decimal.Zero, outOfRange: true}
		return nil
	}
	*f = flexDecimal{Decimal: d}
	return nil
}

// check records name on verr when the value could not be accepted.
func (f *flexDecimal) check(verr *domain.ValidationError, name string) {
	if f != nil && f.outOfRange {
		verr.Add(name, "is out of range")
	}
}

// checkCount also rejects fractions and values beyond an INTEGER column.
func (f *flexDecimal) checkCount(verr *domain.ValidationError, name string) {
	switch {
	case f == nil:
	case f.outOfRange || f.Decimal.GreaterThan(maxCount) || f.Decimal.LessThan(maxCount.Neg()):
		verr.Add(name, "is out of range")
	case !f.Decimal.IsInteger():
		verr.Add(name, "must be a whole number")
	}
}

var maxCount = decimal.NewFromInt(math.MaxInt32)

func (f *flexDecimal) ptr() *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := f.Decimal
	return &d
}

func (f *flexDecimal) intPtr() *int {
	if f == nil {
		return nil
	}
	n := int(f.IntPart())
	return &n
}

// first returns the first non-nil value.
func first[T any](vals ...*T) *T {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nonEmpty treats an empty or blank string like an absent one.
func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

type partyBody struct {
	Name          string `json:"name"`
	Telephone     string `json:"telephone"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	IDPassport    string `json:"idPassport"`
	CompanyName   string `json:"companyName"`
	BuildingFloor string `json:"buildingFloor"`
	StreetAddress string `json:"streetAddress"`
	EstateTown    string `json:"estateTown"`
	Address       string `json:"address"`
}

func (p partyBody) input() domain.PartyInput {
	tel := p.Telephone
	if tel == "" {
		tel = p.Phone
	}
	return domain.PartyInput{
		Name:          p.Name,
		Telephone:     tel,
		Email:         p.Email,
		IDPassportNo:  p.IDPassport,
		CompanyName:   p.CompanyName,
		BuildingFloor: p.BuildingFloor,
		StreetAddress: p.StreetAddress,
		EstateTown:    p.EstateTown,
		Address:       p.Address,
	}
}

// chargeBody is a charges block. A client-sent total is ignored; it is always derived.
type chargeBody struct {
	BaseCharge    *flexDecimal `json:"baseCharge"`
	Base          *flexDecimal `json:"base"`
	Other         *flexDecimal `json:"other"`
	Insurance     *flexDecimal `json:"insurance"`
	ExtraDelivery *flexDecimal `json:"extraDelivery"`
	VAT           *flexDecimal `json:"vat"`
	Currency      string       `json:"currency"`
}

func (c chargeBody) check(verr *domain.ValidationError, prefix string) {
	first(c.BaseCharge, c.Base).check(verr, prefix+"baseCharge")
	c.Other.check(verr, prefix+"other")
	c.Insurance.check(verr, prefix+"insurance")
	c.ExtraDelivery.check(verr, prefix+"extraDelivery")
	c.VAT.check(verr, prefix+"vat")
}

func (c chargeBody) input() domain.ChargeInput {
	return domain.ChargeInput{
		BaseCharge:    first(c.BaseCharge, c.Base).ptr(),
		Other:         c.Other.ptr(),
		Insurance:     c.Insurance.ptr(),
		ExtraDelivery: c.ExtraDelivery.ptr(),
		VAT:           c.VAT.ptr(),
		Currency:      strings.TrimSpace(c.Currency),
	}
}

type paymentBody struct {
	PayerAccountNo *string      `json:"payerAccountNo"`
	PaymentMethod  *string      `json:"paymentMethod"`
	AmountPaid     *flexDecimal `json:"amountPaid"`
}

func (p paymentBody) check(verr *domain.ValidationError, prefix string) {
	p.AmountPaid.check(verr, prefix+"amountPaid")
}

func (p paymentBody) input() domain.PaymentInput {
	in := domain.PaymentInput{
		PayerAccountNo: p.PayerAccountNo,
		AmountPaid:     p.AmountPaid.ptr(),
	}
	if m := nonEmpty(p.PaymentMethod); m != nil {
		method := domain.PaymentMethod(strings.TrimSpace(*m))
		in.Method = &method
	}
	return in
}

func (p paymentBody) empty() bool {
	return nonEmpty(p.PayerAccountNo) == nil && nonEmpty(p.PaymentMethod) == nil && p.AmountPaid == nil
}

// shipmentBody accepts the canonical nested payload and the flat snake_case payload
// produced by older form clients. Nested blocks win when both are present.
type shipmentBody struct {
	Sender   *partyBody `json:"sender"`
	Receiver *partyBody `json:"receiver"`

	SenderName          string `json:"sender_name"`
	SenderTelephone     string `json:"sender_telephone"`
	SenderEmail         string `json:"sender_email"`
	SenderIDPassport    string `json:"sender_id_passport"`
	SenderCompanyName   string `json:"sender_company_name"`
	SenderBuildingFloor string `json:"sender_building_floor"`
	SenderStreetAddress string `json:"sender_street_address"`
	SenderEstateTown    string `json:"sender_estate_town"`

	ReceiverName          string `json:"receiver_name"`
	ReceiverTelephone     string `json:"receiver_telephone"`
	ReceiverEmail         string `json:"receiver_email"`
	ReceiverIDPassport    string `json:"receiver_id_passport"`
	ReceiverCompanyName   string `json:"receiver_company_name"`
	ReceiverBuildingFloor string `json:"receiver_building_floor"`
	ReceiverStreetAddress string `json:"receiver_street_address"`
	ReceiverEstateTown    string `json:"receiver_estate_town"`

	Date                 *string      `json:"date"`
	Quantity             *flexDecimal `json:"quantity"`
	WeightKg             *flexDecimal `json:"weightKg"`
	WeightKgFlat         *flexDecimal `json:"weight_kg"`
	Description          *string      `json:"description"`
	CommercialValue      *flexDecimal `json:"commercialValue"`
	CommercialValueFlat  *flexDecimal `json:"commercial_value"`
	DeliveryLocation     *string      `json:"deliveryLocation"`
	DeliveryLocationFlat *string      `json:"delivery_location"`
	Status               *string      `json:"status"`
	Notes                *string      `json:"notes"`
	ReceiptReference     *string      `json:"receiptReference"`
	ReceiptReferenceFlat *string      `json:"receipt_reference"`
	CourierName          *string      `json:"courierName"`
	CourierNameFlat      *string      `json:"courier_name"`
	StaffNo              *string      `json:"staffNo"`
	StaffNoFlat          *string      `json:"staff_no"`

	Charges *chargeBody  `json:"charges"`
	Payment *paymentBody `json:"payment"`

	Base              *flexDecimal `json:"base"`
	Other             *flexDecimal `json:"other"`
	Insurance         *flexDecimal `json:"insurance"`
	ExtraDelivery     *flexDecimal `json:"extra_delivery"`
	VAT               *flexDecimal `json:"vat"`
	PayerAccountNo    *string      `json:"payer_account_no"`
	PaymentMethodFlat *string      `json:"payment_method"`
	AmountPaid        *flexDecimal `json:"amount_paid"`
}

func (b shipmentBody) sender() domain.PartyInput {
	if b.Sender != nil {
		return b.Sender.input()
	}
	return partyBody{
		Name: b.SenderName, Telephone: b.SenderTelephone, Email: b.SenderEmail, IDPassport: b.SenderIDPassport,
		CompanyName: b.SenderCompanyName, BuildingFloor: b.SenderBuildingFloor,
		StreetAddress: b.SenderStreetAddress, EstateTown: b.SenderEstateTown,
	}.input()
}

func (b shipmentBody) receiver() domain.PartyInput {
	if b.Receiver != nil {
		return b.Receiver.input()
	}
	return partyBody{
		Name: b.ReceiverName, Telephone: b.ReceiverTelephone, Email: b.ReceiverEmail, IDPassport: b.ReceiverIDPassport,
		CompanyName: b.ReceiverCompanyName, BuildingFloor: b.ReceiverBuildingFloor,
		StreetAddress: b.ReceiverStreetAddress, EstateTown: b.ReceiverEstateTown,
	}.input()
}

func (b shipmentBody) charges() *domain.ChargeInput {
	if b.Charges != nil {
		in := b.Charges.input()
		return &in
	}
	if b.Base == nil && b.Other == nil && b.Insurance == nil && b.ExtraDelivery == nil && b.VAT == nil {
		return nil
	}
	in := chargeBody{Base: b.Base, Other: b.Other, Insurance: b.Insurance, ExtraDelivery: b.ExtraDelivery, VAT: b.VAT}.input()
	return &in
}

func (b shipmentBody) payment() *domain.PaymentInput {
	p := b.Payment
	if p == nil {
		p = &paymentBody{PayerAccountNo: b.PayerAccountNo, PaymentMethod: b.PaymentMethodFlat, AmountPaid: b.AmountPaid}
		if p.empty() {
			return nil
		}
	}
	in := p.input()
	return &in
}

func (b shipmentBody) status() *domain.ShipmentStatus {
	s := nonEmpty(b.Status)
	if s == nil {
		return nil
	}
	st := domain.ShipmentStatus(strings.TrimSpace(*s))
	return &st
}

// numericErrors reports numbers that were out of range and quantities that are
// not whole numbers.
func (b shipmentBody) numericErrors() *domain.ValidationError {
	verr := &domain.ValidationError{}
	b.Quantity.checkCount(verr, "quantity")
	first(b.WeightKg, b.WeightKgFlat).check(verr, "weightKg")
	first(b.CommercialValue, b.CommercialValueFlat).check(verr, "commercialValue")
	if b.Charges != nil {
		b.Charges.check(verr, "charges.")
	} else {
		chargeBody{Base: b.Base, Other: b.Other, Insurance: b.Insurance, ExtraDelivery: b.ExtraDelivery, VAT: b.VAT}.check(verr, "charges.")
	}
	if b.Payment != nil {
		b.Payment.check(verr, "payment.")
	} else {
		b.AmountPaid.check(verr, "payment.amountPaid")
	}
	return verr
}

// createInput maps the body to the canonical create input. A malformed date or
// number is reported as a validation error.
func (b shipmentBody) createInput() (domain.CreateShipmentInput, error) {
	verr := b.numericErrors()
	in := domain.CreateShipmentInput{
		Sender:           b.sender(),
		Receiver:         b.receiver(),
		Description:      deref(b.Description),
		CommercialValue:  first(b.CommercialValue, b.CommercialValueFlat).ptr(),
		DeliveryLocation: deref(first(b.DeliveryLocation, b.DeliveryLocationFlat)),
		Notes:            deref(b.Notes),
		ReceiptReference: deref(first(b.ReceiptReference, b.ReceiptReferenceFlat)),
		CourierName:      deref(first(b.CourierName, b.CourierNameFlat)),
		StaffNo:          deref(first(b.StaffNo, b.StaffNoFlat)),
		Charges:          b.charges(),
		Payment:          b.payment(),
	}
	if q := b.Quantity.intPtr(); q != nil {
		in.Quantity = *q
	}
	if w := first(b.WeightKg, b.WeightKgFlat).ptr(); w != nil {
		in.WeightKg = *w
	}
	if st := b.status(); st != nil {
		in.Status = *st
	}
	if d := nonEmpty(b.Date); d != nil {
		parsed, err := parseBodyDate(*d)
		if err != nil {
			verr.Add("date", "must be a date in YYYY-MM-DD format")
		} else {
			in.Date = &parsed
		}
	}
	return in, verr.OrNil()
}

func (b shipmentBody) updateInput() (domain.ShipmentUpdate, error) {
	if err := b.numericErrors().OrNil(); err != nil {
		return domain.ShipmentUpdate{}, err
	}
	return domain.ShipmentUpdate{
		Quantity:         b.Quantity.intPtr(),
		WeightKg:         first(b.WeightKg, b.WeightKgFlat).ptr(),
		Description:      b.Description,
		Status:           b.statusForUpdate(),
		DeliveryLocation: first(b.DeliveryLocation, b.DeliveryLocationFlat),
		Notes:            b.Notes,
		Charges:          b.charges(),
		Payment:          b.payment(),
	}, nil
}

// statusForUpdate keeps an explicit empty status so validation can reject it.
func (b shipmentBody) statusForUpdate() *domain.ShipmentStatus {
	if b.Status == nil {
		return nil
	}
	st := domain.ShipmentStatus(strings.TrimSpace(*b.Status))
	return &st
}

// parseBodyDate accepts a calendar date or an RFC 3339 timestamp.
func parseBodyDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
