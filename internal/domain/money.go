package domain

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of fraction digits stored for every monetary column.
const MoneyPlaces = 2

// Bounds on decimals accepted from callers.
const (
	MaxDecimalExponent = 20
	MaxDecimalDigits   = 30
)

// DecimalInRange reports whether d is within the bounds every numeric input is held to.
func DecimalInRange(d decimal.Decimal) bool {
	if e := d.Exponent(); e > MaxDecimalExponent || e < -MaxDecimalExponent {
		return false
	}
	return d.NumDigits() <= MaxDecimalDigits
}

// RoundMoney rounds half away from zero to two fraction digits.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Total sums the five components in fixed-point arithmetic.
func (c ChargeComponents) Total() decimal.Decimal {
	return RoundMoney(decimal.Sum(c.BaseCharge, c.Other, c.Insurance, c.ExtraDelivery, c.VAT))
}

// Rounded returns the components rounded to storage precision.
func (c ChargeComponents) Rounded() ChargeComponents {
	return ChargeComponents{
		BaseCharge:    RoundMoney(c.BaseCharge),
		Other:         RoundMoney(c.Other),
		Insurance:     RoundMoney(c.Insurance),
		ExtraDelivery: RoundMoney(c.ExtraDelivery),
		VAT:           RoundMoney(c.VAT),
	}
}

// Validate rejects negative components.
func (c ChargeComponents) Validate() error {
	verr := &ValidationError{}
	check := func(field string, v decimal.Decimal) {
		if v.IsNegative() {
			verr.Add(field, "cannot be negative")
		}
	}
	check("charges.baseCharge", c.BaseCharge)
	check("charges.other", c.Other)
	check("charges.insurance", c.Insurance)
	check("charges.extraDelivery", c.ExtraDelivery)
	check("charges.vat", c.VAT)
	return verr.OrNil()
}

// Percentage returns part/whole*100 rounded to two places; zero when whole is zero.
func Percentage(part, whole int64) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(whole)).Round(2)
}
