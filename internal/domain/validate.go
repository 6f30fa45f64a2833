package domain

import (
	"errors"
	"math"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]{7,}$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			d, ok := field.Interface().(decimal.Decimal)
			if !ok {
				return nil
			}
			if !DecimalInRange(d) {
				return math.NaN()
			}
			f, _ := d.Float64()
			return f
		}, decimal.Decimal{})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(strings.TrimSpace(fl.Field().String()))
		})
		_ = v.RegisterValidation("shipmentstatus", func(fl validator.FieldLevel) bool {
			return ShipmentStatus(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("paymentmethod", func(fl validator.FieldLevel) bool {
			return PaymentMethod(fl.Field().String()).Valid()
		})
		validate = v
	})
	return validate
}

// ValidPhone reports whether s looks like a telephone number.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(strings.TrimSpace(s))
}

// ValidateStruct runs tag validation and returns a ValidationError naming every failing field.
func ValidateStruct(s any) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError("body", err.Error())
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Add(fieldPath(fe.Namespace()), fieldMessage(fe))
	}
	return out.OrNil()
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	if f, ok := fe.Value().(float64); ok && math.IsNaN(f) {
		return "is out of range"
	}
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		if fe.Param() == "0" {
			return "cannot be negative"
		}
		return "must be at least " + fe.Param()
	case "min":
		return "cannot be empty"
	case "len":
		return "must be " + fe.Param() + " characters long"
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be a valid telephone number"
	case "shipmentstatus":
		return "must be one of Pending, In Transit, Delivered, Cancelled"
	case "paymentmethod":
		return "must be one of Cash, M-Pesa, Bank, Card"
	default:
		return "is invalid"
	}
}
