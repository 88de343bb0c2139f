// internal/domain/validation.go
package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"remitflow-wallet/internal/util"
)

// maxMoney bounds amounts to 13 integer digits.
var maxMoney = decimal.New(1, 13)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("money", validateMoney)
	return v
}

// validateMoney accepts positive amounts with at most 13 integer and 2 fraction digits.
func validateMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return d.IsPositive() && d.LessThan(maxMoney) && d.Equal(d.Round(2))
}

// ValidateAmount applies the money rule outside of struct validation.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.LessThan(maxMoney) || !amount.Equal(amount.Round(2)) {
		return util.NewError(util.KindInvalidInput, fmt.Sprintf("invalid amount %s", amount.String()))
	}
	return nil
}

// Validate checks an intent against its struct tags and reports the first failing field.
func Validate(intent any) error {
	err := validate.Struct(intent)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return util.WrapError(util.KindInvalidInput, fmt.Sprintf("%s: %s", fe.Namespace(), validationMessage(fe)), err)
	}
	return util.WrapError(util.KindInvalidInput, "invalid request", err)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "money":
		return "must be positive with at most 13 integer and 2 fraction digits"
	case "numeric":
		return "must be numeric"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "e164":
		return "must be an E.164 phone number"
	case "iso3166_1_alpha2":
		return "must be an ISO 3166-1 alpha-2 country code"
	case "email":
		return "must be a valid email"
	case "nefield":
		return "must differ from " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}
