package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// RegisterValidations installs custom binding validations on gin's validator.
// Call once at startup, before routes are served.
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("positivedecimal", positiveDecimal)
	}
}

// positiveDecimal accepts only strictly positive decimal amounts.
func positiveDecimal(fl validator.FieldLevel) bool {
	switch d := fl.Field().Interface().(type) {
	case decimal.Decimal:
		return d.IsPositive()
	case *decimal.Decimal:
		return d != nil && d.IsPositive()
	}
	return false
}
