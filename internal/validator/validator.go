// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// supportedCurrencies contains the currencies the tracker handles.
var supportedCurrencies = map[string]bool{
	"BYN": true, "USD": true, "EUR": true, "RUB": true,
}

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("currency", validateCurrency)
		_ = v.RegisterValidation("hex_color", validateHexColor)
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("category_type", validateCategoryType)
		_ = v.RegisterValidation("account_type", validateAccountType)
		_ = v.RegisterValidation("budget_period", validateBudgetPeriod)
	}
}

// Currency reports whether code is a supported currency.
func Currency(code string) bool {
	return supportedCurrencies[code]
}

func validateCurrency(fl validator.FieldLevel) bool {
	return supportedCurrencies[fl.Field().String()]
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateCategoryType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateAccountType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "cash", "card", "savings", "other":
		return true
	}
	return false
}

func validateBudgetPeriod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "month", "quarter", "year":
		return true
	}
	return false
}
