package validation

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/expense-sheets/internal/domain"
	"github.com/shopspring/decimal"
)

// Error is a rule violation for a single form field. Msg is user-facing.
type Error struct {
	Field string
	Msg   string
}

func (e *Error) Error() string {
	return e.Msg
}

// MissingFields returns the labels of required fields whose values are blank,
// in form order.
func MissingFields(values map[string]string) []string {
	var missing []string
	for _, field := range domain.RequiredFields {
		if strings.TrimSpace(values[field]) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// ValidateOperation checks the dates and the amount of op and returns the first
// violation, or nil.
func ValidateOperation(op domain.Operation) error {
	if err := validateDate(domain.FieldDate, op.Date); err != nil {
		return err
	}
	if err := validateDate(domain.FieldExpenseDate, op.ExpenseDate); err != nil {
		return err
	}
	if _, err := ParseAmount(op.Amount); err != nil {
		return err
	}
	return nil
}

// ParseAmount parses s as an exact non-negative decimal. Plain and exponent
// notation are accepted; exponents must fit in an int32.
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, notANumber()
	}
	if amount.IsNegative() {
		return decimal.Decimal{}, &Error{
			Field: domain.FieldAmount,
			Msg:   fmt.Sprintf("Поле %q не может быть меньше нуля.", domain.FieldAmount),
		}
	}
	return amount, nil
}

func validateDate(field, value string) error {
	if _, err := civil.ParseDate(value); err != nil {
		return &Error{
			Field: field,
			Msg:   fmt.Sprintf("Поле %q должно содержать дату в формате ГГГГ-ММ-ДД.", field),
		}
	}
	return nil
}

func notANumber() error {
	return &Error{
		Field: domain.FieldAmount,
		Msg:   fmt.Sprintf("Поле %q должно содержать число.", domain.FieldAmount),
	}
}
