package domain

import "strings"

// Field labels double as form field names and as sheet header text.
const (
	FieldDate         = "Дата"
	FieldCostCenter   = "Расчетные центры"
	FieldCashFlow     = "Раздел ДДС"
	FieldExpenseDate  = "Дата Затраты (ОПУ)"
	FieldAmount       = "Стоимость"
	FieldCounterparty = "Контрагент"
	FieldDescription  = "За что платим"
)

// RequiredFields lists every form field in operations-sheet column order.
var RequiredFields = []string{
	FieldDate,
	FieldCostCenter,
	FieldCashFlow,
	FieldExpenseDate,
	FieldAmount,
	FieldCounterparty,
	FieldDescription,
}

// Operation is one submitted expense entry. It is validated once and appended as
// a single row of the operations sheet.
type Operation struct {
	Date         string
	CostCenter   string
	CashFlow     string
	ExpenseDate  string
	Amount       string
	Counterparty string
	Description  string
}

// OperationFromValues builds an Operation from raw values keyed by field label,
// trimming each value.
func OperationFromValues(values map[string]string) Operation {
	get := func(field string) string {
		return strings.TrimSpace(values[field])
	}
	return Operation{
		Date:         get(FieldDate),
		CostCenter:   get(FieldCostCenter),
		CashFlow:     get(FieldCashFlow),
		ExpenseDate:  get(FieldExpenseDate),
		Amount:       get(FieldAmount),
		Counterparty: get(FieldCounterparty),
		Description:  get(FieldDescription),
	}
}

// Values returns the operation keyed by field label.
func (o Operation) Values() map[string]string {
	return map[string]string{
		FieldDate:         o.Date,
		FieldCostCenter:   o.CostCenter,
		FieldCashFlow:     o.CashFlow,
		FieldExpenseDate:  o.ExpenseDate,
		FieldAmount:       o.Amount,
		FieldCounterparty: o.Counterparty,
		FieldDescription:  o.Description,
	}
}

// Row returns the seven cells in RequiredFields order.
func (o Operation) Row() []string {
	return []string{
		o.Date,
		o.CostCenter,
		o.CashFlow,
		o.ExpenseDate,
		o.Amount,
		o.Counterparty,
		o.Description,
	}
}

// DropdownOptions holds the choices offered by the form's two select boxes.
type DropdownOptions struct {
	Centers  []string
	Sections []string
}
