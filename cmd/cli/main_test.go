package main

import (
	"errors"
	"testing"

	"github.com/dvloznov/expense-sheets/internal/domain"
	"github.com/dvloznov/expense-sheets/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperation(t *testing.T) {
	args := []string{
		"-center", " Офис ",
		"-section", "Аренда",
		"-amount", "120.50",
		"-counterparty", "ООО Ромашка",
		"-description", "аренда за март",
	}

	op, err := parseOperation(args, "2024-03-05")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2024-03-05", "Офис", "Аренда", "2024-03-05", "120.50", "ООО Ромашка", "аренда за март",
	}, op.Row())
}

func TestParseOperation_ExplicitDates(t *testing.T) {
	args := []string{
		"-date", "2024-01-31",
		"-expense-date", "2023-12-31",
		"-center", "Офис",
		"-section", "Аренда",
		"-amount", "1",
		"-counterparty", "ИП Иванов",
		"-description", "услуги",
	}

	op, err := parseOperation(args, "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", op.Date)
	assert.Equal(t, "2023-12-31", op.ExpenseDate)
}

func TestParseOperation_MissingFields(t *testing.T) {
	_, err := parseOperation([]string{"-center", "Офис", "-amount", "1"}, "2024-03-05")
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.FieldCashFlow)
	assert.Contains(t, err.Error(), domain.FieldCounterparty)
	assert.Contains(t, err.Error(), domain.FieldDescription)
	assert.NotContains(t, err.Error(), domain.FieldCostCenter)
}

func TestParseOperation_Invalid(t *testing.T) {
	args := []string{
		"-center", "Офис",
		"-section", "Аренда",
		"-amount", "-5",
		"-counterparty", "ООО Ромашка",
		"-description", "аренда",
	}

	_, err := parseOperation(args, "2024-03-05")

	var vErr *validation.Error
	require.True(t, errors.As(err, &vErr), "expected *validation.Error, got %v", err)
	assert.Equal(t, domain.FieldAmount, vErr.Field)
}

func TestParseOperation_UnknownFlag(t *testing.T) {
	_, err := parseOperation([]string{"-colour", "red"}, "2024-03-05")
	assert.Error(t, err)
}
