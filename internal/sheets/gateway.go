package sheets

import (
	"context"
	"slices"
	"strings"

	"github.com/dvloznov/expense-sheets/internal/config"
	"github.com/dvloznov/expense-sheets/internal/domain"
	"github.com/dvloznov/expense-sheets/internal/logger"
	"github.com/dvloznov/expense-sheets/internal/retry"
	"github.com/rs/zerolog"
)

// Operation names used in logs, metrics and unavailability errors.
const (
	OpLoadDropdownOptions = "load_dropdown_options"
	OpAppendOperation     = "append_operation"
)

// Fallback positions (zero-based) of the settings columns when their headers are missing.
const (
	fallbackCenterColumn  = 0
	fallbackSectionColumn = 1
)

// SheetNames names the two sheets the gateway works with.
type SheetNames struct {
	Operations string
	Settings   string
}

// Gateway runs every spreadsheet call through the retrier.
type Gateway struct {
	store   Store
	retrier *retry.Retrier
	sheets  SheetNames
	log     zerolog.Logger
}

// NewGateway creates a gateway backed by the Google Sheets API.
func NewGateway(cfg *config.Config, log zerolog.Logger) *Gateway {
	return NewGatewayWithStore(
		NewSheetsStore(cfg),
		retry.New(log),
		SheetNames{Operations: cfg.OperationsSheet, Settings: cfg.SettingsSheet},
		log,
	)
}

// NewGatewayWithStore creates a gateway over an arbitrary store.
func NewGatewayWithStore(store Store, retrier *retry.Retrier, sheets SheetNames, log zerolog.Logger) *Gateway {
	return &Gateway{
		store:   store,
		retrier: retrier,
		sheets:  sheets,
		log:     log,
	}
}

// LoadDropdownOptions implements OperationsGateway.
func (g *Gateway) LoadDropdownOptions(ctx context.Context) (domain.DropdownOptions, error) {
	return retry.Do(ctx, g.retrier, OpLoadDropdownOptions, func(ctx context.Context) (domain.DropdownOptions, error) {
		rows, err := g.store.ReadRows(ctx, g.sheets.Settings)
		if err != nil {
			return domain.DropdownOptions{}, err
		}
		return g.dropdownOptions(logger.FromContext(ctx, g.log), rows), nil
	})
}

// AppendOperation implements OperationsGateway.
func (g *Gateway) AppendOperation(ctx context.Context, op domain.Operation) error {
	_, err := retry.Do(ctx, g.retrier, OpAppendOperation, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.store.AppendRow(ctx, g.sheets.Operations, op.Row())
	})
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx, g.log)
	log.Info().
		Str("sheet", g.sheets.Operations).
		Str("date", op.Date).
		Str("cost_center", op.CostCenter).
		Str("amount", op.Amount).
		Msg("Operation appended")
	return nil
}

// dropdownOptions picks the center and section columns from the settings rows.
// Columns are found by header text; when a header is absent the fixed fallback
// position is used silently, so reordering the sheet without headers shifts the data.
func (g *Gateway) dropdownOptions(log zerolog.Logger, rows [][]string) domain.DropdownOptions {
	var header []string
	var data [][]string
	if len(rows) > 0 {
		header, data = rows[0], rows[1:]
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	centerCol := g.column(log, index, domain.FieldCostCenter, fallbackCenterColumn)
	sectionCol := g.column(log, index, domain.FieldCashFlow, fallbackSectionColumn)

	return domain.DropdownOptions{
		Centers:  uniqueSorted(columnValues(data, centerCol)),
		Sections: uniqueSorted(columnValues(data, sectionCol)),
	}
}

func (g *Gateway) column(log zerolog.Logger, index map[string]int, name string, fallback int) int {
	if col, ok := index[name]; ok {
		return col
	}
	log.Debug().
		Str("sheet", g.sheets.Settings).
		Str("header", name).
		Int("fallback_column", fallback+1).
		Msg("Settings header not found, using fallback column")
	return fallback
}

func columnValues(rows [][]string, col int) []string {
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		if col < len(row) {
			values = append(values, row[col])
		}
	}
	return values
}

// uniqueSorted trims values, drops blanks and duplicates, and sorts the rest.
func uniqueSorted(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

var _ OperationsGateway = (*Gateway)(nil)
