package sheets

import (
	"context"

	"github.com/dvloznov/expense-sheets/internal/domain"
)

// Store is the raw tabular transport under the gateway.
// This interface enables faking the spreadsheet in tests.
type Store interface {
	// ReadRows returns every non-empty row of the named sheet, header row included.
	// Rows may be shorter than the widest row; trailing empty cells are omitted.
	ReadRows(ctx context.Context, sheet string) ([][]string, error)

	// AppendRow appends one row after the last data row of the named sheet. Cell
	// values are interpreted as if typed by a user.
	AppendRow(ctx context.Context, sheet string, cells []string) error
}

// OperationsGateway is what the HTTP handlers and the CLI need from the spreadsheet.
type OperationsGateway interface {
	// LoadDropdownOptions reads the settings sheet and returns the form's choices.
	LoadDropdownOptions(ctx context.Context) (domain.DropdownOptions, error)

	// AppendOperation appends op as a new row of the operations sheet.
	AppendOperation(ctx context.Context, op domain.Operation) error
}
