package sheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/expense-sheets/internal/config"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	valueInputUserEntered = "USER_ENTERED"
	insertDataInsertRows  = "INSERT_ROWS"
	majorDimensionRows    = "ROWS"
)

// SheetsStore is the Store backed by the Google Sheets API. It opens a new API
// service for every call using the service account file from the configuration.
type SheetsStore struct {
	cfg *config.Config
}

// NewSheetsStore creates a store for the spreadsheet named in cfg.
func NewSheetsStore(cfg *config.Config) *SheetsStore {
	return &SheetsStore{cfg: cfg}
}

// ReadRows implements Store.
func (s *SheetsStore) ReadRows(ctx context.Context, sheet string) ([][]string, error) {
	srv, err := s.service(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := srv.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, sheetRange(sheet)).
		MajorDimension(majorDimensionRows).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("ReadRows: get values of %q: %w", sheet, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// AppendRow implements Store.
func (s *SheetsStore) AppendRow(ctx context.Context, sheet string, cells []string) error {
	srv, err := s.service(ctx)
	if err != nil {
		return err
	}

	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	vr := &gsheets.ValueRange{
		MajorDimension: majorDimensionRows,
		Values:         [][]interface{}{values},
	}

	_, err = srv.Spreadsheets.Values.Append(s.cfg.SpreadsheetID, sheetRange(sheet), vr).
		ValueInputOption(valueInputUserEntered).
		InsertDataOption(insertDataInsertRows).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("AppendRow: append to %q: %w", sheet, err)
	}
	return nil
}

// service checks the configuration and opens a Sheets API client. Configuration
// problems come back as *config.Error, unwrapped.
func (s *SheetsStore) service(ctx context.Context) (*gsheets.Service, error) {
	if err := s.cfg.CheckSheets(); err != nil {
		return nil, err
	}

	srv, err := gsheets.NewService(ctx,
		option.WithCredentialsFile(s.cfg.CredentialsPath),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("service: creating sheets client: %w", err)
	}
	return srv, nil
}

// sheetRange returns the A1 range covering a whole sheet.
func sheetRange(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

var _ Store = (*SheetsStore)(nil)
