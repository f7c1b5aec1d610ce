package ledger

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// DefaultSheetName is the tab submissions are written to.
const DefaultSheetName = "submissions"

// Cells are parsed as if typed into the UI, so dates and numbers keep their
// types. A submitted value starting with "=" is evaluated as a formula.
const valueInputOption = "USER_ENTERED"

// Sheets writes ledger rows to Google Sheets. It is safe for concurrent use;
// concurrent appends to the same spreadsheet rely on the API's own
// atomicity.
type Sheets struct {
	service   *sheets.Service
	sheetName string
}

// Option configures Sheets.
type Option func(*Sheets)

// WithSheetName sets the tab name. Defaults to DefaultSheetName.
func WithSheetName(name string) Option {
	return func(s *Sheets) {
		if name != "" {
			s.sheetName = name
		}
	}
}

// ServiceAccount returns a client option authenticating as a Google service
// account with read-write access to spreadsheets.
func ServiceAccount(ctx context.Context, email, privateKey string) option.ClientOption {
	conf := &jwt.Config{
		Email:      email,
		PrivateKey: []byte(privateKey),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}
	return option.WithTokenSource(conf.TokenSource(ctx))
}

// NewSheets creates a Sheets ledger. clientOpts are passed to the Sheets
// API client; pass ServiceAccount for production use.
func NewSheets(ctx context.Context, clientOpts []option.ClientOption, opts ...Option) (*Sheets, error) {
	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	s := &Sheets{service: service, sheetName: DefaultSheetName}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SheetName returns the tab rows are written to.
func (s *Sheets) SheetName() string {
	return s.sheetName
}

// AppendRow appends row to the ledger and returns its one-based row number.
func (s *Sheets) AppendRow(ctx context.Context, ledgerID string, row Row) (int, error) {
	values := &sheets.ValueRange{Values: [][]interface{}{row.Values()}}
	resp, err := s.service.Spreadsheets.Values.
		Append(ledgerID, RowRange(s.sheetName), values).
		ValueInputOption(valueInputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("append ledger row: %w", err)
	}
	if resp.Updates == nil {
		return 0, fmt.Errorf("append ledger row: response has no updated range")
	}
	index, err := ParseRowIndex(resp.Updates.UpdatedRange)
	if err != nil {
		return 0, fmt.Errorf("append ledger row: %w", err)
	}
	return index, nil
}

// UpdateTaskID writes taskID into the task id cell of an existing row.
func (s *Sheets) UpdateTaskID(ctx context.Context, ledgerID string, rowIndex int, taskID string) error {
	if rowIndex < 1 {
		return fmt.Errorf("update task id: invalid row %d", rowIndex)
	}
	values := &sheets.ValueRange{Values: [][]interface{}{{taskID}}}
	_, err := s.service.Spreadsheets.Values.
		Update(ledgerID, CellRange(s.sheetName, rowIndex, ColumnTaskID), values).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update task id in row %d: %w", rowIndex, err)
	}
	return nil
}

// URL returns the browser link to a ledger.
func (s *Sheets) URL(ledgerID string) string {
	return URL(ledgerID)
}

// Verify checks that the spreadsheet exists and is readable.
func (s *Sheets) Verify(ctx context.Context, ledgerID string) error {
	if _, err := s.service.Spreadsheets.Get(ledgerID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("open spreadsheet %s: %w", ledgerID, err)
	}
	return nil
}
