// Package sheets stores the weight log in a Google spreadsheet, one tab per
// pet with a "Date, Weight" header row.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"petweights/internal/domain"
)

// Header is the first row of every pet tab.
var Header = domain.Row{Timestamp: "Date", Weight: "Weight"}

// Log implements domain.WeightLog over a single spreadsheet.
type Log struct {
	svc           *sheets.Service
	spreadsheetID string
}

var _ domain.WeightLog = (*Log)(nil)

// NewService creates a Sheets API client authorised by ts. Extra options are
// appended, so tests can point it at a local server.
func NewService(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*sheets.Service, error) {
	if ts != nil {
		opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// NewLog returns a weight log backed by spreadsheetID.
func NewLog(svc *sheets.Service, spreadsheetID string) *Log {
	return &Log{svc: svc, spreadsheetID: spreadsheetID}
}

// ReadRange returns the rows of rng. The API omits trailing empty rows and
// trailing empty cells; short rows are padded.
func (l *Log) ReadRange(ctx context.Context, rng domain.Range) ([]domain.Row, error) {
	resp, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, rng.A1()).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(domain.ErrReadLog, err)
	}

	rows := make([]domain.Row, 0, len(resp.Values))
	for _, cells := range resp.Values {
		var row domain.Row
		if len(cells) > 0 {
			row.Timestamp = cellString(cells[0])
		}
		if len(cells) > 1 {
			row.Weight = cellString(cells[1])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteRange writes rows into rng with a single values update. Values are
// stored as entered (RAW) so the sheet keeps the exact strings.
func (l *Log) WriteRange(ctx context.Context, rng domain.Range, rows []domain.Row) (int, error) {
	values := make([][]interface{}, len(rows))
	for i, r := range rows {
		values[i] = []interface{}{r.Timestamp, r.Weight}
	}

	resp, err := l.svc.Spreadsheets.Values.Update(l.spreadsheetID, rng.A1(), &sheets.ValueRange{
		Range:          rng.A1(),
		MajorDimension: "ROWS",
		Values:         values,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return 0, classify(domain.ErrWrite, err)
	}
	return int(resp.UpdatedRows), nil
}

// Create makes a new spreadsheet titled title with a header-only tab for each
// pet and returns its id.
func Create(ctx context.Context, svc *sheets.Service, title string, pets []string) (string, error) {
	ss := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
	}
	for _, pet := range pets {
		ss.Sheets = append(ss.Sheets, &sheets.Sheet{
			Properties: &sheets.SheetProperties{Title: pet},
			Data: []*sheets.GridData{{
				RowData: []*sheets.RowData{headerRowData()},
			}},
		})
	}

	created, err := svc.Spreadsheets.Create(ss).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return "", classify(domain.ErrWrite, err)
	}
	return created.SpreadsheetId, nil
}

// EnsureTab adds a header-only tab for pet unless the spreadsheet already has
// one. It reports whether a tab was added.
func (l *Log) EnsureTab(ctx context.Context, pet string) (bool, error) {
	ss, err := l.svc.Spreadsheets.Get(l.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return false, classify(domain.ErrReadLog, err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == pet {
			return false, nil
		}
	}

	_, err = l.svc.Spreadsheets.BatchUpdate(l.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: pet}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return false, classify(domain.ErrWrite, err)
	}

	if _, err := l.WriteRange(ctx, domain.Range{Sheet: pet, StartRow: 1, EndRow: 1}, []domain.Row{Header}); err != nil {
		return true, err
	}
	return true, nil
}

func headerRowData() *sheets.RowData {
	ts, w := Header.Timestamp, Header.Weight
	return &sheets.RowData{Values: []*sheets.CellData{
		{UserEnteredValue: &sheets.ExtendedValue{StringValue: &ts}},
		{UserEnteredValue: &sheets.ExtendedValue{StringValue: &w}},
	}}
}

func cellString(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	default:
		return fmt.Sprint(c)
	}
}

func classify(class, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden) {
		return fmt.Errorf("%w: %w", domain.ErrAuth, err)
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) || errors.Is(err, errNoToken) {
		return fmt.Errorf("%w: %w", domain.ErrAuth, err)
	}
	return fmt.Errorf("%w: %w", class, err)
}
