package domain

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Epoch is the watermark of an empty weight log.
var Epoch = time.Unix(0, 0).UTC()

// FirstDataRow is the first sheet row holding a reading; row 1 is the header.
const FirstDataRow = 2

// Reading is a single timestamped weight measurement reported by a device.
type Reading struct {
	Timestamp time.Time       `json:"timestamp"`
	Weight    decimal.Decimal `json:"weight"`
}

// Row is the on-sheet form of a Reading: column A holds the timestamp and
// column B the weight, both as strings.
type Row struct {
	Timestamp string
	Weight    string
}

// Row formats r for storage. ParseRow(r.Row()) yields a Reading equal to r.
func (r Reading) Row() Row {
	return Row{
		Timestamp: r.Timestamp.Format(time.RFC3339Nano),
		Weight:    r.Weight.String(),
	}
}

// Equal reports whether r and o denote the same instant and weight.
func (r Reading) Equal(o Reading) bool {
	return r.Timestamp.Equal(o.Timestamp) && r.Weight.Equal(o.Weight)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses the timestamp column of a sheet row. Values without a
// zone offset are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformedRow, s)
}

// ParseRow converts a sheet row back into a Reading.
func ParseRow(row Row) (Reading, error) {
	ts, err := ParseTimestamp(row.Timestamp)
	if err != nil {
		return Reading{}, err
	}
	w, err := decimal.NewFromString(strings.TrimSpace(row.Weight))
	if err != nil {
		return Reading{}, fmt.Errorf("%w: bad weight %q", ErrMalformedRow, row.Weight)
	}
	return Reading{Timestamp: ts, Weight: w}, nil
}

// SortReadings orders readings ascending by timestamp. Readings that share a
// timestamp keep their relative order.
func SortReadings(readings []Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})
}

// Range addresses a block of rows in the two-column (A:B) layout of a sheet.
// An EndRow of zero leaves the range open-ended.
type Range struct {
	Sheet    string
	StartRow int
	EndRow   int
}

// A1 renders the range in A1 notation, e.g. "'Olive'!A2:B" or "'Olive'!A4:B5".
// The sheet name is always quoted so names like "Kit-Kat" or "AB12" are not
// read as ranges.
func (r Range) A1() string {
	sheet := "'" + strings.ReplaceAll(r.Sheet, "'", "''") + "'"
	if r.EndRow <= 0 {
		return fmt.Sprintf("%s!A%d:B", sheet, r.StartRow)
	}
	return fmt.Sprintf("%s!A%d:B%d", sheet, r.StartRow, r.EndRow)
}

// WeightLog is the port for the persisted, append-only weight log.
type WeightLog interface {
	// ReadRange returns the rows of rng in on-sheet order.
	ReadRange(ctx context.Context, rng Range) ([]Row, error)
	// WriteRange writes rows into rng in a single call and returns how many
	// rows were written.
	WriteRange(ctx context.Context, rng Range, rows []Row) (int, error)
}
