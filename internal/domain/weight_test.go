package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"petweights/internal/domain"
)

func reading(ts, w string) domain.Reading {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		panic(err)
	}
	return domain.Reading{Timestamp: t, Weight: decimal.RequireFromString(w)}
}

func TestReadingRowRoundTrip(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	tests := []struct {
		name string
		r    domain.Reading
	}{
		{"utc", reading("2024-01-01T00:00:00Z", "8.1")},
		{"nanos", reading("2024-01-02T03:04:05.123456789Z", "8.30")},
		{"offset", domain.Reading{Timestamp: time.Date(2024, 3, 10, 7, 30, 0, 0, est), Weight: decimal.RequireFromString("12.75")}},
		{"negative weight", reading("2024-01-03T00:00:00Z", "-0.4")},
		{"many digits", reading("2024-01-04T00:00:00Z", "8.123456789012345")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := domain.ParseRow(tc.r.Row())
			if err != nil {
				t.Fatalf("ParseRow: %v", err)
			}
			if !got.Equal(tc.r) {
				t.Fatalf("round trip: got %v, want %v", got, tc.r)
			}
		})
	}
}

func TestReadingRowFormat(t *testing.T) {
	row := reading("2024-01-01T00:00:00Z", "8.1").Row()
	if row.Timestamp != "2024-01-01T00:00:00Z" {
		t.Errorf("timestamp = %q", row.Timestamp)
	}
	if row.Weight != "8.1" {
		t.Errorf("weight = %q", row.Weight)
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"2024-01-02T00:00:00Z",
		"2024-01-02T00:00:00+00:00",
		"2024-01-02 00:00:00+00:00",
		"2024-01-02T00:00:00",
		" 2024-01-02 00:00:00 ",
	} {
		got, err := domain.ParseTimestamp(s)
		if err != nil {
			t.Errorf("ParseTimestamp(%q): %v", s, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseTimestamp(%q) = %v; want %v", s, got, want)
		}
	}
}

func TestParseRowMalformed(t *testing.T) {
	tests := []struct {
		name string
		row  domain.Row
	}{
		{"bad timestamp", domain.Row{Timestamp: "yesterday", Weight: "8.1"}},
		{"bad weight", domain.Row{Timestamp: "2024-01-01T00:00:00Z", Weight: "heavy"}},
		{"empty", domain.Row{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.ParseRow(tc.row)
			if !errors.Is(err, domain.ErrMalformedRow) {
				t.Fatalf("expected ErrMalformedRow, got %v", err)
			}
		})
	}
}

func TestSortReadingsStable(t *testing.T) {
	rs := []domain.Reading{
		reading("2024-01-03T00:00:00Z", "8.4"),
		reading("2024-01-01T00:00:00Z", "8.1"),
		reading("2024-01-02T00:00:00Z", "8.2"),
		reading("2024-01-01T00:00:00Z", "8.0"),
	}
	domain.SortReadings(rs)
	want := []string{"8.1", "8", "8.2", "8.4"}
	for i, w := range want {
		if rs[i].Weight.String() != w {
			t.Fatalf("position %d: got %s, want %s (%v)", i, rs[i].Weight, w, rs)
		}
	}
}

func TestRangeA1(t *testing.T) {
	tests := []struct {
		rng  domain.Range
		want string
	}{
		{domain.Range{Sheet: "Olive", StartRow: 2}, "'Olive'!A2:B"},
		{domain.Range{Sheet: "Olive", StartRow: 4, EndRow: 5}, "'Olive'!A4:B5"},
		{domain.Range{Sheet: "Mr Whiskers", StartRow: 2}, "'Mr Whiskers'!A2:B"},
		{domain.Range{Sheet: "Olive's", StartRow: 3, EndRow: 3}, "'Olive''s'!A3:B3"},
		{domain.Range{Sheet: "Kit-Kat", StartRow: 2}, "'Kit-Kat'!A2:B"},
		{domain.Range{Sheet: "Mr.Whiskers", StartRow: 2}, "'Mr.Whiskers'!A2:B"},
		{domain.Range{Sheet: "AB12", StartRow: 2}, "'AB12'!A2:B"},
		{domain.Range{Sheet: "R1C1", StartRow: 2, EndRow: 9}, "'R1C1'!A2:B9"},
	}
	for _, tc := range tests {
		if got := tc.rng.A1(); got != tc.want {
			t.Errorf("A1() = %q; want %q", got, tc.want)
		}
	}
}

func TestEpoch(t *testing.T) {
	if !domain.Epoch.Equal(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected epoch %v", domain.Epoch)
	}
}
