package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"petweights/internal/domain"
)

func newTestService(t *testing.T, h http.HandlerFunc) *sheets.Service {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	svc, err := NewService(context.Background(), nil,
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func googleError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": msg},
	})
}

func TestReadRange(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if got := r.URL.Path; got != "/v4/spreadsheets/sid/values/'Olive'!A2:B" {
			t.Errorf("unexpected path %q", got)
		}
		_, _ = w.Write([]byte(`{"range":"'Olive'!A2:B4","majorDimension":"ROWS","values":[
			["2024-01-01T00:00:00Z","8.1"],
			["2024-01-02T00:00:00Z",8.25],
			["2024-01-03T00:00:00Z"]]}`))
	})

	rows, err := NewLog(svc, "sid").ReadRange(context.Background(), domain.Range{Sheet: "Olive", StartRow: 2})
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	want := []domain.Row{
		{Timestamp: "2024-01-01T00:00:00Z", Weight: "8.1"},
		{Timestamp: "2024-01-02T00:00:00Z", Weight: "8.25"},
		{Timestamp: "2024-01-03T00:00:00Z"},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d: got %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestReadRangeEmptyTab(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"range":"'Olive'!A2:B1000","majorDimension":"ROWS"}`))
	})

	rows, err := NewLog(svc, "sid").ReadRange(context.Background(), domain.Range{Sheet: "Olive", StartRow: 2})
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %v", rows)
	}
}

func TestReadRangeQuotesTabName(t *testing.T) {
	for _, pet := range []string{"Kit-Kat", "Mr.Whiskers", "AB12"} {
		t.Run(pet, func(t *testing.T) {
			svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				if want := "/v4/spreadsheets/sid/values/'" + pet + "'!A2:B"; r.URL.Path != want {
					t.Errorf("path = %q, want %q", r.URL.Path, want)
				}
				_, _ = w.Write([]byte(`{"majorDimension":"ROWS"}`))
			})
			if _, err := NewLog(svc, "sid").ReadRange(context.Background(), domain.Range{Sheet: pet, StartRow: 2}); err != nil {
				t.Fatalf("ReadRange: %v", err)
			}
		})
	}
}

func TestReadRangeErrors(t *testing.T) {
	tests := []struct {
		name  string
		code  int
		class error
	}{
		{"forbidden", http.StatusForbidden, domain.ErrAuth},
		{"unauthorized", http.StatusUnauthorized, domain.ErrAuth},
		{"missing tab", http.StatusBadRequest, domain.ErrReadLog},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				googleError(w, tc.code, "nope")
			})
			_, err := NewLog(svc, "sid").ReadRange(context.Background(), domain.Range{Sheet: "Olive", StartRow: 2})
			if !errors.Is(err, tc.class) {
				t.Fatalf("expected %v, got %v", tc.class, err)
			}
		})
	}
}

func TestWriteRange(t *testing.T) {
	var calls int
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if got := r.URL.Path; got != "/v4/spreadsheets/sid/values/'Olive'!A3:B4" {
			t.Errorf("unexpected path %q", got)
		}
		if got := r.URL.Query().Get("valueInputOption"); got != "RAW" {
			t.Errorf("expected RAW input, got %q", got)
		}
		var vr sheets.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			t.Errorf("decode body: %v", err)
			return
		}
		if len(vr.Values) != 2 || vr.Values[1][0] != "2024-01-03T00:00:00Z" || vr.Values[1][1] != "8.4" {
			t.Errorf("unexpected values %v", vr.Values)
		}
		_, _ = w.Write([]byte(`{"updatedRange":"'Olive'!A3:B4","updatedRows":2,"updatedColumns":2,"updatedCells":4}`))
	})

	rows := []domain.Row{
		{Timestamp: "2024-01-02T00:00:00Z", Weight: "8.2"},
		{Timestamp: "2024-01-03T00:00:00Z", Weight: "8.4"},
	}
	n, err := NewLog(svc, "sid").WriteRange(context.Background(), domain.Range{Sheet: "Olive", StartRow: 3, EndRow: 4}, rows)
	if err != nil {
		t.Fatalf("WriteRange: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 updated rows, got %d", n)
	}
	if calls != 1 {
		t.Errorf("expected a single update call, got %d", calls)
	}
}

func TestWriteRangeFailure(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		googleError(w, http.StatusBadRequest, "Unable to parse range")
	})

	_, err := NewLog(svc, "sid").WriteRange(context.Background(), domain.Range{Sheet: "Olive", StartRow: 2, EndRow: 2},
		[]domain.Row{{Timestamp: "2024-01-01T00:00:00Z", Weight: "8"}})
	if !errors.Is(err, domain.ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
	if errors.Is(err, domain.ErrAuth) {
		t.Fatal("a bad request is not an auth failure")
	}
}

func TestCreate(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v4/spreadsheets" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var ss sheets.Spreadsheet
		if err := json.NewDecoder(r.Body).Decode(&ss); err != nil {
			t.Errorf("decode body: %v", err)
			return
		}
		if ss.Properties.Title != "Pet Weights" || len(ss.Sheets) != 2 {
			t.Errorf("unexpected spreadsheet %+v", ss)
			return
		}
		if ss.Sheets[1].Properties.Title != "Milo" {
			t.Errorf("expected second tab Milo, got %q", ss.Sheets[1].Properties.Title)
		}
		header := ss.Sheets[0].Data[0].RowData[0].Values
		if *header[0].UserEnteredValue.StringValue != "Date" || *header[1].UserEnteredValue.StringValue != "Weight" {
			t.Errorf("unexpected header")
		}
		_, _ = w.Write([]byte(`{"spreadsheetId":"new-id"}`))
	})

	id, err := Create(context.Background(), svc, "Pet Weights", []string{"Olive", "Milo"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != "new-id" {
		t.Errorf("expected new-id, got %q", id)
	}
}

func TestEnsureTab(t *testing.T) {
	var added, header bool
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v4/spreadsheets/sid":
			_, _ = w.Write([]byte(`{"sheets":[{"properties":{"title":"Olive"}}]}`))
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":batchUpdate"):
			added = true
			_, _ = w.Write([]byte(`{"spreadsheetId":"sid"}`))
		case r.Method == http.MethodPut && r.URL.Path == "/v4/spreadsheets/sid/values/'Milo'!A1:B1":
			header = true
			_, _ = w.Write([]byte(`{"updatedRows":1}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			googleError(w, http.StatusNotFound, "not found")
		}
	})
	log := NewLog(svc, "sid")
	ctx := context.Background()

	ok, err := log.EnsureTab(ctx, "Olive")
	if err != nil || ok {
		t.Fatalf("existing tab: got %v, %v", ok, err)
	}
	if added {
		t.Fatal("existing tab must not be re-added")
	}

	ok, err = log.EnsureTab(ctx, "Milo")
	if err != nil || !ok {
		t.Fatalf("new tab: got %v, %v", ok, err)
	}
	if !added || !header {
		t.Errorf("expected tab and header to be written (added=%v header=%v)", added, header)
	}
}

func TestCellString(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"8.1", "8.1"},
		{8.25, "8.25"},
		{float64(9), "9"},
		{true, "true"},
	}
	for _, tc := range tests {
		if got := cellString(tc.in); got != tc.want {
			t.Errorf("cellString(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
