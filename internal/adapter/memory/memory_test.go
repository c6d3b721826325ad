package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"petweights/internal/domain"
)

func TestSheetReadWrite(t *testing.T) {
	s := NewSheet()
	ctx := context.Background()
	s.AddTab("Olive", domain.Row{Timestamp: "2024-01-01T00:00:00Z", Weight: "8.1"})

	rows, err := s.ReadRange(ctx, domain.Range{Sheet: "Olive", StartRow: 2})
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if len(rows) != 1 || rows[0].Weight != "8.1" {
		t.Fatalf("unexpected rows: %v", rows)
	}

	n, err := s.WriteRange(ctx, domain.Range{Sheet: "Olive", StartRow: 3, EndRow: 4}, []domain.Row{
		{Timestamp: "2024-01-02T00:00:00Z", Weight: "8.3"},
		{Timestamp: "2024-01-03T00:00:00Z", Weight: "8.4"},
	})
	if err != nil {
		t.Fatalf("WriteRange: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows written, got %d", n)
	}

	all := s.Rows("Olive")
	if len(all) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(all))
	}
	if all[0].Timestamp != "Date" {
		t.Errorf("expected header row, got %v", all[0])
	}
	if all[3].Weight != "8.4" {
		t.Errorf("expected 8.4 at row 4, got %v", all[3])
	}
	if s.Writes() != 1 {
		t.Errorf("expected 1 write, got %d", s.Writes())
	}
}

func TestSheetEmptyTab(t *testing.T) {
	s := NewSheet()
	s.AddTab("Olive")
	rows, err := s.ReadRange(context.Background(), domain.Range{Sheet: "Olive", StartRow: 2})
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %v", rows)
	}
}

func TestSheetMissingTab(t *testing.T) {
	s := NewSheet()
	ctx := context.Background()
	if _, err := s.ReadRange(ctx, domain.Range{Sheet: "Nope", StartRow: 2}); !errors.Is(err, domain.ErrReadLog) {
		t.Errorf("expected ErrReadLog, got %v", err)
	}
	if _, err := s.WriteRange(ctx, domain.Range{Sheet: "Nope", StartRow: 2}, nil); !errors.Is(err, domain.ErrWrite) {
		t.Errorf("expected ErrWrite, got %v", err)
	}
}

func TestSheetRangeTooSmall(t *testing.T) {
	s := NewSheet()
	s.AddTab("Olive")
	_, err := s.WriteRange(context.Background(), domain.Range{Sheet: "Olive", StartRow: 2, EndRow: 2}, []domain.Row{{}, {}})
	if !errors.Is(err, domain.ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
}

func TestLedger(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, pet := range []string{"Olive", "Milo", "Olive"} {
		run := domain.SyncRun{Pet: pet, Status: domain.StatusUpToDate, StartedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := l.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	runs, err := l.ListRecentRuns(ctx, "Olive", 10)
	if err != nil {
		t.Fatalf("ListRecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if !runs[0].StartedAt.After(runs[1].StartedAt) {
		t.Error("expected newest first")
	}

	all, _ := l.ListRecentRuns(ctx, "", 1)
	if len(all) != 1 || all[0].StartedAt != base.Add(2*time.Hour) {
		t.Errorf("unexpected limited listing: %v", all)
	}
}

func TestAccount(t *testing.T) {
	a := NewAccount("user", "pass")
	ctx := context.Background()
	a.AddPet(domain.Pet{ID: "p1", Name: "Olive"})

	if _, err := a.Connect(ctx, domain.AccountCredentials{Username: "user", Password: "wrong"}); !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}

	sess, err := a.Connect(ctx, domain.AccountCredentials{Username: "user", Password: "pass"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if a.OpenSessions() != 1 {
		t.Errorf("expected 1 open session, got %d", a.OpenSessions())
	}

	pets, _ := sess.ListPets(ctx)
	if len(pets) != 1 || pets[0].Name != "Olive" {
		t.Errorf("unexpected pets: %v", pets)
	}

	_ = sess.Close()
	_ = sess.Close()
	if a.OpenSessions() != 0 {
		t.Errorf("expected 0 open sessions, got %d", a.OpenSessions())
	}
}
