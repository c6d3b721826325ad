// Package memory implements in-memory adapters for development and testing.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"petweights/internal/domain"
)

// Ensure interfaces are met.
var _ domain.WeightLog = (*Sheet)(nil)
var _ domain.RunRepository = (*Ledger)(nil)
var _ domain.DeviceSource = (*Account)(nil)

// --- WeightLog ---

// Sheet is an in-memory spreadsheet. Each tab holds rows starting at row 1,
// including the header row.
type Sheet struct {
	mu     sync.Mutex
	tabs   map[string][]domain.Row
	writes int

	// WriteErr, when set, is returned by WriteRange instead of writing.
	WriteErr error
	// ReadErr, when set, is returned by ReadRange.
	ReadErr error
}

// NewSheet creates an empty in-memory spreadsheet.
func NewSheet() *Sheet {
	return &Sheet{tabs: make(map[string][]domain.Row)}
}

// AddTab creates a tab with a header row followed by rows.
func (s *Sheet) AddTab(name string, rows ...domain.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[name] = append([]domain.Row{{Timestamp: "Date", Weight: "Weight"}}, rows...)
}

// Rows returns a copy of all rows of a tab, header included.
func (s *Sheet) Rows(name string) []domain.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Row, len(s.tabs[name]))
	copy(out, s.tabs[name])
	return out
}

// Writes returns how many WriteRange calls succeeded.
func (s *Sheet) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// ReadRange returns the rows of rng, trimming trailing empty rows like the
// Sheets API does.
func (s *Sheet) ReadRange(ctx context.Context, rng domain.Range) ([]domain.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	tab, ok := s.tabs[rng.Sheet]
	if !ok {
		return nil, fmt.Errorf("%w: no sheet named %q", domain.ErrReadLog, rng.Sheet)
	}

	start := rng.StartRow - 1
	end := len(tab)
	if rng.EndRow > 0 && rng.EndRow < end {
		end = rng.EndRow
	}
	if start >= end {
		return nil, nil
	}
	for end > start && tab[end-1] == (domain.Row{}) {
		end--
	}
	out := make([]domain.Row, end-start)
	copy(out, tab[start:end])
	return out, nil
}

// WriteRange overwrites rows starting at rng.StartRow, growing the tab as
// needed.
func (s *Sheet) WriteRange(ctx context.Context, rng domain.Range, rows []domain.Row) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.WriteErr != nil {
		return 0, s.WriteErr
	}
	tab, ok := s.tabs[rng.Sheet]
	if !ok {
		return 0, fmt.Errorf("%w: no sheet named %q", domain.ErrWrite, rng.Sheet)
	}
	if rng.EndRow > 0 && rng.EndRow-rng.StartRow+1 < len(rows) {
		return 0, fmt.Errorf("%w: %d rows do not fit %s", domain.ErrWrite, len(rows), rng.A1())
	}

	need := rng.StartRow - 1 + len(rows)
	for len(tab) < need {
		tab = append(tab, domain.Row{})
	}
	copy(tab[rng.StartRow-1:], rows)
	s.tabs[rng.Sheet] = tab
	s.writes++
	return len(rows), nil
}

// --- RunRepository ---

// Ledger keeps sync runs in memory.
type Ledger struct {
	mu   sync.Mutex
	runs []domain.SyncRun
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// RecordRun stores a finished run.
func (l *Ledger) RecordRun(ctx context.Context, run domain.SyncRun) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = append(l.runs, run)
	return nil
}

// ListRecentRuns returns the most recent runs for pet, newest first. An empty
// pet matches every run.
func (l *Ledger) ListRecentRuns(ctx context.Context, pet string, limit int) ([]domain.SyncRun, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]domain.SyncRun, 0, len(l.runs))
	for _, r := range l.runs {
		if pet == "" || r.Pet == pet {
			result = append(result, r)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// --- DeviceSource ---

// Account is an in-memory device account.
type Account struct {
	mu       sync.Mutex
	username string
	password string
	pets     []domain.Pet
	robots   []domain.Robot
	readings map[string][]domain.Reading
	open     int
	connects int

	// FetchErr, when set, is returned by FetchReadings.
	FetchErr error
}

// NewAccount creates an account that accepts the given credentials.
func NewAccount(username, password string) *Account {
	return &Account{
		username: username,
		password: password,
		readings: make(map[string][]domain.Reading),
	}
}

// AddPet registers a pet with its weight history.
func (a *Account) AddPet(p domain.Pet, readings ...domain.Reading) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pets = append(a.pets, p)
	a.readings[p.ID] = append(a.readings[p.ID], readings...)
}

// AddReadings appends readings to a pet's history.
func (a *Account) AddReadings(petID string, readings ...domain.Reading) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.readings[petID] = append(a.readings[petID], readings...)
}

// AddRobot registers a robot.
func (a *Account) AddRobot(r domain.Robot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.robots = append(a.robots, r)
}

// OpenSessions returns how many sessions are connected and not yet closed.
func (a *Account) OpenSessions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.open
}

// Connects returns how many sessions were opened in total.
func (a *Account) Connects() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connects
}

// Connect checks the credentials and opens a session.
func (a *Account) Connect(ctx context.Context, creds domain.AccountCredentials) (domain.DeviceSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if creds.Username != a.username || creds.Password != a.password {
		return nil, fmt.Errorf("%w: invalid username or password", domain.ErrAuth)
	}
	a.open++
	a.connects++
	return &session{account: a}, nil
}

type session struct {
	account *Account
	closed  bool
}

func (s *session) ListPets(ctx context.Context) ([]domain.Pet, error) {
	a := s.account
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.Pet, len(a.pets))
	copy(out, a.pets)
	return out, nil
}

func (s *session) ListRobots(ctx context.Context) ([]domain.Robot, error) {
	a := s.account
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.Robot, len(a.robots))
	copy(out, a.robots)
	return out, nil
}

func (s *session) FetchReadings(ctx context.Context, petID string) ([]domain.Reading, error) {
	a := s.account
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.FetchErr != nil {
		return nil, a.FetchErr
	}
	out := make([]domain.Reading, len(a.readings[petID]))
	copy(out, a.readings[petID])
	return out, nil
}

func (s *session) Close() error {
	a := s.account
	a.mu.Lock()
	defer a.mu.Unlock()
	if !s.closed {
		s.closed = true
		a.open--
	}
	return nil
}
