// Package domain contains the core entities of the pet weight sync and the
// ports its adapters implement.
package domain

import (
	"context"
	"time"
)

// AccountCredentials authenticate against the device account.
type AccountCredentials struct {
	Username string
	Password string
}

// Pet is a named pet profile on the device account.
type Pet struct {
	ID   string
	Name string
}

// Robot is a litter box registered on the device account.
type Robot struct {
	ID       string
	Serial   string
	Name     string
	Model    string
	Online   bool
	LastSeen time.Time
}

// DeviceSource opens sessions against the remote device account.
type DeviceSource interface {
	Connect(ctx context.Context, creds AccountCredentials) (DeviceSession, error)
}

// DeviceSession is an authenticated connection to the device account. Close
// must be called on every exit path once Connect has succeeded.
type DeviceSession interface {
	ListPets(ctx context.Context) ([]Pet, error)
	ListRobots(ctx context.Context) ([]Robot, error)
	FetchReadings(ctx context.Context, petID string) ([]Reading, error)
	Close() error
}

// FindPet returns the first pet whose name matches exactly.
func FindPet(pets []Pet, name string) (Pet, bool) {
	for _, p := range pets {
		if p.Name == name {
			return p, true
		}
	}
	return Pet{}, false
}
