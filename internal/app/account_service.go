package app

import (
	"context"
	"fmt"

	"petweights/internal/domain"
)

// AccountService exposes read-only views of the device account. Each call
// opens its own session and closes it before returning.
type AccountService struct {
	source domain.DeviceSource
	creds  domain.AccountCredentials
}

// NewAccountService creates an AccountService for the given account.
func NewAccountService(source domain.DeviceSource, creds domain.AccountCredentials) *AccountService {
	return &AccountService{source: source, creds: creds}
}

// Pets lists the pets on the account.
func (s *AccountService) Pets(ctx context.Context) ([]domain.Pet, error) {
	var pets []domain.Pet
	err := s.withSession(ctx, func(sess domain.DeviceSession) error {
		var err error
		pets, err = sess.ListPets(ctx)
		return err
	})
	return pets, err
}

// Robots lists the robots registered on the account.
func (s *AccountService) Robots(ctx context.Context) ([]domain.Robot, error) {
	var robots []domain.Robot
	err := s.withSession(ctx, func(sess domain.DeviceSession) error {
		var err error
		robots, err = sess.ListRobots(ctx)
		return err
	})
	return robots, err
}

// WeightHistory returns the named pet's readings sorted ascending.
func (s *AccountService) WeightHistory(ctx context.Context, name string) ([]domain.Reading, error) {
	var readings []domain.Reading
	err := s.withSession(ctx, func(sess domain.DeviceSession) error {
		pets, err := sess.ListPets(ctx)
		if err != nil {
			return err
		}
		p, ok := domain.FindPet(pets, name)
		if !ok {
			return fmt.Errorf("%w: %q", domain.ErrEntityNotFound, name)
		}
		readings, err = sess.FetchReadings(ctx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	domain.SortReadings(readings)
	return readings, nil
}

func (s *AccountService) withSession(ctx context.Context, fn func(domain.DeviceSession) error) error {
	sess, err := s.source.Connect(ctx, s.creds)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()
	return fn(sess)
}
