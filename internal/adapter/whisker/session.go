package whisker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"petweights/internal/domain"
)

const petsQuery = `query GetPetsByUser($userId: String!) {
  getPetsByUser(userId: $userId) {
    petId
    name
  }
}`

const weightHistoryQuery = `query GetWeightHistoryByPetId($petId: String!, $limit: Int) {
  getWeightHistoryByPetId(petId: $petId, limit: $limit) {
    weight
    timestamp
  }
}`

const robotsQuery = `query GetLR4($userId: String!) {
  getLitterRobot4ByUser(userId: $userId) {
    unitId
    name
    serial
    isOnline
    lastSeen
  }
}`

var errSessionClosed = errors.New("session closed")

type session struct {
	client *Client
	http   *http.Client
	userID string
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// ListPets returns the pet profiles of the account.
func (s *session) ListPets(ctx context.Context) ([]domain.Pet, error) {
	var data struct {
		Pets []struct {
			PetID string `json:"petId"`
			Name  string `json:"name"`
		} `json:"getPetsByUser"`
	}
	err := s.query(ctx, s.client.cfg.PetProfileEndpoint, petsQuery, map[string]any{"userId": s.userID}, &data)
	if err != nil {
		return nil, err
	}

	pets := make([]domain.Pet, 0, len(data.Pets))
	for _, p := range data.Pets {
		pets = append(pets, domain.Pet{ID: p.PetID, Name: p.Name})
	}
	s.client.log(slog.LevelDebug, "pets fetched", "count", len(pets))
	return pets, nil
}

// FetchReadings returns the weight history of a pet in the order the API
// reports it.
func (s *session) FetchReadings(ctx context.Context, petID string) ([]domain.Reading, error) {
	var data struct {
		History []struct {
			Weight    decimal.Decimal `json:"weight"`
			Timestamp string          `json:"timestamp"`
		} `json:"getWeightHistoryByPetId"`
	}
	vars := map[string]any{"petId": petID, "limit": s.client.cfg.HistoryLimit}
	if err := s.query(ctx, s.client.cfg.PetProfileEndpoint, weightHistoryQuery, vars, &data); err != nil {
		return nil, err
	}

	readings := make([]domain.Reading, 0, len(data.History))
	for _, h := range data.History {
		ts, err := domain.ParseTimestamp(h.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: weight history: %w", domain.ErrFetch, err)
		}
		readings = append(readings, domain.Reading{Timestamp: ts, Weight: h.Weight})
	}
	s.client.log(slog.LevelDebug, "weight history fetched", "pet_id", petID, "count", len(readings))
	return readings, nil
}

// ListRobots returns the Litter-Robot 4 units of the account.
func (s *session) ListRobots(ctx context.Context) ([]domain.Robot, error) {
	var data struct {
		Robots []struct {
			UnitID   string `json:"unitId"`
			Name     string `json:"name"`
			Serial   string `json:"serial"`
			IsOnline bool   `json:"isOnline"`
			LastSeen string `json:"lastSeen"`
		} `json:"getLitterRobot4ByUser"`
	}
	err := s.query(ctx, s.client.cfg.RobotEndpoint, robotsQuery, map[string]any{"userId": s.userID}, &data)
	if err != nil {
		return nil, err
	}

	robots := make([]domain.Robot, 0, len(data.Robots))
	for _, r := range data.Robots {
		robot := domain.Robot{
			ID:     r.UnitID,
			Serial: r.Serial,
			Name:   r.Name,
			Model:  "Litter-Robot 4",
			Online: r.IsOnline,
		}
		if r.LastSeen != "" {
			if ts, err := domain.ParseTimestamp(r.LastSeen); err == nil {
				robot.LastSeen = ts
			}
		}
		robots = append(robots, robot)
	}
	return robots, nil
}

// Close releases the session. It is safe to call more than once.
func (s *session) Close() error {
	if s.http == nil {
		return nil
	}
	s.http = nil
	s.client.httpClient.CloseIdleConnections()
	s.client.log(slog.LevelDebug, "disconnected from device account")
	return nil
}

func (s *session) query(ctx context.Context, endpoint, query string, vars map[string]any, out any) error {
	if s.http == nil {
		return fmt.Errorf("%w: %w", domain.ErrFetch, errSessionClosed)
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("User-Agent", userAgent)
	request.Header.Set("Content-Type", "application/json")

	start := time.Now()
	response, err := s.http.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	defer response.Body.Close()
	s.client.log(slog.LevelDebug, "graphql request", "endpoint", endpoint, "status", response.StatusCode, "duration", time.Since(start))

	switch {
	case response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrAuth, response.Status)
	case response.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: %s", domain.ErrFetch, response.Status)
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %w", domain.ErrFetch, err)
	}

	var gr graphQLResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return fmt.Errorf("%w: failed to unmarshal response: %w", domain.ErrFetch, err)
	}
	if len(gr.Errors) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrFetch, gr.Errors[0].Message)
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("%w: failed to unmarshal data: %w", domain.ErrFetch, err)
	}
	return nil
}
