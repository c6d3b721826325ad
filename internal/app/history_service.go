package app

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"petweights/internal/domain"
)

// DayPoint is the last weight recorded on a local calendar day.
type DayPoint struct {
	Day    string          `json:"day"`
	Weight decimal.Decimal `json:"weight"`
	Unit   domain.Unit     `json:"unit"`
	Count  int             `json:"count"`
}

// Daily collapses ascending readings into one point per local day, keeping the
// latest weight of each day, converted from pounds to unit.
func Daily(readings []domain.Reading, unit domain.Unit, loc *time.Location) ([]DayPoint, error) {
	if !unit.Valid() {
		return nil, errors.New("unit must be \"kg\" or \"lb\"")
	}
	if loc == nil {
		loc = time.Local
	}

	points := make([]DayPoint, 0)
	for _, r := range readings {
		day := r.Timestamp.In(loc).Format("2006-01-02")
		w := domain.ConvertWeight(r.Weight, domain.Pounds, unit).Round(2)
		if n := len(points); n > 0 && points[n-1].Day == day {
			points[n-1].Weight = w
			points[n-1].Count++
			continue
		}
		points = append(points, DayPoint{Day: day, Weight: w, Unit: unit, Count: 1})
	}
	return points, nil
}
