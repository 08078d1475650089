// Package intake folds meal tracking events into nutrition totals.
package intake

import (
	"errors"
	"time"

	"fitwell/backend/internal/domain"
)

// ErrInsufficientData is returned when an average is requested over a
// summary with no tracked days.
var ErrInsufficientData = errors.New("intake: no tracked days")

// Record is one tracking event joined with the macros of the item it refers
// to and the date of the meal holding that item.
type Record struct {
	ItemID        string
	Date          time.Time
	Status        domain.TrackingStatus
	QuantityRatio float64
	Timestamp     time.Time
	Macros        domain.Macros
}

// Window is a half-open date interval [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(d time.Time) bool {
	d = domain.DateOnly(d)
	return !d.Before(w.From) && d.Before(w.To)
}

// Trailing returns the window covering the n days before today, or the n days
// ending with today when includeToday is set.
func Trailing(today time.Time, n int, includeToday bool) Window {
	end := domain.DateOnly(today)
	if includeToday {
		end = domain.AddDays(end, 1)
	}
	return Window{From: domain.AddDays(end, -n), To: end}
}

// Day returns the single-day window for d.
func Day(d time.Time) Window {
	return Window{From: domain.DateOnly(d), To: domain.AddDays(d, 1)}
}

// Summary is the aggregated intake over a window.
type Summary struct {
	Totals      domain.Macros
	DaysTracked int
	Eaten       int
	Skipped     int
}

// DailyAverage divides the totals by the number of tracked days.
func (s Summary) DailyAverage() (domain.Macros, error) {
	if s.DaysTracked == 0 {
		return domain.Macros{}, ErrInsufficientData
	}
	n := float64(s.DaysTracked)
	return domain.Macros{
		Calories: s.Totals.Calories / n,
		Protein:  s.Totals.Protein / n,
		Carbs:    s.Totals.Carbs / n,
		Fat:      s.Totals.Fat / n,
	}, nil
}

// Aggregate sums consumed macros over w. Only the latest record per item
// counts; it contributes macros scaled by its quantity ratio when eaten and
// nothing otherwise. DaysTracked counts the distinct dates with at least one
// eaten item.
func Aggregate(records []Record, w Window) Summary {
	latest := make(map[string]Record, len(records))
	for _, r := range records {
		if !w.Contains(r.Date) {
			continue
		}
		prev, ok := latest[r.ItemID]
		if !ok || !r.Timestamp.Before(prev.Timestamp) {
			latest[r.ItemID] = r
		}
	}

	var s Summary
	days := make(map[time.Time]struct{})
	for _, r := range latest {
		switch r.Status {
		case domain.StatusEaten:
			s.Eaten++
			s.Totals = s.Totals.Add(r.Macros.Scale(clampRatio(r.QuantityRatio)))
			days[domain.DateOnly(r.Date)] = struct{}{}
		case domain.StatusSkipped:
			s.Skipped++
		}
	}
	s.DaysTracked = len(days)
	return s
}

func clampRatio(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}
