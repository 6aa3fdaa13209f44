package query

import (
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/lipish/xtrace/internal/core/store"
)

// ModelBreakdown is one model's contribution to a day's rollup (spec.md
// §4.5 GET /api/public/metrics/daily).
type ModelBreakdown struct {
	Model             string  `json:"model"`
	InputUsage        int64   `json:"inputUsage"`
	OutputUsage       int64   `json:"outputUsage"`
	TotalUsage        int64   `json:"totalUsage"`
	CountTraces       int64   `json:"countTraces"`
	CountObservations int64   `json:"countObservations"`
	TotalCost         float64 `json:"totalCost"`
}

// DailyRow is one UTC day's rollup.
type DailyRow struct {
	Date              string            `json:"date"`
	CountTraces       int64             `json:"countTraces"`
	CountObservations int64             `json:"countObservations"`
	TotalCost         float64           `json:"totalCost"`
	Models            []ModelBreakdown `json:"models"`
}

// DailyMetrics assembles the per-day trace rollup and its per-model
// observation breakdown (spec.md §4.5). The default window (last 30 days)
// is the caller's responsibility to apply to filter.From/To before calling.
func DailyMetrics(db *gorm.DB, filter store.DailyRollupFilter) ([]DailyRow, error) {
	traceRows, err := store.TraceDayRollup(db, filter)
	if err != nil {
		return nil, err
	}
	obsRows, err := store.ObservationDayModelRollup(db, filter)
	if err != nil {
		return nil, err
	}

	byDay := map[string]*DailyRow{}
	order := []string{}
	for _, r := range traceRows {
		key := r.Day.UTC().Format("2006-01-02")
		byDay[key] = &DailyRow{
			Date:        key,
			CountTraces: r.CountTraces,
			TotalCost:   r.TotalCost,
			Models:      []ModelBreakdown{},
		}
		order = append(order, key)
	}

	for _, r := range obsRows {
		key := r.Day.UTC().Format("2006-01-02")
		row, ok := byDay[key]
		if !ok {
			row = &DailyRow{Date: key, Models: []ModelBreakdown{}}
			byDay[key] = row
			order = append(order, key)
		}
		row.CountObservations += r.CountObservations
		model := "unknown"
		if r.Model != nil && *r.Model != "" {
			model = *r.Model
		}
		row.Models = append(row.Models, ModelBreakdown{
			Model:             model,
			InputUsage:        r.InputUsage,
			OutputUsage:       r.OutputUsage,
			TotalUsage:        r.TotalUsage,
			CountTraces:       r.CountTraces,
			CountObservations: r.CountObservations,
			TotalCost:         r.TotalCost,
		})
	}

	sort.Strings(order)
	seen := map[string]struct{}{}
	rows := make([]DailyRow, 0, len(byDay))
	for _, k := range order {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, *byDay[k])
	}
	return rows, nil
}

// DefaultDailyWindow returns the [from,to] bounds for the default 30-day
// rollup window (spec.md §4.5).
func DefaultDailyWindow(now time.Time) (time.Time, time.Time) {
	to := now.UTC()
	from := to.AddDate(0, 0, -30)
	return from, to
}
