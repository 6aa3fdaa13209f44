// Package query implements C4/C5: the metrics query planner and the
// trace/rollup read queries served over /api/public/*.
package query

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/lipish/xtrace/internal/core/domain"
	"github.com/lipish/xtrace/internal/core/store"
)

// Step is an allowed bucketing granularity (spec.md §4.4).
type Step time.Duration

const (
	Step1m Step = Step(60 * time.Second)
	Step5m Step = Step(300 * time.Second)
	Step1h Step = Step(3600 * time.Second)
	Step1d Step = Step(86400 * time.Second)
)

// ParseStep maps the step query param to a Step, erroring on anything
// else (spec.md §4.4: invalid step is 400 BAD_REQUEST).
func ParseStep(s string) (Step, error) {
	switch s {
	case "", "1m":
		return Step1m, nil
	case "5m":
		return Step5m, nil
	case "1h":
		return Step1h, nil
	case "1d":
		return Step1d, nil
	default:
		return 0, fmt.Errorf("step must be one of 1m, 5m, 1h, 1d")
	}
}

// Agg is an allowed aggregation function (spec.md §4.4).
type Agg string

const (
	AggAvg Agg = "avg"
	AggMax Agg = "max"
	AggMin Agg = "min"
	AggSum Agg = "sum"
	AggLast Agg = "last"
	AggP50 Agg = "p50"
	AggP90 Agg = "p90"
	AggP99 Agg = "p99"
)

// ParseAgg maps the agg query param to an Agg, defaulting to avg.
func ParseAgg(s string) (Agg, error) {
	switch Agg(s) {
	case "":
		return AggAvg, nil
	case AggAvg, AggMax, AggMin, AggSum, AggLast, AggP50, AggP90, AggP99:
		return Agg(s), nil
	default:
		return "", fmt.Errorf("agg must be one of avg, max, min, sum, last, p50, p90, p99")
	}
}

const (
	maxSeries        = 50
	maxPointsPerSeries = 1000
)

// Point is one bucketed, aggregated value in a series.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Series is one distinct label-set's (or one group_by key value's) bucketed
// points (spec.md §4.4).
type Series struct {
	Labels map[string]interface{} `json:"labels"`
	Points []Point                `json:"points"`
}

// MetricQueryResult is the assembled response for GET
// /api/public/metrics/query.
type MetricQueryResult struct {
	Series      []Series
	SeriesCount int
	Truncated   bool
	LatestTS    *time.Time
}

// MetricQueryParams is the parsed, validated input to QueryMetrics.
type MetricQueryParams struct {
	ProjectID string
	Name      string
	From      time.Time
	To        time.Time
	Labels    map[string]interface{}
	Step      Step
	Agg       Agg
	GroupBy   string
}

// QueryMetrics buckets and aggregates the matching points per spec.md
// §4.4: bucket = floor(epoch/step)*step over the closed interval
// [from,to]; grouping is by full matched label set unless GroupBy is set,
// in which case series are keyed solely by that label's value (rows
// missing it form an "absent" series); results are capped at 50 series and
// 1000 points/series with silent truncation recorded in the result.
func QueryMetrics(db *gorm.DB, p MetricQueryParams) (*MetricQueryResult, error) {
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must not be after to")
	}

	points, err := store.RawMetricPoints(db, store.MetricPointFilter{
		ProjectID: p.ProjectID,
		Name:      p.Name,
		From:      p.From,
		To:        p.To,
		Labels:    p.Labels,
	})
	if err != nil {
		return nil, err
	}

	type bucketKey struct {
		seriesKey string
		bucketTS  int64
	}

	seriesLabels := map[string]map[string]interface{}{}
	buckets := map[bucketKey][]domain.MetricPoint{}
	stepSeconds := int64(p.Step) / int64(time.Second)

	var latest *time.Time
	for _, pt := range points {
		labels := map[string]interface{}{}
		if len(pt.Labels) > 0 {
			_ = json.Unmarshal(pt.Labels, &labels)
		}

		sKey, sLabels := seriesKeyFor(labels, p.GroupBy)
		if _, ok := seriesLabels[sKey]; !ok {
			seriesLabels[sKey] = sLabels
		}

		epoch := pt.Timestamp.Unix()
		bucketEpoch := (epoch / stepSeconds) * stepSeconds
		key := bucketKey{seriesKey: sKey, bucketTS: bucketEpoch}
		buckets[key] = append(buckets[key], pt)

		if latest == nil || pt.Timestamp.After(*latest) {
			ts := pt.Timestamp
			latest = &ts
		}
	}

	perSeries := map[string][]Point{}
	for key, rows := range buckets {
		val := aggregate(rows, p.Agg)
		ts := time.Unix(key.bucketTS, 0).UTC()
		perSeries[key.seriesKey] = append(perSeries[key.seriesKey], Point{Timestamp: ts, Value: val})
	}

	seriesKeys := make([]string, 0, len(perSeries))
	for k := range perSeries {
		seriesKeys = append(seriesKeys, k)
	}
	sort.Strings(seriesKeys)

	truncated := false
	var result []Series
	for i, k := range seriesKeys {
		if i >= maxSeries {
			truncated = true
			break
		}
		pts := perSeries[k]
		sort.Slice(pts, func(a, b int) bool { return pts[a].Timestamp.Before(pts[b].Timestamp) })
		if len(pts) > maxPointsPerSeries {
			pts = pts[:maxPointsPerSeries]
			truncated = true
		}
		if len(pts) == 0 {
			continue
		}
		result = append(result, Series{Labels: seriesLabels[k], Points: pts})
	}

	return &MetricQueryResult{
		Series:      result,
		SeriesCount: len(result),
		Truncated:   truncated,
		LatestTS:    latest,
	}, nil
}

// seriesKeyFor computes the grouping key for a row's label set: with no
// group_by, the key is the full sorted label set; with group_by=K, the key
// is solely K's value (or an "absent" sentinel if the row lacks K).
func seriesKeyFor(labels map[string]interface{}, groupBy string) (string, map[string]interface{}) {
	if groupBy == "" {
		keys := make([]string, 0, len(labels))
		for k := range labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		raw, _ := json.Marshal(orderedLabels(labels, keys))
		return string(raw), labels
	}

	v, ok := labels[groupBy]
	if !ok {
		return "\x00absent", map[string]interface{}{}
	}
	raw, _ := json.Marshal(v)
	return string(raw), map[string]interface{}{groupBy: v}
}

func orderedLabels(labels map[string]interface{}, keys []string) map[string]interface{} {
	out := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		out[k] = labels[k]
	}
	return out
}

func aggregate(rows []domain.MetricPoint, agg Agg) float64 {
	switch agg {
	case AggSum:
		var sum float64
		for _, r := range rows {
			sum += r.Value
		}
		return sum
	case AggMax:
		max := rows[0].Value
		for _, r := range rows[1:] {
			if r.Value > max {
				max = r.Value
			}
		}
		return max
	case AggMin:
		min := rows[0].Value
		for _, r := range rows[1:] {
			if r.Value < min {
				min = r.Value
			}
		}
		return min
	case AggLast:
		last := rows[0]
		for _, r := range rows[1:] {
			if r.Timestamp.After(last.Timestamp) || (r.Timestamp.Equal(last.Timestamp) && r.ID > last.ID) {
				last = r
			}
		}
		return last.Value
	case AggP50:
		return percentile(rows, 0.50)
	case AggP90:
		return percentile(rows, 0.90)
	case AggP99:
		return percentile(rows, 0.99)
	default: // avg
		var sum float64
		for _, r := range rows {
			sum += r.Value
		}
		return sum / float64(len(rows))
	}
}

// percentile computes a continuous percentile (linear interpolation
// between ranks), matching spec.md §9's preference for a continuous
// percentile function, with a sort-and-index fallback here since the
// computation happens in the writer/query path rather than in SQL.
func percentile(rows []domain.MetricPoint, p float64) float64 {
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = r.Value
	}
	sort.Float64s(values)

	if len(values) == 1 {
		return values[0]
	}

	rank := p * float64(len(values)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return values[lo]
	}
	frac := rank - float64(lo)
	return values[lo]*(1-frac) + values[hi]*frac
}
