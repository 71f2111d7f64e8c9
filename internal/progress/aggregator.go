package progress

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// MatchKey selects which record field identifies an exercise. The same key is
// used for series, maximums and the goal map.
type MatchKey string

const (
	MatchByID   MatchKey = "id"
	MatchByName MatchKey = "name"
)

var (
	ErrUnknownMatchKey = errors.New("unknown exercise match key")
	ErrUnknownMetric   = errors.New("unknown metric")
)

func ParseMatchKey(s string) (MatchKey, error) {
	switch MatchKey(strings.ToLower(strings.TrimSpace(s))) {
	case MatchByID, "":
		return MatchByID, nil
	case MatchByName:
		return MatchByName, nil
	}
	return "", ErrUnknownMatchKey
}

type Metric string

const (
	MetricWeight   Metric = "weight"
	MetricReps     Metric = "reps"
	MetricDuration Metric = "duration"
)

func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case MetricWeight:
		return MetricWeight, nil
	case MetricReps:
		return MetricReps, nil
	case MetricDuration:
		return MetricDuration, nil
	}
	return "", ErrUnknownMetric
}

// ExerciseRecord is one performed set. Nil fields are absent, which is not
// the same as zero.
type ExerciseRecord struct {
	ExerciseID      string
	ExerciseName    string
	StartedAt       *time.Time
	CompletedAt     *time.Time
	Weight          *float64
	PlannedWeight   *float64
	Reps            *int
	PlannedReps     *int
	DurationSeconds *float64
}

// Timestamp is the completion time, falling back to the start time.
func (r ExerciseRecord) Timestamp() (time.Time, bool) {
	if r.CompletedAt != nil && !r.CompletedAt.IsZero() {
		return *r.CompletedAt, true
	}
	if r.StartedAt != nil && !r.StartedAt.IsZero() {
		return *r.StartedAt, true
	}
	return time.Time{}, false
}

// Value returns the record's value for m. Duration is reported in minutes.
func (r ExerciseRecord) Value(m Metric) (float64, bool) {
	switch m {
	case MetricWeight:
		if r.Weight != nil {
			return *r.Weight, true
		}
		if r.PlannedWeight != nil {
			return *r.PlannedWeight, true
		}
	case MetricReps:
		if r.Reps != nil {
			return float64(*r.Reps), true
		}
		if r.PlannedReps != nil {
			return float64(*r.PlannedReps), true
		}
	case MetricDuration:
		if r.DurationSeconds != nil {
			return *r.DurationSeconds / 60, true
		}
	}
	return 0, false
}

type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

type ExerciseSummary struct {
	Key           string    `json:"key"`
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Sets          int       `json:"sets"`
	LastPerformed *time.Time `json:"lastPerformed,omitempty"` // nil when no set is dated
}

// Aggregator derives chart series and maximums from exercise records.
// It holds no state beyond its settings and is safe for concurrent use.
type Aggregator struct {
	Key      MatchKey
	Location *time.Location
}

func NewAggregator(key MatchKey, loc *time.Location) *Aggregator {
	if key == "" {
		key = MatchByID
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{Key: key, Location: loc}
}

func (a *Aggregator) location() *time.Location {
	if a.Location == nil {
		return time.UTC
	}
	return a.Location
}

// KeyOf returns the identifying value of r under the configured match key.
func (a *Aggregator) KeyOf(r ExerciseRecord) string {
	if a.Key == MatchByName {
		return r.ExerciseName
	}
	return r.ExerciseID
}

// SeriesFor returns the (date, value) points of metric m for one exercise
// inside window w, sorted ascending by date.
func (a *Aggregator) SeriesFor(records []ExerciseRecord, key string, w TimeWindow, ref time.Time, m Metric) []Point {
	ref = ref.In(a.location())
	points := []Point{}

	for _, r := range records {
		if a.KeyOf(r) != key {
			continue
		}
		ts, ok := r.Timestamp()
		if !ok || !InWindow(ts, ref, w) {
			continue
		}
		v, ok := r.Value(m)
		if !ok {
			continue
		}
		points = append(points, Point{Date: ts.In(a.location()), Value: v})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	return points
}

// MaxValue scans the whole history of one exercise, dated or not. ok is
// false when no record carries the metric.
func (a *Aggregator) MaxValue(records []ExerciseRecord, key string, m Metric) (max float64, ok bool) {
	for _, r := range records {
		if a.KeyOf(r) != key {
			continue
		}
		v, has := r.Value(m)
		if !has {
			continue
		}
		if !ok || v > max {
			max = v
			ok = true
		}
	}
	return max, ok
}

// AxisTicks evaluates ticks in the aggregator's location.
func (a *Aggregator) AxisTicks(ref time.Time, w TimeWindow) []time.Time {
	return AxisTicks(ref.In(a.location()), w)
}

// Exercises lists the distinct exercises in records. search filters names
// case-insensitively; unnamed exercises sort last.
func (a *Aggregator) Exercises(records []ExerciseRecord, search string) []ExerciseSummary {
	search = strings.ToLower(strings.TrimSpace(search))
	byKey := make(map[string]*ExerciseSummary)
	order := make([]string, 0)

	for _, r := range records {
		key := a.KeyOf(r)
		if key == "" {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(r.ExerciseName), search) {
			continue
		}
		s, ok := byKey[key]
		if !ok {
			s = &ExerciseSummary{Key: key, ID: r.ExerciseID, Name: r.ExerciseName}
			byKey[key] = s
			order = append(order, key)
		}
		if s.Name == "" {
			s.Name = r.ExerciseName
		}
		s.Sets++
		if ts, ok := r.Timestamp(); ok && (s.LastPerformed == nil || ts.After(*s.LastPerformed)) {
			local := ts.In(a.location())
			s.LastPerformed = &local
		}
	}

	summaries := make([]ExerciseSummary, 0, len(order))
	for _, key := range order {
		summaries = append(summaries, *byKey[key])
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		ni, nj := summaries[i].Name, summaries[j].Name
		if (ni == "") != (nj == "") {
			return nj == ""
		}
		if ni != nj {
			return ni < nj
		}
		return summaries[i].Key < summaries[j].Key
	})

	return summaries
}
