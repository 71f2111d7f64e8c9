package progress

import "math"

// GoalTarget holds the targets for one exercise. Duration is in minutes.
// A target <= 0 means no goal for that metric.
type GoalTarget struct {
	Weight   float64 `json:"weight"`
	Reps     int     `json:"reps"`
	Duration int     `json:"duration"`
}

// GoalMap is keyed by the same exercise key the Aggregator matches on.
type GoalMap map[string]GoalTarget

func (g GoalTarget) For(m Metric) float64 {
	switch m {
	case MetricWeight:
		return g.Weight
	case MetricReps:
		return float64(g.Reps)
	case MetricDuration:
		return float64(g.Duration)
	}
	return 0
}

func (g GoalTarget) HasAny() bool {
	return HasAnyGoal(g.Weight, g.Reps, g.Duration)
}

type GoalState string

const (
	GoalStateNone GoalState = "no-goal"
	GoalStateSet  GoalState = "goal-set"
)

func StateOf(g GoalTarget) GoalState {
	if g.HasAny() {
		return GoalStateSet
	}
	return GoalStateNone
}

const (
	// MaxPercentage caps Progress so extreme ratios stay representable.
	MaxPercentage = math.MaxInt32
	// MaxMeasurement bounds any stored weight, rep count, duration or goal target.
	MaxMeasurement = 1_000_000
)

// Progress is currentMax as a rounded percentage of goal. It is 0 when no
// goal is set and may exceed 100, up to MaxPercentage.
func Progress(currentMax, goal float64) int {
	if goal <= 0 || currentMax <= 0 || math.IsNaN(currentMax) {
		return 0
	}
	pct := math.Round(currentMax / goal * 100)
	if pct > MaxPercentage {
		return MaxPercentage
	}
	return int(pct)
}

func HasAnyGoal(weight float64, reps, duration int) bool {
	return weight > 0 || reps > 0 || duration > 0
}

// GaugeValue caps the achieved value at the goal so a gauge never overflows.
func GaugeValue(current, goal float64) float64 {
	if goal <= 0 || current <= 0 {
		return 0
	}
	return math.Min(current, goal)
}

// YAxisUpperBound leaves headroom above the goal line, or above the highest
// plotted value when there is no goal.
func YAxisUpperBound(goal, max float64, hasMax bool) float64 {
	const headroom = 10
	switch {
	case goal > 0:
		return goal + headroom
	case hasMax:
		return max + headroom
	default:
		return headroom
	}
}

// PeakOf is the highest value among points, false when there are none.
func PeakOf(points []Point) (float64, bool) {
	if len(points) == 0 {
		return 0, false
	}
	peak := points[0].Value
	for _, p := range points[1:] {
		peak = math.Max(peak, p.Value)
	}
	return peak, true
}

type MetricProgress struct {
	CurrentMax *float64 `json:"currentMax"`
	Goal       float64  `json:"goal"`
	Percentage int      `json:"percentage"`
	GaugeValue float64  `json:"gaugeValue"`
}

func SnapshotFor(current float64, hasCurrent bool, goal float64) MetricProgress {
	p := MetricProgress{Goal: goal}
	if hasCurrent {
		c := current
		p.CurrentMax = &c
	}
	// An absent maximum counts as zero progress.
	p.Percentage = Progress(current, goal)
	p.GaugeValue = GaugeValue(current, goal)
	return p
}

type Snapshot struct {
	Weight     MetricProgress `json:"weight"`
	Reps       MetricProgress `json:"reps"`
	Duration   MetricProgress `json:"duration"`
	HasAnyGoal bool           `json:"hasAnyGoal"`
	State      GoalState      `json:"state"`
}

// Snapshot recomputes the gauges of one exercise from its full history.
func (a *Aggregator) Snapshot(records []ExerciseRecord, key string, goal GoalTarget) Snapshot {
	metric := func(m Metric) MetricProgress {
		max, ok := a.MaxValue(records, key, m)
		return SnapshotFor(max, ok, goal.For(m))
	}
	return Snapshot{
		Weight:     metric(MetricWeight),
		Reps:       metric(MetricReps),
		Duration:   metric(MetricDuration),
		HasAnyGoal: goal.HasAny(),
		State:      StateOf(goal),
	}
}
