package service

import (
	"alcyxob/workout-progress/internal/domain"
	"alcyxob/workout-progress/internal/metrics"
	"alcyxob/workout-progress/internal/progress"
	"alcyxob/workout-progress/internal/repository"
	"alcyxob/workout-progress/internal/telemetry/tracing"
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
)

// SeriesResult is everything a chart needs for one exercise, window and metric.
type SeriesResult struct {
	ExerciseKey string
	Window      progress.TimeWindow
	Metric      progress.Metric
	Reference   time.Time
	Points      []progress.Point
	Ticks       []time.Time
	Max         *float64 // all-time best, nil when never recorded
	Goal        float64
	YAxisMax    float64
}

// --- Service Interface ---
type ProgressService interface {
	Series(ctx context.Context, userID primitive.ObjectID, exerciseKey string, window progress.TimeWindow, metric progress.Metric, ref time.Time) (*SeriesResult, error)
	Snapshot(ctx context.Context, userID primitive.ObjectID, exerciseKey string) (*progress.Snapshot, error)
}

// --- Service Implementation ---

type progressService struct {
	setRepo    repository.ExerciseSetRepository
	goals      GoalStore
	aggregator *progress.Aggregator
	metrics    *metrics.Manager
}

func NewProgressService(
	setRepo repository.ExerciseSetRepository,
	goals GoalStore,
	aggregator *progress.Aggregator,
	metricsManager *metrics.Manager,
) ProgressService {
	return &progressService{
		setRepo:    setRepo,
		goals:      goals,
		aggregator: aggregator,
		metrics:    metricsManager,
	}
}

func (s *progressService) Series(
	ctx context.Context,
	userID primitive.ObjectID,
	exerciseKey string,
	window progress.TimeWindow,
	metric progress.Metric,
	ref time.Time,
) (result *SeriesResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progressService.series")
	span.SetAttributes(
		attribute.String("window", window.String()),
		attribute.String("metric", string(metric)),
	)
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	exerciseKey = strings.TrimSpace(exerciseKey)
	if exerciseKey == "" {
		return nil, ErrInvalidExerciseKey
	}

	records, err := s.history(ctx, userID, exerciseKey)
	if err != nil {
		return nil, err
	}
	goals, err := s.goals.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	goal := goals[exerciseKey].For(metric)

	points := s.aggregator.SeriesFor(records, exerciseKey, window, ref, metric)
	result = &SeriesResult{
		ExerciseKey: exerciseKey,
		Window:      window,
		Metric:      metric,
		Reference:   ref,
		Points:      points,
		Ticks:       s.aggregator.AxisTicks(ref, window),
		Goal:        goal,
	}

	if max, ok := s.aggregator.MaxValue(records, exerciseKey, metric); ok {
		result.Max = &max
	}
	// without a goal the axis follows the plotted points, not the all-time best
	peak, hasPeak := progress.PeakOf(points)
	result.YAxisMax = progress.YAxisUpperBound(goal, peak, hasPeak)

	if s.metrics != nil {
		s.metrics.CounterSeriesComputed.WithLabelValues(window.String(), string(metric)).Inc()
		s.metrics.HistSeriesPoints.Observe(float64(len(points)))
	}
	span.SetAttributes(attribute.Int("points", len(points)))

	return result, nil
}

func (s *progressService) Snapshot(ctx context.Context, userID primitive.ObjectID, exerciseKey string) (snap *progress.Snapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progressService.snapshot")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	exerciseKey = strings.TrimSpace(exerciseKey)
	if exerciseKey == "" {
		return nil, ErrInvalidExerciseKey
	}

	records, err := s.history(ctx, userID, exerciseKey)
	if err != nil {
		return nil, err
	}
	goals, err := s.goals.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := s.aggregator.Snapshot(records, exerciseKey, goals[exerciseKey])
	return &result, nil
}

// history loads one exercise's sets, filtered in the database by the configured match key.
func (s *progressService) history(ctx context.Context, userID primitive.ObjectID, exerciseKey string) ([]progress.ExerciseRecord, error) {
	filter := repository.ExerciseFilter{ExerciseID: exerciseKey}
	if s.aggregator.Key == progress.MatchByName {
		filter = repository.ExerciseFilter{ExerciseName: exerciseKey}
	}

	sets, err := s.setRepo.GetByExercise(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("load exercise history: %w", err)
	}
	return toRecords(sets), nil
}

func toRecords(sets []domain.ExerciseSet) []progress.ExerciseRecord {
	records := make([]progress.ExerciseRecord, len(sets))
	for i, set := range sets {
		records[i] = progress.ExerciseRecord{
			ExerciseID:      set.ExerciseID,
			ExerciseName:    set.ExerciseName,
			StartedAt:       set.StartedAt,
			CompletedAt:     set.CompletedAt,
			Weight:          set.WeightUsed,
			PlannedWeight:   set.PlannedWeight,
			Reps:            set.RepsCompleted,
			PlannedReps:     set.PlannedReps,
			DurationSeconds: set.DurationSeconds,
		}
	}
	return records
}
