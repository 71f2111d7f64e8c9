package service

import (
	"alcyxob/workout-progress/internal/domain"
	"alcyxob/workout-progress/internal/metrics"
	"alcyxob/workout-progress/internal/progress"
	"alcyxob/workout-progress/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrInvalidWorkout  = errors.New("workout validation failed")
	ErrWorkoutNotFound = errors.New("workout not found")
)

// --- Service Interface ---
type WorkoutService interface {
	// LogWorkout stores a session and its sets. Sets without their own times inherit the session's.
	LogWorkout(ctx context.Context, clientID primitive.ObjectID, workout domain.Workout, sets []domain.ExerciseSet) (*domain.Workout, []domain.ExerciseSet, error)
	ListWorkouts(ctx context.Context, clientID primitive.ObjectID) ([]domain.Workout, error)
	GetWorkout(ctx context.Context, clientID, workoutID primitive.ObjectID) (*domain.Workout, []domain.ExerciseSet, error)
	ListExercises(ctx context.Context, clientID primitive.ObjectID, search string) ([]progress.ExerciseSummary, error)
}

// --- Service Implementation ---

type workoutService struct {
	userRepo    repository.UserRepository
	workoutRepo repository.WorkoutRepository
	setRepo     repository.ExerciseSetRepository
	aggregator  *progress.Aggregator
	metrics     *metrics.Manager
}

func NewWorkoutService(
	userRepo repository.UserRepository,
	workoutRepo repository.WorkoutRepository,
	setRepo repository.ExerciseSetRepository,
	aggregator *progress.Aggregator,
	metricsManager *metrics.Manager,
) WorkoutService {
	return &workoutService{
		userRepo:    userRepo,
		workoutRepo: workoutRepo,
		setRepo:     setRepo,
		aggregator:  aggregator,
		metrics:     metricsManager,
	}
}

func (s *workoutService) LogWorkout(ctx context.Context, clientID primitive.ObjectID, workout domain.Workout, sets []domain.ExerciseSet) (*domain.Workout, []domain.ExerciseSet, error) {
	workout.Name = strings.TrimSpace(workout.Name)
	if workout.Name == "" {
		return nil, nil, fmt.Errorf("%w: name is required", ErrInvalidWorkout)
	}
	if len(sets) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one set is required", ErrInvalidWorkout)
	}
	for i := range sets {
		if err := s.validateSet(sets[i]); err != nil {
			return nil, nil, fmt.Errorf("%w: set %d: %s", ErrInvalidWorkout, i, err)
		}
	}

	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrClientNotFound
		}
		return nil, nil, err
	}

	workout.ClientID = client.ID
	workout.TrainerID = client.TrainerID
	workout.SetCount = len(sets)

	workoutID, err := s.workoutRepo.Create(ctx, &workout)
	if err != nil {
		return nil, nil, err
	}
	workout.ID = workoutID

	for i := range sets {
		sets[i].WorkoutID = workoutID
		sets[i].ClientID = client.ID
		sets[i].ExerciseID = strings.TrimSpace(sets[i].ExerciseID)
		sets[i].ExerciseName = strings.TrimSpace(sets[i].ExerciseName)
		if sets[i].StartedAt == nil && sets[i].CompletedAt == nil {
			sets[i].StartedAt = workout.StartedAt
			sets[i].CompletedAt = workout.CompletedAt
		}
	}

	if _, err := s.setRepo.CreateMany(ctx, sets); err != nil {
		// The session exists without sets; the client can log it again.
		log.Errorf("workout %s stored but its sets failed: %s", workoutID.Hex(), err)
		return nil, nil, err
	}

	if s.metrics != nil {
		s.metrics.CounterWorkoutsLogged.Inc()
	}

	return &workout, sets, nil
}

// validateSet requires the configured exercise key and keeps measurements within range.
func (s *workoutService) validateSet(set domain.ExerciseSet) error {
	if s.aggregator.Key == progress.MatchByName && strings.TrimSpace(set.ExerciseName) == "" {
		return errors.New("exerciseName is required")
	}
	if s.aggregator.Key != progress.MatchByName && strings.TrimSpace(set.ExerciseID) == "" {
		return errors.New("exerciseId is required")
	}
	if outOfRange(set.WeightUsed) || outOfRange(set.PlannedWeight) || outOfRange(set.DurationSeconds) {
		return errors.New("measurements must be between 0 and 1000000")
	}
	if repsOutOfRange(set.RepsCompleted) || repsOutOfRange(set.PlannedReps) {
		return errors.New("reps must be between 0 and 1000000")
	}
	if set.StartedAt != nil && set.CompletedAt != nil && set.CompletedAt.Before(*set.StartedAt) {
		return errors.New("completedAt is before startedAt")
	}
	return nil
}

func outOfRange(v *float64) bool {
	return v != nil && (*v < 0 || *v > progress.MaxMeasurement)
}

func repsOutOfRange(v *int) bool {
	return v != nil && (*v < 0 || *v > progress.MaxMeasurement)
}

func (s *workoutService) ListWorkouts(ctx context.Context, clientID primitive.ObjectID) ([]domain.Workout, error) {
	return s.workoutRepo.GetByClientID(ctx, clientID)
}

func (s *workoutService) GetWorkout(ctx context.Context, clientID, workoutID primitive.ObjectID) (*domain.Workout, []domain.ExerciseSet, error) {
	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrWorkoutNotFound
		}
		return nil, nil, err
	}
	// Hide other clients' workouts behind the same error.
	if workout.ClientID != clientID {
		return nil, nil, ErrWorkoutNotFound
	}

	sets, err := s.setRepo.GetByWorkoutID(ctx, workoutID)
	if err != nil {
		return nil, nil, err
	}
	return workout, sets, nil
}

func (s *workoutService) ListExercises(ctx context.Context, clientID primitive.ObjectID, search string) ([]progress.ExerciseSummary, error) {
	sets, err := s.setRepo.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.aggregator.Exercises(toRecords(sets), search), nil
}
