package service

import (
	"alcyxob/workout-progress/internal/metrics"
	"alcyxob/workout-progress/internal/progress"
	"alcyxob/workout-progress/internal/storage"
	"alcyxob/workout-progress/internal/telemetry/tracing"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrInvalidGoal        = errors.New("goal targets must be between 0 and 1000000")
	ErrInvalidExerciseKey = errors.New("exercise key is required")
)

// GoalStore loads and saves a user's whole goal map.
type GoalStore interface {
	Load(ctx context.Context, userID primitive.ObjectID) (progress.GoalMap, error)
	Save(ctx context.Context, userID primitive.ObjectID, goals progress.GoalMap) error
}

// blobGoalStore keeps each user's goal map as one JSON blob.
type blobGoalStore struct {
	blobs   storage.BlobStore
	metrics *metrics.Manager
}

// NewBlobGoalStore creates a GoalStore on top of any BlobStore.
func NewBlobGoalStore(blobs storage.BlobStore, metricsManager *metrics.Manager) GoalStore {
	return &blobGoalStore{
		blobs:   blobs,
		metrics: metricsManager,
	}
}

func goalsKey(userID primitive.ObjectID) string {
	return fmt.Sprintf("users/%s/exerciseGoals", userID.Hex())
}

// Load returns an empty map when nothing is stored or the stored blob is malformed.
func (s *blobGoalStore) Load(ctx context.Context, userID primitive.ObjectID) (progress.GoalMap, error) {
	blob, err := s.blobs.Get(ctx, goalsKey(userID))
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return progress.GoalMap{}, nil
		}
		return nil, fmt.Errorf("load goals: %w", err)
	}

	goals, err := progress.DecodeGoals(blob)
	if err != nil {
		log.Warnf("goals of user %s are unreadable, treating as empty: %s", userID.Hex(), err)
		if s.metrics != nil {
			s.metrics.CounterGoalDecodeFailures.Inc()
		}
	}
	return goals, nil
}

func (s *blobGoalStore) Save(ctx context.Context, userID primitive.ObjectID, goals progress.GoalMap) error {
	blob, err := progress.EncodeGoals(goals)
	if err != nil {
		return fmt.Errorf("encode goals: %w", err)
	}
	if err := s.blobs.Put(ctx, goalsKey(userID), blob); err != nil {
		return fmt.Errorf("save goals: %w", err)
	}
	return nil
}

// --- Service Interface ---
type GoalService interface {
	Get(ctx context.Context, userID primitive.ObjectID, exerciseKey string) (progress.GoalTarget, error)
	// Set replaces the targets of one exercise. All-zero targets clear the goal.
	Set(ctx context.Context, userID primitive.ObjectID, exerciseKey string, goal progress.GoalTarget) (progress.GoalTarget, error)
	All(ctx context.Context, userID primitive.ObjectID) (progress.GoalMap, error)
}

// --- Service Implementation ---

type goalService struct {
	store   GoalStore
	metrics *metrics.Manager

	// serializes read-modify-write of goal maps within this process
	mu sync.Mutex
}

func NewGoalService(store GoalStore, metricsManager *metrics.Manager) GoalService {
	return &goalService{
		store:   store,
		metrics: metricsManager,
	}
}

func (s *goalService) Get(ctx context.Context, userID primitive.ObjectID, exerciseKey string) (goal progress.GoalTarget, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "goalService.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	exerciseKey = strings.TrimSpace(exerciseKey)
	if exerciseKey == "" {
		return goal, ErrInvalidExerciseKey
	}

	goals, err := s.store.Load(ctx, userID)
	if err != nil {
		return goal, err
	}
	return goals[exerciseKey], nil
}

func (s *goalService) Set(ctx context.Context, userID primitive.ObjectID, exerciseKey string, goal progress.GoalTarget) (_ progress.GoalTarget, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "goalService.set")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	exerciseKey = strings.TrimSpace(exerciseKey)
	if exerciseKey == "" {
		return goal, ErrInvalidExerciseKey
	}
	if !validTarget(goal.Weight) || !validTarget(float64(goal.Reps)) || !validTarget(float64(goal.Duration)) {
		return goal, ErrInvalidGoal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	goals, err := s.store.Load(ctx, userID)
	if err != nil {
		return goal, err
	}

	if goal.HasAny() {
		goals[exerciseKey] = goal
	} else {
		delete(goals, exerciseKey)
	}

	if err = s.store.Save(ctx, userID, goals); err != nil {
		return goal, err
	}

	if s.metrics != nil {
		s.metrics.CounterGoalSaves.Inc()
	}
	log.Debugf("saved goal for user %s exercise %q: %+v", userID.Hex(), exerciseKey, goal)

	return goal, nil
}

func (s *goalService) All(ctx context.Context, userID primitive.ObjectID) (progress.GoalMap, error) {
	return s.store.Load(ctx, userID)
}

func validTarget(v float64) bool {
	return v >= 0 && v <= progress.MaxMeasurement
}
