package repository

import (
	"alcyxob/workout-progress/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDuplicate    = RepositoryError("duplicate key")
)

// RepositoryError distinguishes repository errors from driver errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	AddClientIDToTrainer(ctx context.Context, trainerID, clientID primitive.ObjectID) error
	GetClientsByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error)
	SetTrainerForClient(ctx context.Context, clientID, trainerID primitive.ObjectID) error
}

// WorkoutRepository stores logged workout sessions.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Workout, error) // Newest first
}

// ExerciseFilter narrows a client's history to one exercise. Exactly one field is expected to be set.
type ExerciseFilter struct {
	ExerciseID   string
	ExerciseName string
}

// ExerciseSetRepository stores performed sets, the input of every progress computation.
type ExerciseSetRepository interface {
	CreateMany(ctx context.Context, sets []domain.ExerciseSet) ([]primitive.ObjectID, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.ExerciseSet, error)
	GetByExercise(ctx context.Context, clientID primitive.ObjectID, filter ExerciseFilter) ([]domain.ExerciseSet, error)
	GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]domain.ExerciseSet, error)
}
