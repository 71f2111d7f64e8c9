package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseSet is one performed set of one exercise, logged by a client as part of a Workout.
// Optional measurements are pointers: nil means "not recorded", which is not the same as 0.
type ExerciseSet struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutID    primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	ClientID     primitive.ObjectID `bson:"clientId" json:"clientId"` // Denormalized for per-user history queries
	ExerciseID   string             `bson:"exerciseId" json:"exerciseId"`
	ExerciseName string             `bson:"exerciseName" json:"exerciseName"`

	StartedAt   *time.Time `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`

	WeightUsed      *float64 `bson:"weightUsed,omitempty" json:"weightUsed,omitempty"`
	RepsCompleted   *int     `bson:"repsCompleted,omitempty" json:"repsCompleted,omitempty"`
	DurationSeconds *float64 `bson:"durationSeconds,omitempty" json:"durationSeconds,omitempty"` // Time spent active

	// Targets the set was planned with; used when the performed value was not recorded.
	PlannedWeight *float64 `bson:"plannedWeight,omitempty" json:"plannedWeight,omitempty"`
	PlannedReps   *int     `bson:"plannedReps,omitempty" json:"plannedReps,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
