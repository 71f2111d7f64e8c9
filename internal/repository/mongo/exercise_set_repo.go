package mongo

import (
	"alcyxob/workout-progress/internal/domain"
	"alcyxob/workout-progress/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const exerciseSetCollectionName = "exercise_sets"

// mongoExerciseSetRepository implements repository.ExerciseSetRepository
type mongoExerciseSetRepository struct {
	collection *mongo.Collection
}

func NewMongoExerciseSetRepository(db *mongo.Database) repository.ExerciseSetRepository {
	return &mongoExerciseSetRepository{
		collection: db.Collection(exerciseSetCollectionName),
	}
}

// CreateMany inserts the sets of one workout in a single round trip.
func (r *mongoExerciseSetRepository) CreateMany(ctx context.Context, sets []domain.ExerciseSet) ([]primitive.ObjectID, error) {
	if len(sets) == 0 {
		return []primitive.ObjectID{}, nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(sets))
	for i := range sets {
		if sets[i].ClientID == primitive.NilObjectID || sets[i].WorkoutID == primitive.NilObjectID {
			return nil, errors.New("exercise set requires clientId and workoutId")
		}
		if sets[i].ExerciseID == "" && sets[i].ExerciseName == "" {
			return nil, errors.New("exercise set requires exerciseId or exerciseName")
		}
		sets[i].ID = primitive.NewObjectID()
		sets[i].CreatedAt = now
		docs[i] = sets[i]
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("insert exercise sets: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(result.InsertedIDs))
	for _, raw := range result.InsertedIDs {
		id, ok := raw.(primitive.ObjectID)
		if !ok {
			return nil, errors.New("failed to convert inserted exercise set ID")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GetByClientID returns a client's full history.
func (r *mongoExerciseSetRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.ExerciseSet, error) {
	return r.find(ctx, bson.M{"clientId": clientID})
}

// GetByExercise returns a client's history for one exercise, matched by ID or by name.
func (r *mongoExerciseSetRepository) GetByExercise(ctx context.Context, clientID primitive.ObjectID, filter repository.ExerciseFilter) ([]domain.ExerciseSet, error) {
	query := bson.M{"clientId": clientID}
	switch {
	case filter.ExerciseID != "":
		query["exerciseId"] = filter.ExerciseID
	case filter.ExerciseName != "":
		query["exerciseName"] = filter.ExerciseName
	default:
		return nil, errors.New("exercise filter requires an ID or a name")
	}
	return r.find(ctx, query)
}

func (r *mongoExerciseSetRepository) GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]domain.ExerciseSet, error) {
	return r.find(ctx, bson.M{"workoutId": workoutID})
}

func (r *mongoExerciseSetRepository) find(ctx context.Context, filter bson.M) ([]domain.ExerciseSet, error) {
	// Ordering is only a convenience here, the progress code sorts by effective time itself.
	findOptions := options.Find().SetSort(bson.D{{Key: "completedAt", Value: 1}, {Key: "startedAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sets := []domain.ExerciseSet{}
	if err = cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

// EnsureExerciseSetIndexes creates the history lookup indexes. Call during startup.
func EnsureExerciseSetIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "exerciseId", Value: 1}}},
		{Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "exerciseName", Value: 1}}},
		{Keys: bson.D{{Key: "workoutId", Value: 1}}},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warnf("failed to create indexes for collection %s: %s", collection.Name(), err)
	}
}
