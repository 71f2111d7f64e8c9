package service

import (
	"alcyxob/workout-progress/internal/domain"
	"alcyxob/workout-progress/internal/repository"
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errStoreDown = errors.New("store down")

type testUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func newTestUserRepo(users ...*domain.User) *testUserRepo {
	r := &testUserRepo{users: map[primitive.ObjectID]*domain.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *testUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	stored := *user
	r.users[user.ID] = &stored
	return user.ID, nil
}

func (r *testUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *testUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	found := *u
	return &found, nil
}

func (r *testUserRepo) AddClientIDToTrainer(_ context.Context, trainerID, clientID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	trainer, ok := r.users[trainerID]
	if !ok {
		return repository.ErrNotFound
	}
	trainer.ClientIDs = append(trainer.ClientIDs, clientID)
	return nil
}

func (r *testUserRepo) GetClientsByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var clients []domain.User
	for _, u := range r.users {
		if u.ManagedBy(trainerID) {
			clients = append(clients, *u)
		}
	}
	return clients, nil
}

func (r *testUserRepo) SetTrainerForClient(_ context.Context, clientID, trainerID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.users[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	client.TrainerID = &trainerID
	return nil
}

type testWorkoutRepo struct {
	workouts map[primitive.ObjectID]domain.Workout
}

func newTestWorkoutRepo() *testWorkoutRepo {
	return &testWorkoutRepo{workouts: map[primitive.ObjectID]domain.Workout{}}
}

func (r *testWorkoutRepo) Create(_ context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	workout.ID = primitive.NewObjectID()
	r.workouts[workout.ID] = *workout
	return workout.ID, nil
}

func (r *testWorkoutRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	w, ok := r.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (r *testWorkoutRepo) GetByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.Workout, error) {
	var out []domain.Workout
	for _, w := range r.workouts {
		if w.ClientID == clientID {
			out = append(out, w)
		}
	}
	return out, nil
}

type testSetRepo struct {
	sets []domain.ExerciseSet
	err  error
}

func (r *testSetRepo) CreateMany(_ context.Context, sets []domain.ExerciseSet) ([]primitive.ObjectID, error) {
	if r.err != nil {
		return nil, r.err
	}
	ids := make([]primitive.ObjectID, len(sets))
	for i := range sets {
		sets[i].ID = primitive.NewObjectID()
		ids[i] = sets[i].ID
		r.sets = append(r.sets, sets[i])
	}
	return ids, nil
}

func (r *testSetRepo) GetByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.ExerciseSet, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.ExerciseSet
	for _, s := range r.sets {
		if s.ClientID == clientID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *testSetRepo) GetByExercise(_ context.Context, clientID primitive.ObjectID, filter repository.ExerciseFilter) ([]domain.ExerciseSet, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.ExerciseSet
	for _, s := range r.sets {
		if s.ClientID != clientID {
			continue
		}
		if filter.ExerciseID != "" && s.ExerciseID != filter.ExerciseID {
			continue
		}
		if filter.ExerciseName != "" && s.ExerciseName != filter.ExerciseName {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *testSetRepo) GetByWorkoutID(_ context.Context, workoutID primitive.ObjectID) ([]domain.ExerciseSet, error) {
	var out []domain.ExerciseSet
	for _, s := range r.sets {
		if s.WorkoutID == workoutID {
			out = append(out, s)
		}
	}
	return out, nil
}

type failingBlobStore struct{}

func (failingBlobStore) Get(context.Context, string) ([]byte, error) { return nil, errStoreDown }
func (failingBlobStore) Put(context.Context, string, []byte) error   { return errStoreDown }

func ptr[T any](v T) *T {
	return &v
}
