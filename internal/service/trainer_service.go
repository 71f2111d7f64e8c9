package service

import (
	"alcyxob/workout-progress/internal/domain"
	"alcyxob/workout-progress/internal/progress"
	"alcyxob/workout-progress/internal/repository"
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrClientNotFound        = errors.New("client user not found")
	ErrClientNotRole         = errors.New("user found but is not a client")
	ErrClientAlreadyAssigned = errors.New("client is already assigned to a trainer")
	ErrClientNotManaged      = errors.New("client is not managed by this trainer")
)

// --- Service Interface ---
type TrainerService interface {
	// Client Management
	AddClientByEmail(ctx context.Context, trainerID primitive.ObjectID, clientEmail string) (*domain.User, error)
	GetManagedClients(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error)

	// Client Progress (read-only; goals stay owned by the client)
	ClientSeries(ctx context.Context, trainerID, clientID primitive.ObjectID, exerciseKey string, window progress.TimeWindow, metric progress.Metric, ref time.Time) (*SeriesResult, error)
	ClientSnapshot(ctx context.Context, trainerID, clientID primitive.ObjectID, exerciseKey string) (*progress.Snapshot, error)
	ClientExercises(ctx context.Context, trainerID, clientID primitive.ObjectID, search string) ([]progress.ExerciseSummary, error)
}

// --- Service Implementation ---

// trainerService implements the TrainerService interface.
type trainerService struct {
	userRepo        repository.UserRepository
	progressService ProgressService
	workoutService  WorkoutService
}

// NewTrainerService creates a new instance of trainerService.
func NewTrainerService(
	userRepo repository.UserRepository,
	progressService ProgressService,
	workoutService WorkoutService,
) TrainerService {
	return &trainerService{
		userRepo:        userRepo,
		progressService: progressService,
		workoutService:  workoutService,
	}
}

// === Client Management ===

// AddClientByEmail finds a client by email and assigns them to the trainer.
func (s *trainerService) AddClientByEmail(ctx context.Context, trainerID primitive.ObjectID, clientEmail string) (*domain.User, error) {
	clientEmail = strings.ToLower(strings.TrimSpace(clientEmail))
	if trainerID == primitive.NilObjectID || clientEmail == "" {
		return nil, errors.New("trainer ID and client email are required")
	}

	client, err := s.userRepo.GetByEmail(ctx, clientEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	if client.Role != domain.RoleClient {
		return nil, ErrClientNotRole
	}

	if client.TrainerID != nil && *client.TrainerID != primitive.NilObjectID {
		if *client.TrainerID == trainerID {
			return client, nil // already managed by this trainer
		}
		return nil, ErrClientAlreadyAssigned
	}

	if err = s.userRepo.AddClientIDToTrainer(ctx, trainerID, client.ID); err != nil {
		return nil, err
	}
	// Not transactional: a failure here leaves the trainer listing a client that
	// does not point back. Re-adding the same email repairs it.
	if err = s.userRepo.SetTrainerForClient(ctx, client.ID, trainerID); err != nil {
		return nil, err
	}

	client.TrainerID = &trainerID
	client.PasswordHash = ""
	return client, nil
}

// GetManagedClients retrieves the list of clients managed by the trainer.
func (s *trainerService) GetManagedClients(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error) {
	if trainerID == primitive.NilObjectID {
		return nil, errors.New("trainer ID is required")
	}
	clients, err := s.userRepo.GetClientsByTrainerID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		clients[i].PasswordHash = ""
	}
	return clients, nil
}

// === Client Progress ===

func (s *trainerService) ClientSeries(ctx context.Context, trainerID, clientID primitive.ObjectID, exerciseKey string, window progress.TimeWindow, metric progress.Metric, ref time.Time) (*SeriesResult, error) {
	if err := s.ensureManaged(ctx, trainerID, clientID); err != nil {
		return nil, err
	}
	return s.progressService.Series(ctx, clientID, exerciseKey, window, metric, ref)
}

func (s *trainerService) ClientSnapshot(ctx context.Context, trainerID, clientID primitive.ObjectID, exerciseKey string) (*progress.Snapshot, error) {
	if err := s.ensureManaged(ctx, trainerID, clientID); err != nil {
		return nil, err
	}
	return s.progressService.Snapshot(ctx, clientID, exerciseKey)
}

func (s *trainerService) ClientExercises(ctx context.Context, trainerID, clientID primitive.ObjectID, search string) ([]progress.ExerciseSummary, error) {
	if err := s.ensureManaged(ctx, trainerID, clientID); err != nil {
		return nil, err
	}
	return s.workoutService.ListExercises(ctx, clientID, search)
}

func (s *trainerService) ensureManaged(ctx context.Context, trainerID, clientID primitive.ObjectID) error {
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}
	if !client.ManagedBy(trainerID) {
		return ErrClientNotManaged
	}
	return nil
}
