package api

import (
	"alcyxob/workout-progress/internal/domain"
	"alcyxob/workout-progress/internal/progress"
	"alcyxob/workout-progress/internal/service"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkoutHandler struct {
	workoutService service.WorkoutService
}

func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- DTOs ---

type ExerciseSetRequest struct {
	ExerciseID      string     `json:"exerciseId"`
	ExerciseName    string     `json:"exerciseName"`
	StartedAt       *time.Time `json:"startedAt"`
	CompletedAt     *time.Time `json:"completedAt"`
	Weight          *float64   `json:"weight"`
	Reps            *int       `json:"reps"`
	DurationSeconds *float64   `json:"durationSeconds"`
	PlannedWeight   *float64   `json:"plannedWeight"`
	PlannedReps     *int       `json:"plannedReps"`
}

type LogWorkoutRequest struct {
	Name        string               `json:"name" binding:"required"`
	Notes       string               `json:"notes"`
	StartedAt   *time.Time           `json:"startedAt"` // RFC3339
	CompletedAt *time.Time           `json:"completedAt"`
	Sets        []ExerciseSetRequest `json:"sets" binding:"required,min=1,dive"`
}

type ExerciseSetResponse struct {
	ID              string     `json:"id"`
	ExerciseID      string     `json:"exerciseId,omitempty"`
	ExerciseName    string     `json:"exerciseName,omitempty"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	Weight          *float64   `json:"weight,omitempty"`
	Reps            *int       `json:"reps,omitempty"`
	DurationSeconds *float64   `json:"durationSeconds,omitempty"`
	PlannedWeight   *float64   `json:"plannedWeight,omitempty"`
	PlannedReps     *int       `json:"plannedReps,omitempty"`
}

type WorkoutResponse struct {
	ID          string                `json:"id"`
	ClientID    string                `json:"clientId"`
	TrainerID   *string               `json:"trainerId,omitempty"`
	Name        string                `json:"name"`
	Notes       string                `json:"notes,omitempty"`
	StartedAt   *time.Time            `json:"startedAt,omitempty"`
	CompletedAt *time.Time            `json:"completedAt,omitempty"`
	SetCount    int                   `json:"setCount"`
	CreatedAt   time.Time             `json:"createdAt"`
	Sets        []ExerciseSetResponse `json:"sets,omitempty"`
}

func (r ExerciseSetRequest) toDomain() domain.ExerciseSet {
	return domain.ExerciseSet{
		ExerciseID:      r.ExerciseID,
		ExerciseName:    r.ExerciseName,
		StartedAt:       r.StartedAt,
		CompletedAt:     r.CompletedAt,
		WeightUsed:      r.Weight,
		RepsCompleted:   r.Reps,
		DurationSeconds: r.DurationSeconds,
		PlannedWeight:   r.PlannedWeight,
		PlannedReps:     r.PlannedReps,
	}
}

func MapSetToResponse(s *domain.ExerciseSet) ExerciseSetResponse {
	return ExerciseSetResponse{
		ID:              s.ID.Hex(),
		ExerciseID:      s.ExerciseID,
		ExerciseName:    s.ExerciseName,
		StartedAt:       s.StartedAt,
		CompletedAt:     s.CompletedAt,
		Weight:          s.WeightUsed,
		Reps:            s.RepsCompleted,
		DurationSeconds: s.DurationSeconds,
		PlannedWeight:   s.PlannedWeight,
		PlannedReps:     s.PlannedReps,
	}
}

// MapWorkoutToResponse converts a workout and, optionally, its sets.
func MapWorkoutToResponse(w *domain.Workout, sets []domain.ExerciseSet) WorkoutResponse {
	if w == nil {
		return WorkoutResponse{}
	}
	resp := WorkoutResponse{
		ID:          w.ID.Hex(),
		ClientID:    w.ClientID.Hex(),
		Name:        w.Name,
		Notes:       w.Notes,
		StartedAt:   w.StartedAt,
		CompletedAt: w.CompletedAt,
		SetCount:    w.SetCount,
		CreatedAt:   w.CreatedAt,
	}
	if w.TrainerID != nil && *w.TrainerID != primitive.NilObjectID {
		hex := w.TrainerID.Hex()
		resp.TrainerID = &hex
	}
	if len(sets) > 0 {
		resp.Sets = make([]ExerciseSetResponse, len(sets))
		for i := range sets {
			resp.Sets[i] = MapSetToResponse(&sets[i])
		}
	}
	return resp
}

func MapWorkoutsToResponse(workouts []domain.Workout) []WorkoutResponse {
	responses := make([]WorkoutResponse, len(workouts))
	for i := range workouts {
		responses[i] = MapWorkoutToResponse(&workouts[i], nil)
	}
	return responses
}

// --- Handler Methods ---

// LogWorkout godoc
// @Summary Log a performed workout
// @Description Stores a session and its sets. Sets without their own times inherit the session's.
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workout body LogWorkoutRequest true "Workout and sets"
// @Success 201 {object} WorkoutResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 404 {object} gin.H "Client not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /workouts [post]
func (h *WorkoutHandler) LogWorkout(c *gin.Context) {
	var req LogWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	clientID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	sets := make([]domain.ExerciseSet, len(req.Sets))
	for i, s := range req.Sets {
		sets[i] = s.toDomain()
	}

	workout, saved, err := h.workoutService.LogWorkout(c.Request.Context(), clientID, domain.Workout{
		Name:        req.Name,
		Notes:       req.Notes,
		StartedAt:   req.StartedAt,
		CompletedAt: req.CompletedAt,
	}, sets)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidWorkout):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrClientNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithInternalError(c, "Failed to log workout.", err)
		}
		return
	}

	c.JSON(http.StatusCreated, MapWorkoutToResponse(workout, saved))
}

// ListWorkouts godoc
// @Summary List my workouts, newest first
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} WorkoutResponse
// @Router /workouts [get]
func (h *WorkoutHandler) ListWorkouts(c *gin.Context) {
	clientID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	workouts, err := h.workoutService.ListWorkouts(c.Request.Context(), clientID)
	if err != nil {
		abortWithInternalError(c, "Failed to retrieve workouts.", err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutsToResponse(workouts))
}

// GetWorkout godoc
// @Summary Get one of my workouts with its sets
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param workoutId path string true "Workout ObjectID Hex"
// @Success 200 {object} WorkoutResponse
// @Failure 404 {object} gin.H "Workout not found"
// @Router /workouts/{workoutId} [get]
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	workoutID, err := primitive.ObjectIDFromHex(c.Param("workoutId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format in URL path.")
		return
	}
	clientID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	workout, sets, err := h.workoutService.GetWorkout(c.Request.Context(), clientID, workoutID)
	if err != nil {
		if errors.Is(err, service.ErrWorkoutNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithInternalError(c, "Failed to retrieve workout.", err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout, sets))
}

// ListExercises godoc
// @Summary List the exercises I have performed
// @Description Distinct exercises from my history, sorted by name. search filters names case-insensitively.
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name filter"
// @Success 200 {array} progress.ExerciseSummary
// @Router /exercises [get]
func (h *WorkoutHandler) ListExercises(c *gin.Context) {
	clientID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	exercises, err := h.workoutService.ListExercises(c.Request.Context(), clientID, c.Query("search"))
	if err != nil {
		abortWithInternalError(c, "Failed to retrieve exercises.", err)
		return
	}
	if exercises == nil {
		exercises = []progress.ExerciseSummary{}
	}
	c.JSON(http.StatusOK, exercises)
}
