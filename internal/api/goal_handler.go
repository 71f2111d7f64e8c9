package api

import (
	"alcyxob/workout-progress/internal/progress"
	"alcyxob/workout-progress/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type GoalHandler struct {
	goalService service.GoalService
}

func NewGoalHandler(goalService service.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

// SetGoalRequest replaces every target of one exercise. Omitted fields are zero.
type SetGoalRequest struct {
	Weight   float64 `json:"weight" binding:"gte=0,lte=1000000"`
	Reps     int     `json:"reps" binding:"gte=0,lte=1000000"`
	Duration int     `json:"duration" binding:"gte=0,lte=1000000"` // minutes
}

type GoalResponse struct {
	ExerciseKey string              `json:"exerciseKey"`
	Goal        progress.GoalTarget `json:"goal"`
	HasAnyGoal  bool                `json:"hasAnyGoal"`
	State       progress.GoalState  `json:"state"`
}

func MapGoalToResponse(key string, goal progress.GoalTarget) GoalResponse {
	return GoalResponse{
		ExerciseKey: key,
		Goal:        goal,
		HasAnyGoal:  progress.HasAnyGoal(goal.Weight, goal.Reps, goal.Duration),
		State:       progress.StateOf(goal),
	}
}

func respondGoalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidExerciseKey), errors.Is(err, service.ErrInvalidGoal):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithInternalError(c, "Failed to access goals.", err)
	}
}

// GetGoal godoc
// @Summary Goal targets of one exercise
// @Description Exercises without a goal answer with zero targets and state "no-goal".
// @Tags Goals
// @Produce json
// @Security BearerAuth
// @Param exerciseKey path string true "Exercise key"
// @Success 200 {object} GoalResponse
// @Router /exercises/{exerciseKey}/goals [get]
func (h *GoalHandler) GetGoal(c *gin.Context) {
	userID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	key := c.Param("exerciseKey")
	goal, err := h.goalService.Get(c.Request.Context(), userID, key)
	if err != nil {
		respondGoalError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapGoalToResponse(key, goal))
}

// SetGoal godoc
// @Summary Replace the goal targets of one exercise
// @Description All-zero targets clear the goal.
// @Tags Goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exerciseKey path string true "Exercise key"
// @Param goal body SetGoalRequest true "Targets"
// @Success 200 {object} GoalResponse
// @Failure 400 {object} gin.H "Target out of range or empty key"
// @Router /exercises/{exerciseKey}/goals [put]
func (h *GoalHandler) SetGoal(c *gin.Context) {
	var req SetGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	key := c.Param("exerciseKey")
	goal, err := h.goalService.Set(c.Request.Context(), userID, key, progress.GoalTarget{
		Weight:   req.Weight,
		Reps:     req.Reps,
		Duration: req.Duration,
	})
	if err != nil {
		respondGoalError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapGoalToResponse(key, goal))
}

// ListGoals godoc
// @Summary All my goals keyed by exercise
// @Tags Goals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} progress.GoalMap
// @Router /goals [get]
func (h *GoalHandler) ListGoals(c *gin.Context) {
	userID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	goals, err := h.goalService.All(c.Request.Context(), userID)
	if err != nil {
		respondGoalError(c, err)
		return
	}
	if goals == nil {
		goals = progress.GoalMap{}
	}
	c.JSON(http.StatusOK, goals)
}
