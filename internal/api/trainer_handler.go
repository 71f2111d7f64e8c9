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

type TrainerHandler struct {
	trainerService service.TrainerService
	now            func() time.Time
}

func NewTrainerHandler(trainerService service.TrainerService) *TrainerHandler {
	return &TrainerHandler{
		trainerService: trainerService,
		now:            time.Now,
	}
}

// --- DTOs for Client Management ---
type AddClientRequest struct {
	ClientEmail string `json:"clientEmail" binding:"required,email"`
}

// --- Handler Methods for Client Management ---

// AddClientByEmail godoc
// @Summary Add a client to the trainer's roster by email
// @Description Associates an existing client user with the authenticated trainer.
// @Tags Trainer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param clientRequest body AddClientRequest true "Client's email"
// @Success 200 {object} UserResponse "Client successfully added/associated"
// @Failure 400 {object} gin.H "Invalid input (validation error, or invalid trainer ID in token)"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Forbidden (not a trainer, or user is not a client)"
// @Failure 409 {object} gin.H "Client already has another trainer"
// @Failure 404 {object} gin.H "Client not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /trainer/clients [post]
func (h *TrainerHandler) AddClientByEmail(c *gin.Context) {
	var req AddClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	trainerID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	client, err := h.trainerService.AddClientByEmail(c.Request.Context(), trainerID, req.ClientEmail)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClientNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrClientNotRole):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrClientAlreadyAssigned):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithInternalError(c, "Failed to add client.", err)
		}
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(client))
}

// GetManagedClients godoc
// @Summary Get the trainer's managed clients
// @Description Retrieves a list of clients currently managed by the authenticated trainer.
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse "List of managed clients"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Forbidden (not a trainer)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /trainer/clients [get]
func (h *TrainerHandler) GetManagedClients(c *gin.Context) {
	trainerID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	clients, err := h.trainerService.GetManagedClients(c.Request.Context(), trainerID)
	if err != nil {
		abortWithInternalError(c, "Failed to retrieve managed clients.", err)
		return
	}

	c.JSON(http.StatusOK, MapUsersToResponse(clients)) // empty array, never null
}

// MapUsersToResponse converts a slice of domain.User to UserResponse DTOs.
func MapUsersToResponse(users []domain.User) []UserResponse {
	userResponses := make([]UserResponse, len(users))
	for i := range users {
		userResponses[i] = MapUserToResponse(&users[i])
	}
	return userResponses
}

// --- Handler Methods for Client Progress ---

// trainerAndClient resolves the caller and the :clientId path parameter.
func trainerAndClient(c *gin.Context) (trainerID, clientID primitive.ObjectID, ok bool) {
	clientID, err := primitive.ObjectIDFromHex(c.Param("clientId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format in URL path.")
		return trainerID, clientID, false
	}
	trainerID, ok = userObjectIDFromContext(c)
	return trainerID, clientID, ok
}

// GetClientExercises godoc
// @Summary Exercises a managed client has performed
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client's ObjectID Hex"
// @Param search query string false "Name filter"
// @Success 200 {array} progress.ExerciseSummary
// @Failure 403 {object} gin.H "Client not managed by this trainer"
// @Failure 404 {object} gin.H "Client not found"
// @Router /trainer/clients/{clientId}/exercises [get]
func (h *TrainerHandler) GetClientExercises(c *gin.Context) {
	trainerID, clientID, ok := trainerAndClient(c)
	if !ok {
		return
	}

	exercises, err := h.trainerService.ClientExercises(c.Request.Context(), trainerID, clientID, c.Query("search"))
	if err != nil {
		respondProgressError(c, err)
		return
	}
	if exercises == nil {
		exercises = []progress.ExerciseSummary{}
	}
	c.JSON(http.StatusOK, exercises)
}

// GetClientSeries godoc
// @Summary Chart series of a managed client's exercise
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client's ObjectID Hex"
// @Param exerciseKey path string true "Exercise key"
// @Param window query string false "day|week|month|6m|1y (default week)"
// @Param metric query string false "weight|reps|duration (default weight)"
// @Param ref query string false "Reference time, RFC3339 (default now)"
// @Success 200 {object} SeriesResponse
// @Failure 403 {object} gin.H "Client not managed by this trainer"
// @Failure 404 {object} gin.H "Client not found"
// @Router /trainer/clients/{clientId}/exercises/{exerciseKey}/series [get]
func (h *TrainerHandler) GetClientSeries(c *gin.Context) {
	trainerID, clientID, ok := trainerAndClient(c)
	if !ok {
		return
	}
	q, ok := parseSeriesQuery(c, h.now)
	if !ok {
		return
	}

	result, err := h.trainerService.ClientSeries(c.Request.Context(), trainerID, clientID, c.Param("exerciseKey"), q.window, q.metric, q.ref)
	if err != nil {
		respondProgressError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSeriesToResponse(result))
}

// GetClientProgress godoc
// @Summary Goal progress of a managed client's exercise
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client's ObjectID Hex"
// @Param exerciseKey path string true "Exercise key"
// @Success 200 {object} progress.Snapshot
// @Failure 403 {object} gin.H "Client not managed by this trainer"
// @Failure 404 {object} gin.H "Client not found"
// @Router /trainer/clients/{clientId}/exercises/{exerciseKey}/progress [get]
func (h *TrainerHandler) GetClientProgress(c *gin.Context) {
	trainerID, clientID, ok := trainerAndClient(c)
	if !ok {
		return
	}

	snap, err := h.trainerService.ClientSnapshot(c.Request.Context(), trainerID, clientID, c.Param("exerciseKey"))
	if err != nil {
		respondProgressError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
