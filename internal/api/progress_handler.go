package api

import (
	"alcyxob/workout-progress/internal/progress"
	"alcyxob/workout-progress/internal/service"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type ProgressHandler struct {
	progressService service.ProgressService
	now             func() time.Time
}

func NewProgressHandler(progressService service.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
		now:             time.Now,
	}
}

// --- DTOs ---

type SeriesResponse struct {
	ExerciseKey string           `json:"exerciseKey"`
	Window      string           `json:"window"`
	Metric      progress.Metric  `json:"metric"`
	Reference   time.Time        `json:"reference"`
	Points      []progress.Point `json:"points"`
	Ticks       []time.Time      `json:"ticks"`
	Max         *float64         `json:"max"`
	Goal        float64          `json:"goal"`
	YAxisMax    float64          `json:"yAxisMax"`
}

func MapSeriesToResponse(r *service.SeriesResult) SeriesResponse {
	if r == nil {
		return SeriesResponse{}
	}
	return SeriesResponse{
		ExerciseKey: r.ExerciseKey,
		Window:      r.Window.String(),
		Metric:      r.Metric,
		Reference:   r.Reference,
		Points:      r.Points,
		Ticks:       r.Ticks,
		Max:         r.Max,
		Goal:        r.Goal,
		YAxisMax:    r.YAxisMax,
	}
}

// seriesQuery holds the parsed ?window=&metric=&ref= parameters.
type seriesQuery struct {
	window progress.TimeWindow
	metric progress.Metric
	ref    time.Time
}

// parseSeriesQuery defaults to the week window, the weight metric and now.
func parseSeriesQuery(c *gin.Context, now func() time.Time) (seriesQuery, bool) {
	q := seriesQuery{window: progress.WindowWeek, metric: progress.MetricWeight, ref: now()}

	if raw := c.Query("window"); raw != "" {
		w, err := progress.ParseTimeWindow(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return q, false
		}
		q.window = w
	}
	if raw := c.Query("metric"); raw != "" {
		m, err := progress.ParseMetric(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return q, false
		}
		q.metric = m
	}
	if raw := c.Query("ref"); raw != "" {
		ref, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "ref must be an RFC3339 timestamp")
			return q, false
		}
		q.ref = ref
	}
	return q, true
}

// respondProgressError maps progress and trainer errors shared by client and trainer routes.
func respondProgressError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidExerciseKey):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrClientNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrClientNotManaged):
		abortWithError(c, http.StatusForbidden, err.Error())
	default:
		abortWithInternalError(c, "Failed to compute progress.", err)
	}
}

// --- Handler Methods ---

// Series godoc
// @Summary Chart series for one exercise
// @Description Points inside the window in ascending date order, axis ticks, all-time max, goal and y-axis bound.
// @Tags Progress
// @Produce json
// @Security BearerAuth
// @Param exerciseKey path string true "Exercise ID or name, depending on progress.match_key"
// @Param window query string false "day|week|month|6m|1y (default week)"
// @Param metric query string false "weight|reps|duration (default weight)"
// @Param ref query string false "Reference time, RFC3339 (default now)"
// @Success 200 {object} SeriesResponse
// @Failure 400 {object} gin.H "Invalid window, metric or ref"
// @Router /exercises/{exerciseKey}/series [get]
func (h *ProgressHandler) Series(c *gin.Context) {
	userID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}
	q, ok := parseSeriesQuery(c, h.now)
	if !ok {
		return
	}

	result, err := h.progressService.Series(c.Request.Context(), userID, c.Param("exerciseKey"), q.window, q.metric, q.ref)
	if err != nil {
		respondProgressError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSeriesToResponse(result))
}

// Progress godoc
// @Summary Goal progress gauges for one exercise
// @Tags Progress
// @Produce json
// @Security BearerAuth
// @Param exerciseKey path string true "Exercise ID or name, depending on progress.match_key"
// @Success 200 {object} progress.Snapshot
// @Router /exercises/{exerciseKey}/progress [get]
func (h *ProgressHandler) Progress(c *gin.Context) {
	userID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	snap, err := h.progressService.Snapshot(c.Request.Context(), userID, c.Param("exerciseKey"))
	if err != nil {
		respondProgressError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
