package api

import (
	"alcyxob/workout-progress/internal/domain"
	"alcyxob/workout-progress/internal/metrics"
	"alcyxob/workout-progress/internal/progress"
	"alcyxob/workout-progress/internal/service"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v9"
	"github.com/golang-jwt/jwt/v4"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// ==== fakes ====

type testRequestRateLimiter struct {
	// key to limit map
	Limits map[string]int
}

func (l *testRequestRateLimiter) Allow(_ context.Context, key string, _ redis_rate.Limit) (*redis_rate.Result, error) {
	res := &redis_rate.Result{RetryAfter: 30 * time.Second}
	foundLimit, ok := l.Limits[key]
	if !ok || foundLimit == 0 {
		return res, nil
	}
	res.Allowed = foundLimit
	l.Limits[key]--
	return res, nil
}

type fakeAuthService struct{}

func (fakeAuthService) Register(_ context.Context, name, email, _ string, role domain.Role) (*domain.User, error) {
	if email == "taken@example.com" {
		return nil, service.ErrUserAlreadyExists
	}
	return &domain.User{ID: primitive.NewObjectID(), Name: name, Email: email, Role: role}, nil
}

func (fakeAuthService) Login(_ context.Context, email, password string) (string, *domain.User, error) {
	if password != "correct-horse" {
		return "", nil, service.ErrAuthenticationFailed
	}
	return "token", &domain.User{ID: primitive.NewObjectID(), Email: email, Role: domain.RoleClient}, nil
}

func (fakeAuthService) GetJWTSecret() string { return testSecret }

type fakeWorkoutService struct {
	logged []domain.ExerciseSet
}

func (f *fakeWorkoutService) LogWorkout(_ context.Context, clientID primitive.ObjectID, w domain.Workout, sets []domain.ExerciseSet) (*domain.Workout, []domain.ExerciseSet, error) {
	if len(sets) > 0 && sets[0].ExerciseID == "" {
		return nil, nil, service.ErrInvalidWorkout
	}
	w.ID = primitive.NewObjectID()
	w.ClientID = clientID
	w.SetCount = len(sets)
	f.logged = sets
	return &w, sets, nil
}

func (f *fakeWorkoutService) ListWorkouts(context.Context, primitive.ObjectID) ([]domain.Workout, error) {
	return nil, nil
}

func (f *fakeWorkoutService) GetWorkout(context.Context, primitive.ObjectID, primitive.ObjectID) (*domain.Workout, []domain.ExerciseSet, error) {
	return nil, nil, service.ErrWorkoutNotFound
}

func (f *fakeWorkoutService) ListExercises(context.Context, primitive.ObjectID, string) ([]progress.ExerciseSummary, error) {
	return nil, nil
}

type seriesCall struct {
	userID primitive.ObjectID
	key    string
	window progress.TimeWindow
	metric progress.Metric
	ref    time.Time
}

type fakeProgressService struct {
	lastSeries seriesCall
}

func (f *fakeProgressService) Series(_ context.Context, userID primitive.ObjectID, key string, w progress.TimeWindow, m progress.Metric, ref time.Time) (*service.SeriesResult, error) {
	f.lastSeries = seriesCall{userID, key, w, m, ref}
	max := 25.0
	return &service.SeriesResult{
		ExerciseKey: key,
		Window:      w,
		Metric:      m,
		Reference:   ref,
		Points: []progress.Point{
			{Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Value: 20},
			{Date: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), Value: 25},
		},
		Max:      &max,
		Goal:     30,
		YAxisMax: 40,
	}, nil
}

func (f *fakeProgressService) Snapshot(_ context.Context, _ primitive.ObjectID, key string) (*progress.Snapshot, error) {
	if strings.TrimSpace(key) == "" {
		return nil, service.ErrInvalidExerciseKey
	}
	snap := progress.NewAggregator(progress.MatchByID, time.UTC).Snapshot(nil, key, progress.GoalTarget{Reps: 30})
	return &snap, nil
}

type fakeGoalService struct {
	goals progress.GoalMap
}

func (f *fakeGoalService) Get(_ context.Context, _ primitive.ObjectID, key string) (progress.GoalTarget, error) {
	return f.goals[key], nil
}

func (f *fakeGoalService) Set(_ context.Context, _ primitive.ObjectID, key string, goal progress.GoalTarget) (progress.GoalTarget, error) {
	if goal.HasAny() {
		f.goals[key] = goal
	} else {
		delete(f.goals, key)
	}
	return goal, nil
}

func (f *fakeGoalService) All(context.Context, primitive.ObjectID) (progress.GoalMap, error) {
	return f.goals, nil
}

type fakeTrainerService struct {
	progress *fakeProgressService
	managed  map[primitive.ObjectID]bool
}

func (f *fakeTrainerService) AddClientByEmail(_ context.Context, trainerID primitive.ObjectID, email string) (*domain.User, error) {
	return &domain.User{ID: primitive.NewObjectID(), Email: email, Role: domain.RoleClient, TrainerID: &trainerID}, nil
}

func (f *fakeTrainerService) GetManagedClients(context.Context, primitive.ObjectID) ([]domain.User, error) {
	return nil, nil
}

func (f *fakeTrainerService) ClientSeries(ctx context.Context, _, clientID primitive.ObjectID, key string, w progress.TimeWindow, m progress.Metric, ref time.Time) (*service.SeriesResult, error) {
	if !f.managed[clientID] {
		return nil, service.ErrClientNotManaged
	}
	return f.progress.Series(ctx, clientID, key, w, m, ref)
}

func (f *fakeTrainerService) ClientSnapshot(ctx context.Context, _, clientID primitive.ObjectID, key string) (*progress.Snapshot, error) {
	if !f.managed[clientID] {
		return nil, service.ErrClientNotManaged
	}
	return f.progress.Snapshot(ctx, clientID, key)
}

func (f *fakeTrainerService) ClientExercises(context.Context, primitive.ObjectID, primitive.ObjectID, string) ([]progress.ExerciseSummary, error) {
	return nil, nil
}

// ==== helpers ====

type testServer struct {
	router   *gin.Engine
	metrics  *metrics.Manager
	workouts *fakeWorkoutService
	progress *fakeProgressService
	goals    *fakeGoalService
	trainer  *fakeTrainerService
}

func newTestServer(t *testing.T, limiter RequestRateLimiter) *testServer {
	t.Helper()

	m, reg := metrics.NewTestManagerAndRegistry()
	ps := &fakeProgressService{}
	ts := &testServer{
		router:   gin.New(),
		metrics:  m,
		workouts: &fakeWorkoutService{},
		progress: ps,
		goals:    &fakeGoalService{goals: progress.GoalMap{}},
		trainer:  &fakeTrainerService{progress: ps, managed: map[primitive.ObjectID]bool{}},
	}

	deps := RouterDeps{
		JWTSecret:          testSecret,
		AuthService:        fakeAuthService{},
		WorkoutService:     ts.workouts,
		ProgressService:    ts.progress,
		GoalService:        ts.goals,
		TrainerService:     ts.trainer,
		Metrics:            m,
		Gatherer:           reg,
		AuthLimitPerMinute: 5,
	}
	if limiter != nil {
		deps.RateLimiter = limiter
	}
	SetupRoutes(ts.router, deps)
	return ts
}

func tokenFor(t *testing.T, userID primitive.ObjectID, role domain.Role, ttl time.Duration) string {
	t.Helper()
	claims := &jwtClaims{
		UserID: userID.Hex(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (ts *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	return rr
}

// ==== tests ====

func TestPingAndMetrics(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(http.MethodGet, "/ping", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(HeaderRequestID))

	rr = ts.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `progress_test_server_request{method="GET",route="/ping",status="200"} 1`)
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(t, nil)
	userID := primitive.NewObjectID()

	rr := ts.do(http.MethodGet, "/api/v1/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.do(http.MethodGet, "/api/v1/me", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.do(http.MethodGet, "/api/v1/me", tokenFor(t, userID, domain.RoleClient, -time.Minute), "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "expired")

	rr = ts.do(http.MethodGet, "/api/v1/me", tokenFor(t, userID, domain.RoleClient, time.Hour), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"userId":"`+userID.Hex()+`","role":"client"}`, rr.Body.String())
}

func TestRoleMiddleware(t *testing.T) {
	ts := newTestServer(t, nil)
	trainer := tokenFor(t, primitive.NewObjectID(), domain.RoleTrainer, time.Hour)
	client := tokenFor(t, primitive.NewObjectID(), domain.RoleClient, time.Hour)

	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodGet, "/api/v1/workouts", trainer, "").Code)
	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodGet, "/api/v1/trainer/clients", client, "").Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/v1/trainer/clients", trainer, "").Code)
}

func TestAuthRateLimit(t *testing.T) {
	limiter := &testRequestRateLimiter{Limits: map[string]int{"auth:192.0.2.1": 2}}
	ts := newTestServer(t, limiter)
	body := `{"email":"sam@example.com","password":"correct-horse"}`

	assert.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/v1/auth/login", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodPost, "/api/v1/auth/login", "", `{"email":"sam@example.com","password":"nope"}`).Code)

	rr := ts.do(http.MethodPost, "/api/v1/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "30", rr.Header().Get("Retry-After"))
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(http.MethodPost, "/api/v1/auth/register", "", `{"name":"Sam","email":"sam@example.com","password":"longenough","role":"client"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var user UserResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &user))
	assert.Equal(t, domain.RoleClient, user.Role)

	rr = ts.do(http.MethodPost, "/api/v1/auth/register", "", `{"name":"Sam","email":"taken@example.com","password":"longenough","role":"client"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = ts.do(http.MethodPost, "/api/v1/auth/register", "", `{"name":"Sam","email":"sam@example.com","password":"short","role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogWorkout(t *testing.T) {
	ts := newTestServer(t, nil)
	token := tokenFor(t, primitive.NewObjectID(), domain.RoleClient, time.Hour)

	body := `{"name":"Push day","completedAt":"2025-01-03T09:00:00Z","sets":[{"exerciseId":"pushups","exerciseName":"Pushups","reps":25}]}`
	rr := ts.do(http.MethodPost, "/api/v1/workouts", token, body)
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp WorkoutResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.SetCount)
	require.Len(t, resp.Sets, 1)
	assert.Equal(t, 25, *resp.Sets[0].Reps)
	require.Len(t, ts.workouts.logged, 1)
	assert.Equal(t, 25, *ts.workouts.logged[0].RepsCompleted)

	rr = ts.do(http.MethodPost, "/api/v1/workouts", token, `{"name":"Push day","sets":[{"exerciseName":"Pushups"}]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(http.MethodPost, "/api/v1/workouts", token, `{"name":"Push day","sets":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(http.MethodGet, "/api/v1/workouts/"+primitive.NewObjectID().Hex(), token, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(http.MethodGet, "/api/v1/workouts", token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestSeries(t *testing.T) {
	ts := newTestServer(t, nil)
	userID := primitive.NewObjectID()
	token := tokenFor(t, userID, domain.RoleClient, time.Hour)

	rr := ts.do(http.MethodGet, "/api/v1/exercises/pushups/series?window=1y&metric=reps&ref=2025-01-15T12:00:00Z", token, "")
	require.Equal(t, http.StatusOK, rr.Code)

	call := ts.progress.lastSeries
	assert.Equal(t, userID, call.userID)
	assert.Equal(t, "pushups", call.key)
	assert.Equal(t, progress.WindowYear, call.window)
	assert.Equal(t, progress.MetricReps, call.metric)
	assert.True(t, call.ref.Equal(time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)))

	var resp SeriesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "1y", resp.Window)
	require.Len(t, resp.Points, 2)
	assert.Equal(t, 25.0, resp.Points[1].Value)
	assert.Equal(t, 40.0, resp.YAxisMax)

	// defaults
	rr = ts.do(http.MethodGet, "/api/v1/exercises/pushups/series", token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, progress.WindowWeek, ts.progress.lastSeries.window)
	assert.Equal(t, progress.MetricWeight, ts.progress.lastSeries.metric)

	tests := []struct {
		name  string
		query string
	}{
		{"bad window", "window=fortnight"},
		{"bad metric", "metric=calories"},
		{"bad ref", "ref=yesterday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(http.MethodGet, "/api/v1/exercises/pushups/series?"+tt.query, token, "")
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestProgress(t *testing.T) {
	ts := newTestServer(t, nil)
	token := tokenFor(t, primitive.NewObjectID(), domain.RoleClient, time.Hour)

	rr := ts.do(http.MethodGet, "/api/v1/exercises/pushups/progress", token, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var snap progress.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.True(t, snap.HasAnyGoal)
	assert.Equal(t, 30.0, snap.Reps.Goal)
	assert.Equal(t, 0, snap.Reps.Percentage)
	assert.Nil(t, snap.Reps.CurrentMax)

	rr = ts.do(http.MethodGet, "/api/v1/exercises/%20/progress", token, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGoals(t *testing.T) {
	ts := newTestServer(t, nil)
	token := tokenFor(t, primitive.NewObjectID(), domain.RoleClient, time.Hour)

	rr := ts.do(http.MethodGet, "/api/v1/exercises/pushups/goals", token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"exerciseKey":"pushups","goal":{"weight":0,"reps":0,"duration":0},"hasAnyGoal":false,"state":"no-goal"}`, rr.Body.String())

	rr = ts.do(http.MethodPut, "/api/v1/exercises/pushups/goals", token, `{"reps":30}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"exerciseKey":"pushups","goal":{"weight":0,"reps":30,"duration":0},"hasAnyGoal":true,"state":"goal-set"}`, rr.Body.String())

	rr = ts.do(http.MethodPut, "/api/v1/exercises/pushups/goals", token, `{"reps":-3}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(http.MethodGet, "/api/v1/goals", token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"pushups":{"weight":0,"reps":30,"duration":0}}`, rr.Body.String())
}

func TestTrainerClientProgress(t *testing.T) {
	ts := newTestServer(t, nil)
	token := tokenFor(t, primitive.NewObjectID(), domain.RoleTrainer, time.Hour)
	managed, stranger := primitive.NewObjectID(), primitive.NewObjectID()
	ts.trainer.managed[managed] = true

	rr := ts.do(http.MethodGet, "/api/v1/trainer/clients/"+managed.Hex()+"/exercises/pushups/series?window=month&metric=reps", token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, managed, ts.progress.lastSeries.userID)

	rr = ts.do(http.MethodGet, "/api/v1/trainer/clients/"+managed.Hex()+"/exercises/pushups/progress", token, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.do(http.MethodGet, "/api/v1/trainer/clients/"+stranger.Hex()+"/exercises/pushups/progress", token, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.do(http.MethodGet, "/api/v1/trainer/clients/not-an-id/exercises/pushups/progress", token, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(http.MethodGet, "/api/v1/trainer/clients/"+managed.Hex()+"/exercises", token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestPanicRecovery(t *testing.T) {
	m := metrics.NewTestManager()
	router := gin.New()
	router.Use(PanicRecovery(m))
	router.GET("/boom", func(*gin.Context) { panic("YOLO") })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, 1.0, counterValue(t, m.CounterHandleRequestPanic))
}

func TestPanicRecovery_RequestStillObserved(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.router.GET("/boom", func(*gin.Context) { panic("YOLO") })

	rr := ts.do(http.MethodGet, "/boom", "", "")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(HeaderRequestID))
	assert.Equal(t, 1.0, counterValue(t, ts.metrics.CounterHandleRequestPanic))
	assert.Equal(t, 1.0, counterValue(t, ts.metrics.CounterRequests.WithLabelValues(http.MethodGet, "/boom", "500")))

	gauge := &dto.Metric{}
	require.NoError(t, ts.metrics.GaugeRequests.Write(gauge))
	assert.Equal(t, 0.0, gauge.GetGauge().GetValue(), "in-flight gauge is released")
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}
