package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitwell/backend/internal/apperr"
	"fitwell/backend/internal/domain"
	"fitwell/backend/internal/logger"
	"fitwell/backend/internal/service"
)

const testSecret = "api-test-secret"

var testUserID = primitive.NewObjectID()

type stubAuth struct {
	service.AuthService
	register func(name, email, password string) (*domain.User, error)
}

func (s *stubAuth) Register(_ context.Context, name, email, password string) (*domain.User, error) {
	return s.register(name, email, password)
}

type stubMeals struct {
	service.MealPlanService
	generate    func(userID string, in service.GenerateMealPlanInput) (*service.MealPlanResult, error)
	recalculate func(userID string) (*service.MealPlanResult, error)
	getForDate  func(userID string, date time.Time) (*service.DayMealPlan, error)
}

func (s *stubMeals) Generate(_ context.Context, userID string, in service.GenerateMealPlanInput) (*service.MealPlanResult, error) {
	return s.generate(userID, in)
}

func (s *stubMeals) Recalculate(_ context.Context, userID string, _ service.RecalculateMealPlanInput) (*service.MealPlanResult, error) {
	return s.recalculate(userID)
}

func (s *stubMeals) GetForDate(_ context.Context, userID string, date time.Time) (*service.DayMealPlan, error) {
	return s.getForDate(userID, date)
}

type stubWorkouts struct {
	service.WorkoutService
	generateDaily func(in service.GenerateDailyInput) (*service.DailyWorkoutResult, error)
	trackExercise func(workoutID string, day, index int) (*domain.WorkoutTracking, error)
}

func (s *stubWorkouts) GenerateDaily(_ context.Context, _ string, in service.GenerateDailyInput) (*service.DailyWorkoutResult, error) {
	return s.generateDaily(in)
}

func (s *stubWorkouts) TrackExercise(_ context.Context, _ string, workoutID string, day, index int, _ service.TrackWorkoutInput) (*domain.WorkoutTracking, error) {
	return s.trackExercise(workoutID, day, index)
}

type stubHealth struct {
	service.HealthService
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(svc Services) *gin.Engine {
	return NewRouter(testSecret, nil, svc, logger.Nop())
}

func signToken(t *testing.T, userID string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwtClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string, auth bool) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+signToken(t, testUserID.Hex(), time.Hour))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestPing(t *testing.T) {
	rec, body := doRequest(t, newTestRouter(Services{}), http.MethodGet, "/ping", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", body["message"])
}

func TestAuthMiddleware(t *testing.T) {
	router := newTestRouter(Services{Meals: &stubMeals{}})

	rec, body := doRequest(t, router, http.MethodGet, "/api/v1/meals/plan", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "unauthorized", body["error"])

	req := httptest.NewRequest(http.MethodGet, "/api/v1/meals/plan", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testUserID.Hex(), -time.Second))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token has expired")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/meals/plan", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister(t *testing.T) {
	var gotEmail string
	auth := &stubAuth{register: func(name, email, password string) (*domain.User, error) {
		gotEmail = email
		return &domain.User{ID: testUserID, Name: name, Email: email}, nil
	}}
	router := newTestRouter(Services{Auth: auth})

	rec, body := doRequest(t, router, http.MethodPost, "/api/v1/auth/register",
		`{"name":"Ana","email":"ana@example.com","password":"long-enough"}`, false)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ana@example.com", gotEmail)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, testUserID.Hex(), user["id"])
	assert.ElementsMatch(t, []interface{}{"height", "weight", "birth_date", "gender"}, user["missingProfileFields"])

	rec, body = doRequest(t, router, http.MethodPost, "/api/v1/auth/register", `{"email":"ana@example.com"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", body["error"])
}

func TestGenerateMealPlanResponses(t *testing.T) {
	meals := &stubMeals{}
	router := newTestRouter(Services{Meals: meals})

	var gotIn service.GenerateMealPlanInput
	meals.generate = func(userID string, in service.GenerateMealPlanInput) (*service.MealPlanResult, error) {
		assert.Equal(t, testUserID.Hex(), userID)
		gotIn = in
		return &service.MealPlanResult{DailyCalories: 2627, Source: domain.SourceFallback}, nil
	}
	rec, body := doRequest(t, router, http.MethodPost, "/api/v1/meals/plan", "", true)
	require.Equal(t, http.StatusCreated, rec.Code)
	plan := body["plan"].(map[string]interface{})
	assert.Equal(t, float64(2627), plan["dailyCalories"])
	assert.Zero(t, gotIn.Days)

	_, _ = doRequest(t, router, http.MethodPost, "/api/v1/meals/plan", `{"days":3,"forceNew":true}`, true)
	assert.Equal(t, 3, gotIn.Days)
	assert.True(t, gotIn.ForceNew)

	meals.generate = func(string, service.GenerateMealPlanInput) (*service.MealPlanResult, error) {
		return nil, apperr.ActivePlanConflict("meal", 9)
	}
	rec, body = doRequest(t, router, http.MethodPost, "/api/v1/meals/plan", `{}`, true)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "active_plan_exists", body["error"])
	assert.Equal(t, float64(9), body["active_units"])

	meals.generate = func(string, service.GenerateMealPlanInput) (*service.MealPlanResult, error) {
		return nil, apperr.IncompleteProfile([]string{"height", "gender"})
	}
	rec, body = doRequest(t, router, http.MethodPost, "/api/v1/meals/plan", `{}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "incomplete_profile", body["error"])
	assert.Equal(t, []interface{}{"height", "gender"}, body["missing_fields"])

	meals.generate = func(string, service.GenerateMealPlanInput) (*service.MealPlanResult, error) {
		return nil, errors.New("mongo: connection reset")
	}
	rec, body = doRequest(t, router, http.MethodPost, "/api/v1/meals/plan", `{}`, true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", body["error"])
	assert.NotContains(t, body["message"], "mongo")

	rec, _ = doRequest(t, router, http.MethodPost, "/api/v1/meals/plan", `{"days":"three"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecalculateWithoutHistory(t *testing.T) {
	meals := &stubMeals{recalculate: func(string) (*service.MealPlanResult, error) {
		return nil, apperr.InsufficientHistory("meals")
	}}
	rec, body := doRequest(t, newTestRouter(Services{Meals: meals}), http.MethodPost, "/api/v1/meals/plan/recalculate", "", true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "insufficient_history", body["error"])
}

func TestGetMealPlanDateQuery(t *testing.T) {
	var gotDate time.Time
	meals := &stubMeals{getForDate: func(_ string, date time.Time) (*service.DayMealPlan, error) {
		gotDate = date
		return nil, apperr.NoActivePlan("meal")
	}}
	router := newTestRouter(Services{Meals: meals})

	rec, body := doRequest(t, router, http.MethodGet, "/api/v1/meals/plan?date=2024-06-01", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_active_plan", body["error"])
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), gotDate)

	rec, body = doRequest(t, router, http.MethodGet, "/api/v1/meals/plan?date=06/01/2024", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", body["error"])
}

func TestGenerateDailyWorkoutStatus(t *testing.T) {
	created := true
	var gotIn service.GenerateDailyInput
	workouts := &stubWorkouts{generateDaily: func(in service.GenerateDailyInput) (*service.DailyWorkoutResult, error) {
		gotIn = in
		return &service.DailyWorkoutResult{Workout: &domain.Workout{DayNumber: 2}, Created: created}, nil
	}}
	router := newTestRouter(Services{Workouts: workouts})

	rec, body := doRequest(t, router, http.MethodPost, "/api/v1/workouts/daily", "", true)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["created"])

	created = false
	rec, _ = doRequest(t, router, http.MethodPost, "/api/v1/workouts/daily", `{"workoutType":"cardio","fitnessLevel":"advanced"}`, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.LevelAdvanced, gotIn.FitnessLevel)
	assert.Equal(t, "cardio", gotIn.WorkoutType)
}

func TestTrackExercisePathParams(t *testing.T) {
	workouts := &stubWorkouts{trackExercise: func(workoutID string, day, index int) (*domain.WorkoutTracking, error) {
		return &domain.WorkoutTracking{DayIndex: day, Index: index, Completed: true}, nil
	}}
	router := newTestRouter(Services{Workouts: workouts})
	wid := primitive.NewObjectID().Hex()

	rec, body := doRequest(t, router, http.MethodPut, "/api/v1/workouts/"+wid+"/exercises/3?day=2", `{"completed":true}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	tracking := body["tracking"].(map[string]interface{})
	assert.Equal(t, float64(2), tracking["dayIndex"])
	assert.Equal(t, float64(3), tracking["index"])

	rec, _ = doRequest(t, router, http.MethodPut, "/api/v1/workouts/"+wid+"/exercises/first", `{"completed":true}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = doRequest(t, router, http.MethodPut, "/api/v1/workouts/"+wid+"/exercises/-1", `{"completed":true}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHeartRateRequiresSamples(t *testing.T) {
	router := newTestRouter(Services{Health: &stubHealth{}})
	rec, body := doRequest(t, router, http.MethodPost, "/api/v1/health/heart-rate", `{}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", body["error"])
}
