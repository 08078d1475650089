package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fitwell/backend/internal/logger"
	"fitwell/backend/internal/service"
)

type WorkoutHandler struct {
	workouts service.WorkoutService
	log      *logger.Logger
	now      func() time.Time
}

func NewWorkoutHandler(workouts service.WorkoutService, log *logger.Logger) *WorkoutHandler {
	return &WorkoutHandler{workouts: workouts, log: log, now: time.Now}
}

// GenerateDaily godoc
// @Summary Get or create today's workout
// @Description The target difficulty follows the feedback on the previous day.
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} service.DailyWorkoutResult "Workout created"
// @Success 200 {object} service.DailyWorkoutResult "Workout for today already existed"
// @Router /workouts/daily [post]
func (h *WorkoutHandler) GenerateDaily(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req service.GenerateDailyInput
	if err := bindJSON(c, &req, true); err != nil {
		respondError(c, h.log, err)
		return
	}
	res, err := h.workouts.GenerateDaily(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	respondOK(c, status, gin.H{
		"workout":       res.Workout,
		"created":       res.Created,
		"feedbackState": res.FeedbackState,
	})
}

// GetDaily godoc
// @Summary Daily workout with its tracking
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param date query string false "Day as YYYY-MM-DD (default today)"
// @Success 200 {object} service.WorkoutDetail
// @Failure 404 {object} gin.H "No workout for that day"
// @Router /workouts/daily [get]
func (h *WorkoutHandler) GetDaily(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	date, err := queryDate(c, "date", h.now)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	detail, err := h.workouts.GetDaily(c.Request.Context(), userID, date)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"workout": detail.Workout, "tracking": detail.Tracking})
}

// GenerateProgram godoc
// @Summary Generate a multi-day workout program
// @Description An unfinished program blocks a new one unless forceNew is set.
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.GenerateProgramInput false "Program options"
// @Success 201 {object} domain.Workout
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 409 {object} gin.H "A program is already active"
// @Router /workouts/program [post]
func (h *WorkoutHandler) GenerateProgram(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req service.GenerateProgramInput
	if err := bindJSON(c, &req, true); err != nil {
		respondError(c, h.log, err)
		return
	}
	w, err := h.workouts.GenerateProgram(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"workout": w})
}

// TrackExercise godoc
// @Summary Track one exercise
// @Description Idempotent per exercise. The training day defaults to the first one; programs pass day.
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workoutId path string true "Workout ID"
// @Param index path int true "Exercise index within the day"
// @Param day query int false "Training day index (default 0)"
// @Param tracking body service.TrackWorkoutInput true "Tracking state"
// @Success 200 {object} domain.WorkoutTracking
// @Failure 400 {object} gin.H "Invalid index or input"
// @Failure 404 {object} gin.H "Workout not found"
// @Router /workouts/{workoutId}/exercises/{index} [put]
func (h *WorkoutHandler) TrackExercise(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	index, err := pathInt(c, "index")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	day, err := queryInt(c, "day")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req service.TrackWorkoutInput
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, h.log, err)
		return
	}
	rec, err := h.workouts.TrackExercise(c.Request.Context(), userID, c.Param("workoutId"), day, index, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"tracking": rec})
}

// TrackDay godoc
// @Summary Track a whole training day
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workoutId path string true "Workout ID"
// @Param index path int true "Training day index"
// @Param tracking body service.TrackWorkoutInput true "Tracking state"
// @Success 200 {object} domain.WorkoutTracking
// @Failure 400 {object} gin.H "Invalid index or input"
// @Failure 404 {object} gin.H "Workout not found"
// @Router /workouts/{workoutId}/days/{index} [put]
func (h *WorkoutHandler) TrackDay(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	index, err := pathInt(c, "index")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req service.TrackWorkoutInput
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, h.log, err)
		return
	}
	rec, err := h.workouts.TrackDay(c.Request.Context(), userID, c.Param("workoutId"), index, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"tracking": rec})
}

// Complete godoc
// @Summary Complete a workout with feedback
// @Description The rating drives the difficulty of the next daily workout.
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workoutId path string true "Workout ID"
// @Param feedback body service.CompleteWorkoutInput true "Rating and notes"
// @Success 200 {object} domain.Workout
// @Failure 400 {object} gin.H "Invalid rating"
// @Failure 404 {object} gin.H "Workout not found"
// @Router /workouts/{workoutId}/complete [post]
func (h *WorkoutHandler) Complete(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req service.CompleteWorkoutInput
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, h.log, err)
		return
	}
	w, err := h.workouts.Complete(c.Request.Context(), userID, c.Param("workoutId"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"workout": w})
}

// History godoc
// @Summary Past workouts
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param days query int false "Only workouts from the last N days"
// @Success 200 {object} gin.H "workouts and count"
// @Router /workouts/history [get]
func (h *WorkoutHandler) History(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	days, err := queryInt(c, "days")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	workouts, err := h.workouts.History(c.Request.Context(), userID, days)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"workouts": workouts, "count": len(workouts)})
}
