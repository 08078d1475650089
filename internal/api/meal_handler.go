package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fitwell/backend/internal/logger"
	"fitwell/backend/internal/service"
)

type MealHandler struct {
	meals service.MealPlanService
	log   *logger.Logger
	now   func() time.Time
}

func NewMealHandler(meals service.MealPlanService, log *logger.Logger) *MealHandler {
	return &MealHandler{meals: meals, log: log, now: time.Now}
}

// GeneratePlan godoc
// @Summary Generate a meal plan
// @Description Builds a plan starting today. Fails with active_plan_exists when
// @Description meals from today on exist, unless forceNew is set.
// @Tags Meals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.GenerateMealPlanInput false "Plan options"
// @Success 201 {object} service.MealPlanResult
// @Failure 400 {object} gin.H "Invalid input or incomplete profile"
// @Failure 409 {object} gin.H "A plan is already active"
// @Router /meals/plan [post]
func (h *MealHandler) GeneratePlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req service.GenerateMealPlanInput
	if err := bindJSON(c, &req, true); err != nil {
		respondError(c, h.log, err)
		return
	}
	plan, err := h.meals.Generate(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"plan": plan})
}

// RecalculatePlan godoc
// @Summary Recalculate the active meal plan
// @Description Adjusts the calorie target from the intake tracked over the last days and replaces the remaining plan.
// @Tags Meals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.RecalculateMealPlanInput false "Plan options"
// @Success 201 {object} service.MealPlanResult
// @Failure 400 {object} gin.H "Invalid input or incomplete profile"
// @Failure 404 {object} gin.H "No active plan"
// @Failure 422 {object} gin.H "No tracked intake to learn from"
// @Router /meals/plan/recalculate [post]
func (h *MealHandler) RecalculatePlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req service.RecalculateMealPlanInput
	if err := bindJSON(c, &req, true); err != nil {
		respondError(c, h.log, err)
		return
	}
	plan, err := h.meals.Recalculate(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"plan": plan})
}

// GetPlan godoc
// @Summary Meal plan for one day
// @Tags Meals
// @Produce json
// @Security BearerAuth
// @Param date query string false "Day as YYYY-MM-DD (default today)"
// @Success 200 {object} service.DayMealPlan
// @Failure 400 {object} gin.H "Invalid date"
// @Failure 404 {object} gin.H "No plan for that day"
// @Router /meals/plan [get]
func (h *MealHandler) GetPlan(c *gin.Context) {
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
	day, err := h.meals.GetForDate(c.Request.Context(), userID, date)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"plan": day})
}

// GetActivePlan godoc
// @Summary Summary of the active meal plan
// @Tags Meals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.ActivePlanInfo
// @Failure 404 {object} gin.H "No active plan"
// @Router /meals/plan/active [get]
func (h *MealHandler) GetActivePlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	info, err := h.meals.ActivePlan(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"activePlan": info})
}

// TrackItem godoc
// @Summary Track a meal item
// @Description Records that an item was eaten (optionally partly) or skipped. The latest event wins.
// @Tags Meals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param itemId path string true "Meal item ID"
// @Param tracking body service.TrackItemInput true "Tracking state"
// @Success 201 {object} domain.MealItemTracking
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Meal item not found"
// @Router /meals/items/{itemId}/track [post]
func (h *MealHandler) TrackItem(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req service.TrackItemInput
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, h.log, err)
		return
	}
	rec, err := h.meals.TrackItem(c.Request.Context(), userID, c.Param("itemId"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"tracking": rec})
}

// ItemImage godoc
// @Summary Image URL for a meal item
// @Description Renders the item card when needed and returns a temporary URL.
// @Tags Meals
// @Produce json
// @Security BearerAuth
// @Param itemId path string true "Meal item ID"
// @Success 200 {object} gin.H "imageUrl"
// @Failure 404 {object} gin.H "Meal item not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /meals/items/{itemId}/image [post]
func (h *MealHandler) ItemImage(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	url, err := h.meals.GenerateItemImage(c.Request.Context(), userID, c.Param("itemId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"imageUrl": url})
}

// DailyNutrition godoc
// @Summary Planned versus consumed nutrition for one day
// @Tags Meals
// @Produce json
// @Security BearerAuth
// @Param date query string false "Day as YYYY-MM-DD (default today)"
// @Success 200 {object} service.DailyNutrition
// @Failure 404 {object} gin.H "No plan for that day"
// @Router /meals/nutrition/daily [get]
func (h *MealHandler) DailyNutrition(c *gin.Context) {
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
	summary, err := h.meals.DailyNutrition(c.Request.Context(), userID, date)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"nutrition": summary})
}
