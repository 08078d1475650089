package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fitwell/backend/internal/logger"
	"fitwell/backend/internal/service"
)

type HealthHandler struct {
	health service.HealthService
	log    *logger.Logger
	now    func() time.Time
}

func NewHealthHandler(health service.HealthService, log *logger.Logger) *HealthHandler {
	return &HealthHandler{health: health, log: log, now: time.Now}
}

type heartRateRequest struct {
	Samples []service.HeartRateInput `json:"samples" binding:"required"`
}

// RecordDaily godoc
// @Summary Record daily activity
// @Description Upserts the day's steps, active minutes and calories. Calories are estimated from steps when omitted.
// @Tags Health
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param data body service.HealthDataInput true "Daily activity"
// @Success 200 {object} domain.HealthData
// @Failure 400 {object} gin.H "Invalid input"
// @Router /health/daily [post]
func (h *HealthHandler) RecordDaily(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req service.HealthDataInput
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, h.log, err)
		return
	}
	rec, err := h.health.RecordDaily(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"data": rec})
}

// ListDaily godoc
// @Summary Daily activity rows
// @Tags Health
// @Produce json
// @Security BearerAuth
// @Param days query int false "Window length in days (default 7, max 90)"
// @Success 200 {object} gin.H "data and count"
// @Router /health/daily [get]
func (h *HealthHandler) ListDaily(c *gin.Context) {
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
	rows, err := h.health.ListDaily(c.Request.Context(), userID, days)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"data": rows, "count": len(rows)})
}

// Sync godoc
// @Summary Bulk device sync
// @Description Stores a batch exported from a device. Nothing is written when any entry is invalid.
// @Tags Health
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param batch body service.SyncInput true "Device export"
// @Success 200 {object} service.SyncResult
// @Failure 400 {object} gin.H "Invalid entry"
// @Router /health/sync [post]
func (h *HealthHandler) Sync(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req service.SyncInput
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, h.log, err)
		return
	}
	res, err := h.health.Sync(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"synced": res})
}

// AddHeartRate godoc
// @Summary Store heart-rate samples
// @Tags Health
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param samples body heartRateRequest true "Samples"
// @Success 201 {object} gin.H "inserted"
// @Failure 400 {object} gin.H "Invalid input"
// @Router /health/heart-rate [post]
func (h *HealthHandler) AddHeartRate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req heartRateRequest
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, h.log, err)
		return
	}
	n, err := h.health.AddHeartRate(c.Request.Context(), userID, req.Samples)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"inserted": n})
}

// AddSleep godoc
// @Summary Record a night of sleep
// @Tags Health
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sleep body service.SleepInput true "Sleep record"
// @Success 200 {object} domain.SleepRecord
// @Failure 400 {object} gin.H "Invalid input"
// @Router /health/sleep [post]
func (h *HealthHandler) AddSleep(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req service.SleepInput
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, h.log, err)
		return
	}
	rec, err := h.health.AddSleep(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"sleep": rec})
}

// SaveWater godoc
// @Summary Set the day's water intake
// @Tags Health
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param water body service.WaterInput true "Water intake"
// @Success 200 {object} domain.WaterIntake
// @Failure 400 {object} gin.H "Invalid input"
// @Router /health/water [put]
func (h *HealthHandler) SaveWater(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req service.WaterInput
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, h.log, err)
		return
	}
	rec, err := h.health.SaveWater(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"water": rec})
}

// GetWater godoc
// @Summary Water intake for one day
// @Tags Health
// @Produce json
// @Security BearerAuth
// @Param date query string false "Day as YYYY-MM-DD (default today)"
// @Success 200 {object} domain.WaterIntake
// @Router /health/water [get]
func (h *HealthHandler) GetWater(c *gin.Context) {
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
	rec, err := h.health.GetWater(c.Request.Context(), userID, date)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"water": rec})
}

// Analytics godoc
// @Summary Health analytics over a trailing window
// @Tags Health
// @Produce json
// @Security BearerAuth
// @Param days query int false "Window length in days (default 7, max 90)"
// @Success 200 {object} service.HealthReport
// @Router /health/analytics [get]
func (h *HealthHandler) Analytics(c *gin.Context) {
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
	report, err := h.health.Analytics(c.Request.Context(), userID, days)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"analytics": report})
}

// Insights godoc
// @Summary Plain-language health insights
// @Tags Health
// @Produce json
// @Security BearerAuth
// @Param days query int false "Window length in days (default 7, max 90)"
// @Success 200 {object} gin.H "insights"
// @Router /health/insights [get]
func (h *HealthHandler) Insights(c *gin.Context) {
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
	insights, err := h.health.Insights(c.Request.Context(), userID, days)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"insights": insights})
}
