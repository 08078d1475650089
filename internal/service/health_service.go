package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitwell/backend/internal/analytics"
	"fitwell/backend/internal/apperr"
	"fitwell/backend/internal/calorie"
	"fitwell/backend/internal/domain"
	"fitwell/backend/internal/logger"
	"fitwell/backend/internal/repository"
)

const (
	// DailyStepGoal is the step count used for goal predictions.
	DailyStepGoal = 10000

	minBPM          = 25
	maxBPM          = 250
	maxSleepHours   = 24
	maxWaterL       = 15
	maxAnalysisDays = 90
)

type HealthDataInput struct {
	Date           string   `json:"date"`
	Steps          int      `json:"steps"`
	CaloriesBurned *float64 `json:"caloriesBurned"`
	DistanceKm     float64  `json:"distanceKm"`
	ActiveMinutes  int      `json:"activeMinutes"`
}

type HeartRateInput struct {
	Timestamp time.Time `json:"timestamp"`
	BPM       int       `json:"bpm"`
}

type SleepInput struct {
	Date    string              `json:"date"`
	Hours   float64             `json:"hours"`
	Quality domain.SleepQuality `json:"quality"`
}

type WaterInput struct {
	Date    string  `json:"date"`
	AmountL float64 `json:"amountL"`
	GoalL   float64 `json:"goalL"`
}

// SyncInput is a bulk upload from a device.
type SyncInput struct {
	Daily     []HealthDataInput `json:"daily"`
	HeartRate []HeartRateInput  `json:"heartRate"`
	Sleep     []SleepInput      `json:"sleep"`
}

type SyncResult struct {
	DailyRecords     int `json:"dailyRecords"`
	HeartRateSamples int `json:"heartRateSamples"`
	SleepRecords     int `json:"sleepRecords"`
}

type ActivityReport struct {
	Days             int             `json:"days"`
	TotalSteps       int             `json:"totalSteps"`
	AverageSteps     float64         `json:"averageSteps"`
	AverageCalories  float64         `json:"averageCaloriesBurned"`
	AverageActiveMin float64         `json:"averageActiveMinutes"`
	StepsTrend       analytics.Trend `json:"stepsTrend"`
	CaloriesTrend    analytics.Trend `json:"caloriesTrend"`
	StepGoal         int             `json:"stepGoal"`
	StepGoalChance   float64         `json:"stepGoalProbability"`
}

type HeartRateReport struct {
	Samples   int             `json:"samples"`
	Average   float64         `json:"average"`
	Min       int             `json:"min"`
	Max       int             `json:"max"`
	Zone      *analytics.Zone `json:"zone,omitempty"`
	InZonePct float64         `json:"inZonePct"`
}

type SleepReport struct {
	Nights       int                 `json:"nights"`
	AverageHours float64             `json:"averageHours"`
	Quality      domain.SleepQuality `json:"quality,omitempty"`
}

type HealthReport struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Activity  ActivityReport  `json:"activity"`
	HeartRate HeartRateReport `json:"heartRate"`
	Sleep     SleepReport     `json:"sleep"`
}

type HealthService interface {
	RecordDaily(ctx context.Context, userID string, in HealthDataInput) (*domain.HealthData, error)
	Sync(ctx context.Context, userID string, in SyncInput) (*SyncResult, error)
	ListDaily(ctx context.Context, userID string, days int) ([]domain.HealthData, error)
	AddHeartRate(ctx context.Context, userID string, samples []HeartRateInput) (int, error)
	AddSleep(ctx context.Context, userID string, in SleepInput) (*domain.SleepRecord, error)
	SaveWater(ctx context.Context, userID string, in WaterInput) (*domain.WaterIntake, error)
	GetWater(ctx context.Context, userID string, date time.Time) (*domain.WaterIntake, error)
	Analytics(ctx context.Context, userID string, days int) (*HealthReport, error)
	Insights(ctx context.Context, userID string, days int) ([]string, error)
}

type healthService struct {
	users  repository.UserRepository
	health repository.HealthRepository
	log    *logger.Logger
	now    Clock
}

func NewHealthService(users repository.UserRepository, health repository.HealthRepository, log *logger.Logger) HealthService {
	return &healthService{users: users, health: health, log: log, now: systemClock}
}

func (s *healthService) today() time.Time { return domain.DateOnly(s.now()) }

// dateOrToday parses a YYYY-MM-DD date, defaulting to today. Future dates are
// rejected.
func (s *healthService) dateOrToday(raw string) (time.Time, error) {
	if raw == "" {
		return s.today(), nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperr.Validation("date must use the %s format", domain.DateLayout)
	}
	if d.After(s.today()) {
		return time.Time{}, apperr.Validation("date cannot be in the future")
	}
	return d, nil
}

func (s *healthService) windowStart(days int) (time.Time, int, error) {
	if days <= 0 {
		days = 7
	}
	if days > maxAnalysisDays {
		return time.Time{}, 0, apperr.Validation("days must be at most %d", maxAnalysisDays)
	}
	return domain.AddDays(s.today(), -(days - 1)), days, nil
}

func (s *healthService) RecordDaily(ctx context.Context, userID string, in HealthDataInput) (*domain.HealthData, error) {
	user, err := loadUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	d, err := s.dailyRecord(user, in)
	if err != nil {
		return nil, err
	}
	if err := s.health.UpsertDaily(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *healthService) dailyRecord(user *domain.User, in HealthDataInput) (*domain.HealthData, error) {
	date, err := s.dateOrToday(in.Date)
	if err != nil {
		return nil, err
	}
	if in.Steps < 0 || in.DistanceKm < 0 || in.ActiveMinutes < 0 {
		return nil, apperr.Validation("activity values cannot be negative")
	}
	if in.ActiveMinutes > 24*60 {
		return nil, apperr.Validation("activeMinutes cannot exceed a day")
	}

	var kcal float64
	switch {
	case in.CaloriesBurned != nil:
		if *in.CaloriesBurned < 0 {
			return nil, apperr.Validation("caloriesBurned cannot be negative")
		}
		kcal = *in.CaloriesBurned
	case user.Profile.WeightKg > 0:
		age := 0
		if user.Profile.BirthDate != nil {
			age = calorie.AgeOn(*user.Profile.BirthDate, date)
		}
		kcal = analytics.CaloriesBurned(in.Steps, user.Profile.WeightKg, age, user.Profile.Gender)
	}

	return &domain.HealthData{
		UserID:         user.ID,
		Date:           date,
		Steps:          in.Steps,
		CaloriesBurned: kcal,
		DistanceKm:     in.DistanceKm,
		ActiveMinutes:  in.ActiveMinutes,
		UpdatedAt:      s.now().UTC(),
	}, nil
}

// Sync validates the whole upload before writing any of it.
func (s *healthService) Sync(ctx context.Context, userID string, in SyncInput) (*SyncResult, error) {
	user, err := loadUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}

	daily := make([]*domain.HealthData, 0, len(in.Daily))
	for i, d := range in.Daily {
		rec, err := s.dailyRecord(user, d)
		if err != nil {
			return nil, fmt.Errorf("daily[%d]: %w", i, err)
		}
		daily = append(daily, rec)
	}
	samples, err := heartRateSamples(user.ID, in.HeartRate)
	if err != nil {
		return nil, err
	}
	sleep := make([]*domain.SleepRecord, 0, len(in.Sleep))
	for i, sl := range in.Sleep {
		rec, err := s.sleepRecord(user.ID, sl)
		if err != nil {
			return nil, fmt.Errorf("sleep[%d]: %w", i, err)
		}
		sleep = append(sleep, rec)
	}

	res := &SyncResult{}
	for _, d := range daily {
		if err := s.health.UpsertDaily(ctx, d); err != nil {
			return res, err
		}
		res.DailyRecords++
	}
	if len(samples) > 0 {
		n, err := s.health.InsertHeartRate(ctx, samples)
		res.HeartRateSamples = n
		if err != nil {
			return res, err
		}
	}
	for _, rec := range sleep {
		if err := s.health.UpsertSleep(ctx, rec); err != nil {
			return res, err
		}
		res.SleepRecords++
	}
	s.log.Info("Synced health data", "user_id", user.ID.Hex(),
		"daily", res.DailyRecords, "heart_rate", res.HeartRateSamples, "sleep", res.SleepRecords)
	return res, nil
}

func (s *healthService) ListDaily(ctx context.Context, userID string, days int) ([]domain.HealthData, error) {
	uid, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	from, _, err := s.windowStart(days)
	if err != nil {
		return nil, err
	}
	return s.health.ListDaily(ctx, uid, from)
}

func heartRateSamples(userID primitive.ObjectID, in []HeartRateInput) ([]domain.HeartRateSample, error) {
	out := make([]domain.HeartRateSample, 0, len(in))
	for i, hr := range in {
		if hr.Timestamp.IsZero() {
			return nil, apperr.Validation("heartRate[%d]: timestamp is required", i)
		}
		if hr.BPM < minBPM || hr.BPM > maxBPM {
			return nil, apperr.Validation("heartRate[%d]: bpm must be between %d and %d", i, minBPM, maxBPM)
		}
		out = append(out, domain.HeartRateSample{UserID: userID, Timestamp: hr.Timestamp.UTC(), BPM: hr.BPM})
	}
	return out, nil
}

func (s *healthService) AddHeartRate(ctx context.Context, userID string, in []HeartRateInput) (int, error) {
	uid, err := parseObjectID(userID, "user")
	if err != nil {
		return 0, err
	}
	if len(in) == 0 {
		return 0, apperr.Validation("at least one heart rate sample is required")
	}
	samples, err := heartRateSamples(uid, in)
	if err != nil {
		return 0, err
	}
	return s.health.InsertHeartRate(ctx, samples)
}

func (s *healthService) sleepRecord(userID primitive.ObjectID, in SleepInput) (*domain.SleepRecord, error) {
	date, err := s.dateOrToday(in.Date)
	if err != nil {
		return nil, err
	}
	if in.Hours < 0 || in.Hours > maxSleepHours {
		return nil, apperr.Validation("hours must be between 0 and %d", maxSleepHours)
	}
	quality := in.Quality
	switch quality {
	case "":
		quality = analytics.SleepQuality(in.Hours)
	case domain.SleepPoor, domain.SleepFair, domain.SleepGood, domain.SleepExcellent:
	default:
		return nil, apperr.Validation("unknown sleep quality %q", quality)
	}
	return &domain.SleepRecord{UserID: userID, Date: date, Hours: in.Hours, Quality: quality, UpdatedAt: s.now().UTC()}, nil
}

func (s *healthService) AddSleep(ctx context.Context, userID string, in SleepInput) (*domain.SleepRecord, error) {
	uid, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	rec, err := s.sleepRecord(uid, in)
	if err != nil {
		return nil, err
	}
	if err := s.health.UpsertSleep(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// SaveWater sets the day's total water intake. A missing goal keeps the
// stored goal, or the default for a new day.
func (s *healthService) SaveWater(ctx context.Context, userID string, in WaterInput) (*domain.WaterIntake, error) {
	uid, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	date, err := s.dateOrToday(in.Date)
	if err != nil {
		return nil, err
	}
	if in.AmountL < 0 || in.AmountL > maxWaterL {
		return nil, apperr.Validation("amountL must be between 0 and %d", maxWaterL)
	}
	if in.GoalL < 0 || in.GoalL > maxWaterL {
		return nil, apperr.Validation("goalL must be between 0 and %d", maxWaterL)
	}

	goal := in.GoalL
	if goal == 0 {
		current, err := s.GetWater(ctx, userID, date)
		if err != nil {
			return nil, err
		}
		goal = current.GoalL
	}
	rec := &domain.WaterIntake{UserID: uid, Date: date, AmountL: in.AmountL, GoalL: goal, UpdatedAt: s.now().UTC()}
	if err := s.health.UpsertWater(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetWater returns the stored intake for date, or an empty record with the
// default goal.
func (s *healthService) GetWater(ctx context.Context, userID string, date time.Time) (*domain.WaterIntake, error) {
	uid, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	day := domain.DateOnly(date)
	rec, err := s.health.GetWater(ctx, uid, day)
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.WaterIntake{UserID: uid, Date: day, GoalL: domain.DefaultWaterGoalL}, nil
	}
	if err != nil {
		return nil, err
	}
	if rec.GoalL == 0 {
		rec.GoalL = domain.DefaultWaterGoalL
	}
	return rec, nil
}

func (s *healthService) Analytics(ctx context.Context, userID string, days int) (*HealthReport, error) {
	user, err := loadUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	from, days, err := s.windowStart(days)
	if err != nil {
		return nil, err
	}
	today := s.today()

	daily, err := s.health.ListDaily(ctx, user.ID, from)
	if err != nil {
		return nil, err
	}
	hr, err := s.health.ListHeartRate(ctx, user.ID, from)
	if err != nil {
		return nil, err
	}
	sleep, err := s.health.ListSleep(ctx, user.ID, from)
	if err != nil {
		return nil, err
	}

	report := &HealthReport{
		From:     from.Format(domain.DateLayout),
		To:       today.Format(domain.DateLayout),
		Activity: activityReport(daily, days),
		Sleep:    sleepReport(sleep),
	}
	report.HeartRate = heartRateReport(hr)
	if user.Profile.BirthDate != nil && report.HeartRate.Samples > 0 {
		zone := analytics.HeartRateZone(calorie.AgeOn(*user.Profile.BirthDate, today), user.Profile.FitnessGoal)
		report.HeartRate.Zone = &zone
		in := 0
		for _, smp := range hr {
			if zone.Contains(float64(smp.BPM)) {
				in++
			}
		}
		report.HeartRate.InZonePct = round1(float64(in) / float64(len(hr)) * 100)
	}
	return report, nil
}

func activityReport(daily []domain.HealthData, days int) ActivityReport {
	r := ActivityReport{Days: days, StepGoal: DailyStepGoal}
	steps := make([]float64, 0, len(daily))
	kcal := make([]float64, 0, len(daily))
	var active float64
	for _, d := range daily {
		r.TotalSteps += d.Steps
		steps = append(steps, float64(d.Steps))
		kcal = append(kcal, d.CaloriesBurned)
		active += float64(d.ActiveMinutes)
	}
	if n := float64(len(daily)); n > 0 {
		r.AverageSteps = round1(float64(r.TotalSteps) / n)
		r.AverageCalories = round1(sum(kcal) / n)
		r.AverageActiveMin = round1(active / n)
	}
	r.StepsTrend = analytics.WeeklyTrend(steps)
	r.CaloriesTrend = analytics.WeeklyTrend(kcal)
	r.StepGoalChance = analytics.GoalProbability(steps, DailyStepGoal)
	return r
}

func heartRateReport(samples []domain.HeartRateSample) HeartRateReport {
	r := HeartRateReport{Samples: len(samples)}
	if len(samples) == 0 {
		return r
	}
	r.Min, r.Max = samples[0].BPM, samples[0].BPM
	total := 0
	for _, smp := range samples {
		total += smp.BPM
		if smp.BPM < r.Min {
			r.Min = smp.BPM
		}
		if smp.BPM > r.Max {
			r.Max = smp.BPM
		}
	}
	r.Average = round1(float64(total) / float64(len(samples)))
	return r
}

func sleepReport(records []domain.SleepRecord) SleepReport {
	r := SleepReport{Nights: len(records)}
	if len(records) == 0 {
		return r
	}
	var hours float64
	for _, rec := range records {
		hours += rec.Hours
	}
	avg := hours / float64(len(records))
	r.AverageHours = round1(avg)
	r.Quality = analytics.SleepQuality(avg)
	return r
}

// Insights turns the analytics report into short suggestions.
func (s *healthService) Insights(ctx context.Context, userID string, days int) ([]string, error) {
	report, err := s.Analytics(ctx, userID, days)
	if err != nil {
		return nil, err
	}

	insights := []string{}
	act := report.Activity
	switch act.StepsTrend.Direction {
	case analytics.TrendIncreasing:
		insights = append(insights, fmt.Sprintf("Your daily steps are rising by about %.0f a day. Keep it up!", act.StepsTrend.Slope))
	case analytics.TrendDecreasing:
		insights = append(insights, "Your daily steps are dropping. A short walk after meals can turn that around.")
	case analytics.TrendInsufficientData:
		insights = append(insights, "Log a few more days of activity to see your trends.")
	}
	if act.AverageSteps > 0 && act.AverageSteps < DailyStepGoal {
		insights = append(insights, fmt.Sprintf("You average %.0f steps a day, %.0f short of the %d goal.",
			act.AverageSteps, DailyStepGoal-act.AverageSteps, DailyStepGoal))
	}

	if report.Sleep.Nights > 0 {
		switch report.Sleep.Quality {
		case domain.SleepPoor, domain.SleepFair:
			insights = append(insights, fmt.Sprintf("You sleep %.1f hours on average. Aim for 7 to 9 hours.", report.Sleep.AverageHours))
		case domain.SleepExcellent:
			insights = append(insights, "Your sleep duration is in the healthy range.")
		}
	}

	if z := report.HeartRate.Zone; z != nil {
		if z.Contains(report.HeartRate.Average) {
			insights = append(insights, fmt.Sprintf("Your average heart rate is inside your %s target zone (%d-%d bpm).", z.Intensity, z.Lower, z.Upper))
		} else {
			insights = append(insights, fmt.Sprintf("Your target heart rate zone is %d-%d bpm.", z.Lower, z.Upper))
		}
	}
	return insights, nil
}

func sum(values []float64) float64 {
	var t float64
	for _, v := range values {
		t += v
	}
	return t
}
