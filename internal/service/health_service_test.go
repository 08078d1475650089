package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitwell/backend/internal/analytics"
	"fitwell/backend/internal/apperr"
	"fitwell/backend/internal/domain"
	"fitwell/backend/internal/logger"
)

func newHealthFixture(t *testing.T) (*healthService, *domain.User, *fakeHealth) {
	t.Helper()
	user := completeUser()
	repo := newFakeHealth()
	svc := NewHealthService(newFakeUsers(user), repo, logger.Nop()).(*healthService)
	svc.now = fixedClock
	return svc, user, repo
}

func TestRecordDailyEstimatesCalories(t *testing.T) {
	svc, user, _ := newHealthFixture(t)
	ctx := context.Background()

	d, err := svc.RecordDaily(ctx, user.ID.Hex(), HealthDataInput{Steps: 10000})
	require.NoError(t, err)
	assert.Equal(t, domain.DateOnly(testNow), d.Date)
	assert.Equal(t, analytics.CaloriesBurned(10000, 70, 30, domain.GenderMale), d.CaloriesBurned)

	given := 321.0
	d, err = svc.RecordDaily(ctx, user.ID.Hex(), HealthDataInput{Date: "2024-05-30", Steps: 10000, CaloriesBurned: &given})
	require.NoError(t, err)
	assert.Equal(t, 321.0, d.CaloriesBurned)

	_, err = svc.RecordDaily(ctx, user.ID.Hex(), HealthDataInput{Date: "2024-06-02"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.RecordDaily(ctx, user.ID.Hex(), HealthDataInput{Steps: -1})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSyncValidatesBeforeWriting(t *testing.T) {
	svc, user, repo := newHealthFixture(t)
	ctx := context.Background()

	_, err := svc.Sync(ctx, user.ID.Hex(), SyncInput{
		Daily:     []HealthDataInput{{Date: "2024-05-31", Steps: 4000}},
		HeartRate: []HeartRateInput{{Timestamp: testNow, BPM: 400}},
	})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, repo.daily)

	res, err := svc.Sync(ctx, user.ID.Hex(), SyncInput{
		Daily: []HealthDataInput{{Date: "2024-05-31", Steps: 4000}, {Steps: 6000}},
		HeartRate: []HeartRateInput{
			{Timestamp: testNow.Add(-time.Hour), BPM: 72},
			{Timestamp: testNow, BPM: 120},
		},
		Sleep: []SleepInput{{Date: "2024-05-31", Hours: 7.5}},
	})
	require.NoError(t, err)
	assert.Equal(t, &SyncResult{DailyRecords: 2, HeartRateSamples: 2, SleepRecords: 1}, res)

	// Re-sending the same samples inserts nothing new.
	n, err := svc.AddHeartRate(ctx, user.ID.Hex(), []HeartRateInput{{Timestamp: testNow, BPM: 120}})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAddSleepDerivesQuality(t *testing.T) {
	svc, user, _ := newHealthFixture(t)
	ctx := context.Background()

	rec, err := svc.AddSleep(ctx, user.ID.Hex(), SleepInput{Hours: 5.5})
	require.NoError(t, err)
	assert.Equal(t, domain.SleepFair, rec.Quality)

	rec, err = svc.AddSleep(ctx, user.ID.Hex(), SleepInput{Hours: 5.5, Quality: domain.SleepGood})
	require.NoError(t, err)
	assert.Equal(t, domain.SleepGood, rec.Quality)

	_, err = svc.AddSleep(ctx, user.ID.Hex(), SleepInput{Hours: 30})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestWaterIntake(t *testing.T) {
	svc, user, _ := newHealthFixture(t)
	ctx := context.Background()

	empty, err := svc.GetWater(ctx, user.ID.Hex(), testNow)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultWaterGoalL, empty.GoalL)
	assert.Zero(t, empty.AmountL)

	rec, err := svc.SaveWater(ctx, user.ID.Hex(), WaterInput{AmountL: 1.25, GoalL: 2.5})
	require.NoError(t, err)
	assert.Equal(t, 2.5, rec.GoalL)

	// Omitting the goal keeps the stored one.
	rec, err = svc.SaveWater(ctx, user.ID.Hex(), WaterInput{AmountL: 2})
	require.NoError(t, err)
	assert.Equal(t, 2.5, rec.GoalL)

	got, err := svc.GetWater(ctx, user.ID.Hex(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.AmountL)

	_, err = svc.SaveWater(ctx, user.ID.Hex(), WaterInput{AmountL: -1})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAnalyticsAndInsights(t *testing.T) {
	svc, user, _ := newHealthFixture(t)
	ctx := context.Background()

	for i, steps := range []int{5000, 5500, 6000, 6500} {
		date := domain.AddDays(testNow, i-3).Format(domain.DateLayout)
		_, err := svc.RecordDaily(ctx, user.ID.Hex(), HealthDataInput{Date: date, Steps: steps, ActiveMinutes: 30})
		require.NoError(t, err)
	}
	_, err := svc.AddHeartRate(ctx, user.ID.Hex(), []HeartRateInput{
		{Timestamp: testNow.Add(-2 * time.Hour), BPM: 120},
		{Timestamp: testNow.Add(-time.Hour), BPM: 125},
	})
	require.NoError(t, err)
	_, err = svc.AddSleep(ctx, user.ID.Hex(), SleepInput{Hours: 5})
	require.NoError(t, err)

	report, err := svc.Analytics(ctx, user.ID.Hex(), 7)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-26", report.From)
	assert.Equal(t, 23000, report.Activity.TotalSteps)
	assert.Equal(t, 5750.0, report.Activity.AverageSteps)
	assert.Equal(t, analytics.TrendIncreasing, report.Activity.StepsTrend.Direction)
	assert.Equal(t, 122.5, report.HeartRate.Average)
	require.NotNil(t, report.HeartRate.Zone)
	// Age 30 losing weight: 114-133 bpm.
	assert.Equal(t, 114, report.HeartRate.Zone.Lower)
	assert.Equal(t, 100.0, report.HeartRate.InZonePct)
	assert.Equal(t, domain.SleepFair, report.Sleep.Quality)

	insights, err := svc.Insights(ctx, user.ID.Hex(), 7)
	require.NoError(t, err)
	assert.Contains(t, insights, "Your daily steps are rising by about 500 a day. Keep it up!")
	assert.Contains(t, insights, "You sleep 5.0 hours on average. Aim for 7 to 9 hours.")
	assert.Contains(t, insights, "Your average heart rate is inside your moderate target zone (114-133 bpm).")

	_, err = svc.Analytics(ctx, user.ID.Hex(), 365)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
