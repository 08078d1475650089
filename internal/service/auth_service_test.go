package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitwell/backend/internal/apperr"
	"fitwell/backend/internal/domain"
)

const testSecret = "test-secret"

func TestRegisterAndLogin(t *testing.T) {
	svc := NewAuthService(newFakeUsers(), testSecret, time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ana", " Ana@Example.com ", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.Register(ctx, "Ana", "ana@example.com", "another-pass")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	token, got, err := svc.Login(ctx, "ana@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, user.ID.Hex(), claims.UserID)

	_, _, err = svc.Login(ctx, "ana@example.com", "wrong-password")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, _, err = svc.Login(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(newFakeUsers(), testSecret, time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "a@example.com", "long-enough")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Register(ctx, "A", "not-an-email", "long-enough")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Register(ctx, "A", "a@example.com", "short")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateProfile(t *testing.T) {
	user := completeUser()
	user.Profile = domain.Profile{}
	users := newFakeUsers(user)
	svc := NewAuthService(users, testSecret, time.Hour).(*authService)
	svc.now = fixedClock
	ctx := context.Background()

	height, weight := 180.0, 82.5
	birth := "1990-03-02"
	gender := domain.Gender(" Female ")
	goal := domain.GoalGainMuscle
	got, err := svc.UpdateProfile(ctx, user.ID.Hex(), ProfileUpdate{
		HeightCm: &height, WeightKg: &weight, BirthDate: &birth, Gender: &gender, FitnessGoal: &goal,
	})
	require.NoError(t, err)
	assert.Equal(t, 180.0, got.Profile.HeightCm)
	assert.Equal(t, domain.GenderFemale, got.Profile.Gender)
	require.NotNil(t, got.Profile.BirthDate)
	assert.Equal(t, time.Date(1990, 3, 2, 0, 0, 0, 0, time.UTC), *got.Profile.BirthDate)

	stored, err := svc.GetProfile(ctx, user.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 82.5, stored.Profile.WeightKg)
	assert.Equal(t, domain.GoalGainMuscle, stored.Profile.FitnessGoal)

	// Only the provided fields change.
	level := domain.LevelAdvanced
	got, err = svc.UpdateProfile(ctx, user.ID.Hex(), ProfileUpdate{FitnessLevel: &level})
	require.NoError(t, err)
	assert.Equal(t, 180.0, got.Profile.HeightCm)
	assert.Equal(t, domain.LevelAdvanced, got.Profile.FitnessLevel)
}

func TestUpdateProfileRejectsBadValues(t *testing.T) {
	user := completeUser()
	svc := NewAuthService(newFakeUsers(user), testSecret, time.Hour).(*authService)
	svc.now = fixedClock
	ctx := context.Background()

	future := "2030-01-01"
	_, err := svc.UpdateProfile(ctx, user.ID.Hex(), ProfileUpdate{BirthDate: &future})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	activity := domain.ActivityLevel("couch")
	_, err = svc.UpdateProfile(ctx, user.ID.Hex(), ProfileUpdate{ActivityLevel: &activity})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	tiny := 10.0
	_, err = svc.UpdateProfile(ctx, user.ID.Hex(), ProfileUpdate{HeightCm: &tiny})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	stored, err := svc.GetProfile(ctx, user.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 175.0, stored.Profile.HeightCm)
}
