package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitwell/backend/internal/apperr"
	"fitwell/backend/internal/config"
	"fitwell/backend/internal/domain"
	"fitwell/backend/internal/lock"
	"fitwell/backend/internal/logger"
	"fitwell/backend/internal/repository"
	"fitwell/backend/internal/storage"
)

// PlanSettings bounds plan generation.
type PlanSettings struct {
	DefaultDays      int
	MaxDays          int
	HistoryDays      int
	LockTTL          time.Duration
	RenderImages     bool
	ImageConcurrency int
	ImageURLExpiry   time.Duration
}

// SettingsFromConfig builds PlanSettings from the loaded configuration.
func SettingsFromConfig(cfg config.Config) PlanSettings {
	return PlanSettings{
		DefaultDays:      cfg.Plans.DefaultDays,
		MaxDays:          cfg.Plans.MaxDays,
		HistoryDays:      cfg.Plans.HistoryDays,
		LockTTL:          cfg.Redis.LockTTL,
		RenderImages:     cfg.Plans.RenderImages,
		ImageConcurrency: cfg.Plans.ImageConcurrency,
		ImageURLExpiry:   storage.DefaultPresignedURLExpiry,
	}
}

func (s PlanSettings) withDefaults() PlanSettings {
	if s.DefaultDays <= 0 {
		s.DefaultDays = 7
	}
	if s.MaxDays < s.DefaultDays {
		s.MaxDays = s.DefaultDays
	}
	if s.HistoryDays <= 0 {
		s.HistoryDays = 7
	}
	if s.LockTTL <= 0 {
		s.LockTTL = 2 * time.Minute
	}
	if s.ImageConcurrency <= 0 {
		s.ImageConcurrency = 4
	}
	if s.ImageURLExpiry <= 0 {
		s.ImageURLExpiry = storage.DefaultPresignedURLExpiry
	}
	return s
}

// planDays resolves a requested plan length.
func (s PlanSettings) planDays(requested int) (int, error) {
	if requested == 0 {
		return s.DefaultDays, nil
	}
	if requested < 1 || requested > s.MaxDays {
		return 0, apperr.Validation("days must be between 1 and %d", s.MaxDays)
	}
	return requested, nil
}

// Clock returns the current time. Services take one so tests can pin "today".
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func parseObjectID(hex, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid %s id", what)
	}
	return id, nil
}

// notFound maps repository.ErrNotFound to an apperr NotFound for what.
func notFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(what)
	}
	return err
}

func loadUser(ctx context.Context, users repository.UserRepository, userIDHex string) (*domain.User, error) {
	userID, err := parseObjectID(userIDHex, "user")
	if err != nil {
		return nil, err
	}
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

// withUserLock runs fn while holding the per-user lock for kind.
func withUserLock(ctx context.Context, locker lock.Locker, log *logger.Logger, kind string, userID primitive.ObjectID, ttl time.Duration, fn func() error) error {
	key := "plan:" + kind + ":" + userID.Hex()
	release, err := locker.Acquire(ctx, key, ttl)
	if errors.Is(err, lock.ErrNotAcquired) {
		return apperr.New(apperr.KindConflict, "plan generation already in progress")
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Failed to release plan lock", "key", key, "error", err)
		}
	}()
	return fn()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func roundMacros(m domain.Macros) domain.Macros {
	return domain.Macros{
		Calories: round1(m.Calories),
		Protein:  round1(m.Protein),
		Carbs:    round1(m.Carbs),
		Fat:      round1(m.Fat),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
