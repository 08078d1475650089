package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"fitwell/backend/internal/apperr"
	"fitwell/backend/internal/domain"
	"fitwell/backend/internal/repository"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = apperr.New(apperr.KindConflict, "user with this email already exists")
	ErrAuthenticationFailed = apperr.New(apperr.KindUnauthorized, "authentication failed: invalid email or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)

const minPasswordLength = 8

// ProfileUpdate is a partial profile change. Nil fields are left untouched.
type ProfileUpdate struct {
	HeightCm      *float64              `json:"heightCm"`
	WeightKg      *float64              `json:"weightKg"`
	BirthDate     *string               `json:"birthDate"`
	Gender        *domain.Gender        `json:"gender"`
	FitnessGoal   *domain.FitnessGoal   `json:"fitnessGoal"`
	ActivityLevel *domain.ActivityLevel `json:"activityLevel"`
	FitnessLevel  *domain.FitnessLevel  `json:"fitnessLevel"`
	DietType      *string               `json:"dietType"`
	Allergies     []string              `json:"allergies"`
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*domain.User, error)
	GetJWTSecret() string
}

type authService struct {
	userRepo      repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
	now           Clock
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		now:           systemClock,
	}
}

// Register handles new user registration.
func (s *authService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, apperr.Validation("name, email and password cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Validation("invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		// Lost a race with another registration for the same email.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = userID
	user.PasswordHash = ""
	return user, nil
}

// Login handles user authentication and JWT generation.
func (s *authService) Login(ctx context.Context, email, password string) (token string, user *domain.User, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		err = apperr.Validation("email and password cannot be empty")
		return
	}

	user, err = s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrAuthenticationFailed
		}
		user = nil
		return
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err = s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

func (s *authService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := loadUser(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile applies update and stores the resulting profile. Invalid
// values reject the whole update.
func (s *authService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*domain.User, error) {
	user, err := loadUser(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}

	p := user.Profile
	if update.HeightCm != nil {
		if *update.HeightCm < 50 || *update.HeightCm > 280 {
			return nil, apperr.Validation("heightCm must be between 50 and 280")
		}
		p.HeightCm = *update.HeightCm
	}
	if update.WeightKg != nil {
		if *update.WeightKg < 20 || *update.WeightKg > 400 {
			return nil, apperr.Validation("weightKg must be between 20 and 400")
		}
		p.WeightKg = *update.WeightKg
	}
	if update.BirthDate != nil {
		bd, err := domain.ParseDate(*update.BirthDate)
		if err != nil {
			return nil, apperr.Validation("birthDate must use the %s format", domain.DateLayout)
		}
		if !bd.Before(domain.DateOnly(s.now())) {
			return nil, apperr.Validation("birthDate must be in the past")
		}
		p.BirthDate = &bd
	}
	if update.Gender != nil {
		p.Gender = domain.Gender(strings.ToLower(strings.TrimSpace(string(*update.Gender))))
	}
	if update.FitnessGoal != nil {
		switch *update.FitnessGoal {
		case domain.GoalLoseWeight, domain.GoalGainMuscle, domain.GoalMaintain, domain.GoalImproveEndurance:
			p.FitnessGoal = *update.FitnessGoal
		default:
			return nil, apperr.Validation("unknown fitnessGoal %q", *update.FitnessGoal)
		}
	}
	if update.ActivityLevel != nil {
		switch *update.ActivityLevel {
		case domain.ActivitySedentary, domain.ActivityLight, domain.ActivityModerate, domain.ActivityActive, domain.ActivityVeryActive:
			p.ActivityLevel = *update.ActivityLevel
		default:
			return nil, apperr.Validation("unknown activityLevel %q", *update.ActivityLevel)
		}
	}
	if update.FitnessLevel != nil {
		if !update.FitnessLevel.Valid() {
			return nil, apperr.Validation("unknown fitnessLevel %q", *update.FitnessLevel)
		}
		p.FitnessLevel = *update.FitnessLevel
	}
	if update.DietType != nil {
		p.DietType = strings.TrimSpace(*update.DietType)
	}
	if update.Allergies != nil {
		p.Allergies = update.Allergies
	}

	if err := s.userRepo.UpdateProfile(ctx, user.ID, p); err != nil {
		return nil, notFound(err, "user")
	}
	user.Profile = p
	user.PasswordHash = ""
	return user, nil
}

// --- JWT Helper ---

type jwtClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

func (s *authService) generateJWT(user *domain.User) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		UserID: user.ID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "fitwell",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// GetJWTSecret returns the JWT secret for middleware authentication
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}
