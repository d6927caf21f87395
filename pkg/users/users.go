package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cinescan/cinescan/pkg/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrUsernameTaken means the requested username is unavailable.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidCredentials means the username/password pair did not check out.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrNotFound means no user exists for the given username.
	ErrNotFound = errors.New("user not found")
)

// Service owns user accounts: registration, authentication and profile
// updates. Every operation takes the acting user explicitly; there is no
// ambient "current user" state.
type Service struct {
	db        *gorm.DB
	jwtSecret []byte
	jwtTTL    time.Duration
	logger    *slog.Logger
}

func New(db *gorm.DB, jwtSecret string, jwtTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		db:        db,
		jwtSecret: []byte(jwtSecret),
		jwtTTL:    jwtTTL,
		logger:    logger,
	}
}

// Register persists a new user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, user models.User) (models.User, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", user.Username).
		Count(&count).Error; err != nil {
		return models.User{}, err
	}
	if count > 0 {
		return models.User{}, fmt.Errorf("%w: %q", ErrUsernameTaken, user.Username)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hashing password: %w", err)
	}
	user.Password = string(hashed)

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("creating user %q: %w", user.Username, err)
	}

	s.logger.Info("new user registered", "username", user.Username)

	return user, nil
}

// Authenticate verifies the password and issues a signed token with the
// username as subject.
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, error) {
	user, err := s.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := jwt.RegisteredClaims{
		Subject:   user.Username,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.jwtTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return token, nil
}

// ParseToken validates a token and returns the username it was issued to.
func (s *Service) ParseToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}

	return claims.Subject, nil
}

// ByUsername fetches a user with their favourite genre resolved.
func (s *Service) ByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("FavouriteGenre").
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, fmt.Errorf("%w: %q", ErrNotFound, username)
		}
		return models.User{}, err
	}

	return user, nil
}

// All returns every user, for batch jobs that fan out per user.
func (s *Service) All(ctx context.Context) ([]models.User, error) {
	var all []models.User
	if err := s.db.WithContext(ctx).Find(&all).Error; err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return all, nil
}

// UpdateProfile applies the non-empty fields of update onto the current
// user. A username change to a taken name, or to the name already held, is
// a conflict.
func (s *Service) UpdateProfile(ctx context.Context, current *models.User, update models.User) error {
	if update.Username != "" {
		if update.Username == current.Username {
			return fmt.Errorf("%w: cannot change to your existing username", ErrUsernameTaken)
		}

		var count int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("username = ?", update.Username).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %q", ErrUsernameTaken, update.Username)
		}

		current.Username = update.Username
	}

	if update.Email != "" {
		current.Email = update.Email
	}

	if update.FavouriteReleaseYear != "" {
		current.FavouriteReleaseYear = update.FavouriteReleaseYear
	}

	if update.FavouriteGenreID != nil {
		current.FavouriteGenreID = update.FavouriteGenreID
		current.FavouriteGenre = update.FavouriteGenre
	}

	if err := s.db.WithContext(ctx).Save(current).Error; err != nil {
		return fmt.Errorf("saving user %q: %w", current.Username, err)
	}

	s.logger.Info("user profile updated", "username", current.Username)

	return nil
}
