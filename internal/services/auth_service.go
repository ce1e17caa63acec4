// Package services – AuthService
//
// This file implements the credentials flow: account registration with
// bcrypt-hashed passwords and login issuing a signed session token. The
// token is an HS256 JWT carrying the user id plus the university id and
// display name, so the chat endpoint can trust the university context
// without a second lookup.
//
// Login failures are deliberately uniform: unknown account name and wrong
// password both return ErrInvalidCredentials.
package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/clubnavi/go-club-backend/internal/domain"
	"github.com/clubnavi/go-club-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Claims is the JWT payload for a session token.
type Claims struct {
	UserID         uint   `json:"uid"`
	UniversityID   uint   `json:"university_id"`
	UniversityName string `json:"university_name"`
	jwt.RegisteredClaims
}

// AuthService registers accounts and issues session tokens.
type AuthService struct {
	DB *gorm.DB

	JWTSecret  []byte
	JWTTTL     time.Duration
	BcryptCost int

	// now is swappable in tests.
	Now func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Register creates an account at the given university.
func (s *AuthService) Register(ctx context.Context, name, email, password string, universityID uint) (*domain.User, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Register",
		trace.WithAttributes(attribute.Int("university.id", int(universityID))),
	)
	defer span.End()

	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || password == "" {
		return nil, ErrInvalidRegistration
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidRegistration
	}
	if _, err := repo.GetUniversity(ctx, s.DB, universityID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidRegistration
		}
		return nil, err
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), s.BcryptCost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Name:           name,
		Email:          email,
		PasswordDigest: string(digest),
		AuthProvider:   "password",
		UniversityID:   universityID,
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}
	return repo.GetUser(ctx, s.DB, u.ID)
}

// Login verifies credentials and returns a signed session token with the
// authenticated user. The last-sign-in timestamp is updated best-effort.
func (s *AuthService) Login(ctx context.Context, name, password string) (string, *domain.User, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Login")
	defer span.End()

	u, err := repo.GetUserByName(ctx, s.DB, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordDigest), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issue(u)
	if err != nil {
		return "", nil, err
	}

	_ = repo.TouchLastSignIn(ctx, s.DB, u.ID, s.now())
	return token, u, nil
}

// issue signs a session token for the user.
func (s *AuthService) issue(u *domain.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:         u.ID,
		UniversityID:   u.UniversityID,
		UniversityName: u.University.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.JWTTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.JWTSecret)
}

// Parse verifies a session token and returns its claims.
func (s *AuthService) Parse(tokenString string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.JWTSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	return &claims, nil
}
