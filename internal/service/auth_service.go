package service

import (
	"crypto/subtle"
	"errors"
	"strings"

	"pinvault/config"
	"pinvault/internal/auth"
	"pinvault/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCreds     = errors.New("invalid email or password")
	ErrOperatorDisabled = errors.New("operator login is not configured")
)

// AuthService issues ADMIN tokens for the configured back-office operator.
type AuthService struct {
	jwt      *config.JWTConfig
	operator config.OperatorConfig
}

func NewAuthService(jwt *config.JWTConfig, operator config.OperatorConfig) *AuthService {
	return &AuthService{jwt: jwt, operator: operator}
}

// HashPassword returns the bcrypt hash to place in operator.password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *AuthService) OperatorLogin(email, password string) (string, error) {
	if s.operator.Email == "" || s.operator.PasswordHash == "" {
		return "", ErrOperatorDisabled
	}
	emailOK := subtle.ConstantTimeCompare([]byte(strings.ToLower(email)), []byte(strings.ToLower(s.operator.Email))) == 1
	// Always run bcrypt so a wrong email costs the same as a wrong password.
	pwErr := bcrypt.CompareHashAndPassword([]byte(s.operator.PasswordHash), []byte(password))
	if !emailOK || pwErr != nil {
		return "", ErrInvalidCreds
	}
	return auth.GenerateAccessToken(s.jwt, s.operator.UserID, s.operator.Email, domain.RoleAdmin)
}
