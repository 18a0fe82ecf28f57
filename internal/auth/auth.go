package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the verified content of a session token.
type Claims struct {
	UserID     string
	Onboarding bool
}

// Service handles password hashing and session tokens
type Service struct {
	jwtSecret string
	expiry    time.Duration
}

// NewService creates a new authentication service. The signing secret
// must be set; a missing secret is a startup error, not a per-request one.
func NewService(jwtSecret string, expiry time.Duration) (*Service, error) {
	if jwtSecret == "" {
		return nil, errors.New("jwt secret is not set")
	}
	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}
	return &Service{jwtSecret: jwtSecret, expiry: expiry}, nil
}

// HashPassword creates a password hash
func (s *Service) HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPassword), nil
}

// CheckPassword verifies a password against a hash
func (s *Service) CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GenerateToken creates a new JWT for a user. The onboarding flag is
// embedded so completed sessions skip the profile lookup on later requests.
func (s *Service) GenerateToken(userID string, onboardingCompleted bool) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    userID,
		"onboarding": onboardingCompleted,
		"exp":        time.Now().Add(s.expiry).Unix(),
	})
	return token.SignedString([]byte(s.jwtSecret))
}

// VerifyToken validates a JWT and returns its claims. Expired or
// tampered tokens return an error, never a panic.
func (s *Service) VerifyToken(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return Claims{}, err
	}
	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.New("invalid token claims")
	}
	userID, ok := mc["user_id"].(string)
	if !ok || userID == "" {
		return Claims{}, errors.New("invalid token claims")
	}
	onboarding, _ := mc["onboarding"].(bool)

	return Claims{UserID: userID, Onboarding: onboarding}, nil
}
