package auth

import (
	"errors"
	"time"

	"github.com/01moynul/recipeshop-checkout/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the session service puts inside every access token.
type Claims struct {
	Email   string `json:"email"`
	Country string `json:"country,omitempty"`
	Role    string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 identity tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// GenerateToken issues a token for id. Session issuance lives elsewhere;
// this is used by tests and the local dev CLI.
func (m *Manager) GenerateToken(id models.Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:   id.Email,
		Country: id.Country,
		Role:    id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// ValidateToken parses a token string and returns the identity it carries.
func (m *Manager) ValidateToken(tokenString string) (models.Identity, error) {
	// 1. Parse, pinning the signing method.
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Identity{}, err
	}
	if !token.Valid {
		return models.Identity{}, errors.New("invalid token")
	}

	// 2. A subject is mandatory.
	if claims.Subject == "" {
		return models.Identity{}, errors.New("invalid subject claim")
	}
	return models.Identity{
		UserID:  claims.Subject,
		Email:   claims.Email,
		Country: claims.Country,
		Role:    claims.Role,
	}, nil
}
