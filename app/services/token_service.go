// Package services provides external service integrations and technical concerns like drafting, delivery, and tokens
package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sentinalgrid/sentinalgrid/utils"
)

// Token service error constants
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// TokenService handles session JWT generation and validation
type TokenService interface {
	GenerateSessionToken(email, name, picture string) (string, error)
	ValidateSessionToken(token string) (*SessionClaims, error)
}

// SessionClaims represents the claims in a session JWT
type SessionClaims struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenID   string    `json:"jti"`
}

// TokenServiceImpl implements TokenService
type TokenServiceImpl struct {
	sessionTTL    time.Duration
	signingMethod jwt.SigningMethod
	secretKey     []byte
	issuer        string
	audience      string
}

// NewTokenService creates a new token service
func NewTokenService(sessionTTL time.Duration, issuer, audience, secretKey string) (TokenService, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("secret key is required")
	}

	return &TokenServiceImpl{
		sessionTTL:    sessionTTL,
		signingMethod: jwt.SigningMethodHS256,
		secretKey:     []byte(secretKey),
		issuer:        issuer,
		audience:      audience,
	}, nil
}

// GenerateSessionToken generates a signed session token for an authenticated user
func (s *TokenServiceImpl) GenerateSessionToken(email, name, picture string) (string, error) {
	now := utils.UTCNow()

	tokenID, err := generateTokenID()
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"email":   email,
		"name":    name,
		"picture": picture,
		"jti":     tokenID,
		"iat":     now.Unix(),
		"exp":     now.Add(s.sessionTTL).Unix(),
		"iss":     s.issuer,
		"aud":     s.audience,
	}

	token := jwt.NewWithClaims(s.signingMethod, claims)
	signedString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", err
	}

	return signedString, nil
}

// ValidateSessionToken validates a session JWT and returns its claims
func (s *TokenServiceImpl) ValidateSessionToken(token string) (*SessionClaims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		if strings.Contains(err.Error(), "expired") || strings.Contains(err.Error(), "exp") {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if !parsedToken.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return nil, ErrTokenInvalid
	}

	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)

	tokenID, ok := claims["jti"].(string)
	if !ok {
		return nil, ErrTokenInvalid
	}

	issuedAt, ok := claims["iat"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}

	expiresAt, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}

	if utils.UTCNow().After(time.Unix(int64(expiresAt), 0)) {
		return nil, ErrTokenExpired
	}

	return &SessionClaims{
		Email:     email,
		Name:      name,
		Picture:   picture,
		TokenID:   tokenID,
		IssuedAt:  time.Unix(int64(issuedAt), 0),
		ExpiresAt: time.Unix(int64(expiresAt), 0),
	}, nil
}

// generateTokenID generates a unique token ID
func generateTokenID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", bytes), nil
}
