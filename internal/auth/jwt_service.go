package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	apperrors "bptracker/internal/errors"
)

const (
	// DefaultTokenTTL is how long an issued access token stays valid.
	DefaultTokenTTL = 24 * time.Hour
	// TokenHeader is the request header that carries the access token.
	TokenHeader = "x-access-token"
)

// Claims represents JWT claims.
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTService issues and validates HS256 access tokens. The secret and TTL are
// fixed at construction; the service holds no mutable state.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock returns a copy of the service that reads time from now.
func (s *JWTService) WithClock(now func() time.Time) *JWTService {
	clone := *s
	clone.now = now
	return &clone
}

// Issue generates a signed token for the user that expires after the TTL.
func (s *JWTService) Issue(userID uint) (string, error) {
	issuedAt := s.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate checks signature and expiry and returns the user id the token was
// issued for. Signature problems are reported before expiry, so a tampered
// expired token is invalid rather than expired.
func (s *JWTService) Validate(tokenString string) (uint, error) {
	if tokenString == "" {
		return 0, apperrors.ErrTokenMissing
	}

	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.ExpiresAt == nil {
		return 0, apperrors.ErrTokenInvalid
	}

	if !claims.VerifyExpiresAt(s.now(), true) {
		return 0, apperrors.ErrTokenExpired
	}
	if claims.UserID == 0 {
		return 0, apperrors.ErrTokenInvalid
	}

	return claims.UserID, nil
}
