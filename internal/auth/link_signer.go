package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"fleetpulse/backend/internal/common"
)

// ScoreLink is a validated share-link token for one driver's score report
type ScoreLink struct {
	DriverID  string
	TokenID   string
	ExpiresAt time.Time
}

// LinkSigner issues and validates short-lived signed links that let a
// driver open their score report without an account. Tokens are single
// use; consumed token ids are tracked in the cache until they expire.
type LinkSigner struct {
	secretKey []byte
	cache     common.CacheInterface
}

// NewLinkSigner creates a new link signer
func NewLinkSigner(secretKey []byte, cache common.CacheInterface) *LinkSigner {
	return &LinkSigner{
		secretKey: secretKey,
		cache:     cache,
	}
}

// Generate returns a signed token granting access to one driver's report
func (s *LinkSigner) Generate(driverID string, ttl time.Duration) (string, error) {
	tokenID := uuid.New().String()
	expiresAt := time.Now().Add(ttl)

	claims := jwt.MapClaims{
		"driver_id": driverID,
		"jti":       tokenID,
		"exp":       expiresAt.Unix(),
		"iat":       time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate parses a token and checks signature, expiry and single use
func (s *LinkSigner) Validate(ctx context.Context, tokenString string) (*ScoreLink, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	driverID, ok := (*claims)["driver_id"].(string)
	if !ok {
		return nil, errors.New("missing or invalid driver_id claim")
	}

	tokenID, ok := (*claims)["jti"].(string)
	if !ok {
		return nil, errors.New("missing or invalid jti claim")
	}

	expFloat, ok := (*claims)["exp"].(float64)
	if !ok {
		return nil, errors.New("missing or invalid exp claim")
	}
	expiresAt := time.Unix(int64(expFloat), 0)

	if time.Now().After(expiresAt) {
		return nil, errors.New("token expired")
	}

	if _, used := s.cache.Get(usedLinkKey(tokenID)); used {
		return nil, errors.New("token already used")
	}

	return &ScoreLink{
		DriverID:  driverID,
		TokenID:   tokenID,
		ExpiresAt: expiresAt,
	}, nil
}

// MarkUsed consumes a token id so the link cannot be opened again
func (s *LinkSigner) MarkUsed(ctx context.Context, tokenID string) {
	s.cache.Set(usedLinkKey(tokenID), "1", 15*time.Minute)
}

func usedLinkKey(tokenID string) string {
	return "used_link:" + tokenID
}
