// Package verification issues and checks signed tokens that vouch for an approved achievement.
// A token can be handed to a third party, who verifies it without database access.
package verification

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jonathan/achievement-classifier/internal/config"
	"github.com/jonathan/achievement-classifier/internal/types"
)

// TokenIssuer is the "iss" claim of every verification token.
const TokenIssuer = "achievement-agent"

// ErrNotApproved is returned when a token is requested for a record that has not been approved.
var ErrNotApproved = errors.New("only approved achievements can be verified")

// Claims are the signed contents of a verification token.
type Claims struct {
	AchievementID uuid.UUID      `json:"achievement_id"`
	StudentID     string         `json:"student_id"`
	Title         string         `json:"title"`
	Category      types.Category `json:"category"`
	Points        int            `json:"points"`
	Issuer        string         `json:"issuer,omitempty"`
	jwt.RegisteredClaims
}

// Result is the outcome of verifying a token. Invalid tokens carry the reason.
type Result struct {
	Valid         bool           `json:"valid"`
	Reason        string         `json:"reason,omitempty"`
	AchievementID uuid.UUID      `json:"achievement_id,omitempty"`
	StudentID     string         `json:"student_id,omitempty"`
	Title         string         `json:"title,omitempty"`
	Category      types.Category `json:"category,omitempty"`
	Points        int            `json:"points,omitempty"`
	Issuer        string         `json:"issuer,omitempty"`
	ExpiresAt     *time.Time     `json:"expires_at,omitempty"`
}

// Service signs and verifies tokens with HS256.
type Service struct {
	config *config.JWTConfig
}

// NewService creates a verification service with the given configuration.
func NewService(cfg *config.JWTConfig) *Service {
	return &Service{config: cfg}
}

// IssueToken signs a token for an approved record.
func (s *Service) IssueToken(rec *types.AchievementRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("record is nil")
	}
	if rec.Status != types.StatusApproved {
		return "", ErrNotApproved
	}

	now := time.Now()
	expiresAt := now.Add(time.Duration(s.config.ExpirationHours) * time.Hour)

	claims := &Claims{
		AchievementID: rec.ID,
		StudentID:     rec.StudentID,
		Title:         rec.Title,
		Category:      rec.Category,
		Points:        rec.Points,
		Issuer:        rec.Issuer,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   rec.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify checks a token's signature, issuer and expiry. A bad token is reported in the
// Result rather than as an error.
func (s *Service) Verify(tokenString string) *Result {
	if tokenString == "" {
		return &Result{Reason: "token is empty"}
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(TokenIssuer))

	if err != nil {
		return &Result{Reason: reason(err)}
	}
	if !token.Valid {
		return &Result{Reason: "token is not valid"}
	}

	result := &Result{
		Valid:         true,
		AchievementID: claims.AchievementID,
		StudentID:     claims.StudentID,
		Title:         claims.Title,
		Category:      claims.Category,
		Points:        claims.Points,
		Issuer:        claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		result.ExpiresAt = &exp
	}
	return result
}

func reason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "invalid token signature"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed token"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "token was not issued by this service"
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return "token not valid yet"
	}
	return "token could not be verified"
}
