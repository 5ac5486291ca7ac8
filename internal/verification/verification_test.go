package verification

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/achievement-classifier/internal/config"
	"github.com/jonathan/achievement-classifier/internal/types"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func setupTestService(_ *testing.T) *Service {
	return NewService(&config.JWTConfig{Secret: testSecret, ExpirationHours: 24})
}

func approvedRecord() *types.AchievementRecord {
	return &types.AchievementRecord{
		ID:        uuid.New(),
		StudentID: "student-42",
		Title:     "Smart India Hackathon",
		Category:  types.CategoryCompetition,
		Points:    113,
		Issuer:    "AICTE",
		Status:    types.StatusApproved,
	}
}

func TestIssueAndVerify(t *testing.T) {
	service := setupTestService(t)
	rec := approvedRecord()

	token, err := service.IssueToken(rec)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	result := service.Verify(token)
	require.True(t, result.Valid, result.Reason)
	assert.Equal(t, rec.ID, result.AchievementID)
	assert.Equal(t, "student-42", result.StudentID)
	assert.Equal(t, types.CategoryCompetition, result.Category)
	assert.Equal(t, 113, result.Points)
	assert.Equal(t, "AICTE", result.Issuer)
	require.NotNil(t, result.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *result.ExpiresAt, time.Minute)
}

func TestIssueToken_RequiresApproval(t *testing.T) {
	service := setupTestService(t)
	for _, status := range []types.RecordStatus{types.StatusPending, types.StatusRejected} {
		rec := approvedRecord()
		rec.Status = status
		_, err := service.IssueToken(rec)
		assert.ErrorIs(t, err, ErrNotApproved)
	}

	_, err := service.IssueToken(nil)
	assert.Error(t, err)
}

func TestVerify_Invalid(t *testing.T) {
	service := setupTestService(t)
	token, err := service.IssueToken(approvedRecord())
	require.NoError(t, err)

	other := NewService(&config.JWTConfig{Secret: "another-secret-key-that-is-long-enough!!", ExpirationHours: 24})

	tests := []struct {
		name   string
		token  string
		svc    *Service
		reason string
	}{
		{name: "empty", token: "", svc: service, reason: "token is empty"},
		{name: "malformed", token: "not.a.token", svc: service, reason: "malformed token"},
		{name: "wrong secret", token: token, svc: other, reason: "invalid token signature"},
		{name: "tampered payload", token: tamper(token), svc: service, reason: "invalid token signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.svc.Verify(tt.token)
			assert.False(t, result.Valid)
			assert.Equal(t, tt.reason, result.Reason)
			assert.Equal(t, uuid.Nil, result.AchievementID)
		})
	}
}

func TestVerify_Expired(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	claims := &Claims{
		AchievementID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(past),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	result := setupTestService(t).Verify(token)
	assert.False(t, result.Valid)
	assert.Equal(t, "token expired", result.Reason)
}

func TestVerify_WrongIssuer(t *testing.T) {
	claims := &Claims{
		AchievementID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	result := setupTestService(t).Verify(token)
	assert.False(t, result.Valid)
	assert.Equal(t, "token was not issued by this service", result.Reason)
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: TokenIssuer}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	assert.False(t, setupTestService(t).Verify(token).Valid)
}

// tamper swaps the payload of token for one with a different student.
func tamper(token string) string {
	parts := strings.Split(token, ".")
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{StudentID: "someone-else",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: TokenIssuer}})
	forgedToken, _ := forged.SignedString([]byte("x"))
	parts[1] = strings.Split(forgedToken, ".")[1]
	return strings.Join(parts, ".")
}
