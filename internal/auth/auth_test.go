package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/sikayetim/backend/internal/config"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionService(secret string, ttl time.Duration) *SessionService {
	return NewSessionService(&config.Config{
		Session: config.SessionConfig{Secret: secret, TTL: ttl},
	})
}

func TestSessionService_IssueAndParse(t *testing.T) {
	svc := newTestSessionService("test-secret", time.Hour)
	userID := uuid.New()

	token, jti, expiresAt, err := svc.Issue(userID, domain.RoleCompany)
	require.NoError(t, err)
	assert.NotEmpty(t, jti)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	session, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, session.UserID)
	assert.Equal(t, domain.RoleCompany, session.Role)
	assert.Equal(t, jti, session.JTI)
}

func TestSessionService_GetSessionNilOnBadInput(t *testing.T) {
	svc := newTestSessionService("test-secret", time.Hour)
	other := newTestSessionService("other-secret", time.Hour)

	token, _, _, err := other.Issue(uuid.New(), domain.RoleAdmin)
	require.NoError(t, err)

	assert.Nil(t, svc.GetSession(""))
	assert.Nil(t, svc.GetSession("not-a-token"))
	assert.Nil(t, svc.GetSession(token), "token signed with another secret")
}

func TestSessionService_ExpiredToken(t *testing.T) {
	svc := newTestSessionService("test-secret", -time.Minute)

	token, _, _, err := svc.Issue(uuid.New(), domain.RoleUser)
	require.NoError(t, err)

	_, err = svc.Parse(token)
	assert.Error(t, err)
	assert.Nil(t, svc.GetSession(token))
}

func TestRolePredicates(t *testing.T) {
	admin := &Session{UserID: uuid.New(), Role: domain.RoleAdmin}
	company := &Session{UserID: uuid.New(), Role: domain.RoleCompany}
	pending := &Session{UserID: uuid.New(), Role: domain.RoleCompanyPending}

	assert.True(t, IsAdmin(admin))
	assert.False(t, IsAdmin(company))
	assert.False(t, IsAdmin(nil))

	assert.True(t, IsCompany(company))
	assert.False(t, IsCompany(pending))
	assert.False(t, IsCompany(nil))

	assert.True(t, IsSessionWithRole(pending, domain.RoleUser, domain.RoleCompanyPending))
	assert.False(t, IsSessionWithRole(pending, domain.RoleUser))
	assert.False(t, IsSessionWithRole(nil, domain.RoleUser))
}

func TestNewVerificationCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := NewVerificationCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.Regexp(t, `^[0-9]{6}$`, code)
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "hunter2hunter2"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestTwoFactor(t *testing.T) {
	key, err := GenerateTwoFactor("ayse@example.com")
	require.NoError(t, err)
	assert.Contains(t, key.URL, "otpauth://totp/")

	code, err := totp.GenerateCode(key.Secret, time.Now())
	require.NoError(t, err)
	assert.True(t, ValidateTwoFactor(code, key.Secret))
	assert.False(t, ValidateTwoFactor("", key.Secret))
	assert.False(t, ValidateTwoFactor("000000x", key.Secret))
}
