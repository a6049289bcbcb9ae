package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/config"
	"github.com/sikayetim/backend/internal/domain"
)

const issuer = "sikayet"

var ErrInvalidSession = errors.New("invalid session token")

// SessionService signs and verifies the session token carried in the session cookie.
type SessionService struct {
	secret []byte
	ttl    time.Duration
}

type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Session is the verified identity attached to a request.
type Session struct {
	UserID    uuid.UUID
	Role      domain.UserRole
	JTI       string
	ExpiresAt time.Time
	CompanyID *uuid.UUID // filled from the user row by the middleware
}

func NewSessionService(cfg *config.Config) *SessionService {
	return &SessionService{
		secret: []byte(cfg.Session.Secret),
		ttl:    cfg.Session.TTL,
	}
}

// Issue returns a signed token, its jti and its expiry.
func (s *SessionService) Issue(userID uuid.UUID, role domain.UserRole) (string, string, time.Time, error) {
	jti := uuid.NewString()
	now := time.Now()
	expiresAt := now.Add(s.ttl)

	claims := SessionClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        jti,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, jti, expiresAt, nil
}

func (s *SessionService) Parse(tokenString string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSession
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidSession
	}
	role := domain.UserRole(claims.Role)
	if !role.Valid() {
		return nil, ErrInvalidSession
	}

	return &Session{
		UserID:    userID,
		Role:      role,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// GetSession resolves a raw token into a session. Missing or invalid input yields nil.
func (s *SessionService) GetSession(tokenString string) *Session {
	if tokenString == "" {
		return nil
	}
	session, err := s.Parse(tokenString)
	if err != nil {
		return nil
	}
	return session
}

func (s *SessionService) TTL() time.Duration {
	return s.ttl
}
