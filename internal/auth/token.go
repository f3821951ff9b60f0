package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type claims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenManager выпускает и проверяет access/refresh JWT (HS256).
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock подменяет источник времени (для тестов).
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	cp := *m
	cp.now = now
	return &cp
}

func (m *TokenManager) IssueAccessToken(userID int64) (string, error) {
	token, _, err := m.issue(userID, tokenTypeAccess, m.accessTTL)
	return token, err
}

// IssueRefreshToken возвращает токен и момент его истечения, который нужно сохранить в БД.
func (m *TokenManager) IssueRefreshToken(userID int64) (string, time.Time, error) {
	return m.issue(userID, tokenTypeRefresh, m.refreshTTL)
}

func (m *TokenManager) ParseAccessToken(token string) (int64, error) {
	return m.parse(token, tokenTypeAccess)
}

func (m *TokenManager) ParseRefreshToken(token string) (int64, error) {
	return m.parse(token, tokenTypeRefresh)
}

func (m *TokenManager) issue(userID int64, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(ttl)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	})

	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, expiresAt, nil
}

func (m *TokenManager) parse(token, wantType string) (int64, error) {
	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpiredToken
		}
		return 0, ErrInvalidToken
	}
	if !parsed.Valid || c.TokenType != wantType {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
