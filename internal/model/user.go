package model

import (
	"strings"
	"time"
)

type User struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	HashedPassword string `json:"-"`
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UsernameFromEmail возвращает локальную часть адреса (до '@').
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

type RefreshToken struct {
	ID        int64
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

func (t RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
