package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/auth"
	"github.com/BuzzLyutic/task-tracker-api/internal/model"
	"github.com/BuzzLyutic/task-tracker-api/internal/repo"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// plainHasher - быстрый детерминированный хэшер для тестов.
type plainHasher struct {
	verified []string
}

func (h *plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (h *plainHasher) Verify(password, hash string) bool {
	h.verified = append(h.verified, hash)
	return "hashed:"+password == hash
}

type authMocks struct {
	users  *MockUserRepository
	tokens *MockTokenRepository
	hasher *plainHasher
}

func newAuthService(t *testing.T) (*AuthService, authMocks) {
	t.Helper()
	m := authMocks{
		users:  new(MockUserRepository),
		tokens: new(MockTokenRepository),
		hasher: &plainHasher{},
	}
	jwt := auth.NewTokenManager(testSecret, 15*time.Minute, 24*time.Hour)
	s := NewAuthService(m.users, m.tokens, passthroughTx{}, m.hasher, jwt, zap.NewNop())
	t.Cleanup(func() {
		m.users.AssertExpectations(t)
		m.tokens.AssertExpectations(t)
	})
	return s, m
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name      string
		in        model.RegisterInput
		setupMock func(m authMocks)
		wantErr   error
		wantUser  string
	}{
		{
			name: "username derived from email",
			in:   model.RegisterInput{Email: "a@x.com", Password: "password1"},
			setupMock: func(m authMocks) {
				m.users.On("Create", mock.Anything, "a", "a@x.com", "hashed:password1").
					Return(model.User{ID: 1, Username: "a", Email: "a@x.com"}, nil)
			},
			wantUser: "a",
		},
		{
			name: "email taken",
			in:   model.RegisterInput{Email: "a@x.com", Password: "password1"},
			setupMock: func(m authMocks) {
				m.users.On("Create", mock.Anything, "a", "a@x.com", "hashed:password1").
					Return(model.User{}, repo.ErrorAlreadyExists)
			},
			wantErr: repo.ErrorAlreadyExists,
		},
		{
			name:      "short password",
			in:        model.RegisterInput{Email: "a@x.com", Password: "short"},
			setupMock: func(m authMocks) {},
			wantErr:   ErrValidation,
		},
		{
			name:      "malformed email",
			in:        model.RegisterInput{Email: "not-an-email", Password: "password1"},
			setupMock: func(m authMocks) {},
			wantErr:   ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m := newAuthService(t)
			tt.setupMock(m)

			user, err := s.Register(context.Background(), tt.in)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, user.Username)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	user := model.User{ID: 1, Username: "a", Email: "a@x.com", HashedPassword: "hashed:password1"}

	t.Run("success persists refresh token", func(t *testing.T) {
		s, m := newAuthService(t)
		m.users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)
		m.tokens.On("Create", mock.Anything, mock.AnythingOfType("string"), int64(1), mock.AnythingOfType("time.Time")).Return(nil)

		pair, err := s.Login(context.Background(), model.LoginInput{Email: "a@x.com", Password: "password1"})
		require.NoError(t, err)
		assert.Equal(t, "bearer", pair.TokenType)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		s, m := newAuthService(t)
		m.users.On("GetByEmail", mock.Anything, "nobody@x.com").Return(model.User{}, repo.ErrorNotFound)
		m.users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)

		_, errUnknown := s.Login(context.Background(), model.LoginInput{Email: "nobody@x.com", Password: "password1"})
		_, errWrong := s.Login(context.Background(), model.LoginInput{Email: "a@x.com", Password: "wrong-password"})

		assert.ErrorIs(t, errUnknown, ErrAuthentication)
		assert.ErrorIs(t, errWrong, ErrAuthentication)
		assert.Equal(t, errUnknown.Error(), errWrong.Error())
		// при неизвестном email тоже выполняется сравнение хэша
		assert.Len(t, m.hasher.verified, 2)
	})

	t.Run("storage failure is not an authentication error", func(t *testing.T) {
		s, m := newAuthService(t)
		m.users.On("GetByEmail", mock.Anything, "a@x.com").Return(model.User{}, repo.ErrorStorage)

		_, err := s.Login(context.Background(), model.LoginInput{Email: "a@x.com", Password: "password1"})
		assert.ErrorIs(t, err, repo.ErrorStorage)
		assert.NotErrorIs(t, err, ErrAuthentication)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	jwt := auth.NewTokenManager(testSecret, 15*time.Minute, 24*time.Hour)
	refresh, expiresAt, err := jwt.IssueRefreshToken(1)
	require.NoError(t, err)
	access, err := jwt.IssueAccessToken(1)
	require.NoError(t, err)
	stored := model.RefreshToken{ID: 1, Token: refresh, UserID: 1, ExpiresAt: expiresAt}

	tests := []struct {
		name      string
		token     string
		now       time.Time
		setupMock func(m authMocks)
		wantErr   error
	}{
		{
			name:  "valid token can be reused",
			token: refresh,
			setupMock: func(m authMocks) {
				m.tokens.On("GetByToken", mock.Anything, refresh).Return(stored, nil).Twice()
				m.users.On("GetByID", mock.Anything, int64(1)).Return(model.User{ID: 1}, nil).Twice()
			},
		},
		{
			name:      "empty token",
			token:     "",
			setupMock: func(m authMocks) {},
			wantErr:   ErrAuthentication,
		},
		{
			name:      "access token is not a refresh token",
			token:     access,
			setupMock: func(m authMocks) {},
			wantErr:   ErrAuthentication,
		},
		{
			name:  "not persisted",
			token: refresh,
			setupMock: func(m authMocks) {
				m.tokens.On("GetByToken", mock.Anything, refresh).Return(model.RefreshToken{}, repo.ErrorNotFound)
			},
			wantErr: ErrAuthentication,
		},
		{
			name:  "expired row",
			token: refresh,
			now:   expiresAt.Add(-time.Minute),
			setupMock: func(m authMocks) {
				expired := stored
				expired.ExpiresAt = expiresAt.Add(-2 * time.Minute)
				m.tokens.On("GetByToken", mock.Anything, refresh).Return(expired, nil)
			},
			wantErr: ErrAuthentication,
		},
		{
			name:  "user removed",
			token: refresh,
			setupMock: func(m authMocks) {
				m.tokens.On("GetByToken", mock.Anything, refresh).Return(stored, nil)
				m.users.On("GetByID", mock.Anything, int64(1)).Return(model.User{}, repo.ErrorNotFound)
			},
			wantErr: ErrAuthentication,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m := newAuthService(t)
			if !tt.now.IsZero() {
				now := tt.now
				s.now = func() time.Time { return now }
			}
			tt.setupMock(m)

			got, err := s.Refresh(context.Background(), tt.token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, got.AccessToken)

			again, err := s.Refresh(context.Background(), tt.token)
			require.NoError(t, err)
			assert.NotEmpty(t, again.AccessToken)
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	s, m := newAuthService(t)
	access, err := s.jwt.IssueAccessToken(4)
	require.NoError(t, err)
	m.users.On("GetByID", mock.Anything, int64(4)).Return(model.User{ID: 4}, nil)

	id, err := s.Authenticate(context.Background(), access)
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)

	_, err = s.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrAuthentication)
}
