package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/auth"
	"github.com/BuzzLyutic/task-tracker-api/internal/model"
	"github.com/BuzzLyutic/task-tracker-api/internal/repo"
)

const tokenType = "bearer"

// AuthService - регистрация, вход и обновление access-токена.
type AuthService struct {
	users  repo.UserRepository
	tokens repo.TokenRepository
	tx     repo.Transactor
	hasher auth.Hasher
	jwt    *auth.TokenManager
	logger *zap.Logger
	now    func() time.Time

	// хэш для сравнения при неизвестном email, чтобы время ответа не выдавало наличие аккаунта
	dummyHash string
}

func NewAuthService(
	users repo.UserRepository,
	tokens repo.TokenRepository,
	tx repo.Transactor,
	hasher auth.Hasher,
	jwt *auth.TokenManager,
	logger *zap.Logger,
) *AuthService {
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		logger.Warn("failed to prepare dummy hash", zap.Error(err))
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		tx:        tx,
		hasher:    hasher,
		jwt:       jwt,
		logger:    logger,
		now:       time.Now,
		dummyHash: dummy,
	}
}

func (s *AuthService) Register(ctx context.Context, in model.RegisterInput) (model.User, error) {
	if err := validateStruct(in); err != nil {
		return model.User{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return model.User{}, err
	}

	var user model.User
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.Create(ctx, model.UsernameFromEmail(in.Email), in.Email, hash)
		return err
	})
	if err != nil {
		if errors.Is(err, repo.ErrorAlreadyExists) {
			s.logger.Info("registration rejected: email taken")
		}
		return model.User{}, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return user, nil
}

// Login возвращает ErrAuthentication и для неизвестного email, и для неверного пароля.
func (s *AuthService) Login(ctx context.Context, in model.LoginInput) (model.TokenPair, error) {
	if err := validateStruct(in); err != nil {
		return model.TokenPair{}, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		s.hasher.Verify(in.Password, s.dummyHash)
		s.logger.Info("failed login attempt")
		return model.TokenPair{}, ErrAuthentication
	case err != nil:
		return model.TokenPair{}, err
	}

	if !s.hasher.Verify(in.Password, user.HashedPassword) {
		s.logger.Info("failed login attempt", zap.Int64("user_id", user.ID))
		return model.TokenPair{}, ErrAuthentication
	}

	access, err := s.jwt.IssueAccessToken(user.ID)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, expiresAt, err := s.jwt.IssueRefreshToken(user.ID)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.tokens.Create(ctx, refresh, user.ID, expiresAt)
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	s.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	return model.TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: tokenType}, nil
}

// Refresh выдаёт новый access-токен. Refresh-токен не ротируется и годен до истечения срока.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.AccessToken, error) {
	if refreshToken == "" {
		return model.AccessToken{}, ErrAuthentication
	}

	userID, err := s.jwt.ParseRefreshToken(refreshToken)
	if err != nil {
		s.logger.Info("refresh rejected", zap.String("reason", err.Error()))
		return model.AccessToken{}, ErrAuthentication
	}

	stored, err := s.tokens.GetByToken(ctx, refreshToken)
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		s.logger.Info("refresh rejected", zap.String("reason", "unknown token"), zap.Int64("user_id", userID))
		return model.AccessToken{}, ErrAuthentication
	case err != nil:
		return model.AccessToken{}, err
	}
	if stored.UserID != userID || stored.IsExpired(s.now()) {
		s.logger.Info("refresh rejected", zap.String("reason", "expired or mismatched"), zap.Int64("user_id", userID))
		return model.AccessToken{}, ErrAuthentication
	}

	if _, err := s.userExists(ctx, stored.UserID); err != nil {
		return model.AccessToken{}, err
	}

	access, err := s.jwt.IssueAccessToken(stored.UserID)
	if err != nil {
		return model.AccessToken{}, fmt.Errorf("issue access token: %w", err)
	}
	return model.AccessToken{AccessToken: access, TokenType: tokenType}, nil
}

// Authenticate проверяет access-токен и возвращает id пользователя.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (int64, error) {
	userID, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return 0, ErrAuthentication
	}
	return s.userExists(ctx, userID)
}

func (s *AuthService) userExists(ctx context.Context, userID int64) (int64, error) {
	user, err := s.users.GetByID(ctx, userID)
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		return 0, ErrAuthentication
	case err != nil:
		return 0, err
	}
	return user.ID, nil
}
