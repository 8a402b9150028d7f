package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"peoples-bill-be/internal/dto"
	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/pkg/logger"
	"peoples-bill-be/internal/repository/specification"
	"peoples-bill-be/internal/repository/unitofwork"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type IAuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	// EnsureAdmin creates the admin account if the username is not taken yet.
	EnsureAdmin(ctx context.Context, username, password string, role entity.AdminRole) (bool, error)
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
	secret     string
	expiry     time.Duration
	logger     logger.ILogger
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory, secret string, expiry time.Duration, log logger.ILogger) IAuthService {
	return &authService{
		uowFactory: uowFactory,
		secret:     secret,
		expiry:     expiry,
		logger:     log,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.uowFactory.NewUnitOfWork(ctx).AdminUserRepository().FindOne(ctx, specification.ByUsername{Username: req.Username})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("AUTH", "Admin login rejected", map[string]interface{}{"username": req.Username})
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.Id.String(),
		"role":    string(user.Role),
		"iat":     now.Unix(),
		"exp":     now.Add(s.expiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info("AUTH", "Admin logged in", map[string]interface{}{"user_id": user.Id})
	return &dto.LoginResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.expiry.Seconds()),
		Role:        string(user.Role),
	}, nil
}

func (s *authService) EnsureAdmin(ctx context.Context, username, password string, role entity.AdminRole) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.AdminUserRepository().FindOne(ctx, specification.ByUsername{Username: username})
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	err = uow.AdminUserRepository().Create(ctx, &entity.AdminUser{
		Id:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
