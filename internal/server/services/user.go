package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Junhyukkkk/anondocs-server/internal/common"
	"github.com/Junhyukkkk/anondocs-server/internal/server/auth"
	"github.com/Junhyukkkk/anondocs-server/internal/server/models"
	"github.com/Junhyukkkk/anondocs-server/internal/server/repositories/users"
)

type UserService struct {
	repo                        users.Repository
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

func NewUserService(repo users.Repository, jwtSecret []byte, accessTokenValidity time.Duration) *UserService {
	return &UserService{
		repo:                        repo,
		jwtSecret:                   jwtSecret,
		accessTokenValidityDuration: accessTokenValidity,
	}
}

func (s *UserService) Register(ctx context.Context, email, password, nickname string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Nickname:     nickname,
		Status:       models.UserStatusActive,
	}

	user, err = s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Login checks the credentials and issues an access token. A wrong email and
// a wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, common.ErrorUnauthorized
		}
		return "", nil, common.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", nil, common.ErrorInternal
	}

	return token, user, nil
}
