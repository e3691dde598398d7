package usecase_test

import (
	"context"
	"testing"
	"time"

	"laptophub/internal/domain/model"
	repo "laptophub/internal/repository"
	"laptophub/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Create(ctx context.Context, u model.User) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

func TestAuthUsecase_Register_Success(t *testing.T) {
	users := new(UserRepoMock)
	uc := usecase.NewAuthUsecase(users, "secret", 15*time.Minute)

	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(model.User{}, repo.ErrNotFound)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		return u.Email == "taro@example.com" && u.Role == model.RoleUser && u.PasswordHash != "password123"
	})).Return(int64(1), nil)

	out, err := uc.Register(context.Background(), usecase.RegisterInput{
		Email:    "Taro@Example.com",
		Password: "password123",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.ID)
	assert.Equal(t, "taro@example.com", out.Email)
	users.AssertExpectations(t)
}

func TestAuthUsecase_Register_InvalidEmail(t *testing.T) {
	uc := usecase.NewAuthUsecase(new(UserRepoMock), "secret", 15*time.Minute)

	_, err := uc.Register(context.Background(), usecase.RegisterInput{
		Email:    "not-an-email",
		Password: "password123",
	})
	assert.ErrorIs(t, err, usecase.ErrInvalidEmailFormat)
}

func TestAuthUsecase_Register_PasswordTooShort(t *testing.T) {
	uc := usecase.NewAuthUsecase(new(UserRepoMock), "secret", 15*time.Minute)

	_, err := uc.Register(context.Background(), usecase.RegisterInput{
		Email:    "taro@example.com",
		Password: "short",
	})
	assert.ErrorIs(t, err, usecase.ErrPasswordTooShort)
}

func TestAuthUsecase_Register_DuplicateEmail(t *testing.T) {
	users := new(UserRepoMock)
	uc := usecase.NewAuthUsecase(users, "secret", 15*time.Minute)

	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(model.User{ID: 1}, nil)

	_, err := uc.Register(context.Background(), usecase.RegisterInput{
		Email:    "taro@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, usecase.ErrEmailAlreadyExists)
}

func TestAuthUsecase_Login_Success(t *testing.T) {
	users := new(UserRepoMock)
	uc := usecase.NewAuthUsecase(users, "secret", 15*time.Minute)

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(model.User{
		ID:           1,
		Email:        "taro@example.com",
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		IsActive:     true,
	}, nil)

	out, err := uc.Login(context.Background(), usecase.LoginInput{
		Email:    "taro@example.com",
		Password: "password123",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)
	assert.True(t, out.ExpiresAt.After(time.Now()))
}

func TestAuthUsecase_Login_WrongPassword(t *testing.T) {
	users := new(UserRepoMock)
	uc := usecase.NewAuthUsecase(users, "secret", 15*time.Minute)

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(model.User{
		ID:           1,
		PasswordHash: string(hash),
		IsActive:     true,
	}, nil)

	_, err := uc.Login(context.Background(), usecase.LoginInput{
		Email:    "taro@example.com",
		Password: "wrongpass",
	})
	assert.ErrorIs(t, err, usecase.ErrInvalidCredentials)
}

func TestAuthUsecase_Login_UnknownEmail(t *testing.T) {
	users := new(UserRepoMock)
	uc := usecase.NewAuthUsecase(users, "secret", 15*time.Minute)

	users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(model.User{}, repo.ErrNotFound)

	_, err := uc.Login(context.Background(), usecase.LoginInput{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, usecase.ErrInvalidCredentials)
}
