package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"laptophub/internal/domain/model"
	repo "laptophub/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// 会員登録とログイン。コアの注文エンジンから見ると外部協力者だが、
// 所有チェックに使うuser_idはここが発行するJWTから来る。
type AuthUsecase struct {
	userRepo   repo.UserRepository
	jwtSecret  []byte
	accessTTL  time.Duration
	bcryptCost int
}

func NewAuthUsecase(userRepo repo.UserRepository, jwtSecret string, accessTTL time.Duration) *AuthUsecase {
	return &AuthUsecase{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		bcryptCost: 12,
	}
}

type RegisterInput struct {
	Email    string
	Password string
}

type UserOutput struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type TokenOutput struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (UserOutput, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if !strings.Contains(email, "@") || len(email) > 255 {
		return UserOutput{}, ErrInvalidEmailFormat
	}
	if len(in.Password) < 8 {
		return UserOutput{}, ErrPasswordTooShort
	}

	if _, err := u.userRepo.FindByEmail(ctx, email); err == nil {
		return UserOutput{}, ErrEmailAlreadyExists
	} else if err != repo.ErrNotFound {
		return UserOutput{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), u.bcryptCost)
	if err != nil {
		return UserOutput{}, err
	}

	now := time.Now()
	id, err := u.userRepo.Create(ctx, model.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return UserOutput{}, err
	}

	return UserOutput{ID: id, Email: email, Role: string(model.RoleUser)}, nil
}

type LoginInput struct {
	Email    string
	Password string
}

func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (TokenOutput, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || in.Password == "" {
		return TokenOutput{}, ErrInvalidCredentials
	}

	user, err := u.userRepo.FindByEmail(ctx, email)
	if err == repo.ErrNotFound {
		return TokenOutput{}, ErrInvalidCredentials
	}
	if err != nil {
		return TokenOutput{}, err
	}
	if !user.IsActive {
		return TokenOutput{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return TokenOutput{}, ErrInvalidCredentials
	}

	now := time.Now()
	expiresAt := now.Add(u.accessTTL)

	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(user.ID, 10),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(u.jwtSecret)
	if err != nil {
		return TokenOutput{}, err
	}

	return TokenOutput{AccessToken: signed, ExpiresAt: expiresAt}, nil
}
