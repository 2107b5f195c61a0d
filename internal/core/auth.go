// Package core - Core Business Logic
// Protocol-agnostic identity service: accounts, profiles and JWT tokens
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"forumhub/internal/forum"
	"forumhub/internal/repository"
	"forumhub/internal/store"
	"forumhub/pkg/logger"
	"forumhub/pkg/models"
	"forumhub/pkg/utils"
)

// AuthService defines authentication operations
type AuthService interface {
	// Register creates the account, writes the public profile to users/<id>
	// and signs the new user in
	Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	// ValidateToken verifies a bearer token and returns the user it names
	ValidateToken(ctx context.Context, tokenString string) (models.AuthUser, error)
}

type authService struct {
	accounts  repository.AccountRepository
	profiles  store.Store
	jwtSecret []byte
	jwtIssuer string
	jwtExpiry time.Duration
	now       func() time.Time
}

// JWT claims structure
type jwtClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// NewAuthService creates a new authentication service
func NewAuthService(accounts repository.AccountRepository, profiles store.Store, jwtSecret, jwtIssuer string, jwtExpiry time.Duration) AuthService {
	return &authService{
		accounts:  accounts,
		profiles:  profiles,
		jwtSecret: []byte(jwtSecret),
		jwtIssuer: jwtIssuer,
		jwtExpiry: jwtExpiry,
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	if err := utils.ValidateRegisterRequest(&req); err != nil {
		return nil, err
	}

	exists, err := s.accounts.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, models.NewHTTPError(models.ErrCodeConflict, "email already registered", 409, models.ErrEmailExists)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    s.now(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	profile := models.UserProfile{
		UID:         account.ID,
		FullName:    req.FullName,
		Email:       account.Email,
		PhoneNumber: req.PhoneNumber,
		CreatedAt:   account.CreatedAt.UnixMilli(),
	}
	if err := s.profiles.Write(ctx, forum.ProfilePath(account.ID), profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"component": "auth",
		"user_id":   account.ID,
	}).Info("Account registered")

	return s.issue(account)
}

func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	return s.issue(account)
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (models.AuthUser, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return models.AuthUser{}, models.ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return models.AuthUser{}, models.ErrInvalidToken
	}

	// A deleted account invalidates its tokens
	account, err := s.accounts.GetByID(ctx, claims.UserID)
	if err != nil {
		return models.AuthUser{}, models.ErrInvalidToken
	}

	return models.AuthUser{ID: account.ID, Email: account.Email}, nil
}

func (s *authService) issue(account *models.Account) (*models.LoginResponse, error) {
	token, expiresAt, err := s.generateToken(account)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.LoginResponse{
		Token:     token,
		User:      models.AuthUser{ID: account.ID, Email: account.Email},
		ExpiresIn: int(expiresAt.Sub(s.now()).Seconds()),
	}, nil
}

// generateToken creates a new JWT token for an account
func (s *authService) generateToken(account *models.Account) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.jwtExpiry)

	claims := &jwtClaims{
		UserID: account.ID,
		Email:  account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.jwtIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}
