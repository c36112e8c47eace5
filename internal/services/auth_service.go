package services

import (
	"errors"
	"time"

	"pos_manager/internal/models"
	"pos_manager/internal/redis"
	"pos_manager/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type AuthService interface {
	SignUp(name, email, phone, password, role string) (*models.User, error)
	SignInWithPassword(email, password string) (string, *models.User, error)
	SignOut(token string) error
	GetUser(token string) (*models.User, error)
}

type authService struct {
	userRepo   repository.UserRepository
	redis      *redis.Client
	sessionTTL time.Duration
}

func NewAuthService(userRepo repository.UserRepository, redisClient *redis.Client, sessionTTL time.Duration) AuthService {
	return &authService{userRepo: userRepo, redis: redisClient, sessionTTL: sessionTTL}
}

func (s *authService) SignUp(name, email, phone, password, role string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if role == "" {
		role = string(models.RoleCustomer)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        phone,
		Role:         role,
		PasswordHash: string(hashedPassword),
		IsActive:     true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) SignInWithPassword(email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token := uuid.NewString()
	session := &redis.SessionData{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: time.Now(),
	}
	if err := s.redis.SetSession(token, session, s.sessionTTL); err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *authService) SignOut(token string) error {
	return s.redis.DeleteSession(token)
}

func (s *authService) GetUser(token string) (*models.User, error) {
	session, err := s.redis.GetSession(token)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(session.UserID)
}
