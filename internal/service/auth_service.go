package service

import (
	"alcyxob/fittrack/internal/auth"
	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/repository"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrAuthenticationFailed = fmt.Errorf("%w: invalid email or password", domain.ErrAuthenticationRequired)
)

type AuthService interface {
	Register(ctx context.Context, fullName, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*auth.Credential, *domain.User, error)
	Logout(ctx context.Context, token string) error
	// Authenticate resolves a credential token to the signed-in user id.
	Authenticate(ctx context.Context, token string) (string, error)
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
	UpdateFullName(ctx context.Context, userID, fullName string) (*domain.User, error)
}

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	authenticator *auth.Authenticator
}

func NewAuthService(userRepo repository.UserRepository, authenticator *auth.Authenticator) AuthService {
	return &authService{
		userRepo:      userRepo,
		authenticator: authenticator,
	}
}

// Register handles new user registration.
func (s *authService) Register(ctx context.Context, fullName, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.Validationf("invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, domain.Validationf("password must be at least %d characters", minPasswordLength)
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, domain.Persistence("look up user", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: string(hashedPassword),
	}
	userID, err := s.userRepo.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		// Lost a race against a concurrent registration.
		return nil, ErrUserAlreadyExists
	}
	if err != nil {
		return nil, domain.Persistence("create user", err)
	}
	user.ID = userID
	user.PasswordHash = ""

	log.WithField("user_id", userID).Info("user registered")
	return user, nil
}

// Login checks the password and opens a credential session.
func (s *authService) Login(ctx context.Context, email, password string) (*auth.Credential, *domain.User, error) {
	if email == "" || password == "" {
		return nil, nil, ErrAuthenticationFailed
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrAuthenticationFailed
	}
	if err != nil {
		return nil, nil, domain.Persistence("look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrAuthenticationFailed
	}

	credential, err := s.authenticator.Open(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	user.PasswordHash = ""
	return credential, user, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	return s.authenticator.Close(ctx, token)
}

func (s *authService) Authenticate(ctx context.Context, token string) (string, error) {
	return s.authenticator.Authenticate(ctx, token)
}

func (s *authService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrAuthenticationRequired
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, domain.Persistence("get user", err)
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateFullName changes the only mutable profile field.
func (s *authService) UpdateFullName(ctx context.Context, userID, fullName string) (*domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, domain.Validationf("full name cannot be empty")
	}
	if err := s.userRepo.UpdateFullName(ctx, userID, fullName); err != nil {
		return nil, domain.Persistence("update full name", err)
	}
	return s.CurrentUser(ctx, userID)
}
