package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"vetchat/internal/auth"
	"vetchat/internal/db"
	apperrors "vetchat/internal/errors"
	"vetchat/internal/repository"
	"vetchat/pkg/logging"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type AuthService interface {
	Login(ctx context.Context, usernameOrEmail, password string) (string, *db.User, error)
	// Register creates a user. Only an admin caller may create another admin.
	Register(ctx context.Context, req RegisterRequest, caller *auth.Claims) error
	// EnsureAdmin creates the bootstrap admin if it does not exist yet.
	EnsureAdmin(ctx context.Context, username, email, password string) error
}

type authService struct {
	repo   repository.UserRepository
	secret []byte
	ttl    time.Duration
	clock  Clock
	logger *logging.Logger
}

func NewAuthService(repo repository.UserRepository, secret string, ttl time.Duration, clock Clock, logger *logging.Logger) AuthService {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &authService{repo: repo, secret: []byte(secret), ttl: ttl, clock: clock, logger: logger}
}

func (s *authService) Login(ctx context.Context, usernameOrEmail, password string) (string, *db.User, error) {
	usernameOrEmail = strings.TrimSpace(usernameOrEmail)
	if usernameOrEmail == "" || password == "" {
		return "", nil, apperrors.ErrBadRequest("username and password are required")
	}
	user, err := s.repo.GetByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, apperrors.ErrUnauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.ErrUnauthorized("invalid credentials")
	}

	token, err := auth.NewToken(s.secret, user, s.ttl, s.clock())
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *authService) Register(ctx context.Context, req RegisterRequest, caller *auth.Claims) error {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return apperrors.ErrBadRequest("username, email and password are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return apperrors.ErrBadRequest("invalid email address")
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	switch role {
	case "", db.RoleUser:
		role = db.RoleUser
	case db.RoleAdmin:
		if !caller.IsAdmin() {
			return apperrors.ErrForbidden("only admins can create admin users")
		}
	default:
		return apperrors.ErrBadRequest(fmt.Sprintf("unknown role %q", req.Role))
	}

	if err := s.repo.Create(ctx, req.Username, req.Email, req.Password, role); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return apperrors.ErrConflict("username or email already exists")
		}
		return err
	}
	s.logger.Info("user registered", "username", req.Username, "role", role)
	return nil
}

func (s *authService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	existing, err := s.repo.GetByUsernameOrEmail(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	if err := s.repo.Create(ctx, username, email, password, db.RoleAdmin); err != nil && !errors.Is(err, repository.ErrUserExists) {
		return fmt.Errorf("creating bootstrap admin: %w", err)
	}
	s.logger.Info("bootstrap admin created", "username", username)
	return nil
}
