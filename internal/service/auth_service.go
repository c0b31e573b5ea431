package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"recipe-blog/internal/domain"
	"recipe-blog/internal/repository"
)

// AuthService coordina registro, autenticación e historial de logins.
type AuthService struct {
	logger  *zap.Logger
	users   repository.UserRepository
	history repository.LoginHistoryRepository
}

func NewAuthService(logger *zap.Logger, users repository.UserRepository, history repository.LoginHistoryRepository) *AuthService {
	return &AuthService{
		logger:  logger,
		users:   users,
		history: history,
	}
}

var (
	ErrEmailRequired      = errors.New("email required")
	ErrPasswordRequired   = errors.New("password required")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

const (
	passwordMinLength = 6
	loginHistoryLimit = 100
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("auth service not configured")
	}

	emailAddr := normalizeEmail(input.Email)
	password := strings.TrimSpace(input.Password)
	if emailAddr == "" {
		return domain.User{}, ErrEmailRequired
	}
	if password == "" {
		return domain.User{}, ErrPasswordRequired
	}
	if len(password) < passwordMinLength {
		return domain.User{}, ErrPasswordTooShort
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.users.Create(ctx, domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        emailAddr,
		PasswordHash: string(hashBytes),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *AuthService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("auth service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// La respuesta no distingue email desconocido de password incorrecto.
			s.logger.Info("login failed, user not found", zap.String("email", emailAddr))
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed, wrong password", zap.String("email", emailAddr))
		return domain.User{}, ErrInvalidCredentials
	}

	user.PasswordHash = ""
	return user, nil
}

// RecordLogin registra el evento de login sin bloquear la respuesta al cliente.
// Un fallo aquí solo se loguea, nunca se propaga.
func (s *AuthService) RecordLogin(user domain.User, ip, userAgent string) {
	if s.history == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		event := domain.LoginEvent{
			UserID:    user.ID,
			Email:     user.Email,
			IPAddress: ip,
			UserAgent: userAgent,
		}
		if err := s.history.Create(ctx, event); err != nil {
			s.logger.Warn("record login history failed", zap.Error(err), zap.Int64("user_id", user.ID))
		}
	}()
}

func (s *AuthService) GetUser(ctx context.Context, id int64) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("auth service not configured")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *AuthService) LoginHistory(ctx context.Context) ([]domain.LoginEvent, error) {
	if s.history == nil {
		return nil, errors.New("auth service not configured")
	}
	return s.history.ListRecent(ctx, loginHistoryLimit)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	if s.users == nil {
		return nil, errors.New("auth service not configured")
	}
	return s.users.ListRecent(ctx, 200)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
