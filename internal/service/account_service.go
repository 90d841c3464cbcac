package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"account-api/internal/domain"
	"account-api/internal/repository"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user inactive")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrEmailTaken         = errors.New("email already registered")
	ErrRateLimited        = errors.New("rate limited")
)

// DeleteMode define la política de borrado de cuentas.
type DeleteMode string

const (
	// DeleteModeDeactivate marca la cuenta como inactiva (reversible).
	DeleteModeDeactivate DeleteMode = "deactivate"
	// DeleteModeHard elimina el registro de forma permanente.
	DeleteModeHard DeleteMode = "hard"
)

// AccountService coordina reglas de negocio para cuentas de usuario.
type AccountService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	hasher      *PasswordHasher
	rateLimiter LoginRateLimiter
	deleteMode  DeleteMode
}

func NewAccountService(logger *zap.Logger, users repository.UserRepository, hasher *PasswordHasher, rateLimiter LoginRateLimiter, deleteMode DeleteMode) *AccountService {
	if hasher == nil {
		hasher = NewPasswordHasher(0)
	}
	if deleteMode != DeleteModeHard {
		deleteMode = DeleteModeDeactivate
	}
	return &AccountService{
		logger:      logger,
		users:       users,
		hasher:      hasher,
		rateLimiter: rateLimiter,
		deleteMode:  deleteMode,
	}
}

// Mode devuelve la política de borrado configurada.
func (s *AccountService) Mode() DeleteMode {
	return s.deleteMode
}

type CreateAccountInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Address   string
	City      string
	State     string
	ZipCode   string
}

// CreateAccount crea una cuenta nueva. Falla con ErrEmailTaken si el
// email ya está registrado (sin distinguir mayúsculas).
func (s *AccountService) CreateAccount(ctx context.Context, input CreateAccountInput) (domain.User, error) {
	emailAddr := normalizeEmail(input.Email)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}

	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return domain.User{}, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        emailAddr,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Address:      strings.TrimSpace(input.Address),
		City:         strings.TrimSpace(input.City),
		State:        strings.TrimSpace(input.State),
		ZipCode:      strings.TrimSpace(input.ZipCode),
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}
	return user, nil
}

// Authenticate valida email y contraseña. Distingue usuario inexistente,
// cuenta inactiva y contraseña incorrecta.
func (s *AccountService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if s.rateLimiter != nil && !s.rateLimiter.Allow(emailAddr) {
		return domain.User{}, ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	if !user.IsActive {
		return domain.User{}, ErrUserInactive
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// ProfileUpdate enumera los campos actualizables de una cuenta. Un campo
// nil se deja sin tocar. Cualquier campo fuera de este conjunto se
// rechaza en la capa HTTP antes de llegar aquí.
type ProfileUpdate struct {
	Email     *string `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Address   *string `json:"address"`
	City      *string `json:"city"`
	State     *string `json:"state"`
	ZipCode   *string `json:"zipCode"`
}

// UpdateProfile aplica los campos presentes del update y persiste. No hay
// actualización parcial: si algo falla no se persiste nada.
func (s *AccountService) UpdateProfile(ctx context.Context, user domain.User, update ProfileUpdate) (domain.User, error) {
	if update.Email != nil {
		emailAddr := normalizeEmail(*update.Email)
		if emailAddr == "" {
			return domain.User{}, ErrInvalidEmail
		}
		user.Email = emailAddr
	}
	if update.FirstName != nil {
		user.FirstName = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		user.LastName = strings.TrimSpace(*update.LastName)
	}
	if update.Address != nil {
		user.Address = strings.TrimSpace(*update.Address)
	}
	if update.City != nil {
		user.City = strings.TrimSpace(*update.City)
	}
	if update.State != nil {
		user.State = strings.TrimSpace(*update.State)
	}
	if update.ZipCode != nil {
		user.ZipCode = strings.TrimSpace(*update.ZipCode)
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return domain.User{}, ErrEmailTaken
		case errors.Is(err, pgx.ErrNoRows):
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// ChangePassword exige la contraseña actual antes de aceptar la nueva.
func (s *AccountService) ChangePassword(ctx context.Context, user domain.User, currentPassword, newPassword string) error {
	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// DeleteAccount exige la contraseña actual y aplica la política de
// borrado configurada.
func (s *AccountService) DeleteAccount(ctx context.Context, user domain.User, currentPassword string) error {
	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	var err error
	if s.deleteMode == DeleteModeHard {
		err = s.users.Delete(ctx, user.ID)
	} else {
		err = s.users.Deactivate(ctx, user.ID)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if s.logger != nil {
		s.logger.Info("account deleted",
			zap.String("user_id", user.ID),
			zap.String("mode", string(s.deleteMode)),
		)
	}
	return nil
}

func normalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return ""
	}
	return email
}
