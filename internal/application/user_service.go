package application

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// PasswordHasher derives a stored hash from a plain password.
type PasswordHasher func(password string) (string, error)

// UserService manages account registration and administration.
type UserService struct {
	users       persistence.UserRepository
	hash        PasswordHasher
	idGenerator func() string
	logger      *slog.Logger
}

// NewUserService constructs a UserService with the provided dependencies.
func NewUserService(users persistence.UserRepository, hash PasswordHasher, idGenerator func() string) *UserService {
	return NewUserServiceWithLogger(users, hash, idGenerator, nil)
}

// NewUserServiceWithLogger constructs a UserService with a specified logger.
func NewUserServiceWithLogger(users persistence.UserRepository, hash PasswordHasher, idGenerator func() string, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &UserService{
		users:       users,
		hash:        hash,
		idGenerator: idGenerator,
		logger:      defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

const minPasswordLength = 8

// CreateUser registers a new account. Only privileged principals may
// create accounts.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (result User, err error) {
	logger := s.loggerWith(ctx, "CreateUser",
		"acting_user_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "user creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.ID).InfoContext(ctx, "user created")
	}()

	if !params.Principal.Privileged {
		err = ErrUnauthorized
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	displayName := strings.TrimSpace(params.DisplayName)

	vErr := &ValidationError{}
	if email == "" {
		vErr.add("email", "campo obrigatório")
	} else if _, mailErr := mail.ParseAddress(email); mailErr != nil {
		vErr.add("email", "e-mail inválido")
	}
	if displayName == "" {
		vErr.add("display_name", "campo obrigatório")
	}
	if len(params.Password) < minPasswordLength {
		vErr.add("password", "a senha deve ter pelo menos 8 caracteres")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	hash, err := s.hash(params.Password)
	if err != nil {
		return
	}

	row := persistence.User{
		ID:           s.idGenerator(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		Privileged:   params.Privileged,
	}
	if err = s.users.CreateUser(ctx, row); err != nil {
		if isPersistenceDuplicate(err) {
			err = ErrAlreadyExists
		}
		return
	}

	stored, err := s.users.GetUser(ctx, row.ID)
	if err != nil {
		return
	}
	result = toAppUser(stored)
	return
}

// GetUser fetches an account by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (User, error) {
	row, err := s.users.GetUser(ctx, id)
	if err != nil {
		if isPersistenceNotFound(err) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return toAppUser(row), nil
}

// ListUsers returns every account, ordered by email. Only privileged
// principals may list.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if !principal.Privileged {
		return nil, ErrUnauthorized
	}

	rows, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, len(rows))
	for _, row := range rows {
		users = append(users, toAppUser(row))
	}
	return users, nil
}

// UpdateUser changes the privileged or disabled flags of an account. Only
// privileged principals may update, and they cannot disable themselves.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (result User, err error) {
	logger := s.loggerWith(ctx, "UpdateUser",
		"acting_user_id", params.Principal.UserID,
		"user_id", params.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "user update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user updated")
	}()

	if !params.Principal.Privileged {
		err = ErrUnauthorized
		return
	}
	if params.Disabled != nil && *params.Disabled && params.UserID == params.Principal.UserID {
		err = ErrUnauthorized
		return
	}

	row, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		if isPersistenceNotFound(err) {
			err = ErrNotFound
		}
		return
	}

	if params.Privileged != nil {
		row.Privileged = *params.Privileged
	}
	if params.Disabled != nil {
		row.Disabled = *params.Disabled
	}
	row.UpdatedAt = time.Now().UTC()

	if err = s.users.UpdateUser(ctx, row); err != nil {
		return
	}

	stored, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		return
	}
	result = toAppUser(stored)
	return
}

// DeleteUser removes an account. Only privileged principals may delete,
// and they cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) (err error) {
	logger := s.loggerWith(ctx, "DeleteUser",
		"acting_user_id", principal.UserID,
		"user_id", userID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "user deletion failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user deleted")
	}()

	if !principal.Privileged {
		err = ErrUnauthorized
		return
	}
	if userID == principal.UserID {
		err = ErrUnauthorized
		return
	}

	if err = s.users.DeleteUser(ctx, userID); err != nil {
		if isPersistenceNotFound(err) {
			err = ErrNotFound
		}
		return
	}
	return nil
}

// EnsureAdmin creates the configured bootstrap administrator when no
// account with the given email exists yet. It is called at startup so a
// fresh database has a privileged account to log in with; an existing
// account is left untouched.
func (s *UserService) EnsureAdmin(ctx context.Context, email, displayName, password string) (err error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil
	}

	logger := s.loggerWith(ctx, "EnsureAdmin", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "admin bootstrap failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	_, err = s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !isPersistenceNotFound(err) {
		return
	}

	if displayName = strings.TrimSpace(displayName); displayName == "" {
		displayName = "Administrador"
	}
	if len(password) < minPasswordLength {
		vErr := &ValidationError{}
		vErr.add("password", "a senha deve ter pelo menos 8 caracteres")
		err = vErr
		return
	}

	hash, err := s.hash(password)
	if err != nil {
		return
	}

	if err = s.users.CreateUser(ctx, persistence.User{
		ID:           s.idGenerator(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		Privileged:   true,
	}); err != nil {
		// Lost the race to another instance seeding the same account.
		if isPersistenceDuplicate(err) {
			err = nil
		}
		return
	}

	logger.InfoContext(ctx, "bootstrap admin created")
	return nil
}
