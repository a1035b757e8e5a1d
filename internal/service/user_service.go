package service

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/activity-desk/internal/auth"
	"github.com/spec-kit/activity-desk/internal/domain"
	"github.com/spec-kit/activity-desk/internal/repository"
	apperrors "github.com/spec-kit/activity-desk/pkg/util/errorutil"
)

// UserCreateInput is the super-admin's new account form.
type UserCreateInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Role      domain.Role
}

// UserUpdateInput edits an account. An empty Password keeps the current one.
type UserUpdateInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Role      domain.Role
}

// UserService manages accounts and the manager/employee relation.
type UserService struct {
	users      repository.UserRepository
	tx         repository.TxRunner
	bcryptCost int
	logger     *zap.Logger
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Tx         repository.TxRunner
	BcryptCost int
	Logger     *zap.Logger
}

// NewUserService builds the service.
func NewUserService(deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:      deps.UserRepo,
		tx:         deps.Tx,
		bcryptCost: deps.BcryptCost,
		logger:     logger,
	}
}

// CreateUser hashes the password and stores the account.
func (s *UserService) CreateUser(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	if !input.Role.Valid() {
		return nil, apperrors.NewFieldError("user_type", "نوع کاربر نامعتبر است.")
	}
	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         input.Role,
	}
	if err := s.users.Create(ctx, nil, user); err != nil {
		return nil, usernameConflict(err)
	}
	return user, nil
}

// UpdateUser edits an account. Demoting a manager detaches their employees and
// anyone who is no longer an employee loses their manager.
func (s *UserService) UpdateUser(ctx context.Context, id string, input UserUpdateInput) (*domain.User, error) {
	if !input.Role.Valid() {
		return nil, apperrors.NewFieldError("user_type", "نوع کاربر نامعتبر است.")
	}

	var hash string
	if input.Password != "" {
		var err error
		if hash, err = auth.HashPassword(input.Password, s.bcryptCost); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}

	var updated *domain.User
	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		user, err := s.users.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		wasManager := user.Role == domain.RoleManager

		user.Username = strings.TrimSpace(input.Username)
		user.FirstName = strings.TrimSpace(input.FirstName)
		user.LastName = strings.TrimSpace(input.LastName)
		user.Role = input.Role
		if hash != "" {
			user.PasswordHash = hash
		}
		if user.Role != domain.RoleEmployee {
			user.ManagerID = null.String{}
		}

		if wasManager && user.Role != domain.RoleManager {
			if err := s.users.DetachEmployees(ctx, tx, user.ID); err != nil {
				return err
			}
		}
		if err := s.users.Update(ctx, tx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, usernameConflict(err)
	}
	return updated, nil
}

// SelectManager links an employee to a manager. An empty managerID clears it.
func (s *UserService) SelectManager(ctx context.Context, userID, managerID string) (*domain.User, error) {
	var updated *domain.User
	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		user, err := s.users.GetByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user.Role != domain.RoleEmployee {
			return apperrors.NewFieldError("user_type", "فقط برای کارمندان می‌توان مدیر انتخاب کرد.")
		}

		if managerID == "" {
			user.ManagerID = null.String{}
		} else {
			manager, err := s.users.GetByID(ctx, tx, managerID)
			if err != nil {
				if apperrors.IsNoRows(err) {
					return apperrors.NewFieldError("manager", "مدیر انتخاب شده وجود ندارد.")
				}
				return err
			}
			if manager.Role != domain.RoleManager {
				return apperrors.NewFieldError("manager", "کاربر انتخاب شده مدیر نیست.")
			}
			user.ManagerID = null.StringFrom(manager.ID)
		}

		if err := s.users.Update(ctx, tx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return updated, nil
}

// DeleteUser removes an account. Nobody may delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return apperrors.NewForbidden("امکان حذف حساب کاربری خودتان وجود ندارد.")
	}
	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		user, err := s.users.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if user.Role == domain.RoleManager {
			if err := s.users.DetachEmployees(ctx, tx, user.ID); err != nil {
				return err
			}
		}
		return s.users.Delete(ctx, tx, id)
	})
	if err != nil {
		if apperrors.IsNoRows(err) {
			return apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("actor_id", actorID))
	return nil
}

// GetUser loads one account.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, nil, id)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ListUsers returns one page of scope narrowed by filter.
func (s *UserService) ListUsers(ctx context.Context, scope sq.Sqlizer, filter repository.UserFilter) (*Page[domain.User], error) {
	items, err := s.users.List(ctx, nil, scope, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	total, err := s.users.Count(ctx, nil, scope, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	return &Page[domain.User]{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// ManagedEmployees lists a manager's approved employees.
func (s *UserService) ManagedEmployees(ctx context.Context, managerID string, filter repository.UserFilter) (*Page[domain.User], error) {
	return s.ListUsers(ctx, repository.ManagedEmployees(managerID), filter)
}

// Managers lists every manager, for the select-manager step.
func (s *UserService) Managers(ctx context.Context) ([]domain.User, error) {
	items, err := s.users.List(ctx, nil, repository.Unscoped(), repository.UserFilter{Role: domain.RoleManager, Limit: 1000})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

func usernameConflict(err error) error {
	if constraint, ok := apperrors.IsUniqueViolation(err); ok {
		return apperrors.NewConflict("این نام کاربری قبلا ثبت شده است.", map[string]any{"constraint": constraint})
	}
	return apperrors.MapError(err)
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = repository.DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
