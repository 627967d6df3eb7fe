package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

const minPasswordLength = 8

// UserUseCase — регистрация, вход и администрирование пользователей.
type UserUseCase struct {
	userRepo UserRepository
	hasher   PasswordHasher
	tokens   TokenManager
	logger   logger.Logger
}

func NewUserUC(userRepo UserRepository, hasher PasswordHasher, tokens TokenManager, logger logger.Logger) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
	}
}

func (u *UserUseCase) Register(ctx context.Context, req *RegisterReq) (*domain.User, error) {
	const op = "UserUseCase.Register"

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, e.Wrap(op, e.ErrUserNameRequired)
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(req.Password) < minPasswordLength {
		return nil, e.Wrap(op, e.ErrPasswordTooShort)
	}

	role := req.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	if role != domain.RoleCustomer && role != domain.RoleAdmin {
		return nil, e.Wrap(op, e.ErrInvalidRole)
	}

	hash, err := u.hasher.Hash(req.Password)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	user, err := u.userRepo.Create(ctx, domain.NewUser(name, email, hash, role))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return user, nil
}

// Login проверяет пароль и выдаёт подписанный токен. Неизвестный email и неверный пароль неразличимы для клиента.
func (u *UserUseCase) Login(ctx context.Context, email, password string) (*LoginRes, error) {
	const op = "UserUseCase.Login"

	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, e.Wrap(op, e.ErrInvalidCredentials)
	}

	user, err := u.userRepo.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, e.ErrUserNotFound) {
			return nil, e.Wrap(op, e.ErrInvalidCredentials)
		}
		return nil, e.Wrap(op, err)
	}

	if err := u.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, e.Wrap(op, e.ErrInvalidCredentials)
	}

	token, err := u.tokens.Issue(TokenClaims{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &LoginRes{Token: token, User: user}, nil
}

func (u *UserUseCase) Authenticate(_ context.Context, token string) (*TokenClaims, error) {
	const op = "UserUseCase.Authenticate"

	claims, err := u.tokens.Parse(token)
	if err != nil {
		return nil, e.Wrap(op, e.ErrUnauthorized)
	}

	return claims, nil
}

func (u *UserUseCase) GetUser(ctx context.Context, id string) (*domain.User, error) {
	const op = "UserUseCase.GetUser"

	user, err := u.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return user, nil
}

func (u *UserUseCase) ListUsers(ctx context.Context) ([]domain.User, error) {
	const op = "UserUseCase.ListUsers"

	users, err := u.userRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return users, nil
}

func (u *UserUseCase) UpdateUser(ctx context.Context, req *UpdateUserReq) (*domain.User, error) {
	const op = "UserUseCase.UpdateUser"

	user, err := u.userRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, e.Wrap(op, e.ErrUserNameRequired)
		}
		user.Name = name
	}
	if req.Email != nil {
		email, err := normalizeEmail(*req.Email)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		user.Email = email
	}
	if req.Role != nil {
		if *req.Role != domain.RoleCustomer && *req.Role != domain.RoleAdmin {
			return nil, e.Wrap(op, e.ErrInvalidRole)
		}
		user.Role = *req.Role
	}

	updated, err := u.userRepo.Update(ctx, user)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return updated, nil
}

func (u *UserUseCase) DeleteUser(ctx context.Context, id string) error {
	const op = "UserUseCase.DeleteUser"

	if err := u.userRepo.Delete(ctx, id); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

func normalizeEmail(s string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return "", e.ErrInvalidEmail
	}

	return strings.ToLower(addr.Address), nil
}
