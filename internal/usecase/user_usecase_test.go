package usecase

import (
	"context"
	"testing"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserUseCase_RegisterAndLogin(t *testing.T) {
	env := newEnv()
	ctx := context.Background()

	user, err := env.users.Register(ctx, &RegisterReq{Name: "Ana", Email: " Ana@Example.com ", Password: "secret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, domain.RoleCustomer, user.Role)
	assert.NotEqual(t, "secret-pass", user.PasswordHash)

	res, err := env.users.Login(ctx, "ana@example.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)

	claims, err := env.users.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleCustomer, claims.Role)
}

func TestUserUseCase_Register_Validation(t *testing.T) {
	env := newEnv()

	tests := []struct {
		name string
		req  *RegisterReq
		want error
	}{
		{"empty name", &RegisterReq{Name: "", Email: "a@b.c", Password: "12345678"}, e.ErrUserNameRequired},
		{"bad email", &RegisterReq{Name: "A", Email: "not-an-email", Password: "12345678"}, e.ErrInvalidEmail},
		{"short password", &RegisterReq{Name: "A", Email: "a@b.c", Password: "1234"}, e.ErrPasswordTooShort},
		{"unknown role", &RegisterReq{Name: "A", Email: "a@b.c", Password: "12345678", Role: "root"}, e.ErrInvalidRole},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.users.Register(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUserUseCase_Register_DuplicateEmail(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	req := &RegisterReq{Name: "Ana", Email: "ana@example.com", Password: "secret-pass"}

	_, err := env.users.Register(ctx, req)
	require.NoError(t, err)

	_, err = env.users.Register(ctx, req)
	assert.ErrorIs(t, err, e.ErrEmailTaken)
}

func TestUserUseCase_Login_Failures(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	_, err := env.users.Register(ctx, &RegisterReq{Name: "Ana", Email: "ana@example.com", Password: "secret-pass"})
	require.NoError(t, err)

	_, err = env.users.Login(ctx, "ana@example.com", "wrong-pass")
	assert.ErrorIs(t, err, e.ErrInvalidCredentials)

	_, err = env.users.Login(ctx, "nobody@example.com", "secret-pass")
	assert.ErrorIs(t, err, e.ErrInvalidCredentials)

	_, err = env.users.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, e.ErrUnauthorized)
}

func TestUserUseCase_AdminOperations(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	user, err := env.users.Register(ctx, &RegisterReq{Name: "Ana", Email: "ana@example.com", Password: "secret-pass"})
	require.NoError(t, err)

	admin := domain.RoleAdmin
	updated, err := env.users.UpdateUser(ctx, &UpdateUserReq{ID: user.ID, Role: &admin})
	require.NoError(t, err)
	assert.True(t, updated.Role.IsAdmin())

	users, err := env.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	require.NoError(t, env.users.DeleteUser(ctx, user.ID))
	_, err = env.users.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, e.ErrUserNotFound)
}
