package users_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"baeumcoop.kr/app/internal/modules/users"
	"baeumcoop.kr/app/internal/testutil"
)

func TestRegisterAndLogin(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := users.NewService(db)

	u, err := svc.Register(context.Background(), users.RegisterInput{
		Email:    "  Hong@Example.COM ",
		Password: "correct horse",
		Name:     " 홍길동 ",
		Phone:    "010-1234-5678",
	})
	require.NoError(t, err)
	require.Equal(t, "hong@example.com", u.Email)
	require.Equal(t, "홍길동", u.Name)
	require.Equal(t, users.RoleMember, u.Role)
	require.NotEqual(t, "correct horse", string(u.PasswordHash))

	got, err := svc.Login(context.Background(), "hong@example.com", "correct horse")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	// case-insensitive email
	_, err = svc.Login(context.Background(), "HONG@example.com", "correct horse")
	require.NoError(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := users.NewService(db)

	in := users.RegisterInput{Email: "dup@example.com", Password: "password1", Name: "첫번째"}
	_, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	in.Name = "두번째"
	_, err = svc.Register(context.Background(), in)
	require.ErrorIs(t, err, users.ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := users.NewService(db)

	_, err := svc.Register(context.Background(), users.RegisterInput{
		Email:    "hong@example.com",
		Password: "correct horse",
		Name:     "홍길동",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "hong@example.com", "wrong")
	require.ErrorIs(t, err, users.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody@example.com", "correct horse")
	require.ErrorIs(t, err, users.ErrInvalidCredentials)
}
