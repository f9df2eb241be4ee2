package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupThenLogin(t *testing.T) {
	users, _ := newRepos(t)
	s := NewUserService(users)
	ctx := context.Background()

	u, err := s.Register(ctx, "a@x.com", "p1", "1-me.png")
	require.NoError(t, err)
	assert.Empty(t, u.PasswordHash)
	assert.Equal(t, "1-me.png", u.ProfileImage)

	got, err := s.Authenticate(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Empty(t, got.PasswordHash)

	_, err = s.Authenticate(ctx, "a@x.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_UnknownEmailAndBlanks(t *testing.T) {
	users, _ := newRepos(t)
	s := NewUserService(users)
	ctx := context.Background()

	_, err := s.Authenticate(ctx, "ghost@x.com", "p1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Authenticate(ctx, "", "p1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Authenticate(ctx, "a@x.com", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_EmailIsNormalised(t *testing.T) {
	users, _ := newRepos(t)
	s := NewUserService(users)
	ctx := context.Background()

	_, err := s.Register(ctx, "  Mixed@X.com ", "pw", "1-a.png")
	require.NoError(t, err)

	_, err = s.Authenticate(ctx, "mixed@x.com", "pw")
	require.NoError(t, err)

	_, err = s.Register(ctx, "MIXED@x.com", "other", "2-b.png")
	require.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegister_Validation(t *testing.T) {
	users, _ := newRepos(t)
	s := NewUserService(users)
	ctx := context.Background()

	cases := []struct {
		name, email, password, image string
	}{
		{"missing email", "", "pw", "1-a.png"},
		{"malformed email", "nope", "pw", "1-a.png"},
		{"missing password", "a@x.com", "", "1-a.png"},
		{"missing image", "a@x.com", "pw", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Register(ctx, tc.email, tc.password, tc.image)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestGetByID_Sanitised(t *testing.T) {
	users, _ := newRepos(t)
	s := NewUserService(users)
	ctx := context.Background()

	u, err := s.Register(ctx, "a@x.com", "p1", "1-me.png")
	require.NoError(t, err)

	got, err := s.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Empty(t, got.PasswordHash)
}

func TestSignupThenLogin_LongPassword(t *testing.T) {
	users, _ := newRepos(t)
	s := NewUserService(users)
	ctx := context.Background()

	long := strings.Repeat("p", 80)
	_, err := s.Register(ctx, "long@x.com", long, "1-me.png")
	require.NoError(t, err)

	_, err = s.Authenticate(ctx, "long@x.com", long)
	require.NoError(t, err)

	_, err = s.Authenticate(ctx, "long@x.com", strings.Repeat("p", 71))
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
