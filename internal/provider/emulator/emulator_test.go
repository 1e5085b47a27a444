package emulator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/authdash/authdash/internal/provider"
)

func newTestEmulator(now func() time.Time) *Emulator {
	opts := []Option{WithBcryptCost(bcrypt.MinCost)}
	if now != nil {
		opts = append(opts, WithClock(now))
	}
	return New("test-secret", opts...)
}

func TestEmulator_SignUpThenSignIn(t *testing.T) {
	ctx := context.Background()
	e := newTestEmulator(nil)

	user, creds, err := e.SignUp(ctx, "user@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)
	assert.NotEmpty(t, user.UID)
	assert.False(t, user.EmailVerified)
	assert.Equal(t, user.UID, creds.UID)
	assert.NotEmpty(t, creds.IDToken)

	again, creds2, err := e.SignIn(ctx, "USER@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.UID, again.UID)

	looked, err := e.Lookup(ctx, creds2.IDToken)
	require.NoError(t, err)
	assert.Equal(t, user.UID, looked.UID)
}

func TestEmulator_Errors(t *testing.T) {
	ctx := context.Background()
	e := newTestEmulator(nil)
	_, _, err := e.SignUp(ctx, "user@example.com", "secret1")
	require.NoError(t, err)

	tests := []struct {
		name string
		call func() error
		code string
	}{
		{
			name: "duplicate email",
			call: func() error {
				_, _, err := e.SignUp(ctx, "User@Example.com", "secret1")
				return err
			},
			code: provider.CodeEmailExists,
		},
		{
			name: "weak password",
			call: func() error {
				_, _, err := e.SignUp(ctx, "new@example.com", "abc")
				return err
			},
			code: provider.CodeWeakPassword,
		},
		{
			name: "bad email",
			call: func() error {
				_, _, err := e.SignUp(ctx, "not-an-email", "secret1")
				return err
			},
			code: provider.CodeInvalidEmail,
		},
		{
			name: "wrong password",
			call: func() error {
				_, _, err := e.SignIn(ctx, "user@example.com", "wrong12")
				return err
			},
			code: provider.CodeInvalidCredentials,
		},
		{
			name: "unknown account",
			call: func() error {
				_, _, err := e.SignIn(ctx, "nobody@example.com", "secret1")
				return err
			},
			code: provider.CodeInvalidCredentials,
		},
		{
			name: "garbage token",
			call: func() error {
				_, err := e.Lookup(ctx, "not.a.jwt")
				return err
			},
			code: provider.CodeInvalidIDToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.True(t, provider.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestEmulator_TokenFromOtherSecretRejected(t *testing.T) {
	ctx := context.Background()
	a := newTestEmulator(nil)
	b := New("other-secret", WithBcryptCost(bcrypt.MinCost))

	_, creds, err := a.SignUp(ctx, "user@example.com", "secret1")
	require.NoError(t, err)

	_, err = b.Lookup(ctx, creds.IDToken)
	assert.True(t, provider.IsCode(err, provider.CodeInvalidIDToken))
}

func TestEmulator_ExpiredToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e := newTestEmulator(func() time.Time { return now })

	_, creds, err := e.SignUp(ctx, "user@example.com", "secret1")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = e.Lookup(ctx, creds.IDToken)
	assert.True(t, provider.IsCode(err, provider.CodeTokenExpired), "got %v", err)
}

func TestEmulator_Timestamps(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	now := created
	e := newTestEmulator(func() time.Time { return now })

	user, _, err := e.SignUp(ctx, "user@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created, user.CreatedAt)

	now = created.Add(30 * time.Minute)
	user, _, err = e.SignIn(ctx, "user@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created, user.CreatedAt)
	assert.Equal(t, now, user.LastSignInAt)

	require.NoError(t, e.SetEmailVerified(user.UID, true))
	_, creds, err := e.SignIn(ctx, "user@example.com", "secret1")
	require.NoError(t, err)
	looked, err := e.Lookup(ctx, creds.IDToken)
	require.NoError(t, err)
	assert.True(t, looked.EmailVerified)
}
