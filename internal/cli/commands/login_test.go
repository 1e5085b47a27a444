package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/authdash/authdash/internal/mirror"
	"github.com/authdash/authdash/internal/provider"
	"github.com/authdash/authdash/internal/provider/emulator"
)

// mockTokenStore is a simple in-memory token store for testing
type mockTokenStore struct {
	tokens map[string]provider.Credentials
}

func newMockTokenStore() *mockTokenStore {
	return &mockTokenStore{
		tokens: make(map[string]provider.Credentials),
	}
}

func (m *mockTokenStore) Save(endpoint string, creds provider.Credentials) error {
	m.tokens[endpoint] = creds
	return nil
}

func (m *mockTokenStore) Load(endpoint string) (provider.Credentials, error) {
	return m.tokens[endpoint], nil
}

func (m *mockTokenStore) Delete(endpoint string) error {
	delete(m.tokens, endpoint)
	return nil
}

type testEnv struct {
	env    *Env
	emu    *emulator.Emulator
	tokens *mockTokenStore
	mirror *mirror.FileStore
	out    *bytes.Buffer
	err    *bytes.Buffer
}

func setupTestEnvironment(t *testing.T) *testEnv {
	t.Helper()

	emu := emulator.New("test", emulator.WithBcryptCost(bcrypt.MinCost))
	tokens := newMockTokenStore()
	store := mirror.NewFileStore(filepath.Join(t.TempDir(), "storage.json"))
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	env := &Env{
		Backend:  provider.NewBackend(emu),
		Endpoint: "test-endpoint",
		Tokens:   tokens,
		Mirror:   store,
		Out:      out,
		Err:      errOut,
	}
	require.NoError(t, env.Init(false))

	return &testEnv{env: env, emu: emu, tokens: tokens, mirror: store, out: out, err: errOut}
}

// run executes one command the way cobra would
func (e *testEnv) run(t *testing.T, newCmd func(*Env) *cobra.Command, args ...string) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := newCmd(e.env)
	cmd.SetArgs(args)
	cmd.SetOut(e.out)
	cmd.SetErr(e.err)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.ExecuteContext(ctx)
}

func TestLoginCommand_Flags(t *testing.T) {
	cmd := NewLoginCmd(&Env{})
	assert.Equal(t, "login", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("email"))
	assert.NotNil(t, cmd.Flags().Lookup("password"))

	signup := NewSignUpCmd(&Env{})
	assert.NotNil(t, signup.Flags().Lookup("confirm-password"))
}

func TestLoginCommand_SuccessfulLogin(t *testing.T) {
	te := setupTestEnvironment(t)
	_, _, err := te.emu.SignUp(context.Background(), "test@example.com", "password123")
	require.NoError(t, err)

	err = te.run(t, NewLoginCmd, "--email", "test@example.com", "--password", "password123")
	require.NoError(t, err)

	assert.Contains(t, te.out.String(), "✓ Signed in successfully!")
	assert.Contains(t, te.out.String(), "test@example.com")

	creds := te.tokens.tokens["test-endpoint"]
	assert.False(t, creds.IsZero())

	token, ok, err := te.mirror.Get(mirror.KeyAuthToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, creds.IDToken, token)
}

func TestLoginCommand_EnvVarCredentials(t *testing.T) {
	te := setupTestEnvironment(t)
	_, _, err := te.emu.SignUp(context.Background(), "env@example.com", "envpass1")
	require.NoError(t, err)

	t.Setenv("AUTHDASH_EMAIL", "env@example.com")
	t.Setenv("AUTHDASH_PASSWORD", "envpass1")

	require.NoError(t, te.run(t, NewLoginCmd))
	assert.Contains(t, te.out.String(), "env@example.com")
}

func TestLoginCommand_InvalidInputNeverReachesProvider(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{name: "missing email", args: []string{"--password", "password123"}, wantMsg: "Please input your email!"},
		{name: "bad email", args: []string{"--email", "nope", "--password", "password123"}, wantMsg: "Please enter a valid email!"},
		{name: "short password", args: []string{"--email", "a@b.co", "--password", "123"}, wantMsg: "Password must be at least 6 characters!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AUTHDASH_EMAIL", "")
			t.Setenv("AUTHDASH_PASSWORD", "")
			te := setupTestEnvironment(t)

			err := te.run(t, NewLoginCmd, tt.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, errInvalidInput)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Empty(t, te.tokens.tokens)
		})
	}
}

func TestLoginCommand_WrongPassword(t *testing.T) {
	te := setupTestEnvironment(t)
	_, _, err := te.emu.SignUp(context.Background(), "test@example.com", "password123")
	require.NoError(t, err)

	err = te.run(t, NewLoginCmd, "--email", "test@example.com", "--password", "wrong-password")
	require.Error(t, err)
	assert.True(t, provider.IsCode(err, provider.CodeInvalidCredentials))
	assert.Contains(t, te.err.String(), "✗ Invalid email or password.")
	assert.Empty(t, te.tokens.tokens)
}

func TestSignUpWhoAmILogout(t *testing.T) {
	te := setupTestEnvironment(t)

	err := te.run(t, NewSignUpCmd, "--email", "new@example.com", "--password", "secret1", "--confirm-password", "secret2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "The two passwords do not match!")

	require.NoError(t, te.run(t, NewSignUpCmd, "--email", "new@example.com", "--password", "secret1"))
	assert.Contains(t, te.out.String(), "✓ Account created successfully!")

	te.out.Reset()
	require.NoError(t, te.run(t, NewWhoAmICmd))
	assert.Contains(t, te.out.String(), "Email:          new@example.com")
	assert.Contains(t, te.out.String(), "Email Verified: No")
	assert.Contains(t, te.out.String(), "Provider:       Email/Password")

	require.NoError(t, te.run(t, NewLogoutCmd))
	assert.Contains(t, te.out.String(), "✓ Signed out successfully!")
	assert.Empty(t, te.tokens.tokens)
	_, ok, err := te.mirror.Get(mirror.KeyUserID)
	require.NoError(t, err)
	assert.False(t, ok)

	err = te.run(t, NewWhoAmICmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")

	// logging out twice is fine
	require.NoError(t, te.run(t, NewLogoutCmd))
}

func TestWhoAmI_StaleCredentialsAreDropped(t *testing.T) {
	te := setupTestEnvironment(t)
	te.tokens.tokens["test-endpoint"] = provider.Credentials{IDToken: "stale", UID: "gone"}

	err := te.run(t, NewWhoAmICmd)
	require.Error(t, err)
	assert.Empty(t, te.tokens.tokens)
}
