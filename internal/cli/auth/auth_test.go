package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/authdash/authdash/internal/provider"
)

func TestCredentialsRoundTrip(t *testing.T) {
	keyring.MockInit()

	endpoint := "https://identitytoolkit.example/v1"

	creds, err := Default.Load(endpoint)
	require.NoError(t, err)
	assert.True(t, creds.IsZero())

	want := provider.Credentials{IDToken: "id", UID: "uid"}
	require.NoError(t, Default.Save(endpoint, want))

	got, err := Default.Load(endpoint)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, Default.Delete(endpoint))
	require.NoError(t, Default.Delete(endpoint))

	got, err = Default.Load(endpoint)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}
