package guard

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authdash/authdash/internal/authstate"
	"github.com/authdash/authdash/internal/provider"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name  string
		state authstate.State
		want  Decision
	}{
		{name: "loading", state: authstate.State{Loading: true}, want: Loading},
		{name: "loading wins over a stale user", state: authstate.State{Loading: true, User: &provider.User{UID: "u"}}, want: Loading},
		{name: "signed out", state: authstate.State{}, want: Unauthenticated},
		{name: "signed in", state: authstate.State{User: &provider.User{UID: "u"}}, want: Authenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.state))
		})
	}
}

func TestLoginRedirect(t *testing.T) {
	tests := []struct {
		requested string
		want      string
	}{
		{requested: "/dashboard", want: "/login?from=%2Fdashboard"},
		{requested: "/dashboard?tab=2", want: "/login?from=%2Fdashboard%3Ftab%3D2"},
	}

	for _, tt := range tests {
		t.Run(tt.requested, func(t *testing.T) {
			u, err := url.Parse(tt.requested)
			require.NoError(t, err)
			got := LoginRedirect(u)
			assert.Equal(t, tt.want, got)

			parsed, err := url.Parse(got)
			require.NoError(t, err)
			assert.Equal(t, tt.requested, parsed.Query().Get(FromParam))
		})
	}

	assert.Equal(t, LoginPath, LoginRedirect(nil))
}

func TestReturnTo(t *testing.T) {
	tests := []struct {
		from string
		want string
	}{
		{from: "", want: "/dashboard"},
		{from: "/dashboard", want: "/dashboard"},
		{from: "/dashboard?tab=2", want: "/dashboard?tab=2"},
		{from: "/settings", want: "/settings"},
		{from: "https://evil.example/", want: "/dashboard"},
		{from: "//evil.example", want: "/dashboard"},
		{from: "/\\evil.example", want: "/dashboard"},
		{from: "dashboard", want: "/dashboard"},
		{from: "/login", want: "/dashboard"},
		{from: "/signup?x=1", want: "/dashboard"},
		{from: "/a\r\nSet-Cookie: x", want: "/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			assert.Equal(t, tt.want, ReturnTo(tt.from))
		})
	}
}
