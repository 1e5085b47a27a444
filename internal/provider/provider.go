// Package provider talks to the hosted authentication service.
//
// The service is a black box: it registers accounts, checks passwords and
// issues tokens. This package exposes it as a per-client session object
// that pushes user-or-absent notifications whenever the session changes.
package provider

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by a Client after Close.
var ErrClosed = errors.New("provider: client closed")

// User is the provider-owned account record. The application never mutates it.
type User struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	LastSignInAt  time.Time `json:"last_sign_in_at"`
}

// Credentials is what a client needs to resume a session later. Sessions
// last as long as the ID token.
type Credentials struct {
	IDToken string `json:"id_token"`
	UID     string `json:"uid"`
}

// IsZero reports whether the credentials describe a signed-out client.
func (c Credentials) IsZero() bool {
	return c.IDToken == ""
}

// API is the stateless surface of a hosted provider.
type API interface {
	SignUp(ctx context.Context, email, password string) (*User, Credentials, error)
	SignIn(ctx context.Context, email, password string) (*User, Credentials, error)
	Lookup(ctx context.Context, idToken string) (*User, error)
}

// Client is one end user's session with the provider (one browser, one CLI run).
type Client interface {
	SignUp(ctx context.Context, email, password string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*User, error)
	SignOut(ctx context.Context) error

	// Subscribe delivers the restored session first, then the user (or nil)
	// after every change. The channel closes when ctx ends or the client closes.
	Subscribe(ctx context.Context) <-chan *User

	// Credentials returns the state to persist; zero when signed out.
	Credentials() Credentials

	Close() error
}

// Backend opens clients bound to ctx.
type Backend interface {
	Open(ctx context.Context, creds Credentials) Client
}
