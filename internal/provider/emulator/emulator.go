// Package emulator is an in-process stand-in for the hosted auth provider,
// used for local development and tests. It owns its own accounts, hashes
// passwords and mints ID tokens the way the real service would.
package emulator

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/authdash/authdash/internal/provider"
)

const minPasswordLen = 6

type account struct {
	user provider.User
	hash []byte
}

// Emulator implements provider.API in memory
type Emulator struct {
	signer tokenSigner
	cost   int
	now    func() time.Time

	mu      sync.RWMutex
	byEmail map[string]*account
	byUID   map[string]*account
}

// Option configures an Emulator
type Option func(*Emulator)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(e *Emulator) {
		e.now = now
		e.signer.now = now
	}
}

// WithBcryptCost overrides the hashing cost (tests use bcrypt.MinCost)
func WithBcryptCost(cost int) Option {
	return func(e *Emulator) { e.cost = cost }
}

// New creates an emulator. An empty secret gets a random one, so tokens
// do not survive a restart.
func New(secret string, opts ...Option) *Emulator {
	if secret == "" {
		b := make([]byte, 32)
		_, _ = rand.Read(b)
		secret = hex.EncodeToString(b)
	}

	e := &Emulator{
		signer:  tokenSigner{secret: []byte(secret), now: time.Now},
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
		byEmail: make(map[string]*account),
		byUID:   make(map[string]*account),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SignUp creates an account and signs it in
func (e *Emulator) SignUp(ctx context.Context, email, password string) (*provider.User, provider.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return nil, provider.Credentials{}, err
	}

	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, provider.Credentials{}, provider.NewError(provider.CodeInvalidEmail)
	}
	if len(password) < minPasswordLen {
		return nil, provider.Credentials{}, provider.NewError(provider.CodeWeakPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), e.cost)
	if err != nil {
		return nil, provider.Credentials{}, err
	}

	e.mu.Lock()
	key := strings.ToLower(email)
	if _, exists := e.byEmail[key]; exists {
		e.mu.Unlock()
		return nil, provider.Credentials{}, provider.NewError(provider.CodeEmailExists)
	}
	now := e.now().UTC()
	acct := &account{
		user: provider.User{
			UID:          ulid.Make().String(),
			Email:        email,
			CreatedAt:    now,
			LastSignInAt: now,
		},
		hash: hash,
	}
	e.byEmail[key] = acct
	e.byUID[acct.user.UID] = acct
	user := acct.user
	e.mu.Unlock()

	return e.session(user)
}

// SignIn checks the password and records the sign-in time
func (e *Emulator) SignIn(ctx context.Context, email, password string) (*provider.User, provider.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return nil, provider.Credentials{}, err
	}

	e.mu.RLock()
	acct, ok := e.byEmail[strings.ToLower(strings.TrimSpace(email))]
	e.mu.RUnlock()
	if !ok {
		return nil, provider.Credentials{}, provider.NewError(provider.CodeInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword(acct.hash, []byte(password)); err != nil {
		return nil, provider.Credentials{}, provider.NewError(provider.CodeInvalidCredentials)
	}

	e.mu.Lock()
	acct.user.LastSignInAt = e.now().UTC()
	user := acct.user
	e.mu.Unlock()

	return e.session(user)
}

// Lookup resolves an ID token minted by this emulator
func (e *Emulator) Lookup(ctx context.Context, idToken string) (*provider.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := e.signer.parse(idToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, provider.NewError(provider.CodeTokenExpired)
		}
		return nil, provider.NewError(provider.CodeInvalidIDToken)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	acct, ok := e.byUID[c.UID]
	if !ok {
		return nil, provider.NewError(provider.CodeUserNotFound)
	}
	user := acct.user
	return &user, nil
}

// SetEmailVerified flips the verification flag, as the hosted console would
func (e *Emulator) SetEmailVerified(uid string, verified bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	acct, ok := e.byUID[uid]
	if !ok {
		return provider.NewError(provider.CodeUserNotFound)
	}
	acct.user.EmailVerified = verified
	return nil
}

func (e *Emulator) session(user provider.User) (*provider.User, provider.Credentials, error) {
	token, err := e.signer.issue(user.UID, user.Email)
	if err != nil {
		return nil, provider.Credentials{}, err
	}
	return &user, provider.Credentials{
		IDToken: token,
		UID:     user.UID,
	}, nil
}

var _ provider.API = (*Emulator)(nil)
