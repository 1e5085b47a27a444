package provider

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// BackendOption configures NewBackend
type BackendOption func(*apiBackend)

// WithLogger reports restore failures to logger
func WithLogger(logger zerolog.Logger) BackendOption {
	return func(b *apiBackend) {
		b.logger = logger.With().Str("component", "provider").Logger()
	}
}

// NewBackend wraps a stateless API into a Backend of stateful clients.
func NewBackend(api API, opts ...BackendOption) Backend {
	b := &apiBackend{api: api, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type apiBackend struct {
	api    API
	logger zerolog.Logger
}

func (b *apiBackend) Open(ctx context.Context, creds Credentials) Client {
	ctx, cancel := context.WithCancel(ctx)
	return &client{
		api:    b.api,
		logger: b.logger,
		ctx:    ctx,
		cancel: cancel,
		creds:  creds,
		subs:   make(map[int]chan *User),
	}
}

// client keeps the signed-in user and fans out changes to subscribers.
// Every subscriber channel holds at most the latest value.
type client struct {
	api    API
	logger zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	restoreOnce sync.Once

	mu       sync.Mutex
	creds    Credentials
	user     *User
	restored bool
	closed   bool
	subs     map[int]chan *User
	nextID   int
}

func (c *client) SignUp(ctx context.Context, email, password string) (*User, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	user, creds, err := c.api.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.set(user, creds)
	return user, nil
}

func (c *client) SignIn(ctx context.Context, email, password string) (*User, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	user, creds, err := c.api.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.set(user, creds)
	return user, nil
}

// SignOut drops the local session. Signing out twice is not an error.
func (c *client) SignOut(ctx context.Context) error {
	if c.isClosed() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.set(nil, Credentials{})
	return nil
}

func (c *client) Subscribe(ctx context.Context) <-chan *User {
	ch := make(chan *User, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch
	}
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	if c.restored {
		offer(ch, c.user)
	}
	c.mu.Unlock()

	c.restoreOnce.Do(func() { go c.restore() })

	go func() {
		select {
		case <-ctx.Done():
		case <-c.ctx.Done():
		}
		c.unsubscribe(id)
	}()

	return ch
}

func (c *client) Credentials() Credentials {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds
}

func (c *client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()
	c.cancel()
	return nil
}

// restore resolves persisted credentials into the initial notification.
// Rejected credentials are dropped. Any other failure reads as signed out
// for now but keeps the credentials, so a later client can try again.
func (c *client) restore() {
	creds := c.Credentials()

	var user *User
	keep := false
	if !creds.IsZero() {
		u, err := c.api.Lookup(c.ctx, creds.IDToken)
		switch {
		case err == nil:
			user = u
		case IsRejected(err):
			c.logger.Debug().Err(err).Str("uid", creds.UID).Msg("Persisted session rejected")
		default:
			keep = true
			ev := c.logger.Warn().Err(err).Str("uid", creds.UID)
			var perr *Error
			if errors.As(err, &perr) {
				ev = ev.Str("code", perr.Code)
			}
			ev.Msg("Failed to restore session")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.restored || c.closed {
		// a sign-in or sign-out already settled the session
		return
	}
	if user == nil && !keep {
		c.creds = Credentials{}
	}
	c.user = user
	c.restored = true
	c.broadcast()
}

func (c *client) set(user *User, creds Credentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.creds = creds
	c.user = user
	c.restored = true
	c.broadcast()
}

// broadcast requires c.mu.
func (c *client) broadcast() {
	for _, ch := range c.subs {
		offer(ch, c.user)
	}
}

func (c *client) unsubscribe(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch, ok := c.subs[id]; ok {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// offer replaces any undelivered value with u. Callers hold the client lock,
// so there is exactly one sender per channel.
func offer(ch chan *User, u *User) {
	select {
	case ch <- u:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- u
	}
}
