// Package authstate holds the signed-in user for one client and keeps it in
// step with the provider. A single goroutine owns every write to the
// current state; everyone else observes it via State, Ready or Watch.
package authstate

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/authdash/authdash/internal/mirror"
	"github.com/authdash/authdash/internal/provider"
)

// ErrClosed is returned by Ready when the store closes before the session
// is known.
var ErrClosed = errors.New("authstate: store closed")

const (
	MsgSignedUp  = "Account created successfully!"
	MsgSignedIn  = "Signed in successfully!"
	MsgSignedOut = "Signed out successfully!"

	MsgSignUpFailed  = "Failed to create account"
	MsgSignInFailed  = "Failed to sign in"
	MsgSignOutFailed = "Failed to sign out"
)

// State is the current user, or nil when signed out. Loading holds until
// the provider has reported the session once.
type State struct {
	User    *provider.User
	Loading bool
}

// Notifier surfaces transient success and error messages to the user
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

// Store mirrors a provider.Client's session
type Store struct {
	client   provider.Client
	mirror   mirror.Store
	notifier Notifier
	logger   zerolog.Logger

	cancel context.CancelFunc
	done   chan struct{}
	ready  chan struct{}

	mu       sync.RWMutex
	state    State
	seq      uint64
	changed  chan struct{}
	watchers map[int]chan State
	nextID   int
	closed   bool
}

// New subscribes to client and starts the writer goroutine. The store lives
// until ctx ends or Close is called. A nil mirror or notifier discards.
func New(ctx context.Context, client provider.Client, m mirror.Store, n Notifier, logger zerolog.Logger) *Store {
	if m == nil {
		m = mirror.Discard
	}
	if n == nil {
		n = nopNotifier{}
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Store{
		client:   client,
		mirror:   m,
		notifier: n,
		logger:   logger.With().Str("component", "authstate").Logger(),
		cancel:   cancel,
		done:     make(chan struct{}),
		ready:    make(chan struct{}),
		state:    State{Loading: true},
		changed:  make(chan struct{}),
		watchers: make(map[int]chan State),
	}

	go s.run(ctx, client.Subscribe(ctx))
	return s
}

func (s *Store) run(ctx context.Context, updates <-chan *provider.User) {
	defer close(s.done)
	defer s.shutdown()

	for u := range updates {
		s.persist(context.WithoutCancel(ctx), u)
		s.publish(u)
	}
}

// persist writes the mirror before the new state becomes visible
func (s *Store) persist(ctx context.Context, u *provider.User) {
	var err error
	if u == nil {
		err = mirror.Clear(ctx, s.mirror)
	} else if creds := s.client.Credentials(); creds.UID == u.UID && creds.IDToken != "" {
		err = mirror.Write(ctx, s.mirror, creds.IDToken, u.UID)
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to update local auth cache")
	}
}

func (s *Store) publish(u *provider.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{User: u}
	s.seq++
	close(s.changed)
	s.changed = make(chan struct{})

	select {
	case <-s.ready:
	default:
		close(s.ready)
	}

	for _, ch := range s.watchers {
		offer(ch, s.state)
	}
}

func (s *Store) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	close(s.changed)
	for id, ch := range s.watchers {
		delete(s.watchers, id)
		close(ch)
	}
}

// State returns the current snapshot without blocking
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Ready blocks until the first provider notification has been applied
func (s *Store) Ready(ctx context.Context) (State, error) {
	select {
	case <-s.ready:
		return s.State(), nil
	default:
	}

	select {
	case <-s.ready:
		return s.State(), nil
	case <-s.done:
		select {
		case <-s.ready:
			return s.State(), nil
		default:
			return s.State(), ErrClosed
		}
	case <-ctx.Done():
		return s.State(), ctx.Err()
	}
}

// Watch streams state changes, starting with the current state once ready.
// Slow readers only see the latest value. The channel closes with ctx or the store.
func (s *Store) Watch(ctx context.Context) <-chan State {
	ch := make(chan State, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	id := s.nextID
	s.nextID++
	s.watchers[id] = ch
	if !s.state.Loading {
		offer(ch, s.state)
	}
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if ch, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(ch)
		}
	}()

	return ch
}

// SignUp registers a new account. The new user becomes visible through the
// subscription, which has been applied by the time SignUp returns.
func (s *Store) SignUp(ctx context.Context, email, password string) (*provider.User, error) {
	since := s.version()
	user, err := s.client.SignUp(ctx, email, password)
	if err != nil {
		s.fail(err, MsgSignUpFailed, "sign up")
		return nil, err
	}

	s.settle(ctx, since, signedInAs(user.UID))
	s.notifier.Success(MsgSignedUp)
	return user, nil
}

// SignIn authenticates with email and password
func (s *Store) SignIn(ctx context.Context, email, password string) (*provider.User, error) {
	since := s.version()
	user, err := s.client.SignIn(ctx, email, password)
	if err != nil {
		s.fail(err, MsgSignInFailed, "sign in")
		return nil, err
	}

	s.settle(ctx, since, signedInAs(user.UID))
	s.notifier.Success(MsgSignedIn)
	return user, nil
}

// SignOut ends the session. The mirror is cleared even when nobody was
// signed in.
func (s *Store) SignOut(ctx context.Context) error {
	since := s.version()
	if err := s.client.SignOut(ctx); err != nil {
		s.fail(err, MsgSignOutFailed, "sign out")
		return err
	}

	s.settle(ctx, since, signedOut)
	if err := mirror.Clear(context.WithoutCancel(ctx), s.mirror); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear local auth cache")
	}
	s.notifier.Success(MsgSignedOut)
	return nil
}

// Close stops the subscription and waits for the writer goroutine
func (s *Store) Close() {
	s.cancel()
	<-s.done
}

func (s *Store) fail(err error, fallback, op string) {
	msg := provider.Message(err)
	if msg == "" {
		msg = fallback
	}

	ev := s.logger.Warn().Err(err).Str("op", op)
	var perr *provider.Error
	if errors.As(err, &perr) {
		ev = ev.Str("code", perr.Code)
	}
	ev.Msg("Auth operation failed")

	s.notifier.Error(msg)
}

func (s *Store) version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

// settle waits until a notification newer than since satisfies ok
func (s *Store) settle(ctx context.Context, since uint64, ok func(State) bool) {
	for {
		s.mu.RLock()
		st, seq, changed, closed := s.state, s.seq, s.changed, s.closed
		s.mu.RUnlock()

		if (seq > since && ok(st)) || closed {
			return
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return
		}
	}
}

func signedInAs(uid string) func(State) bool {
	return func(st State) bool {
		return st.User != nil && st.User.UID == uid
	}
}

func signedOut(st State) bool {
	return !st.Loading && st.User == nil
}

// offer replaces any undelivered value. Callers hold s.mu.
func offer(ch chan State, st State) {
	select {
	case ch <- st:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}
