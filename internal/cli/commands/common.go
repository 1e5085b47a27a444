package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/authdash/authdash/internal/authstate"
	"github.com/authdash/authdash/internal/cli/auth"
	"github.com/authdash/authdash/internal/config"
	"github.com/authdash/authdash/internal/logger"
	"github.com/authdash/authdash/internal/mirror"
	"github.com/authdash/authdash/internal/provider"
	"github.com/authdash/authdash/internal/provider/identitytoolkit"
)

// Env carries what every command needs. Fields left nil are filled from
// configuration by Init.
type Env struct {
	Backend  provider.Backend
	Endpoint string
	Tokens   auth.TokenStore
	Mirror   mirror.Store
	Logger   zerolog.Logger
	Out      io.Writer
	Err      io.Writer
	Stdin    *os.File
}

// Init loads configuration for anything not already set
func (e *Env) Init(verbose bool) error {
	if e.Out == nil {
		e.Out = os.Stdout
	}
	if e.Err == nil {
		e.Err = os.Stderr
	}
	if e.Stdin == nil {
		e.Stdin = os.Stdin
	}
	if e.Tokens == nil {
		e.Tokens = auth.Default
	}

	level := zerolog.ErrorLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	e.Logger = logger.New(e.Err, "console").Level(level)

	if e.Backend != nil && e.Mirror != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if e.Backend == nil {
		if cfg.Auth.Provider != config.ProviderIdentityToolkit {
			return fmt.Errorf("the CLI needs AUTH_PROVIDER=%s (got %q)", config.ProviderIdentityToolkit, cfg.Auth.Provider)
		}
		backend, err := identitytoolkit.NewBackend(cfg.Auth.Endpoint, cfg.Auth.APIKey, provider.WithLogger(e.Logger))
		if err != nil {
			return fmt.Errorf("%w\nSet AUTH_API_KEY in the environment or .env", err)
		}
		e.Backend = backend
		e.Endpoint = cfg.Auth.Endpoint
	}

	if e.Mirror == nil {
		path, err := mirror.DefaultFilePath()
		if err != nil {
			return err
		}
		e.Mirror = mirror.NewFileStore(path)
	}

	return nil
}

// session is one CLI run's connection to the provider
type session struct {
	env    *Env
	client provider.Client
	store  *authstate.Store
}

// openSession resumes stored credentials and waits for the provider to
// report the session
func openSession(ctx context.Context, env *Env) (*session, error) {
	creds, err := env.Tokens.Load(env.Endpoint)
	if err != nil {
		return nil, err
	}

	client := env.Backend.Open(ctx, creds)
	store := authstate.New(ctx, client, env.Mirror, consoleNotifier{out: env.Out, err: env.Err}, env.Logger)

	s := &session{env: env, client: client, store: store}
	if _, err := store.Ready(ctx); err != nil {
		s.close()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	return s, nil
}

// persist writes the client's credentials back to the keyring
func (s *session) persist() error {
	creds := s.client.Credentials()
	if creds.IsZero() {
		return s.env.Tokens.Delete(s.env.Endpoint)
	}
	return s.env.Tokens.Save(s.env.Endpoint, creds)
}

func (s *session) close() {
	s.store.Close()
	s.client.Close()
}

// consoleNotifier prints auth notifications
type consoleNotifier struct {
	out io.Writer
	err io.Writer
}

func (n consoleNotifier) Success(msg string) { fmt.Fprintf(n.out, "✓ %s\n", msg) }
func (n consoleNotifier) Error(msg string)   { fmt.Fprintf(n.err, "✗ %s\n", msg) }
