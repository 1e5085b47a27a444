package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/authdash/authdash/internal/forms"
)

var errInvalidInput = errors.New("invalid input")

// NewLoginCmd creates the login command
func NewLoginCmd(env *Env) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, env, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set AUTHDASH_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set AUTHDASH_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, env *Env, email, password string) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("AUTHDASH_EMAIL")
	}
	if password == "" {
		password = os.Getenv("AUTHDASH_PASSWORD")
	}

	if password == "" && email != "" {
		var err error
		password, err = promptPassword(env, "Password: ")
		if err != nil {
			return err
		}
	}

	form := forms.Login{Email: email, Password: password}
	if errs := forms.Validate(form); errs != nil {
		return fmt.Errorf("%w: %s", errInvalidInput, errs.First())
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, env)
	if err != nil {
		return err
	}
	defer s.close()

	user, err := s.store.SignIn(ctx, form.Email, form.Password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := s.persist(); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Fprintf(env.Out, "  User: %s (%s)\n", user.Email, user.UID)
	return nil
}

// promptPassword reads a password without echo. Piped stdin is an error.
func promptPassword(env *Env, prompt string) (string, error) {
	fd := int(env.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or AUTHDASH_PASSWORD env var)")
	}

	fmt.Fprint(env.Out, prompt)
	bytePassword, err := term.ReadPassword(fd)
	fmt.Fprintln(env.Out) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}
