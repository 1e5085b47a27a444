package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/authdash/authdash/internal/forms"
)

// NewSignUpCmd creates the signup command
func NewSignUpCmd(env *Env) *cobra.Command {
	var email, password, confirm string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignUp(cmd, env, email, password, confirm)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set AUTHDASH_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set AUTHDASH_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&confirm, "confirm-password", "", "Password confirmation (defaults to --password when that is given)")

	return cmd
}

func runSignUp(cmd *cobra.Command, env *Env, email, password, confirm string) error {
	if email == "" {
		email = os.Getenv("AUTHDASH_EMAIL")
	}
	if password == "" {
		password = os.Getenv("AUTHDASH_PASSWORD")
	}

	if password == "" && email != "" {
		var err error
		if password, err = promptPassword(env, "Password: "); err != nil {
			return err
		}
		if confirm, err = promptPassword(env, "Confirm password: "); err != nil {
			return err
		}
	} else if confirm == "" {
		confirm = password
	}

	form := forms.SignUp{Email: email, Password: password, ConfirmPassword: confirm}
	if errs := forms.Validate(form); errs != nil {
		return fmt.Errorf("%w: %s", errInvalidInput, errs.First())
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, env)
	if err != nil {
		return err
	}
	defer s.close()

	user, err := s.store.SignUp(ctx, form.Email, form.Password)
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}

	if err := s.persist(); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Fprintf(env.Out, "  User: %s (%s)\n", user.Email, user.UID)
	return nil
}
