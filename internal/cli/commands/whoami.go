package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/authdash/authdash/internal/views"
)

// NewWhoAmICmd creates the whoami command
func NewWhoAmICmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoAmI(cmd, env, time.Now())
		},
	}
}

func runWhoAmI(cmd *cobra.Command, env *Env, now time.Time) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, env)
	if err != nil {
		return err
	}
	defer s.close()

	// a rejected token has been dropped by the restore
	if err := s.persist(); err != nil {
		return fmt.Errorf("failed to update credentials: %w", err)
	}

	user := s.store.State().User
	if user == nil {
		return fmt.Errorf("not signed in. Please run 'authdash login' first")
	}

	v := views.Dashboard(user, now, time.Local)
	fmt.Fprintf(env.Out, "Email:          %s\n", v.Email)
	fmt.Fprintf(env.Out, "User ID:        %s\n", v.UID)
	fmt.Fprintf(env.Out, "Email Verified: %s\n", v.EmailVerified)
	fmt.Fprintf(env.Out, "Member Since:   %s\n", v.MemberSince)
	fmt.Fprintf(env.Out, "Last Sign In:   %s\n", v.LastSignIn)
	fmt.Fprintf(env.Out, "Days Active:    %d\n", v.DaysActive)
	fmt.Fprintf(env.Out, "Provider:       %s\n", v.SignInMethod)
	return nil
}
