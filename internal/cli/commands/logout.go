package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd, env)
		},
	}
}

func runLogout(cmd *cobra.Command, env *Env) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, env)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.store.SignOut(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	return s.persist()
}
