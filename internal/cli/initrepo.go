package cli

import (
	"github.com/spf13/cobra"

	"prodclass/internal/setup"
)

func newInitRepoCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "init-repo",
		Short: "Initialise a git repository for the project and make the first commit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setup.InitRepo(cmd.Context(), a.execRunner(), dir, a.stdout)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "Project root containing go.mod")
	return cmd
}
