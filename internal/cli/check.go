package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"prodclass/internal/setup"
)

var errChecksFailed = errors.New("required environment checks failed")

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the model runtime, the model and optional tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &setup.Checker{
				Runner:     a.execRunner(),
				RuntimeBin: a.cfg.RuntimeBin,
				GPUTool:    a.cfg.GPUTool,
				Model:      a.cfg.ModelName,
				Log:        a.log.With().Str("component", "setup").Logger(),
			}
			checks := c.Run(cmd.Context())
			setup.Report(a.stdout, checks)
			if !setup.AllRequiredOK(checks) {
				return errChecksFailed
			}
			return nil
		},
	}
}
