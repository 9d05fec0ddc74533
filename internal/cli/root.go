// Package cli implements the prodclass command tree.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"prodclass/internal/common/fsutil"
	"prodclass/internal/config"
	"prodclass/internal/runtime"
)

// app carries the state shared by all commands. cfg and log are valid once
// the root PersistentPreRunE has run.
type app struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	cfg config.Config
	log zerolog.Logger

	// runner overrides the exec runner; tests install fakes here.
	runner runtime.Runner
	// noMonitor disables resource sampling.
	noMonitor bool

	flags struct {
		config     string
		logLevel   string
		logFormat  string
		model      string
		runtimeBin string
	}
}

func newApp(stdout, stderr io.Writer, getenv func(string) string) *app {
	l, _ := newLogger(stderr, "info", "console")
	return &app{stdout: stdout, stderr: stderr, getenv: getenv, log: l}
}

// Main runs the command tree with args and returns the process exit code.
// Command errors are logged to stderr.
func Main(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	a := newApp(stdout, stderr, getenv)
	root := newRootCmd(a)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		a.log.Error().Err(err).Msg("command failed")
		return 1
	}
	return 0
}

// NewRootCmd returns the command tree writing to stdout and stderr.
func NewRootCmd(stdout, stderr io.Writer, getenv func(string) string) *cobra.Command {
	return newRootCmd(newApp(stdout, stderr, getenv))
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "prodclass",
		Short:         "Classify product listings with a local model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.config, "config", envStr(a.getenv, "PRODCLASS_CONFIG", ""), "Config file (.yaml|.yml|.json|.toml; defaults PRODCLASS_CONFIG)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults PRODCLASS_LOG_LEVEL or info)")
	pf.StringVar(&a.flags.logFormat, "log-format", "", "Log format: console|json")
	pf.StringVar(&a.flags.model, "model", "", "Model name registered with the runtime")
	pf.StringVar(&a.flags.runtimeBin, "runtime-bin", "", "Model runtime CLI (defaults ollama)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.configure()
	}

	root.AddCommand(
		newRunCmd(a),
		newClassifyCmd(a),
		newCheckCmd(a),
		newOptimizeCmd(a),
		newFinetuneCmd(a),
		newInitRepoCmd(a),
		newServeCmd(a),
		newHistoryCmd(a),
	)

	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(a.stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(a.stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(a.stdout, true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenPowerShellCompletionWithDesc(a.stdout) }})
	root.AddCommand(completionCmd)

	return root
}

// configure layers defaults, the config file, the environment and flags,
// then builds the root logger.
func (a *app) configure() error {
	cfg := config.Default()
	if a.flags.config != "" {
		path, err := fsutil.ExpandHome(a.flags.config)
		if err != nil {
			return err
		}
		fc, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = cfg.Merge(fc)
	}
	cfg = cfg.ApplyEnv(a.getenv)
	cfg = cfg.Merge(config.Config{
		ModelName:  a.flags.model,
		RuntimeBin: a.flags.runtimeBin,
		LogLevel:   a.flags.logLevel,
		LogFormat:  a.flags.logFormat,
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	l, err := newLogger(a.stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, l
	a.log.Debug().Str("model", cfg.ModelName).Str("runtime", cfg.RuntimeBin).Strs("categories", cfg.Categories).Msg("configuration loaded")
	return nil
}
