package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"prodclass/internal/bench"
	"prodclass/internal/common/fsutil"
	"prodclass/internal/modelfile"
)

type optimizeOptions struct {
	outDir     string
	base       string
	skipCreate bool
	bound      time.Duration
}

func newOptimizeCmd(a *app) *cobra.Command {
	var o optimizeOptions
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Write tuned Modelfiles, create the variants and benchmark them",
		Example: "  prodclass optimize\n" +
			"  prodclass optimize --skip-create --out-dir build",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.optimize(cmd.Context(), o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.outDir, "out-dir", ".", "Directory for the generated Modelfiles")
	f.StringVar(&o.base, "base", "", "Variant name prefix (defaults to the model name without -optimized)")
	f.BoolVar(&o.skipCreate, "skip-create", false, "Write Modelfiles without registering the variants")
	f.DurationVar(&o.bound, "bound", bench.DefaultBound, "Answer time limit per benchmarked model")
	return cmd
}

type variant struct {
	name string
	spec modelfile.Spec
}

func (a *app) optimize(ctx context.Context, o optimizeOptions) error {
	base := o.base
	if base == "" {
		base = strings.TrimSuffix(a.cfg.ModelName, "-optimized")
	}
	cats := a.cfg.Categories
	rt := a.ollama()

	fmt.Fprintln(a.stdout, headStyle.Render("writing Modelfiles"))
	for _, v := range []variant{
		{"optimized", modelfile.Optimized(cats)},
		{"fast", modelfile.Fast(cats)},
		{"balanced", modelfile.Balanced(cats)},
	} {
		path, err := fsutil.OutputPath(o.outDir, "Modelfile."+v.name)
		if err != nil {
			return err
		}
		if err := modelfile.Write(path, v.spec); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "  wrote %s\n", path)
		// The optimized variant is the one `check` expects to be created by hand.
		if o.skipCreate || v.name == "optimized" {
			continue
		}
		model := base + "-" + v.name
		if err := rt.Create(ctx, model, path); err != nil {
			a.log.Error().Err(err).Str("model", model).Msg("create failed")
			fmt.Fprintf(a.stdout, "  %s create %s failed: %v\n", errMark, model, err)
			continue
		}
		fmt.Fprintf(a.stdout, "  created %s\n", model)
	}

	fmt.Fprintf(a.stdout, "\n%s\n", headStyle.Render("benchmarking"))
	models := []string{base + "-optimized", base + "-fast", base + "-balanced"}
	entries := bench.Models(ctx, rt, models, o.bound, a.log.With().Str("component", "bench").Logger())
	bench.PrintSummary(a.stdout, entries)
	return nil
}
