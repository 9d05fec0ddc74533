package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"prodclass/internal/bench"
	"prodclass/internal/common/fsutil"
	"prodclass/internal/demo"
	"prodclass/pkg/types"
)

type runOptions struct {
	catalog     string
	batchSize   int
	singleCount int
	historyDB   string
}

func newRunCmd(a *app) *cobra.Command {
	var o runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Classify the demo catalog and compare the batch and single paths",
		Example: "  prodclass run\n" +
			"  prodclass run --catalog products.yaml --batch-size 20 --history-db ~/.prodclass/history.db",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDemo(cmd.Context(), o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.catalog, "catalog", "", "Catalog file (.yaml|.json|.toml); defaults to the built-in catalog")
	f.IntVar(&o.batchSize, "batch-size", 10, "Products classified in one batch call")
	f.IntVar(&o.singleCount, "single-count", 5, "Products classified one by one for the speed comparison")
	f.StringVar(&o.historyDB, "history-db", "", "SQLite file recording the runs (defaults to history_db from config)")
	return cmd
}

func (a *app) runDemo(ctx context.Context, o runOptions) error {
	cat := demo.Default()
	if o.catalog != "" {
		path, err := fsutil.ExpandHome(o.catalog)
		if err != nil {
			return err
		}
		if cat, err = demo.Load(path); err != nil {
			return err
		}
	}
	store, err := a.openHistory(o.historyDB)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	c, _ := a.newClassifier(classifierOpts{progress: true, publisher: a.recorder(store)})
	defer c.Close()

	out := a.stdout
	printModelInfo(out, c.ModelInfo())
	if !c.LoadModel(ctx) {
		return fmt.Errorf("model %s is not available; run `prodclass check`", a.cfg.ModelName)
	}
	printResources(out, c.Stats())

	batch := cat.First(o.batchSize)
	fmt.Fprintf(out, "\n%s\n", headStyle.Render(fmt.Sprintf("batch classification of %d products", len(batch))))
	batchResults := c.ClassifyBatch(ctx, batch)
	bench.PrintResults(out, batchResults)
	fmt.Fprintln(out)
	bench.PrintCategoryStats(out, bench.Summarize(batchResults))

	single := cat.First(o.singleCount)
	fmt.Fprintf(out, "\n%s\n", headStyle.Render(fmt.Sprintf("single classification of %d products", len(single))))
	singleResults := make([]types.Result, 0, len(single))
	for _, p := range single {
		singleResults = append(singleResults, c.ClassifyProduct(ctx, p))
	}
	bench.PrintResults(out, singleResults)

	cmp := bench.Compare(batchResults, singleResults)
	fmt.Fprintf(out, "\nbatch: %.2fs per product, single: %.2fs per product\n", cmp.BatchPerItem, cmp.SinglePerItem)
	msg, _ := cmp.Verdict()
	fmt.Fprintln(out, msg)
	printResources(out, c.Stats())
	return nil
}

func printModelInfo(w io.Writer, m types.ModelInfo) {
	fmt.Fprintln(w, headStyle.Render("model"))
	fmt.Fprintf(w, "  name:       %s\n", m.ModelName)
	fmt.Fprintf(w, "  method:     %s\n", m.Method)
	fmt.Fprintf(w, "  platform:   %s\n", m.Platform)
	fmt.Fprintf(w, "  size:       %.1f GB\n", m.ModelSizeGB)
	fmt.Fprintf(w, "  categories: %s\n", strings.Join(m.Categories, ", "))
}

func printResources(w io.Writer, s types.ResourceSnapshot) {
	if s.Empty() {
		return
	}
	fmt.Fprintf(w, "\ncpu %.1f%%, ram %.1f%% (%.1f/%.1f GB)\n", s.CPUPercent, s.RAMPercent, s.RAMUsedGB, s.RAMTotalGB)
	for _, g := range s.GPUInfo {
		fmt.Fprintf(w, "gpu %s: %d/%d MB, %d%%\n", g.Name, g.MemoryUsedMB, g.MemoryTotalMB, g.UtilizationPercent)
	}
}
