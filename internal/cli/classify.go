package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"prodclass/internal/bench"
	"prodclass/pkg/types"
)

var (
	headStyle = lipgloss.NewStyle().Bold(true)
	errMark   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("x")
)

// errClassificationFailed is returned when at least one Result carries an error.
var errClassificationFailed = errors.New("one or more classifications failed")

type classifyOptions struct {
	description string
	json        bool
	historyDB   string
}

func newClassifyCmd(a *app) *cobra.Command {
	var o classifyOptions
	cmd := &cobra.Command{
		Use:   "classify NAME...",
		Short: "Classify products given on the command line",
		Long: "Classify one or more product names. A single name uses one runtime call;\n" +
			"several names are classified together in one batch call.",
		Example: "  prodclass classify \"iPhone 15 Pro Max 256GB\"\n" +
			"  prodclass classify --json \"PlayStation 5 Slim\" \"Steam Deck OLED 512GB\"",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.classify(cmd.Context(), args, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.description, "description", "", "Description attached to every product")
	f.BoolVar(&o.json, "json", false, "Print Results as JSON")
	f.StringVar(&o.historyDB, "history-db", "", "SQLite file recording the runs (defaults to history_db from config)")
	return cmd
}

func (a *app) classify(ctx context.Context, names []string, o classifyOptions) error {
	products := make([]types.Product, len(names))
	for i, n := range names {
		products[i] = types.Product{Name: n, Description: o.description}
	}
	store, err := a.openHistory(o.historyDB)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	c, _ := a.newClassifier(classifierOpts{progress: !o.json, publisher: a.recorder(store)})
	defer c.Close()
	if !c.LoadModel(ctx) {
		a.log.Warn().Str("model", a.cfg.ModelName).Msg("model not available; results will carry errors")
	}

	var results []types.Result
	if len(products) == 1 {
		results = []types.Result{c.ClassifyProduct(ctx, products[0])}
	} else {
		results = c.ClassifyBatch(ctx, products)
	}

	if o.json {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
	} else {
		bench.PrintResults(a.stdout, results)
		for _, r := range results {
			if !r.Failed() && r.Reasoning != "" {
				fmt.Fprintf(a.stdout, "  %s: %s\n", r.ProductName, r.Reasoning)
			}
		}
	}
	for _, r := range results {
		if r.Failed() {
			return errClassificationFailed
		}
	}
	return nil
}
