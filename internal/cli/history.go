package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"prodclass/internal/history"
)

type historyOptions struct {
	db    string
	limit int
	json  bool
}

func newHistoryCmd(a *app) *cobra.Command {
	var o historyOptions
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored category statistics and recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory(o.db)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("no history database: pass --history-db or set history_db")
			}
			defer store.Close()

			ctx := cmd.Context()
			stats, err := store.CategoryStats(ctx)
			if err != nil {
				return err
			}
			runs, err := store.RecentRuns(ctx, o.limit)
			if err != nil {
				return err
			}
			if o.json {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Categories []history.CategoryStat `json:"categories"`
					Runs       []history.RunSummary   `json:"runs"`
				}{stats, runs})
			}
			printHistory(a, stats, runs)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.db, "history-db", "", "SQLite history file (defaults to history_db from config)")
	f.IntVar(&o.limit, "limit", 10, "Number of recent runs to show")
	f.BoolVar(&o.json, "json", false, "Print as JSON")
	return cmd
}

func printHistory(a *app, stats []history.CategoryStat, runs []history.RunSummary) {
	w := a.stdout
	fmt.Fprintln(w, headStyle.Render("categories"))
	if len(stats) == 0 {
		fmt.Fprintln(w, "  no classifications recorded")
	}
	for _, s := range stats {
		fmt.Fprintf(w, "  %-18s %5d (mean confidence %.2f)\n", s.Category, s.Count, s.MeanConfidence)
	}
	fmt.Fprintf(w, "\n%s\n", headStyle.Render("recent runs"))
	for _, r := range runs {
		fmt.Fprintf(w, "  %s  %-6s %-28s %3d products %3d errors %7.2fs\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Mode, r.Model, r.Products, r.Errors, r.ElapsedSec)
	}
}
