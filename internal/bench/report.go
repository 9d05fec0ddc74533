package bench

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"

	"prodclass/pkg/types"
)

// CategoryStat aggregates successful Results of one category.
type CategoryStat struct {
	Category       string  `json:"category"`
	Count          int     `json:"count"`
	MeanConfidence float64 `json:"mean_confidence"`
}

// Summarize groups successful results by predicted category, largest first.
func Summarize(results []types.Result) []CategoryStat {
	idx := map[string]int{}
	var stats []CategoryStat
	sums := []float64{}
	for _, r := range results {
		if r.Failed() {
			continue
		}
		i, ok := idx[r.PredictedCategory]
		if !ok {
			i = len(stats)
			idx[r.PredictedCategory] = i
			stats = append(stats, CategoryStat{Category: r.PredictedCategory})
			sums = append(sums, 0)
		}
		stats[i].Count++
		sums[i] += r.Confidence
	}
	for i := range stats {
		stats[i].MeanConfidence = sums[i] / float64(stats[i].Count)
	}
	sort.SliceStable(stats, func(a, b int) bool {
		if stats[a].Count != stats[b].Count {
			return stats[a].Count > stats[b].Count
		}
		return stats[a].Category < stats[b].Category
	})
	return stats
}

// MeanTime is the mean processing time of the successful results.
func MeanTime(results []types.Result) float64 {
	var sum float64
	n := 0
	for _, r := range results {
		if r.Failed() {
			continue
		}
		sum += r.ProcessingTime
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Comparison contrasts per-product time of the batch and single paths.
type Comparison struct {
	BatchPerItem  float64
	SinglePerItem float64
}

// Compare builds a Comparison from both runs.
func Compare(batch, single []types.Result) Comparison {
	return Comparison{BatchPerItem: MeanTime(batch), SinglePerItem: MeanTime(single)}
}

// Verdict describes which path was faster and by how much. ok is false when
// either path produced no timings.
func (c Comparison) Verdict() (msg string, ok bool) {
	if c.BatchPerItem <= 0 || c.SinglePerItem <= 0 {
		return "could not compare performance", false
	}
	if c.BatchPerItem < c.SinglePerItem {
		return fmt.Sprintf("batch is %.1fx faster", c.SinglePerItem/c.BatchPerItem), true
	}
	return fmt.Sprintf("single classification is %.1fx faster", c.BatchPerItem/c.SinglePerItem), true
}

var (
	headStyle = lipgloss.NewStyle().Bold(true)
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// PrintResults writes one line per result.
func PrintResults(w io.Writer, results []types.Result) {
	for i, r := range results {
		if r.Failed() {
			fmt.Fprintf(w, "%s product %d: %s\n", errStyle.Render("x"), i+1, r.Error)
			continue
		}
		fmt.Fprintf(w, "%s product %d: %s -> %s (%.2f)\n", okStyle.Render("ok"), i+1, r.ProductName, r.PredictedCategory, r.Confidence)
	}
}

// PrintCategoryStats writes the per-category table.
func PrintCategoryStats(w io.Writer, stats []CategoryStat) {
	fmt.Fprintln(w, headStyle.Render("category statistics"))
	for _, s := range stats {
		fmt.Fprintf(w, "  %-18s %3d products (mean confidence %.2f)\n", s.Category, s.Count, s.MeanConfidence)
	}
}
