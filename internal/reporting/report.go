// Package reporting renders model diagnostics: a score digest, per-shard
// feature statistics, and the composite's own summary, as fixed-width
// text, markdown, or HTML.
package reporting

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/additive-ml/gamekit/internal/scoring"
	"github.com/additive-ml/gamekit/internal/statistics"
)

// Digest summarizes a score distribution.
type Digest struct {
	Records int                           `json:"records"`
	Mean    float64                       `json:"mean"`
	StdDev  float64                       `json:"std_dev"`
	Min     float64                       `json:"min"`
	Max     float64                       `json:"max"`
	CI      statistics.ConfidenceInterval `json:"confidence_interval"`
}

// BuildDigest computes a Digest over a merged score. seed controls the
// bootstrap resampling; pass a negative seed for a non-deterministic one.
func BuildDigest(scores scoring.KeyValueScore, seed int64) Digest {
	values := scores.Values()
	d := Digest{
		Records: len(values),
		Mean:    statistics.Mean(values),
		StdDev:  statistics.StdDev(values),
		CI:      statistics.BootstrapCIWithSeed(values, 0.95, seed),
	}
	for i, v := range values {
		if i == 0 || v < d.Min {
			d.Min = v
		}
		if i == 0 || v > d.Max {
			d.Max = v
		}
	}
	return d
}

// InterpretSpread returns a plain-language label for the score spread.
func InterpretSpread(d Digest) string {
	if d.Records == 0 {
		return "No records were scored."
	}
	spread := d.Max - d.Min
	switch {
	case spread == 0:
		return "All records received the same score."
	case d.StdDev > 1.0:
		return fmt.Sprintf("Scores vary widely (std dev %.2f), check feature scaling.", d.StdDev)
	default:
		return fmt.Sprintf("Scores span [%.3f, %.3f] with std dev %.3f.", d.Min, d.Max, d.StdDev)
	}
}

// FeatureRow is one feature's statistics with its resolved name.
type FeatureRow struct {
	Name  string
	Stats statistics.FeatureSummary
}

// ShardSection holds the feature rows of one shard, name-sorted.
type ShardSection struct {
	Shard    string
	Features []FeatureRow
}

// Report is a complete diagnostics document.
type Report struct {
	Title        string
	TaskType     string
	ModelSummary string
	Digest       Digest
	Shards       []ShardSection
}

// SortShards orders the shard sections and their feature rows by name so
// the rendered report is deterministic.
func (r *Report) SortShards() {
	sort.Slice(r.Shards, func(i, j int) bool { return r.Shards[i].Shard < r.Shards[j].Shard })
	for i := range r.Shards {
		rows := r.Shards[i].Features
		sort.Slice(rows, func(a, b int) bool { return rows[a].Name < rows[b].Name })
	}
}

// Markdown renders the report as a markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	fmt.Fprintf(&b, "Task type: `%s`\n\n", r.TaskType)

	b.WriteString("## Model\n\n```\n")
	b.WriteString(r.ModelSummary)
	b.WriteString("```\n\n")

	b.WriteString("## Score digest\n\n")
	fmt.Fprintf(&b, "| Records | Mean | Std dev | Min | Max | 95%% CI |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %.4f | %.4f | %.4f | %.4f | [%.4f, %.4f] |\n\n",
		r.Digest.Records, r.Digest.Mean, r.Digest.StdDev, r.Digest.Min, r.Digest.Max,
		r.Digest.CI.Lower, r.Digest.CI.Upper)
	fmt.Fprintf(&b, "%s\n\n", InterpretSpread(r.Digest))

	for _, shard := range r.Shards {
		fmt.Fprintf(&b, "## Features: %s\n\n", shard.Shard)
		b.WriteString("| Feature | Mean | Variance | Min | Max | Non-zeros |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, row := range shard.Features {
			fmt.Fprintf(&b, "| %s | %.4f | %.4f | %.4f | %.4f | %d/%d |\n",
				row.Name, row.Stats.Mean, row.Stats.Variance, row.Stats.Min, row.Stats.Max,
				row.Stats.NonZeros, row.Stats.Count)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HTML renders the report through goldmark with table support.
func (r *Report) HTML() (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(r.Markdown()), &buf); err != nil {
		return "", fmt.Errorf("reporting: render html: %w", err)
	}
	return buf.String(), nil
}

// Text renders the report as fixed-width plain text.
func (r *Report) Text() string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== %s ===\n\n", r.Title)
	fmt.Fprintf(&b, "Task type: %s\n\n", r.TaskType)
	b.WriteString(r.ModelSummary)
	b.WriteString("\n")

	fmt.Fprintf(&b, "Score digest: records=%d mean=%.4f stddev=%.4f min=%.4f max=%.4f\n",
		r.Digest.Records, r.Digest.Mean, r.Digest.StdDev, r.Digest.Min, r.Digest.Max)
	fmt.Fprintf(&b, "%s\n", InterpretSpread(r.Digest))

	for _, shard := range r.Shards {
		fmt.Fprintf(&b, "\nFeatures (%s):\n", shard.Shard)
		rows := [][]string{{"feature", "mean", "variance", "min", "max", "nnz"}}
		for _, row := range shard.Features {
			rows = append(rows, []string{
				row.Name,
				fmt.Sprintf("%.4f", row.Stats.Mean),
				fmt.Sprintf("%.4f", row.Stats.Variance),
				fmt.Sprintf("%.4f", row.Stats.Min),
				fmt.Sprintf("%.4f", row.Stats.Max),
				fmt.Sprintf("%d/%d", row.Stats.NonZeros, row.Stats.Count),
			})
		}
		b.WriteString(formatTable(rows))
	}

	return b.String()
}

// formatTable aligns columns by display width so wide runes in feature
// names do not skew the layout.
func formatTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			b.WriteString("  ")
			b.WriteString(runewidth.FillRight(cell, widths[i]))
		}
		b.WriteString("\n")
	}
	return b.String()
}
