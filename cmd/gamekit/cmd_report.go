package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/additive-ml/gamekit/internal/config"
	"github.com/additive-ml/gamekit/internal/dataset"
	"github.com/additive-ml/gamekit/internal/index"
	"github.com/additive-ml/gamekit/internal/reporting"
	"github.com/additive-ml/gamekit/internal/statistics"
)

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a diagnostics report for a model and dataset",
		Long: `Generate a diagnostics report for a model and dataset.

Scores the dataset, bootstraps a confidence interval over the merged
scores, and summarizes every feature shard (non-zero counts, moments,
norms). Output formats: text, markdown, html.`,
		Args:          cobra.NoArgs,
		RunE:          runReport,
		SilenceErrors: true,
	}
	cmd.Flags().StringP("config", "c", "", "Model config YAML file (required)")
	cmd.Flags().StringP("data", "d", "", "Dataset CSV file (required)")
	cmd.Flags().StringP("output", "o", "-", "Output path, or - for stdout")
	cmd.Flags().String("format", "text", "Output format: text | markdown | html")
	cmd.Flags().String("title", "GAME model diagnostics", "Report title")
	cmd.Flags().Int64("seed", 1, "Bootstrap seed for the score digest")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	dataPath, _ := cmd.Flags().GetString("data")
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	title, _ := cmd.Flags().GetString("title")
	seed, _ := cmd.Flags().GetInt64("seed")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	indexes, err := cfg.ResolveIndexes(dataPath)
	if err != nil {
		return err
	}
	data, err := dataset.LoadCSV(dataPath, indexes)
	if err != nil {
		return err
	}
	ds := dataset.New(data, cfg.Partitions)

	model, err := cfg.BuildModel(indexes)
	if err != nil {
		return err
	}
	scores, err := model.Score(cmd.Context(), ds)
	if err != nil {
		return err
	}

	report := &reporting.Report{
		Title:        title,
		TaskType:     string(model.TaskType()),
		ModelSummary: model.SummaryString(),
		Digest:       reporting.BuildDigest(scores, seed),
		Shards:       buildShardSections(ds, indexes),
	}
	report.SortShards()

	rendered, err := renderReport(report, format)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), outputPath, rendered)
}

func buildShardSections(ds *dataset.Dataset, indexes map[string]*index.FeatureIndex) []reporting.ShardSection {
	sections := make([]reporting.ShardSection, 0, len(indexes))
	for shard, fi := range indexes {
		stats := statistics.SummarizeShard(ds, shard)

		ids := make([]int, 0, len(stats))
		for id := range stats {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		rows := make([]reporting.FeatureRow, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, reporting.FeatureRow{Name: fi.Name(id), Stats: stats[id]})
		}
		sections = append(sections, reporting.ShardSection{Shard: shard, Features: rows})
	}
	return sections
}

func renderReport(r *reporting.Report, format string) (string, error) {
	switch format {
	case "text":
		return r.Text(), nil
	case "markdown":
		return r.Markdown(), nil
	case "html":
		return r.HTML()
	default:
		return "", fmt.Errorf("unknown format %q (expected text, markdown, or html)", format)
	}
}

func writeOutput(stdout io.Writer, path, content string) error {
	if path == "-" {
		_, err := io.WriteString(stdout, content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
