package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/additive-ml/gamekit/internal/config"
	"github.com/additive-ml/gamekit/internal/dataset"
	"github.com/additive-ml/gamekit/internal/reporting"
	"github.com/additive-ml/gamekit/internal/scoring"
	"github.com/additive-ml/gamekit/internal/telemetry"
)

func newScoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a CSV dataset with a configured GAME model",
		Long: `Score a CSV dataset with a configured GAME model.

Loads the model config, builds per-shard feature indexes from the
dataset header (or from configured index files), scores every record,
and writes a uid,score CSV. Scores from all sub-models are summed
per record.`,
		Args:          cobra.NoArgs,
		RunE:          runScore,
		SilenceErrors: true,
	}
	cmd.Flags().StringP("config", "c", "", "Model config YAML file (required)")
	cmd.Flags().StringP("data", "d", "", "Dataset CSV file (required)")
	cmd.Flags().StringP("output", "o", "-", "Output CSV path, or - for stdout (.gz compresses)")
	cmd.Flags().String("storage-level", "", "Override the config storage level")
	cmd.Flags().String("spill-dir", "", "Directory for disk-backed sub-model state (default: temp dir)")
	cmd.Flags().Int64("seed", 1, "Bootstrap seed for the score digest")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func runScore(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	dataPath, _ := cmd.Flags().GetString("data")
	outputPath, _ := cmd.Flags().GetString("output")
	levelOverride, _ := cmd.Flags().GetString("storage-level")
	spillDir, _ := cmd.Flags().GetString("spill-dir")
	seed, _ := cmd.Flags().GetInt64("seed")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if levelOverride != "" {
		cfg.StorageLevel = levelOverride
	}
	level, err := dataset.ParseStorageLevel(cfg.StorageLevel)
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
	slog.Debug("loaded dataset", "records", ds.Len(), "partitions", cfg.Partitions)

	var buildOpts []config.BuildOption
	if level.RequiresDisk() {
		store, closeStore, err := openSpillStore(spillDir)
		if err != nil {
			return err
		}
		defer closeStore()
		buildOpts = append(buildOpts, config.WithSpillStore(store))
	}

	model, err := cfg.BuildModel(indexes, buildOpts...)
	if err != nil {
		return err
	}
	slog.Debug("built model", "summary", model.SummaryString())

	metrics := telemetry.New(prometheus.NewRegistry())
	if level.RequiresDisk() {
		if model, err = model.Persist(level); err != nil {
			return fmt.Errorf("persist model: %w", err)
		}
		metrics.CountLifecycle("persist")
	}

	start := time.Now()
	scores, err := model.Score(cmd.Context(), ds)
	metrics.ObserveRun(start, ds.Len(), err)
	if err != nil {
		return err
	}

	if _, err := model.Unpersist(); err != nil {
		slog.Warn("unpersist failed", "error", err)
	} else if level.RequiresDisk() {
		metrics.CountLifecycle("unpersist")
	}

	if err := writeScoresCSV(cmd.OutOrStdout(), outputPath, scores); err != nil {
		return err
	}

	digest := reporting.BuildDigest(scores, seed)
	fmt.Fprintf(cmd.ErrOrStderr(), "Scored %d records in %s: mean %.4f, std dev %.4f\n",
		digest.Records, time.Since(start).Round(time.Millisecond), digest.Mean, digest.StdDev)
	fmt.Fprintln(cmd.ErrOrStderr(), reporting.InterpretSpread(digest))
	return nil
}

func openSpillStore(dir string) (*dataset.Store, func(), error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "gamekit-spill-*")
		if err != nil {
			return nil, nil, fmt.Errorf("create spill dir: %w", err)
		}
		store, err := dataset.OpenStore(dataset.StoreConfig{Path: tmp})
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			_ = store.Close()
			_ = os.RemoveAll(tmp)
		}, nil
	}
	store, err := dataset.OpenStore(dataset.StoreConfig{Path: dir})
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

// writeScoresCSV writes a uid,score file sorted by uid. A path ending in
// .gz is gzip-compressed; "-" writes to stdout.
func writeScoresCSV(stdout io.Writer, path string, scores scoring.KeyValueScore) error {
	var out io.Writer = stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close() //nolint:errcheck
		out = f

		if strings.HasSuffix(path, ".gz") {
			gz := gzip.NewWriter(f)
			defer gz.Close() //nolint:errcheck
			out = gz
		}
	}

	uids := make([]int64, 0, len(scores))
	for uid := range scores {
		uids = append(uids, uid)
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })

	w := csv.NewWriter(out)
	if err := w.Write([]string{"uid", "score"}); err != nil {
		return err
	}
	for _, uid := range uids {
		record := []string{
			strconv.FormatInt(uid, 10),
			strconv.FormatFloat(scores[uid], 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
