package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/additive-ml/gamekit/internal/dataset"
	"github.com/additive-ml/gamekit/internal/index"
)

func newIndexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build and inspect feature index files",
	}
	cmd.AddCommand(newIndexBuildCommand())
	cmd.AddCommand(newIndexShowCommand())
	return cmd
}

func newIndexBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <data.csv>",
		Short: "Build a feature index per shard from a dataset header",
		Long: `Build a feature index per shard from a dataset header.

Reads only the CSV header, collects the feature names of each shard, and
writes one <shard>.json.gz index file per shard into the output
directory. Index files pin the name-to-id mapping so coefficients and
datasets vectorize consistently across runs.`,
		Args:          cobra.ExactArgs(1),
		RunE:          runIndexBuild,
		SilenceErrors: true,
	}
	cmd.Flags().StringP("out-dir", "o", ".", "Directory for the index files")
	return cmd
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	outDir, _ := cmd.Flags().GetString("out-dir")

	columns, err := dataset.FeatureColumns(args[0])
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		return fmt.Errorf("%s has no feature columns", args[0])
	}

	shards := make([]string, 0, len(columns))
	for shard := range columns {
		shards = append(shards, shard)
	}
	sort.Strings(shards)

	for _, shard := range shards {
		fi := index.Build(columns[shard])
		path := fmt.Sprintf("%s/%s.json.gz", outDir, shard)
		if err := fi.Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d features -> %s\n", shard, fi.Len(), path)
	}
	return nil
}

func newIndexShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "show <index.json.gz>",
		Short:         "Print the contents of a feature index file",
		Args:          cobra.ExactArgs(1),
		RunE:          runIndexShow,
		SilenceErrors: true,
	}
}

func runIndexShow(cmd *cobra.Command, args []string) error {
	fi, err := index.Load(args[0])
	if err != nil {
		return err
	}
	for id, name := range fi.Names() {
		fmt.Fprintf(cmd.OutOrStdout(), "%6d  %s\n", id, name)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d features\n", fi.Len())
	return nil
}
