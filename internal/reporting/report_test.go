package reporting

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/additive-ml/gamekit/internal/scoring"
	"github.com/additive-ml/gamekit/internal/statistics"
)

func TestBuildDigest(t *testing.T) {
	scores := scoring.KeyValueScore{1: 0.6, 2: -0.2, 3: 0.05}

	d := BuildDigest(scores, 42)
	require.Equal(t, 3, d.Records)
	require.InDelta(t, 0.15, d.Mean, 1e-9)
	require.Equal(t, -0.2, d.Min)
	require.Equal(t, 0.6, d.Max)
	require.Equal(t, statistics.DefaultBootstrapIterations, d.CI.NumBootstraps)
}

func TestBuildDigest_Empty(t *testing.T) {
	d := BuildDigest(scoring.KeyValueScore{}, 42)
	require.Equal(t, 0, d.Records)
	require.Equal(t, 0.0, d.Min)
	require.Equal(t, 0.0, d.Max)
	require.Equal(t, "No records were scored.", InterpretSpread(d))
}

func TestInterpretSpread(t *testing.T) {
	require.Contains(t, InterpretSpread(Digest{Records: 2, Min: 1, Max: 1}), "same score")
	require.Contains(t, InterpretSpread(Digest{Records: 2, Min: -5, Max: 5, StdDev: 3}), "vary widely")
	require.Contains(t, InterpretSpread(Digest{Records: 2, Min: 0, Max: 0.5, StdDev: 0.2}), "span")
}

func testReport() *Report {
	r := &Report{
		Title:        "GAME model diagnostics",
		TaskType:     "linear_regression",
		ModelSummary: "GAME model (task=linear_regression, sub-models=2)\n",
		Digest:       Digest{Records: 3, Mean: 0.15, StdDev: 0.33, Min: -0.2, Max: 0.6},
		Shards: []ShardSection{
			{
				Shard: "global",
				Features: []FeatureRow{
					{Name: "income", Stats: statistics.FeatureSummary{Count: 3, NonZeros: 2, Mean: 2.0}},
					{Name: "age", Stats: statistics.FeatureSummary{Count: 3, NonZeros: 3, Mean: 30.5}},
				},
			},
		},
	}
	r.SortShards()
	return r
}

func TestReport_SortShards(t *testing.T) {
	r := testReport()
	require.Equal(t, "age", r.Shards[0].Features[0].Name)
	require.Equal(t, "income", r.Shards[0].Features[1].Name)
}

func TestReport_Markdown(t *testing.T) {
	md := testReport().Markdown()
	require.True(t, strings.HasPrefix(md, "# GAME model diagnostics"))
	require.Contains(t, md, "linear_regression")
	require.Contains(t, md, "## Score digest")
	require.Contains(t, md, "## Features: global")
	require.Contains(t, md, "| age |")
}

func TestReport_HTML(t *testing.T) {
	html, err := testReport().HTML()
	require.NoError(t, err)
	require.Contains(t, html, "<h1")
	require.Contains(t, html, "<table>")
	require.Contains(t, html, "age")
}

func TestReport_Text(t *testing.T) {
	text := testReport().Text()
	require.Contains(t, text, "=== GAME model diagnostics ===")
	require.Contains(t, text, "Score digest:")
	require.Contains(t, text, "age")
	require.Contains(t, text, "income")
}

func TestFormatTable_Alignment(t *testing.T) {
	out := formatTable([][]string{
		{"name", "value"},
		{"longer-name", "1"},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	// Columns start at the same offset on every line.
	require.Equal(t, strings.Index(lines[0], "value"), strings.Index(lines[1], "1"))
}
