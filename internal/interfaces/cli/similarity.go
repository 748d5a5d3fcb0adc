package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/ListSense/internal/application/extraction"
	"github.com/turtacn/ListSense/pkg/errors"
)

const metricAll = "all"

type similarityOptions struct {
	metric     string
	ignoreCase bool
}

// NewSimilarityCmd creates the similarity command.
func NewSimilarityCmd() *cobra.Command {
	opts := &similarityOptions{}
	cmd := &cobra.Command{
		Use:   "similarity <a> <b>",
		Short: "Score two strings with the fuzzy matching metrics",
		Example: `  listsense similarity kitten sitting
  listsense similarity --metric jaro-winkler --ignore-case MARTHA marhta`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimilarity(cmd, args[0], args[1], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.metric, "metric", "m", metricAll, "levenshtein, jaro-winkler or all")
	cmd.Flags().BoolVar(&opts.ignoreCase, "ignore-case", false, "compare case-insensitively (jaro-winkler only)")
	return cmd
}

func runSimilarity(cmd *cobra.Command, a, b string, opts *similarityOptions) error {
	var metrics []string
	switch m := strings.ToLower(opts.metric); m {
	case metricAll:
		metrics = []string{extraction.MetricLevenshtein, extraction.MetricJaroWinkler}
	case extraction.MetricLevenshtein, extraction.MetricJaroWinkler:
		metrics = []string{m}
	default:
		return errors.New(errors.ErrCodeValidation, "invalid metric").
			WithDetailf("metric=%q, expected levenshtein|jaro-winkler|all", opts.metric)
	}

	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	backend, err := cliCtx.Backend()
	if err != nil {
		return err
	}
	ctx, cancel := cliCtx.Context(cmd.Context())
	defer cancel()

	out := similarityResult{A: a, B: b}
	for _, m := range metrics {
		score, err := backend.Similarity(ctx, m, a, b, !opts.ignoreCase)
		if err != nil {
			return err
		}
		out.Scores = append(out.Scores, metricScore{Metric: m, Score: score})
	}
	return PrintResult(cmd, out)
}

type metricScore struct {
	Metric string  `json:"metric"`
	Score  float64 `json:"score"`
}

type similarityResult struct {
	A      string        `json:"a"`
	B      string        `json:"b"`
	Scores []metricScore `json:"scores"`
}

func (r similarityResult) TableHeaders() []string { return []string{"Metric", "Score"} }

func (r similarityResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Scores))
	for _, s := range r.Scores {
		rows = append(rows, []string{s.Metric, colorizeConfidence(s.Score)})
	}
	return rows
}

func (r similarityResult) String() string {
	var sb strings.Builder
	for _, s := range r.Scores {
		fmt.Fprintf(&sb, "%-13s %s\n", s.Metric, colorizeConfidence(s.Score))
	}
	return sb.String()
}

//Personal.AI order the ending
