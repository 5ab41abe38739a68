package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finsight/finchat/internal/corpus"
	"github.com/finsight/finchat/internal/eval"
	"github.com/finsight/finchat/internal/model"
	"github.com/finsight/finchat/internal/similarity"
)

var (
	evalLive    bool
	evalSample  int
	evalCases   string
	evalOut     string
	evalWorkers int
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate retrieval and answer quality",
	Long:  "Offline mode checks that each sampled question retrieves its own record. Live mode runs questions through the full workflow and scores extracted percentages against expected answers.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sample := evalSample
		if sample == 0 {
			sample = cfg.Eval.Sample
		}

		var cases []eval.Case
		if evalCases != "" {
			loaded, err := eval.LoadCases(evalCases)
			if err != nil {
				return err
			}
			cases = loaded
		}

		if !evalLive {
			c := corpus.Load(cfg.Corpus.Path)
			matcher := similarity.Matcher{MinScore: cfg.Corpus.MinScore}
			if cases == nil {
				cases = eval.SampleCases(c, sample)
			}

			results := eval.Retrieval(c, matcher, cases)
			hits := 0
			for _, r := range results {
				if r.SelfHit {
					hits++
				}
				fmt.Printf("%-8.4f %-6t %s\n", r.TopScore, r.SelfHit, truncateLine(r.Question, 80))
			}
			fmt.Printf("\nself-hit rate: %d/%d\n", hits, len(results))
			return nil
		}

		env, err := initWorkflow(ctx, nil)
		if err != nil {
			return err
		}
		defer env.Close()

		if cases == nil {
			cases = eval.SampleCases(env.Corpus, sample)
		}

		workers := evalWorkers
		if workers == 0 {
			workers = cfg.Eval.Concurrency
		}

		run := func(ctx context.Context, sessionID, question string) (string, error) {
			if _, err := env.Store.CreateSession(ctx, sessionID); err != nil {
				return "", eris.Wrap(err, "create session")
			}
			state := env.Workflow.Run(ctx, model.NewConversation(sessionID, question))
			if err := env.Store.AppendMessages(ctx, sessionID, state.Messages); err != nil {
				zap.L().Warn("persist eval turn failed", zap.Error(err))
			}
			return state.Last().Content, nil
		}

		results := eval.Live(ctx, run, uuid.NewString, cases, workers, cfg.Eval.Tolerance)

		summary := eval.Summarize(results)
		for _, r := range results {
			status := "MISS"
			if r.Match {
				status = "OK"
			}
			if r.Err != "" {
				status = "ERR"
			}
			fmt.Printf("%-4s extracted=%-10q expected=%-10q %s\n",
				status, r.Extracted, r.Case.Expected, truncateLine(r.Case.Question, 60))
		}
		fmt.Printf("\nmatched %d/%d (%.1f%%), %d failed\n",
			summary.Matched, summary.Total, summary.Rate*100, summary.Failed)

		if evalOut != "" {
			if err := eval.WriteReport(evalOut, results); err != nil {
				return err
			}
			fmt.Printf("report written to %s\n", evalOut)
		}

		return nil
	},
}

func truncateLine(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func init() {
	evalCmd.Flags().BoolVar(&evalLive, "live", false, "run cases through the full workflow")
	evalCmd.Flags().IntVar(&evalSample, "sample", 0, "number of corpus cases to sample (default from config)")
	evalCmd.Flags().StringVar(&evalCases, "cases", "", "path to a YAML file of cases")
	evalCmd.Flags().StringVar(&evalOut, "out", "", "write an xlsx report to this path (live mode)")
	evalCmd.Flags().IntVar(&evalWorkers, "workers", 0, "concurrent live cases (default from config)")
	rootCmd.AddCommand(evalCmd)
}
