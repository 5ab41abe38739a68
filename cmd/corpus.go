package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finsight/finchat/internal/corpus"
	"github.com/finsight/finchat/internal/retrieval"
	"github.com/finsight/finchat/internal/similarity"
)

var corpusQuery string

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspect the loaded corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := corpus.Load(cfg.Corpus.Path)

		fmt.Printf("path: %s\n", cfg.Corpus.Path)
		fmt.Printf("records: %d\n", c.Len())

		withQA := 0
		withTable := 0
		for _, rec := range c.Records() {
			if rec.QA.Question != "" {
				withQA++
			}
			if len(rec.SourceTable()) > 0 {
				withTable++
			}
		}
		fmt.Printf("with question/answer: %d\n", withQA)
		fmt.Printf("with table: %d\n", withTable)

		if corpusQuery != "" {
			matcher := similarity.Matcher{MinScore: cfg.Corpus.MinScore}
			svc := retrieval.NewService(c, matcher)
			fmt.Printf("\n--- lookup preview ---\n%s\n", svc.Lookup(corpusQuery))
		}

		return nil
	},
}

func init() {
	corpusCmd.Flags().StringVar(&corpusQuery, "query", "", "preview the retrieval context for a query")
	rootCmd.AddCommand(corpusCmd)
}
