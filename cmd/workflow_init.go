package main

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/finsight/finchat/internal/agent"
	"github.com/finsight/finchat/internal/corpus"
	"github.com/finsight/finchat/internal/retrieval"
	"github.com/finsight/finchat/internal/similarity"
	"github.com/finsight/finchat/internal/store"
	"github.com/finsight/finchat/internal/workflow"
	anthropicpkg "github.com/finsight/finchat/pkg/anthropic"
)

// chatEnv bundles everything a command needs to run conversations.
type chatEnv struct {
	Corpus   *corpus.Corpus
	Matcher  similarity.Matcher
	Lookup   *retrieval.Service
	Workflow *workflow.Workflow
	Store    store.Store
}

func (e *chatEnv) Close() {
	if e.Store != nil {
		e.Store.Close()
	}
}

// initWorkflow sets up the corpus, both agents, and the session store.
// onText, when non-nil, receives streamed reply text as it arrives.
func initWorkflow(ctx context.Context, onText func(string)) (*chatEnv, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (FINCHAT_ANTHROPIC_KEY)")
	}

	c := corpus.Load(cfg.Corpus.Path)
	matcher := similarity.Matcher{MinScore: cfg.Corpus.MinScore}
	lookup := retrieval.NewService(c, matcher)

	opts := []anthropicpkg.Option{}
	if cfg.Anthropic.RPS > 0 {
		opts = append(opts, anthropicpkg.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.Anthropic.RPS), 1)))
	}
	if cfg.Anthropic.BaseURL != "" {
		opts = append(opts, anthropicpkg.WithBaseURL(cfg.Anthropic.BaseURL))
	}
	client := anthropicpkg.NewClient(cfg.Anthropic.Key, opts...)

	runner := agent.NewRunner(client, agent.Config{
		Model:       cfg.Anthropic.Model,
		MaxTokens:   cfg.Anthropic.MaxTokens,
		Temperature: &cfg.Anthropic.Temperature,
	})

	research := workflow.NewAgentStage(agent.NewResearchAgent(lookup), runner, onText)
	math := workflow.NewAgentStage(agent.NewMathAgent(), runner, onText)

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	return &chatEnv{
		Corpus:   c,
		Matcher:  matcher,
		Lookup:   lookup,
		Workflow: workflow.New(research, math),
		Store:    st,
	}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DSN
		if dsn == "" {
			dsn = "finchat.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DSN)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
