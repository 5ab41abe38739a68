package workflow

import (
	"context"

	"github.com/finsight/finchat/internal/agent"
	"github.com/finsight/finchat/internal/model"
)

// AgentStage adapts an agent plus runner into a workflow Stage. onText, when
// set, receives streamed reply text; it is presentation only.
type AgentStage struct {
	agent  *agent.Agent
	runner *agent.Runner
	onText func(string)
}

// NewAgentStage wraps an agent as a workflow stage.
func NewAgentStage(a *agent.Agent, runner *agent.Runner, onText func(string)) *AgentStage {
	return &AgentStage{agent: a, runner: runner, onText: onText}
}

func (s *AgentStage) Name() string {
	return s.agent.Name
}

func (s *AgentStage) Invoke(ctx context.Context, messages []model.Message) (string, error) {
	return s.runner.Run(ctx, s.agent, messages, s.onText)
}
