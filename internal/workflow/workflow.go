// Package workflow routes a conversation through the research and
// computation stages. The control contract is deliberately reduced to a
// single textual sentinel the research stage emits, because the stages are
// driven by small models that cannot be trusted with free-form planning.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/finsight/finchat/internal/model"
)

// Stage is an opaque reasoning stage: full message history in, final reply
// text out. Implementations may call a remote service; the workflow only
// relies on this contract.
type Stage interface {
	Name() string
	Invoke(ctx context.Context, messages []model.Message) (string, error)
}

// Workflow is the two-stage state machine: research, then conditionally
// compute, then done.
type Workflow struct {
	research Stage
	math     Stage
}

// New builds a workflow from its two stages.
func New(research, math Stage) *Workflow {
	return &Workflow{research: research, math: math}
}

// NextStage decides the transition out of the research stage from its reply
// text alone. Pure function: feed it canned text to test routing without
// any reasoning service.
func NextStage(reply string) model.Stage {
	if strings.Contains(reply, model.HandoffMarker) {
		return model.StageCompute
	}
	return model.StageDone
}

// Run drives the state machine to completion. The returned state is always
// terminal and always carries at least one assistant turn: a genuine answer,
// a no-data notice, or an attributed stage-error message. Stage failures
// never propagate; they become the final turn.
func (w *Workflow) Run(ctx context.Context, state *model.ConversationState) *model.ConversationState {
	for state.Next != model.StageDone {
		switch state.Next {
		case model.StageResearch:
			reply, err := w.invoke(ctx, w.research, state)
			if err != nil {
				state.Append(model.RoleAssistant, fmt.Sprintf("%s error: %s", w.research.Name(), err))
				state.Next = model.StageDone
				continue
			}
			state.Append(model.RoleAssistant, reply)
			state.Next = NextStage(reply)

		case model.StageCompute:
			reply, err := w.invoke(ctx, w.math, state)
			if err != nil {
				state.Append(model.RoleAssistant, fmt.Sprintf("%s error: %s", w.math.Name(), err))
			} else {
				state.Append(model.RoleAssistant, reply)
			}
			state.Next = model.StageDone

		default:
			// Unknown tag; terminate rather than loop.
			state.Next = model.StageDone
		}
	}
	return state
}

// invoke runs one stage with panic containment: a panicking stage is
// reported as a stage error, not a crashed workflow.
func (w *Workflow) invoke(ctx context.Context, stage Stage, state *model.ConversationState) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	start := time.Now()
	reply, err = stage.Invoke(ctx, state.Messages)
	zap.L().Info("stage complete",
		zap.String("stage", stage.Name()),
		zap.String("session", state.SessionID),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("failed", err != nil),
	)
	return reply, err
}
