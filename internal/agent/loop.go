package agent

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/codeagent/internal/compaction"
	"github.com/haasonsaas/codeagent/internal/observability"
	"github.com/haasonsaas/codeagent/internal/runtime"
	"github.com/haasonsaas/codeagent/internal/tools"
)

// Config parameterizes one Loop.
type Config struct {
	Provider   LLMProvider
	Registry   *tools.Registry
	Pipeline   *Pipeline
	Compactor  *compaction.Compactor
	Tracer     observability.Tracer
	Metrics    *observability.Metrics // nil disables metric recording
	Logger     *slog.Logger           // nil falls back to a discard logger, never a package-level default
	MaxTurns   int
	Timeout    time.Duration // 0 = no wall-clock limit
	ToolSchema []ToolSchema
}

// Result is what run() returns once the loop ends.
type Result struct {
	RunID           string
	TerminateReason runtime.TerminateReason
	FinalResult     string
	Messages        []*runtime.Message
	TurnCount       int
}

// Loop runs the per-turn agent state machine.
type Loop struct {
	cfg Config
}

func NewLoop(cfg Config) *Loop {
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NoopTracer{}
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 50
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loop{cfg: cfg}
}

// Run executes the loop until a terminate condition fires, per the
// seven-step state machine: PrepareMessages, BeforeModel, Invoke,
// AfterModel, Append, Dispatch, Terminate?
func (l *Loop) Run(ctx context.Context, systemPrompt, envContext, userQuery string) (*Result, error) {
	runID := uuid.NewString()
	state := runtime.NewAgentState()

	state.Append(runtime.NewSystemMessage(systemPrompt))
	if envContext != "" {
		state.Append(runtime.NewUserMessage(envContext))
	}
	state.Append(runtime.NewUserMessage(userQuery))

	var deadline <-chan time.Time
	if l.cfg.Timeout > 0 {
		timer := time.NewTimer(l.cfg.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			state.TerminateReason = runtime.TerminateCancelled
			return l.finish(runID, state), nil
		case <-deadline:
			state.TerminateReason = runtime.TerminateTimeout
			return l.finish(runID, state), nil
		default:
		}

		state.TurnCount++
		if l.cfg.Metrics != nil {
			l.cfg.Metrics.TurnsTotal.Inc()
		}
		l.cfg.Logger.Info("turn started", "run_id", runID, "turn", state.TurnCount)
		l.cfg.Tracer.Emit(observability.Event{Type: observability.EventTurnStarted, RunID: runID, TurnIndex: state.TurnCount})

		messages := state.Messages
		if l.cfg.Compactor != nil && l.cfg.Compactor.ShouldCompact(messages) {
			messages = l.cfg.Compactor.Compact(messages)
			state.Messages = messages
			if l.cfg.Metrics != nil {
				l.cfg.Metrics.CompactionsTotal.Inc()
			}
			l.cfg.Tracer.Emit(observability.Event{Type: observability.EventCompaction, RunID: runID, TurnIndex: state.TurnCount})
		}

		in := HookInput{State: state, Messages: messages}
		in, _, err := l.cfg.Pipeline.runBeforeModel(ctx, in)
		if err != nil {
			state.TerminateReason = runtime.TerminateError
			return l.finish(runID, state), err
		}
		state.Messages = in.Messages

		resp, err := l.cfg.Provider.Chat(ctx, state.Messages, l.cfg.ToolSchema)
		if err != nil {
			state.TerminateReason = runtime.TerminateError
			return l.finish(runID, state), err
		}
		l.cfg.Tracer.Emit(observability.Event{Type: observability.EventModelCalled, RunID: runID, TurnIndex: state.TurnCount})

		afterIn := HookInput{State: state, Messages: state.Messages, ParsedResponse: &resp}
		afterIn, forceContinue, err := l.cfg.Pipeline.runAfterModel(ctx, afterIn)
		if err != nil {
			state.TerminateReason = runtime.TerminateError
			return l.finish(runID, state), err
		}
		resp = *afterIn.ParsedResponse

		assistantMsg := &runtime.Message{Role: runtime.RoleAssistant, Content: resp.Text, ToolCalls: resp.ToolCalls}
		state.Append(assistantMsg)

		for _, call := range resp.ToolCalls {
			l.cfg.Tracer.Emit(observability.Event{
				Type: observability.EventToolCalled, RunID: runID, TurnIndex: state.TurnCount,
				Data: map[string]any{"tool": call.ToolName, "call_id": call.ID},
			})
			toolStart := time.Now()
			result := tools.DispatchWithLogger(ctx, l.cfg.Registry, call, l.cfg.Logger)
			if l.cfg.Metrics != nil {
				l.cfg.Metrics.ToolCallsTotal.WithLabelValues(call.ToolName).Inc()
				l.cfg.Metrics.ToolDuration.WithLabelValues(call.ToolName).Observe(time.Since(toolStart).Seconds())
				if result.Error != nil {
					l.cfg.Metrics.ToolErrorsTotal.WithLabelValues(call.ToolName, string(result.Error.Type)).Inc()
				}
			}

			toolIn := HookInput{State: state, ToolCall: &call, ToolOutput: &result}
			toolIn, _, hookErr := l.cfg.Pipeline.runAfterTool(ctx, toolIn)
			if hookErr != nil {
				state.TerminateReason = runtime.TerminateError
				return l.finish(runID, state), hookErr
			}
			if toolIn.ToolOutput != nil {
				result = *toolIn.ToolOutput
			}

			l.cfg.Tracer.Emit(observability.Event{
				Type: observability.EventToolResult, RunID: runID, TurnIndex: state.TurnCount,
				Data: map[string]any{"tool": call.ToolName, "call_id": call.ID, "is_error": result.Error != nil},
			})
			state.Append(runtime.NewToolMessage(call, result))
		}

		if state.TerminateReason == "" && len(resp.ToolCalls) == 0 && !forceContinue {
			state.TerminateReason = runtime.TerminateNoCompleteTaskCall
		}
		if state.TerminateReason == "" && state.TurnCount >= l.cfg.MaxTurns {
			state.TerminateReason = runtime.TerminateMaxTurns
		}
		if state.TerminateReason != "" {
			return l.finish(runID, state), nil
		}
	}
}

func (l *Loop) finish(runID string, state *runtime.AgentState) *Result {
	if l.cfg.Metrics != nil {
		l.cfg.Metrics.TerminationsTotal.WithLabelValues(string(state.TerminateReason)).Inc()
	}
	l.cfg.Logger.Info("loop terminated", "run_id", runID, "turns", state.TurnCount, "reason", string(state.TerminateReason))
	l.cfg.Tracer.Emit(observability.Event{
		Type: observability.EventTerminated, RunID: runID, TurnIndex: state.TurnCount,
		Data: map[string]any{"reason": string(state.TerminateReason)},
	})
	return &Result{
		RunID:           runID,
		TerminateReason: state.TerminateReason,
		FinalResult:     state.FinalResult,
		Messages:        state.Messages,
		TurnCount:       state.TurnCount,
	}
}
