package agent

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

const completeTaskToolName = "complete_task"

const graceWarning = "You have stopped calling tools without finishing. You have one final chance. " +
	"You MUST call `complete_task` immediately with your best answer. Do not call any other tools."

const noToolCallCounterKey = "termination_no_tool_call_count"

// TerminationMiddleware intercepts complete_task before dispatch, and
// gives the model one grace turn when it stops calling tools without
// finishing.
type TerminationMiddleware struct {
	BaseMiddleware
}

func NewTerminationMiddleware() *TerminationMiddleware { return &TerminationMiddleware{} }

func (m *TerminationMiddleware) Name() string { return "termination" }

func (m *TerminationMiddleware) BeforeModel(_ context.Context, in HookInput) (HookResult, error) {
	count := counterValue(in.State)
	if count != 1 {
		return HookResult{}, nil
	}
	messages := append(append([]*runtime.Message{}, in.Messages...), runtime.NewUserMessage(graceWarning))
	return HookResult{Messages: messages}, nil
}

func (m *TerminationMiddleware) AfterModel(_ context.Context, in HookInput) (HookResult, error) {
	resp := in.ParsedResponse
	if resp == nil {
		return HookResult{}, nil
	}

	if idx := findCompleteTask(resp.ToolCalls); idx >= 0 {
		finalResult := extractResult(resp.ToolCalls[idx].Parameters)
		in.State.FinalResult = finalResult
		in.State.TerminateReason = runtime.TerminateGoal
		setCounter(in.State, 0)
		cleared := *resp
		cleared.ToolCalls = nil
		return HookResult{ParsedResponse: &cleared}, nil
	}

	if len(resp.ToolCalls) > 0 {
		setCounter(in.State, 0)
		return HookResult{}, nil
	}

	count := counterValue(in.State) + 1
	setCounter(in.State, count)
	if count >= 2 {
		in.State.TerminateReason = runtime.TerminateNoCompleteTaskCall
		return HookResult{}, nil
	}
	return HookResult{ForceContinue: true}, nil
}

func counterValue(state *runtime.AgentState) int {
	if state == nil || state.Storage == nil {
		return 0
	}
	v, _ := state.Storage[noToolCallCounterKey].(int)
	return v
}

func setCounter(state *runtime.AgentState, v int) {
	if state == nil {
		return
	}
	if state.Storage == nil {
		state.Storage = map[string]any{}
	}
	state.Storage[noToolCallCounterKey] = v
}

func findCompleteTask(calls []runtime.ToolCall) int {
	for i, c := range calls {
		if c.ToolName == completeTaskToolName {
			return i
		}
	}
	return -1
}

func extractResult(params []byte) string {
	var p struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return ""
	}
	return p.Result
}
