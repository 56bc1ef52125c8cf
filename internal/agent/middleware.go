package agent

import (
	"context"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

// HookInput is passed to every middleware hook. Only the fields
// relevant to the hook being invoked are populated; middlewares should
// ignore fields they don't care about.
type HookInput struct {
	State          *runtime.AgentState
	Messages       []*runtime.Message
	ParsedResponse *runtime.ParsedResponse
	ToolCall       *runtime.ToolCall
	ToolOutput     *runtime.ToolResult
}

// HookResult carries whichever fields a hook chose to mutate. A nil
// pointer field means "unmutated, pass the input through unchanged."
type HookResult struct {
	Messages       []*runtime.Message
	ParsedResponse *runtime.ParsedResponse
	ToolOutput     *runtime.ToolResult
	ForceContinue  bool
}

// Middleware exposes any subset of the three pipeline hooks. A nil hook
// is treated as "no changes" for that extension point.
type Middleware interface {
	Name() string
	BeforeModel(ctx context.Context, in HookInput) (HookResult, error)
	AfterModel(ctx context.Context, in HookInput) (HookResult, error)
	AfterTool(ctx context.Context, in HookInput) (HookResult, error)
}

// BaseMiddleware gives every hook a default no-op implementation so
// concrete middlewares only need to override what they use.
type BaseMiddleware struct{}

func (BaseMiddleware) BeforeModel(context.Context, HookInput) (HookResult, error) { return HookResult{}, nil }
func (BaseMiddleware) AfterModel(context.Context, HookInput) (HookResult, error)  { return HookResult{}, nil }
func (BaseMiddleware) AfterTool(context.Context, HookInput) (HookResult, error)   { return HookResult{}, nil }

// Pipeline runs registered middlewares in registration order at each
// extension point, composing by last-write-wins on whole fields and
// boolean-OR on ForceContinue.
type Pipeline struct {
	middlewares []Middleware
}

func NewPipeline(mw ...Middleware) *Pipeline {
	return &Pipeline{middlewares: mw}
}

type hookFunc func(Middleware, context.Context, HookInput) (HookResult, error)

func (p *Pipeline) runBeforeModel(ctx context.Context, in HookInput) (HookInput, bool, error) {
	return p.run(ctx, in, func(m Middleware, ctx context.Context, in HookInput) (HookResult, error) {
		return m.BeforeModel(ctx, in)
	})
}

func (p *Pipeline) runAfterModel(ctx context.Context, in HookInput) (HookInput, bool, error) {
	return p.run(ctx, in, func(m Middleware, ctx context.Context, in HookInput) (HookResult, error) {
		return m.AfterModel(ctx, in)
	})
}

func (p *Pipeline) runAfterTool(ctx context.Context, in HookInput) (HookInput, bool, error) {
	return p.run(ctx, in, func(m Middleware, ctx context.Context, in HookInput) (HookResult, error) {
		return m.AfterTool(ctx, in)
	})
}

func (p *Pipeline) run(ctx context.Context, in HookInput, hook hookFunc) (HookInput, bool, error) {
	forceContinue := false
	for _, m := range p.middlewares {
		res, err := hook(m, ctx, in)
		if err != nil {
			return in, forceContinue, err
		}
		if res.Messages != nil {
			in.Messages = res.Messages
		}
		if res.ParsedResponse != nil {
			in.ParsedResponse = res.ParsedResponse
		}
		if res.ToolOutput != nil {
			in.ToolOutput = res.ToolOutput
		}
		forceContinue = forceContinue || res.ForceContinue
	}
	return in, forceContinue, nil
}
