// Package main provides the CLI entry point for codeagent: a
// single-workspace coding agent runtime that wires an LLM provider, a
// file/shell/search tool catalog, a context compactor, and a
// termination-protocol middleware into the turn-based agent loop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/haasonsaas/codeagent/internal/agent"
	"github.com/haasonsaas/codeagent/internal/compaction"
	"github.com/haasonsaas/codeagent/internal/config"
	"github.com/haasonsaas/codeagent/internal/llm/anthropicprovider"
	"github.com/haasonsaas/codeagent/internal/llm/openaiprovider"
	"github.com/haasonsaas/codeagent/internal/observability"
	"github.com/haasonsaas/codeagent/internal/tools"
	"github.com/haasonsaas/codeagent/internal/tools/complete"
	"github.com/haasonsaas/codeagent/internal/tools/fileops"
	"github.com/haasonsaas/codeagent/internal/tools/interact"
	"github.com/haasonsaas/codeagent/internal/tools/memory"
	"github.com/haasonsaas/codeagent/internal/tools/search"
	"github.com/haasonsaas/codeagent/internal/tools/shellexec"
	"github.com/haasonsaas/codeagent/internal/tools/todos"
	"github.com/haasonsaas/codeagent/internal/tools/web"
	"github.com/haasonsaas/codeagent/internal/workspace"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	rootCmd := buildRootCmd(logger)
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:          "codeagent",
		Short:        "A single-workspace coding agent runtime",
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
	}
	root.AddCommand(buildRunCmd(logger))
	return root
}

func buildRunCmd(logger *slog.Logger) *cobra.Command {
	var configPath, query, logDirPath, workingDir string
	var injectEnvContext bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the agent loop to completion against a single query",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd.Context(), logger, runArgs{
				configPath:       configPath,
				query:            query,
				logDirPath:       logDirPath,
				workingDir:       workingDir,
				injectEnvContext: injectEnvContext,
			})
		},
	}

	cmd.Flags().StringVar(&configPath, "config_path", "", "path to the YAML config file")
	cmd.Flags().StringVar(&query, "query", "", "the task to run")
	cmd.Flags().StringVar(&logDirPath, "log_dir_path", "", "output directory for traces")
	cmd.Flags().StringVar(&workingDir, "working_dir", "", "workspace root (defaults to process cwd)")
	cmd.Flags().BoolVar(&injectEnvContext, "inject_env_context", true, "prepend the one-shot environment/folder-structure context message")
	_ = cmd.MarkFlagRequired("config_path")
	_ = cmd.MarkFlagRequired("query")
	_ = cmd.MarkFlagRequired("log_dir_path")

	return cmd
}

// runArgs collects the run subcommand's flags.
type runArgs struct {
	configPath       string
	query            string
	logDirPath       string
	workingDir       string
	injectEnvContext bool
}

func runAgent(ctx context.Context, logger *slog.Logger, a runArgs) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	workingDir := a.workingDir
	if workingDir == "" {
		workingDir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working dir: %w", err)
		}
	}

	provider, err := buildProvider(cfg.LLM)
	if err != nil {
		return fmt.Errorf("build provider: %w", err)
	}

	registry, toolSchemas, err := buildRegistry(workingDir, cfg.Tools)
	if err != nil {
		return fmt.Errorf("build tool registry: %w", err)
	}

	tracer, err := buildTracer(cfg.Tracing, a.logDirPath)
	if err != nil {
		return fmt.Errorf("build tracer: %w", err)
	}
	if cfg.Tracing.EnableOtel {
		tracer = observability.NewSpanTracer(tracer)
	}
	var metrics *observability.Metrics
	if cfg.Tracing.EnableMetrics {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	pipeline := agent.NewPipeline(agent.NewTerminationMiddleware())

	compactor := compaction.New(compaction.Config{
		MaxContextTokens: cfg.Middleware.Compaction.MaxContextTokens,
		Threshold:        cfg.Middleware.Compaction.Threshold,
		ToolOutputBudget: cfg.Middleware.Compaction.ToolOutputBudget,
		TruncateLines:    cfg.Middleware.Compaction.TruncateLines,
		PreserveRatio:    cfg.Middleware.Compaction.PreserveRatio,
		Aggressive:       cfg.Middleware.Compaction.Aggressive,
	})

	var timeout time.Duration
	if cfg.Loop.TimeoutSec > 0 {
		timeout = time.Duration(cfg.Loop.TimeoutSec) * time.Second
	}

	loop := agent.NewLoop(agent.Config{
		Provider:   provider,
		Registry:   registry,
		Pipeline:   pipeline,
		Compactor:  compactor,
		Tracer:     tracer,
		Metrics:    metrics,
		Logger:     logger,
		MaxTurns:   cfg.Loop.MaxTurns,
		Timeout:    timeout,
		ToolSchema: toolSchemas,
	})

	var envContext string
	if a.injectEnvContext {
		envContext = workspace.BuildEnvContextMessage(workspace.EnvContextOptions{
			AgentName: "codeagent",
			WorkDir:   workingDir,
			TmpDir:    os.TempDir(),
			MaxItems:  200,
			Now:       time.Now(),
		})
	}

	systemPrompt := "You are codeagent, an autonomous coding assistant operating inside a single workspace. " +
		"Use the available tools to accomplish the user's task, then call complete_task with your final result."

	result, err := loop.Run(ctx, systemPrompt, envContext, a.query)
	if err != nil {
		logger.Error("loop run failed", "error", err)
	}
	if result != nil {
		logger.Info("loop finished", "terminate_reason", result.TerminateReason, "turns", result.TurnCount)
		fmt.Println(result.FinalResult)
	}
	return nil
}

func buildProvider(cfg config.LLMConfig) (agent.LLMProvider, error) {
	switch cfg.Provider {
	case "", "anthropic":
		return anthropicprovider.New(anthropicprovider.Config{
			APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model, MaxTokens: cfg.MaxTokens,
		})
	case "openai":
		return openaiprovider.New(openaiprovider.Config{
			APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model, MaxTokens: cfg.MaxTokens,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func buildRegistry(workDir string, cfg config.ToolsConfig) (*tools.Registry, []agent.ToolSchema, error) {
	resolver, err := fileops.NewResolver(workDir)
	if err != nil {
		return nil, nil, err
	}

	registry := tools.NewRegistry()
	registry.Register(fileops.NewReadTool(resolver))
	registry.Register(fileops.NewWriteTool(resolver))
	registry.Register(fileops.NewReplaceTool(resolver))
	registry.Register(fileops.NewListDirectoryTool(resolver))
	registry.Register(fileops.NewGlobTool(resolver))
	registry.Register(fileops.NewReadManyFilesTool(resolver))
	registry.Register(search.NewTool(resolver))
	registry.Register(shellexec.NewTool(workDir))
	registry.Register(web.NewFetchTool())
	registry.Register(web.NewSearchTool(nil))
	registry.Register(memory.NewTool(filepath.Join(workDir, ".codeagent", "MEMORY.md")))
	registry.Register(todos.NewTool(&todos.Store{}))
	registry.Register(interact.NewTool(nil))
	registry.Register(complete.NewTool())

	enabled := map[string]bool{}
	for _, name := range cfg.Enabled {
		enabled[name] = true
	}

	var schemas []agent.ToolSchema
	for _, t := range registry.All() {
		if len(enabled) > 0 && !enabled[t.Name()] {
			continue
		}
		schemas = append(schemas, agent.ToolSchema{Name: t.Name(), Description: t.Description(), Schema: t.Schema()})
	}

	return registry, schemas, nil
}

func buildTracer(cfg config.TracingConfig, logDirPath string) (observability.Tracer, error) {
	switch cfg.Sink {
	case "memory":
		return observability.NewMemoryTracer(), nil
	case "none":
		return observability.NoopTracer{}, nil
	default:
		if logDirPath == "" {
			return observability.NoopTracer{}, nil
		}
		if err := os.MkdirAll(logDirPath, 0o755); err != nil {
			return nil, err
		}
		path := filepath.Join(logDirPath, fmt.Sprintf("trace-%d.jsonl", time.Now().UnixNano()))
		return observability.NewJSONLTracerFile(path)
	}
}
