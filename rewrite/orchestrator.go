package rewrite

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/wellcomeai/tgbotsaas/internal/retryutil"
	"github.com/wellcomeai/tgbotsaas/llm"
)

type AgentStore interface {
	ActiveAgent(ctx context.Context, botID string) (Agent, bool, error)
	SaveAgent(ctx context.Context, agent Agent) error
	DeleteAgent(ctx context.Context, botID string, hard bool) error
}

type BindingStore interface {
	ActiveBinding(ctx context.Context, botID string) (ChannelBinding, bool, error)
	SaveBinding(ctx context.Context, binding ChannelBinding) error
	SaveSnapshot(ctx context.Context, botID string, snapshot map[string]any) error
	LoadSnapshot(ctx context.Context, botID string) (map[string]any, bool, error)
}

// LimitStatus is a quota read: whether one more request fits, plus the
// figures shown to the user when it does not.
type LimitStatus struct {
	HasCapacity bool
	Used        int
	Limit       int
}

// Ledger tracks consumed tokens per user and bot. CheckLimit failures
// are treated as degraded mode, never as rejection; CommitUsage failures
// are logged and never fail a finished rewrite.
type Ledger interface {
	CheckLimit(ctx context.Context, userID int64, estimatedAdd int) (LimitStatus, error)
	CommitUsage(ctx context.Context, botID string, userID int64, inputTokens, outputTokens int) error
}

// Stat is one per-request detail row for the append-only statistics
// store.
type Stat struct {
	RequestID      string
	BotID          string
	UserID         int64
	InputTokens    int
	OutputTokens   int
	TotalTokens    int
	Estimated      bool
	ProcessingTime time.Duration
	CreatedAt      time.Time
}

type StatsRecorder interface {
	RecordRewrite(ctx context.Context, stat Stat) error
}

// Publisher delivers a finished rewrite into the bound channel. The
// returned bool reports whether anything was actually sent.
type Publisher interface {
	Publish(ctx context.Context, chatID int64, text string, media *MediaDescriptor) (bool, error)
}

type OrchestratorDeps struct {
	Agents AgentStore
	Ledger Ledger
	Stats  StatsRecorder
	LLM    llm.Client
}

type OrchestratorOptions struct {
	Model           string
	MaxOutputTokens int
	Validator       ValidatorConfig
	Estimator       EstimatorConfig
}

// Orchestrator runs one rewrite invocation linearly through validation,
// quota pre-check, prompt composition, the LLM call, response parsing,
// media-key normalization and token commit. It holds no mutable state
// between invocations and never retries; retrying lives in the LLM
// client layer above it.
type Orchestrator struct {
	agents    AgentStore
	ledger    Ledger
	stats     StatsRecorder
	client    llm.Client
	validator *Validator
	estimator *Estimator
	model     string
	maxOutput int
	logger    *slog.Logger
}

func NewOrchestrator(deps OrchestratorDeps, opts OrchestratorOptions, logger *slog.Logger) (*Orchestrator, error) {
	validator, err := NewValidator(opts.Validator)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		agents:    deps.Agents,
		ledger:    deps.Ledger,
		stats:     deps.Stats,
		client:    deps.LLM,
		validator: validator,
		estimator: NewEstimator(opts.Estimator),
		model:     opts.Model,
		maxOutput: opts.MaxOutputTokens,
		logger:    logger,
	}, nil
}

// Rewrite runs the full pipeline for one request. The returned error is
// always a *Error with the bot id and the stage reached.
func (o *Orchestrator) Rewrite(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	requestID := uuid.NewString()

	// Validating.
	if verr := o.validator.Validate(req.Text, req.Media); verr != nil {
		verr.BotID = req.BotID
		return Result{}, verr
	}

	agent, ok, err := o.agents.ActiveAgent(ctx, req.BotID)
	if err != nil {
		return Result{}, upstreamError(req.BotID, CodeCallFailed, StageValidating, err)
	}
	if !ok {
		return Result{}, configurationError(req.BotID, CodeNoAgentConfigured, "no rewrite agent configured for this bot")
	}
	if agent.ExternalID == "" {
		return Result{}, configurationError(req.BotID, CodeAgentNotLinked, "rewrite agent has no external agent id")
	}

	// TokenChecking. Unreachable ledger means degraded mode, not
	// rejection: availability over strictness.
	degraded := false
	estimated := o.estimator.InputTokens(req.Text)
	if req.UserID != 0 {
		status, err := o.ledger.CheckLimit(ctx, req.UserID, estimated)
		switch {
		case err != nil:
			degraded = true
			o.logger.Warn("ledger_check_unreachable", "bot_id", req.BotID, "user_id", req.UserID, "error", err.Error())
		case !status.HasCapacity:
			return Result{}, quotaError(req.BotID, status.Used, status.Limit)
		}
	}

	// Composing.
	instructions := ComposePrompt(agent.Instructions, req.Media, req.Links)

	// Calling.
	callRes, err := o.client.Respond(ctx, llm.Request{
		Model:           o.model,
		Instructions:    instructions,
		Input:           req.Text,
		ContextID:       agent.ExternalID,
		Store:           true,
		MaxOutputTokens: o.maxOutput,
	})
	if err != nil {
		return Result{}, upstreamError(req.BotID, CodeCallFailed, StageCalling, err)
	}

	// ParsingResponse.
	rewritten := callRes.Text
	if rewritten == "" {
		return Result{}, upstreamError(req.BotID, CodeEmptyResponse, StageParsingResponse, nil)
	}

	// Exact provider figures always win; the word-count fallback is used
	// only when usage is fully absent, never blended in.
	usage := callRes.Usage
	usageEstimated := false
	if usage.Zero() {
		in, out := o.estimator.FallbackUsage(req.Text, rewritten)
		usage = llm.Usage{InputTokens: in, OutputTokens: out}
		usageEstimated = true
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}

	result := Result{
		Success: true,
		Content: Content{
			OriginalText:  req.Text,
			RewrittenText: rewritten,
			LengthDelta:   utf8.RuneCountInString(rewritten) - utf8.RuneCountInString(req.Text),
		},
		Tokens: TokenReport{
			Input:         usage.InputTokens,
			Output:        usage.OutputTokens,
			Total:         usage.TotalTokens,
			EstimatedCost: o.estimator.Cost(usage.InputTokens, usage.OutputTokens),
			Estimated:     usageEstimated,
		},
		Agent: AgentInfo{
			Name:         agent.Name,
			ID:           agent.ExternalID,
			Instructions: agent.Instructions,
		},
		Media:          req.Media,
		Links:          req.Links,
		ProcessingTime: time.Since(start),
		IsMediaGroup:   req.Media.IsGroup(),
		Degraded:       degraded,
	}

	// Normalizing.
	if result.Normalize() {
		o.logger.Warn("media_key_mismatch", "bot_id", req.BotID, "request_id", requestID)
	}

	// Committing. Usage has already been incurred upstream, so the
	// commit is attempted regardless of the pre-check outcome, and a
	// cancelled request context still gets a best-effort detached
	// attempt. A failed commit never discards the finished rewrite.
	o.commitUsage(ctx, req, usage)

	if o.stats != nil {
		stat := Stat{
			RequestID:      requestID,
			BotID:          req.BotID,
			UserID:         req.UserID,
			InputTokens:    usage.InputTokens,
			OutputTokens:   usage.OutputTokens,
			TotalTokens:    usage.TotalTokens,
			Estimated:      usageEstimated,
			ProcessingTime: result.ProcessingTime,
			CreatedAt:      time.Now().UTC(),
		}
		if err := o.stats.RecordRewrite(ctx, stat); err != nil {
			o.logger.Warn("stats_record_failed", "bot_id", req.BotID, "request_id", requestID, "error", err.Error())
		}
	}

	return result, nil
}

func (o *Orchestrator) commitUsage(ctx context.Context, req Request, usage llm.Usage) {
	commit := func(ctx context.Context) error {
		return o.ledger.CommitUsage(ctx, req.BotID, req.UserID, usage.InputTokens, usage.OutputTokens)
	}
	if ctx.Err() != nil {
		retryutil.AsyncRetry(o.logger, "ledger_commit", 0, 0, commit)
		return
	}
	if err := commit(ctx); err != nil {
		o.logger.Warn("ledger_commit_failed", "bot_id", req.BotID, "user_id", req.UserID, "error", err.Error())
	}
}
