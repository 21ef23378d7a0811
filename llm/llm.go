package llm

import (
	"context"
	"time"
)

// Request describes one rewrite call against a responses-style endpoint.
// ContextID, when set, asks the provider to continue an existing
// conversation so the agent keeps its persona across calls.
type Request struct {
	Model           string
	Instructions    string
	Input           string
	ContextID       string
	Store           bool
	MaxOutputTokens int
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Zero reports whether the provider returned no usage figures at all.
// Callers fall back to estimated accounting in that case.
func (u Usage) Zero() bool {
	return u.InputTokens == 0 && u.OutputTokens == 0 && u.TotalTokens == 0
}

type Result struct {
	Text       string
	ResponseID string
	Usage      Usage
	Duration   time.Duration
}

type Client interface {
	Respond(ctx context.Context, req Request) (Result, error)
}

// AgentRegistry manages provider-side personas. CreateAgent returns the
// opaque id the provider assigned; that id is what rewrite agents store
// as their external reference.
type AgentRegistry interface {
	CreateAgent(ctx context.Context, name, instructions string) (string, error)
	DeleteAgent(ctx context.Context, externalID string) error
}
