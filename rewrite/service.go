package rewrite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wellcomeai/tgbotsaas/llm"
)

const (
	minInstructionChars = 10
	maxInstructionChars = 2000
)

// Service is the caller-facing surface of the rewrite pipeline: agent
// lifecycle, the rewrite and edit operations, channel binding and the
// last-result snapshot.
type Service struct {
	orch     *Orchestrator
	agents   AgentStore
	bindings BindingStore
	registry llm.AgentRegistry
	logger   *slog.Logger
}

func NewService(orch *Orchestrator, agents AgentStore, bindings BindingStore, registry llm.AgentRegistry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		orch:     orch,
		agents:   agents,
		bindings: bindings,
		registry: registry,
		logger:   logger,
	}
}

// CreateOrUpdateAgent registers or updates the single active agent for a
// bot. A name-only change keeps the provider-side persona; changed
// instructions tear it down and recreate it, so the external id rolls
// over.
func (s *Service) CreateOrUpdateAgent(ctx context.Context, botID, name, instructions string) (Agent, error) {
	name = strings.TrimSpace(name)
	instructions = strings.TrimSpace(instructions)
	switch n := utf8.RuneCountInString(instructions); {
	case n < minInstructionChars:
		return Agent{}, validationError(CodeTooShort, fmt.Sprintf("instructions must be at least %d chars, got %d", minInstructionChars, n))
	case n > maxInstructionChars:
		return Agent{}, validationError(CodeTooLong, fmt.Sprintf("instructions must be at most %d chars, got %d", maxInstructionChars, n))
	}

	now := time.Now().UTC()
	existing, ok, err := s.agents.ActiveAgent(ctx, botID)
	if err != nil {
		return Agent{}, fmt.Errorf("load agent for bot %s: %w", botID, err)
	}

	agent := Agent{
		BotID:        botID,
		Name:         name,
		Instructions: instructions,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	switch {
	case ok && existing.Instructions == instructions:
		// Instructions unchanged, persona stays.
		agent.ExternalID = existing.ExternalID
		agent.CreatedAt = existing.CreatedAt
	case ok:
		if existing.ExternalID != "" {
			if err := s.registry.DeleteAgent(ctx, existing.ExternalID); err != nil {
				s.logger.Warn("agent_teardown_failed", "bot_id", botID, "external_id", existing.ExternalID, "error", err.Error())
			}
		}
		agent.CreatedAt = existing.CreatedAt
		fallthrough
	default:
		externalID, err := s.registry.CreateAgent(ctx, name, instructions)
		if err != nil {
			return Agent{}, upstreamError(botID, CodeCallFailed, StageValidating, fmt.Errorf("register agent: %w", err))
		}
		agent.ExternalID = externalID
	}

	if err := s.agents.SaveAgent(ctx, agent); err != nil {
		return Agent{}, fmt.Errorf("save agent for bot %s: %w", botID, err)
	}
	return agent, nil
}

// DeleteAgent removes the bot's agent; hard chooses between hard delete
// and deactivation. The provider-side persona is torn down best-effort.
func (s *Service) DeleteAgent(ctx context.Context, botID string, hard bool) error {
	existing, ok, err := s.agents.ActiveAgent(ctx, botID)
	if err != nil {
		return fmt.Errorf("load agent for bot %s: %w", botID, err)
	}
	if ok && existing.ExternalID != "" {
		if err := s.registry.DeleteAgent(ctx, existing.ExternalID); err != nil {
			s.logger.Warn("agent_teardown_failed", "bot_id", botID, "external_id", existing.ExternalID, "error", err.Error())
		}
	}
	return s.agents.DeleteAgent(ctx, botID, hard)
}

func (s *Service) Rewrite(ctx context.Context, req Request) (Result, error) {
	return s.orch.Rewrite(ctx, req)
}

// ApplyEdit re-runs the pipeline with a synthetic input wrapping the
// previous output and the requested changes.
func (s *Service) ApplyEdit(ctx context.Context, botID, editInstructions string, previous Result) (Result, error) {
	input := fmt.Sprintf(
		"Previous version of the text:\n%s\n\nApply the following changes and return the full updated text:\n%s",
		previous.Content.RewrittenText, strings.TrimSpace(editInstructions))
	return s.orch.Rewrite(ctx, Request{
		BotID: botID,
		Text:  input,
		Media: previous.Media,
		Links: previous.Links,
	})
}

// BindChannel records the channel a bot republishes into, deactivating
// any earlier binding. Bindings are never hard-deleted.
func (s *Service) BindChannel(ctx context.Context, binding ChannelBinding) error {
	binding.Active = true
	now := time.Now().UTC()
	if binding.CreatedAt.IsZero() {
		binding.CreatedAt = now
	}
	binding.UpdatedAt = now
	return s.bindings.SaveBinding(ctx, binding)
}

func (s *Service) ActiveBinding(ctx context.Context, botID string) (ChannelBinding, bool, error) {
	return s.bindings.ActiveBinding(ctx, botID)
}

// SaveResult snapshots a result into the bot's channel binding. The
// media-key normalizer runs on both the typed result and the serialized
// map, since either may later be read back by legacy consumers.
func (s *Service) SaveResult(ctx context.Context, botID string, result Result) error {
	if result.Normalize() {
		s.logger.Warn("media_key_mismatch", "bot_id", botID, "op", "save_result")
	}
	snapshot, err := resultToMap(result)
	if err != nil {
		return fmt.Errorf("encode result snapshot for bot %s: %w", botID, err)
	}
	if _, mismatch := NormalizeMediaKeys(snapshot); mismatch {
		s.logger.Warn("media_key_mismatch", "bot_id", botID, "op", "save_result_map")
	}
	return s.bindings.SaveSnapshot(ctx, botID, snapshot)
}

// LastResult loads the most recent snapshot, if any. Normalization is
// applied again after retrieval: the stored row may have been written by
// older logic that only populated one media key.
func (s *Service) LastResult(ctx context.Context, botID string) (*Result, error) {
	snapshot, ok, err := s.bindings.LoadSnapshot(ctx, botID)
	if err != nil {
		return nil, fmt.Errorf("load result snapshot for bot %s: %w", botID, err)
	}
	if !ok {
		return nil, nil
	}
	if _, mismatch := NormalizeMediaKeys(snapshot); mismatch {
		s.logger.Warn("media_key_mismatch", "bot_id", botID, "op", "last_result_map")
	}
	result, err := resultFromMap(snapshot)
	if err != nil {
		return nil, fmt.Errorf("decode result snapshot for bot %s: %w", botID, err)
	}
	if result.Normalize() {
		s.logger.Warn("media_key_mismatch", "bot_id", botID, "op", "last_result")
	}
	return &result, nil
}

func resultToMap(result Result) (map[string]any, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func resultFromMap(m map[string]any) (Result, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return Result{}, err
	}
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Result{}, err
	}
	return result, nil
}
