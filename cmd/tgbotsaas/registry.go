package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/viper"
	"github.com/wellcomeai/tgbotsaas/db"
	"github.com/wellcomeai/tgbotsaas/internal/ledger"
	"github.com/wellcomeai/tgbotsaas/llm"
	"github.com/wellcomeai/tgbotsaas/providers/openai"
	"github.com/wellcomeai/tgbotsaas/rewrite"
)

type runtime struct {
	Logger  *slog.Logger
	Store   *db.Store
	Service *rewrite.Service
}

func runtimeFromViper(logger *slog.Logger) (*runtime, error) {
	cfg := db.DefaultConfig()
	cfg.Driver = viper.GetString("db.driver")
	cfg.DSN = viper.GetString("db.dsn")
	cfg.AutoMigrate = viper.GetBool("db.auto_migrate")
	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	store := db.NewStore(gdb)

	client := openai.New(viper.GetString("llm.endpoint"), viper.GetString("llm.api_key"))
	retrying := llm.WithRetry(client, client, logger)
	retrying.Attempts = viper.GetInt("llm.attempts")
	retrying.BaseDelay = viper.GetDuration("llm.retry_base_delay")

	lgr := ledger.New(gdb, viper.GetInt("ledger.default_limit"))

	orch, err := rewrite.NewOrchestrator(
		rewrite.OrchestratorDeps{
			Agents: store,
			Ledger: lgr,
			Stats:  store,
			LLM:    retrying,
		},
		rewrite.OrchestratorOptions{
			Model:           viper.GetString("llm.model"),
			MaxOutputTokens: viper.GetInt("llm.max_output_tokens"),
			Validator:       validatorConfigFromViper(),
			Estimator:       estimatorConfigFromViper(),
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}

	return &runtime{
		Logger:  logger,
		Store:   store,
		Service: rewrite.NewService(orch, store, store, retrying, logger),
	}, nil
}

func validatorConfigFromViper() rewrite.ValidatorConfig {
	cfg := rewrite.DefaultValidatorConfig()
	cfg.MinTextChars = viper.GetInt("validator.min_text_chars")
	cfg.MaxTextChars = viper.GetInt("validator.max_text_chars")
	cfg.MaxFileSize = viper.GetInt64("validator.max_file_size")
	cfg.MaxLinkDensity = viper.GetFloat64("validator.max_link_density")
	cfg.MaxCapitalRatio = viper.GetFloat64("validator.max_capital_ratio")
	if viper.IsSet("validator.spam_patterns") {
		cfg.SpamPatterns = viper.GetStringSlice("validator.spam_patterns")
	}
	return cfg
}

func estimatorConfigFromViper() rewrite.EstimatorConfig {
	return rewrite.EstimatorConfig{
		CyrillicWeight:  viper.GetFloat64("estimator.cyrillic_weight"),
		LatinWeight:     viper.GetFloat64("estimator.latin_weight"),
		OtherWeight:     viper.GetFloat64("estimator.other_weight"),
		WordFactor:      viper.GetFloat64("estimator.word_factor"),
		CostPer1KInput:  viper.GetFloat64("estimator.cost_per_1k_input"),
		CostPer1KOutput: viper.GetFloat64("estimator.cost_per_1k_output"),
	}
}
