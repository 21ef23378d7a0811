package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	viper.SetDefault("llm.endpoint", "https://api.openai.com")
	viper.SetDefault("llm.model", "gpt-5.2")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.max_output_tokens", 2048)
	viper.SetDefault("llm.attempts", 3)
	viper.SetDefault("llm.retry_base_delay", 1*time.Second)

	viper.SetDefault("db.driver", "sqlite")
	viper.SetDefault("db.dsn", "")
	viper.SetDefault("db.auto_migrate", true)

	viper.SetDefault("telegram.token", "")
	viper.SetDefault("telegram.owner_id", int64(0))
	viper.SetDefault("telegram.group_flush_window", 2*time.Second)
	viper.SetDefault("telegram.parse_mode", "")

	viper.SetDefault("validator.min_text_chars", 3)
	viper.SetDefault("validator.max_text_chars", 4000)
	viper.SetDefault("validator.max_file_size", int64(20*1024*1024))
	viper.SetDefault("validator.max_link_density", 0.2)
	viper.SetDefault("validator.max_capital_ratio", 0.6)

	// Token-estimation weights: approximations, not tokenizer output.
	viper.SetDefault("estimator.cyrillic_weight", 0.5)
	viper.SetDefault("estimator.latin_weight", 0.25)
	viper.SetDefault("estimator.other_weight", 0.6)
	viper.SetDefault("estimator.word_factor", 1.3)
	viper.SetDefault("estimator.cost_per_1k_input", 0.005)
	viper.SetDefault("estimator.cost_per_1k_output", 0.015)

	viper.SetDefault("ledger.default_limit", 100_000)
}
