package rewrite

import (
	"math"
	"strings"
	"unicode"
)

// EstimatorConfig holds the token-estimation weights and the cost table.
// All of these are tunable approximations without a cited source; they
// must never be read as exact tokenizer output.
type EstimatorConfig struct {
	// Tokens per character, by script class.
	CyrillicWeight float64
	LatinWeight    float64
	OtherWeight    float64

	// Multiplier for the word-count fallback used when the provider
	// reports no usage.
	WordFactor float64

	// USD per 1000 tokens.
	CostPer1KInput  float64
	CostPer1KOutput float64
}

func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		CyrillicWeight:  0.5,
		LatinWeight:     0.25,
		OtherWeight:     0.6,
		WordFactor:      1.3,
		CostPer1KInput:  0.005,
		CostPer1KOutput: 0.015,
	}
}

type Estimator struct {
	cfg EstimatorConfig
}

func NewEstimator(cfg EstimatorConfig) *Estimator {
	def := DefaultEstimatorConfig()
	if cfg.CyrillicWeight <= 0 {
		cfg.CyrillicWeight = def.CyrillicWeight
	}
	if cfg.LatinWeight <= 0 {
		cfg.LatinWeight = def.LatinWeight
	}
	if cfg.OtherWeight <= 0 {
		cfg.OtherWeight = def.OtherWeight
	}
	if cfg.WordFactor <= 0 {
		cfg.WordFactor = def.WordFactor
	}
	return &Estimator{cfg: cfg}
}

// InputTokens approximates the token count of text with per-script
// character weights: Cyrillic and Latin letters each at their own
// weight, everything else (digits, punctuation, spaces) at a denser one.
func (e *Estimator) InputTokens(text string) int {
	var sum float64
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			sum += e.cfg.CyrillicWeight
		case unicode.Is(unicode.Latin, r):
			sum += e.cfg.LatinWeight
		default:
			sum += e.cfg.OtherWeight
		}
	}
	n := int(math.Ceil(sum))
	if n == 0 && strings.TrimSpace(text) != "" {
		n = 1
	}
	return n
}

// FallbackUsage estimates both sides of a call from word counts when the
// provider reported no usage at all. Exact provider figures always win;
// this path is never blended with them.
func (e *Estimator) FallbackUsage(input, output string) (inputTokens, outputTokens int) {
	inputTokens = int(math.Round(float64(len(strings.Fields(input))) * e.cfg.WordFactor))
	outputTokens = int(math.Round(float64(len(strings.Fields(output))) * e.cfg.WordFactor))
	return inputTokens, outputTokens
}

func (e *Estimator) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1000*e.cfg.CostPer1KInput + float64(outputTokens)/1000*e.cfg.CostPer1KOutput
}
