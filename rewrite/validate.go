package rewrite

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

// ValidatorConfig holds the input ceilings and the spam-heuristic knobs.
// The heuristic thresholds are intentionally overridable policy, not
// fixed correctness bounds.
type ValidatorConfig struct {
	MinTextChars int
	MaxTextChars int
	MaxFileSize  int64

	// Spam signals. A single high signal, or two or more medium ones,
	// rejects the input.
	SpamPatterns    []string
	MaxLinkDensity  float64
	MaxCapitalRatio float64
}

func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		MinTextChars: 3,
		MaxTextChars: 4000,
		MaxFileSize:  20 * 1024 * 1024,
		SpamPatterns: []string{
			`(?i)заработок\s+без\s+вложений`,
			`(?i)быстрые\s+деньги`,
			`(?i)earn\s+money\s+fast`,
			`(?i)guaranteed\s+income`,
			`(?i)100%\s+(прибыль|profit)`,
			`(?i)крипто[-\s]?сигналы`,
		},
		MaxLinkDensity:  0.2,
		MaxCapitalRatio: 0.6,
	}
}

var publishableMediaTypes = map[MediaType]bool{
	MediaPhoto:     true,
	MediaVideo:     true,
	MediaAnimation: true,
	MediaAudio:     true,
	MediaVoice:     true,
	MediaDocument:  true,
	MediaGroup:     true,
}

type Validator struct {
	cfg      ValidatorConfig
	patterns []*regexp.Regexp
}

func NewValidator(cfg ValidatorConfig) (*Validator, error) {
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 3
	}
	if cfg.MaxTextChars <= 0 {
		cfg.MaxTextChars = 4000
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 20 * 1024 * 1024
	}
	patterns := make([]*regexp.Regexp, 0, len(cfg.SpamPatterns))
	for _, p := range cfg.SpamPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile spam pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}
	return &Validator{cfg: cfg, patterns: patterns}, nil
}

// Validate is a pure function over the inputs and the config: no side
// effects, no external calls. A nil return means the input is accepted.
func (v *Validator) Validate(text string, media *MediaDescriptor) *Error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return validationError(CodeEmptyInput, "message text is empty")
	}
	n := utf8.RuneCountInString(trimmed)
	if n < v.cfg.MinTextChars {
		return validationError(CodeTooShort, fmt.Sprintf("text is %d chars, minimum is %d", n, v.cfg.MinTextChars))
	}
	if n > v.cfg.MaxTextChars {
		return validationError(CodeTooLong, fmt.Sprintf("text is %d chars, maximum is %d", n, v.cfg.MaxTextChars))
	}
	if rejected, reason := v.spamReject(trimmed); rejected {
		return validationError(CodeProhibitedContent, reason)
	}
	if media != nil {
		if err := v.validateMedia(media); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validateMedia(media *MediaDescriptor) *Error {
	if !media.Type.Valid() || !publishableMediaTypes[media.Type] {
		return validationError(CodeUnsupportedMediaType, fmt.Sprintf("media type %q is not supported", media.Type))
	}
	items := []MediaDescriptor{*media}
	if media.IsGroup() {
		items = media.Items
	}
	for _, item := range items {
		if item.FileSize > v.cfg.MaxFileSize {
			return validationError(CodeFileTooLarge, fmt.Sprintf("file is %d bytes, maximum is %d", item.FileSize, v.cfg.MaxFileSize))
		}
	}
	return nil
}

type spamSignal struct {
	level  RiskLevel
	reason string
}

// spamReject combines three heuristic signals. Pattern hits score high;
// link density and capitalization each score medium. Reject on one high
// or two mediums.
func (v *Validator) spamReject(text string) (bool, string) {
	var signals []spamSignal
	for _, re := range v.patterns {
		if re.MatchString(text) {
			signals = append(signals, spamSignal{RiskHigh, "prohibited content pattern matched"})
			break
		}
	}
	if d := linkDensity(text); d > v.cfg.MaxLinkDensity {
		signals = append(signals, spamSignal{RiskMedium, fmt.Sprintf("link density %.2f", d)})
	}
	if r := capitalRatio(text); r > v.cfg.MaxCapitalRatio {
		signals = append(signals, spamSignal{RiskMedium, fmt.Sprintf("capitalization ratio %.2f", r)})
	}

	var mediums int
	var reasons []string
	for _, s := range signals {
		reasons = append(reasons, s.reason)
		if s.level == RiskHigh {
			return true, s.reason
		}
		if s.level == RiskMedium {
			mediums++
		}
	}
	if mediums >= 2 {
		return true, "combined spam signals: " + strings.Join(reasons, ", ")
	}
	return false, ""
}

var urlTokenPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.|t\.me/)\S+`)

func linkDensity(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	links := len(urlTokenPattern.FindAllString(text, -1))
	return float64(links) / float64(len(words))
}

func capitalRatio(text string) float64 {
	var letters, upper int
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters < 10 {
		// Too short for the ratio to mean anything.
		return 0
	}
	return float64(upper) / float64(letters)
}
