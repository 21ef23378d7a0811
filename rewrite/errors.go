package rewrite

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step an error surfaced in. It is carried on
// every Error so operators can diagnose failures without log scraping.
type Stage string

const (
	StageValidating      Stage = "validating"
	StageTokenChecking   Stage = "token_checking"
	StageComposing       Stage = "composing"
	StageCalling         Stage = "calling"
	StageParsingResponse Stage = "parsing_response"
	StageNormalizing     Stage = "normalizing"
	StageCommitting      Stage = "committing"
)

type Kind string

const (
	KindValidation    Kind = "validation"
	KindConfiguration Kind = "configuration"
	KindQuota         Kind = "quota"
	KindUpstream      Kind = "upstream"
)

type Code string

const (
	CodeEmptyInput           Code = "empty_input"
	CodeTooShort             Code = "too_short"
	CodeTooLong              Code = "too_long"
	CodeProhibitedContent    Code = "prohibited_content"
	CodeUnsupportedMediaType Code = "unsupported_media_type"
	CodeFileTooLarge         Code = "file_too_large"

	CodeNoAgentConfigured Code = "no_agent_configured"
	CodeAgentNotLinked    Code = "agent_not_linked"

	CodeTokenLimitExceeded Code = "token_limit_exceeded"

	CodeEmptyResponse Code = "empty_response"
	CodeCallFailed    Code = "call_failed"
)

// Error is a structured, user-displayable pipeline failure. It is always
// returned as a value, never panicked across the package boundary.
type Error struct {
	Kind    Kind
	Code    Code
	Stage   Stage
	BotID   string
	Message string

	// Quota display, set only for CodeTokenLimitExceeded.
	Used  int
	Limit int

	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("rewrite %s (bot=%s stage=%s): %s: %v", e.Code, e.BotID, e.Stage, msg, e.Err)
	}
	return fmt.Sprintf("rewrite %s (bot=%s stage=%s): %s", e.Code, e.BotID, e.Stage, msg)
}

func (e *Error) Unwrap() error { return e.Err }

func AsError(err error) (*Error, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

func IsCode(err error, code Code) bool {
	re, ok := AsError(err)
	return ok && re.Code == code
}

func validationError(code Code, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Stage: StageValidating, Message: msg}
}

func configurationError(botID string, code Code, msg string) *Error {
	return &Error{Kind: KindConfiguration, Code: code, Stage: StageValidating, BotID: botID, Message: msg}
}

func quotaError(botID string, used, limit int) *Error {
	return &Error{
		Kind:    KindQuota,
		Code:    CodeTokenLimitExceeded,
		Stage:   StageTokenChecking,
		BotID:   botID,
		Message: fmt.Sprintf("token limit reached: %d of %d used", used, limit),
		Used:    used,
		Limit:   limit,
	}
}

func upstreamError(botID string, code Code, stage Stage, err error) *Error {
	return &Error{Kind: KindUpstream, Code: code, Stage: stage, BotID: botID, Err: err}
}
