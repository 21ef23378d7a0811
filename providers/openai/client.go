package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wellcomeai/tgbotsaas/llm"
)

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 90 * time.Second},
	}
}

type responsesRequest struct {
	Model           string `json:"model"`
	Instructions    string `json:"instructions,omitempty"`
	Input           string `json:"input"`
	Conversation    string `json:"conversation,omitempty"`
	Store           bool   `json:"store"`
	MaxOutputTokens int    `json:"max_output_tokens,omitempty"`
}

// responsesResponse tolerates the two historical response shapes: a flat
// output_text property, or a nested output[].content[].text scan. Usage
// field names likewise come in a newer and an older spelling.
type responsesResponse struct {
	ID         string `json:"id"`
	OutputText string `json:"output_text,omitempty"`
	Output     []struct {
		Type    string `json:"type,omitempty"`
		Content []struct {
			Type string `json:"type,omitempty"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output,omitempty"`
	Usage struct {
		InputTokens      int `json:"input_tokens,omitempty"`
		OutputTokens     int `json:"output_tokens,omitempty"`
		PromptTokens     int `json:"prompt_tokens,omitempty"`
		CompletionTokens int `json:"completion_tokens,omitempty"`
		TotalTokens      int `json:"total_tokens,omitempty"`
	} `json:"usage"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ErrUnrecognizedShape is returned when a 2xx response carries text in
// neither known location. Callers treat it as an empty-response failure
// rather than guessing at new shapes.
var ErrUnrecognizedShape = fmt.Errorf("openai: response carries no text in any known shape")

func (c *Client) Respond(ctx context.Context, req llm.Request) (llm.Result, error) {
	start := time.Now()

	body := responsesRequest{
		Model:           req.Model,
		Instructions:    req.Instructions,
		Input:           req.Input,
		Conversation:    req.ContextID,
		Store:           req.Store,
		MaxOutputTokens: req.MaxOutputTokens,
	}
	var out responsesResponse
	status, raw, err := c.post(ctx, "/v1/responses", body, &out)
	if err != nil {
		return llm.Result{}, err
	}
	if status < 200 || status >= 300 {
		if out.Error != nil && out.Error.Message != "" {
			return llm.Result{}, fmt.Errorf("openai http %d: %s", status, out.Error.Message)
		}
		return llm.Result{}, fmt.Errorf("openai http %d: %s", status, string(raw))
	}

	text, err := extractText(out)
	if err != nil {
		return llm.Result{}, err
	}

	return llm.Result{
		Text:       text,
		ResponseID: out.ID,
		Usage: llm.Usage{
			InputTokens:  firstNonZero(out.Usage.InputTokens, out.Usage.PromptTokens),
			OutputTokens: firstNonZero(out.Usage.OutputTokens, out.Usage.CompletionTokens),
			TotalTokens:  out.Usage.TotalTokens,
		},
		Duration: time.Since(start),
	}, nil
}

func extractText(out responsesResponse) (string, error) {
	if strings.TrimSpace(out.OutputText) != "" {
		return out.OutputText, nil
	}
	var b strings.Builder
	for _, item := range out.Output {
		for _, part := range item.Content {
			if part.Type != "" && part.Type != "output_text" && part.Type != "text" {
				continue
			}
			b.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrUnrecognizedShape
	}
	return b.String(), nil
}

type conversationRequest struct {
	Metadata map[string]string  `json:"metadata,omitempty"`
	Items    []conversationItem `json:"items,omitempty"`
}

type conversationItem struct {
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

type conversationResponse struct {
	ID    string    `json:"id"`
	Error *apiError `json:"error,omitempty"`
}

// CreateAgent registers a provider-side conversation seeded with the agent
// instructions, returning its id for context continuity on later calls.
func (c *Client) CreateAgent(ctx context.Context, name, instructions string) (string, error) {
	body := conversationRequest{
		Metadata: map[string]string{"agent_name": name},
		Items: []conversationItem{
			{Type: "message", Role: "developer", Content: instructions},
		},
	}
	var out conversationResponse
	status, raw, err := c.post(ctx, "/v1/conversations", body, &out)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		if out.Error != nil && out.Error.Message != "" {
			return "", fmt.Errorf("openai http %d: %s", status, out.Error.Message)
		}
		return "", fmt.Errorf("openai http %d: %s", status, string(raw))
	}
	if out.ID == "" {
		return "", fmt.Errorf("openai: conversation created without id")
	}
	return out.ID, nil
}

func (c *Client) DeleteAgent(ctx context.Context, externalID string) error {
	url := c.BaseURL + "/v1/conversations/" + externalID
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	c.setHeaders(httpReq)
	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return err
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("openai http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) (int, []byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return 0, nil, err
	}
	c.setHeaders(httpReq)
	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, raw, fmt.Errorf("openai: decode response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
