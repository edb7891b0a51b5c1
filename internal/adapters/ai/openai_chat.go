package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"meridian/pkg/errors"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider talks to any OpenAI-compatible chat-completions endpoint.
// Both the hosted OpenAI API and local inference servers (vLLM, llama.cpp)
// are served by this provider with different base URLs.
type OpenAIProvider struct {
	name        ProviderName
	baseURL     string
	apiKey      string
	timeout     time.Duration
	rateLimiter RateLimiter
}

var _ ChatProvider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider against the hosted OpenAI API.
func NewOpenAIProvider(apiKey string, timeout time.Duration, limiter RateLimiter) *OpenAIProvider {
	return &OpenAIProvider{
		name:        ProviderNameOpenAI,
		baseURL:     defaultOpenAIBaseURL,
		apiKey:      apiKey,
		timeout:     timeout,
		rateLimiter: limiter,
	}
}

// NewLocalProvider creates a provider against a local OpenAI-compatible server.
func NewLocalProvider(baseURL string, timeout time.Duration, limiter RateLimiter) *OpenAIProvider {
	return &OpenAIProvider{
		name:        ProviderNameLocal,
		baseURL:     baseURL,
		apiKey:      "",
		timeout:     timeout,
		rateLimiter: limiter,
	}
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return string(p.name)
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Chat sends a chat completion request to an OpenAI-compatible API.
func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if p.name == ProviderNameOpenAI && p.apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "openai API key not configured")
	}

	// Wait for rate limiter
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, &RateLimitError{
			Provider: p.name,
			Limit:    p.rateLimiter.Limit(),
			Err:      err,
		}
	}

	apiReq := openAIRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if apiReq.MaxTokens == 0 {
		apiReq.MaxTokens = 4096
	}
	if req.JSONMode {
		apiReq.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	for _, msg := range req.Messages {
		apiReq.Messages = append(apiReq.Messages, openAIMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, errors.Wrap(err, "marshal chat request")
	}

	url := p.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create HTTP request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	start := time.Now()
	client := &http.Client{Timeout: p.timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "send %s request", p.name)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s response", p.name)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, errors.Wrapf(errors.ErrExternal, "%s API error (%d): %s - %s",
				p.name, resp.StatusCode, errResp.Error.Type, errResp.Error.Message)
		}
		return nil, errors.Wrapf(errors.ErrExternal, "%s API error (%d): %s",
			p.name, resp.StatusCode, string(respBody))
	}

	var apiResp openAIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s response", p.name)
	}
	if len(apiResp.Choices) == 0 {
		return nil, errors.Wrapf(errors.ErrExternal, "%s returned no choices", p.name)
	}

	return &ChatResponse{
		ID:       apiResp.ID,
		Provider: p.name,
		Model:    apiResp.Model,
		Content:  apiResp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     apiResp.Usage.PromptTokens,
			CompletionTokens: apiResp.Usage.CompletionTokens,
			TotalTokens:      apiResp.Usage.TotalTokens,
		},
		LatencyMS: time.Since(start).Milliseconds(),
	}, nil
}
