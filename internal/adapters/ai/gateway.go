package ai

import (
	"context"
	"encoding/json"
	"strings"

	"meridian/pkg/errors"
	"meridian/pkg/logger"
)

// Gateway provides a single entry point for LLM calls with automatic
// failover across the registered providers.
type Gateway struct {
	registry *Registry
	log      *logger.Logger
}

// NewGateway creates a gateway over the given provider registry.
func NewGateway(registry *Registry) *Gateway {
	return &Gateway{
		registry: registry,
		log:      logger.Get().With("component", "ai_gateway"),
	}
}

// Chat tries each registered provider in failover order until one succeeds.
// Context cancellation stops the failover chain immediately.
func (g *Gateway) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	order := g.registry.Order()
	if len(order) == 0 {
		return nil, errors.Wrap(errors.ErrProviderExhausted, "no AI providers registered")
	}

	var lastErr error
	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "ai gateway call cancelled")
		}

		provider, model, err := g.registry.Get(name)
		if err != nil {
			lastErr = err
			continue
		}

		providerReq := req
		if providerReq.Model == "" {
			providerReq.Model = model
		}

		resp, err := provider.Chat(ctx, providerReq)
		if err != nil {
			lastErr = err
			g.log.Warnw("AI provider call failed, trying next",
				"provider", name,
				"model", providerReq.Model,
				"error", err,
			)
			continue
		}

		g.log.Debugw("AI provider call succeeded",
			"provider", name,
			"model", resp.Model,
			"latency_ms", resp.LatencyMS,
			"total_tokens", resp.Usage.TotalTokens,
		)
		return resp, nil
	}

	return nil, errors.Wrapf(errors.ErrProviderExhausted, "all AI providers failed: %v", lastErr)
}

// CallJSON performs a JSON-mode chat call and decodes the response into out.
// Providers that cannot guarantee strict JSON output often wrap the payload
// in a markdown code fence, so the content is normalized before decoding.
func (g *Gateway) CallJSON(ctx context.Context, req ChatRequest, out interface{}) (*ChatResponse, error) {
	req.JSONMode = true

	resp, err := g.Chat(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := DecodeModelJSON(resp.Content, out); err != nil {
		return resp, errors.Wrapf(err, "decode response from provider %s", resp.Provider)
	}
	return resp, nil
}

// DecodeModelJSON parses a JSON document out of raw model output, stripping
// a surrounding markdown code fence if present.
func DecodeModelJSON(content string, out interface{}) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.Wrap(errors.ErrInvalidAIOutput, "empty model output")
	}

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	if err := json.Unmarshal([]byte(trimmed), out); err != nil {
		return errors.Wrapf(errors.ErrInvalidAIOutput, "invalid JSON in model output: %v", err)
	}
	return nil
}
