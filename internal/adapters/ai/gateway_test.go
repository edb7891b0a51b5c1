package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/pkg/errors"
	"meridian/pkg/logger"
)

func init() {
	_ = logger.Init("error", "test")
}

type stubProvider struct {
	name    ProviderName
	content string
	err     error
	calls   int
}

func (s *stubProvider) Name() string { return string(s.name) }

func (s *stubProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &ChatResponse{
		Provider: s.name,
		Model:    req.Model,
		Content:  s.content,
	}, nil
}

func TestGatewayChatFailover(t *testing.T) {
	failing := &stubProvider{name: ProviderNameOpenAI, err: errors.New("upstream 500")}
	working := &stubProvider{name: ProviderNameAnthropic, content: `{"ok":true}`}

	registry := NewRegistry()
	registry.Register(ProviderNameOpenAI, failing, "gpt-4o-mini")
	registry.Register(ProviderNameAnthropic, working, "claude-sonnet-4-5-20250929")

	gateway := NewGateway(registry)

	resp, err := gateway.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, ProviderNameAnthropic, resp.Provider)
	assert.Equal(t, "claude-sonnet-4-5-20250929", resp.Model)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, working.calls)
}

func TestGatewayChatAllProvidersFail(t *testing.T) {
	registry := NewRegistry()
	registry.Register(ProviderNameOpenAI, &stubProvider{name: ProviderNameOpenAI, err: errors.New("boom")}, "gpt-4o-mini")

	gateway := NewGateway(registry)

	_, err := gateway.Chat(context.Background(), ChatRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrProviderExhausted))
}

func TestGatewayChatNoProviders(t *testing.T) {
	gateway := NewGateway(NewRegistry())

	_, err := gateway.Chat(context.Background(), ChatRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrProviderExhausted))
}

func TestGatewayChatRespectsPreferredOrder(t *testing.T) {
	first := &stubProvider{name: ProviderNameOpenAI, content: "from openai"}
	second := &stubProvider{name: ProviderNameLocal, content: "from local"}

	registry := NewRegistry()
	registry.Register(ProviderNameOpenAI, first, "gpt-4o-mini")
	registry.Register(ProviderNameLocal, second, "llama-3.1-8b-instruct")
	registry.SetPreferred(ProviderNameLocal)

	resp, err := NewGateway(registry).Chat(context.Background(), ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, ProviderNameLocal, resp.Provider)
	assert.Equal(t, 0, first.calls)
}

func TestGatewayCallJSON(t *testing.T) {
	provider := &stubProvider{
		name:    ProviderNameOpenAI,
		content: "```json\n{\"score\": 72.5, \"risk_level\": \"medium\"}\n```",
	}

	registry := NewRegistry()
	registry.Register(ProviderNameOpenAI, provider, "gpt-4o-mini")

	var parsed struct {
		Score     float64 `json:"score"`
		RiskLevel string  `json:"risk_level"`
	}

	resp, err := NewGateway(registry).CallJSON(context.Background(), ChatRequest{}, &parsed)
	require.NoError(t, err)
	assert.Equal(t, ProviderNameOpenAI, resp.Provider)
	assert.Equal(t, 72.5, parsed.Score)
	assert.Equal(t, "medium", parsed.RiskLevel)
}

func TestDecodeModelJSON(t *testing.T) {
	type payload struct {
		Score float64 `json:"score"`
	}

	tests := []struct {
		name    string
		content string
		want    float64
		wantErr bool
	}{
		{
			name:    "plain json",
			content: `{"score": 80}`,
			want:    80,
		},
		{
			name:    "fenced with language tag",
			content: "```json\n{\"score\": 55}\n```",
			want:    55,
		},
		{
			name:    "fenced without language tag",
			content: "```\n{\"score\": 41.2}\n```",
			want:    41.2,
		},
		{
			name:    "surrounding whitespace",
			content: "\n\n  {\"score\": 12}  \n",
			want:    12,
		},
		{
			name:    "empty output",
			content: "   ",
			wantErr: true,
		},
		{
			name:    "malformed json",
			content: "the score is 80",
			wantErr: true,
		},
		{
			name:    "fenced malformed json",
			content: "```json\nnot json\n```",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload
			err := DecodeModelJSON(tt.content, &got)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrInvalidAIOutput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Score)
		})
	}
}
