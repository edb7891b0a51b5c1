package agents

import (
	"context"
	"fmt"
	"time"

	"meridian/internal/adapters/ai"
	"meridian/internal/domain/application"
	"meridian/internal/domain/assessment"
	"meridian/internal/domain/creditreport"
	"meridian/internal/metrics"
	"meridian/pkg/errors"
	"meridian/pkg/logger"
)

// ChatCaller is the slice of the AI gateway an agent needs.
type ChatCaller interface {
	CallJSON(ctx context.Context, req ai.ChatRequest, out interface{}) (*ai.ChatResponse, error)
}

// agentResponse mirrors the JSON schema every dimension prompt demands.
type agentResponse struct {
	Score             float64  `json:"score"`
	PositiveFactors   []string `json:"positive_factors"`
	RiskFactors       []string `json:"risk_factors"`
	MitigatingFactors []string `json:"mitigating_factors"`
	Explanation       string   `json:"explanation"`
}

const agentTemperature = 0.2

// Agent analyzes one risk dimension through the model gateway.
type Agent struct {
	dimension Dimension
	gateway   ChatCaller
	timeout   time.Duration
	log       *logger.Logger
}

func NewAgent(dimension Dimension, gateway ChatCaller, timeout time.Duration) *Agent {
	return &Agent{
		dimension: dimension,
		gateway:   gateway,
		timeout:   timeout,
		log:       logger.Get().With("component", "agent", "dimension", string(dimension)),
	}
}

// Analyze runs the dimension prompt and returns a result in all cases.
// A gateway or decode failure degrades to a neutral score rather than
// erroring, so one broken dimension never sinks the whole assessment.
func (a *Agent) Analyze(ctx context.Context, snap *application.Snapshot, report *creditreport.Report) assessment.DimensionResult {
	spec := registry[a.dimension]
	weight := spec.weight

	result := assessment.DimensionResult{
		Dimension: string(a.dimension),
		AgentName: spec.agentName,
		Weight:    weight,
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	req := ai.ChatRequest{
		Messages:    spec.buildPrompt(snap, report),
		Temperature: agentTemperature,
		MaxTokens:   spec.maxTokens,
	}

	start := time.Now()
	var parsed agentResponse
	resp, err := a.gateway.CallJSON(ctx, req, &parsed)

	provider := ""
	if resp != nil {
		provider = string(resp.Provider)
	}
	tokens := 0
	if resp != nil {
		tokens = resp.Usage.TotalTokens
	}
	metrics.RecordAgentCall(spec.agentName, provider, time.Since(start), tokens, err)

	if err != nil {
		a.log.Warnw("dimension analysis failed, degrading to neutral score",
			"agent", spec.agentName, "error", err)
		result.Score = assessment.NeutralScore
		result.WeightedScore = assessment.NeutralScore * weight
		result.RiskFactors = []string{"AI analysis unavailable: " + errors.Truncate(err, 120)}
		result.Explanation = fmt.Sprintf("The %s agent could not complete its analysis. A neutral score was substituted.", spec.agentName)
		result.Error = errors.Truncate(err, 500)
		return result
	}

	result.Score = assessment.ClampScore(parsed.Score)
	result.WeightedScore = result.Score * weight
	result.PositiveFactors = parsed.PositiveFactors
	result.RiskFactors = parsed.RiskFactors
	result.MitigatingFactors = parsed.MitigatingFactors
	result.Explanation = parsed.Explanation
	result.Success = true
	result.TokensUsed = resp.Usage.TotalTokens
	result.LatencyMS = resp.LatencyMS

	return result
}
