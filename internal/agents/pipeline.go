package agents

import (
	"context"
	"fmt"
	"sync"
	"time"

	"meridian/internal/adapters/config"
	"meridian/internal/domain/application"
	"meridian/internal/domain/assessment"
	"meridian/internal/domain/creditreport"
	"meridian/internal/rules"
	"meridian/pkg/logger"
)

// Pipeline fans the snapshot out to every dimension agent, aggregates the
// results, and applies the policy overrides. It never returns an error:
// every failure mode degrades to a scored assessment.
type Pipeline struct {
	gateway      ChatCaller
	aggregator   *Aggregator
	maxParallel  int
	agentTimeout time.Duration
	log          *logger.Logger
}

func NewPipeline(gateway ChatCaller, cfg config.PipelineConfig) *Pipeline {
	maxParallel := cfg.MaxParallel
	if maxParallel <= 0 {
		maxParallel = 4
	}
	var agg *Aggregator
	if gateway != nil {
		agg = NewAggregator(gateway)
	}
	return &Pipeline{
		gateway:      gateway,
		aggregator:   agg,
		maxParallel:  maxParallel,
		agentTimeout: cfg.AgentTimeout,
		log:          logger.Get().With("component", "pipeline"),
	}
}

// Run produces the full multi-dimensional assessment for one application.
// With useAI false, or no gateway configured, the deterministic rule
// engine scores every dimension instead.
func (p *Pipeline) Run(ctx context.Context, snap *application.Snapshot, report *creditreport.Report, useAI bool) *assessment.PipelineResult {
	start := time.Now()

	var res *assessment.PipelineResult
	if useAI && p.gateway != nil {
		results := p.runAgents(ctx, snap, report)
		res = p.aggregator.Aggregate(ctx, results)
	} else {
		results := rules.ScoreAll(snap, report)
		res = RuleBasedAggregate(results, "")
	}

	ApplyOverrides(res, snap)

	res.AgentsSucceeded, res.AgentsFailed = countOutcomes(res.DimensionResults)
	for _, r := range res.DimensionResults {
		res.TotalTokens += r.TokensUsed
	}
	res.DurationMS = time.Since(start).Milliseconds()

	p.log.Infow("assessment pipeline completed",
		"application_id", snap.ApplicationID,
		"overall_score", res.OverallScore,
		"risk_band", res.RiskBand,
		"recommendation", res.Recommendation,
		"agents_succeeded", res.AgentsSucceeded,
		"agents_failed", res.AgentsFailed,
		"duration_ms", res.DurationMS,
		"used_ai", res.UsedAI,
	)
	return res
}

// runAgents executes every dimension agent with bounded parallelism. A
// panicking agent is converted into a failed result in place.
func (p *Pipeline) runAgents(ctx context.Context, snap *application.Snapshot, report *creditreport.Report) []assessment.DimensionResult {
	dims := AllDimensions()
	results := make([]assessment.DimensionResult, len(dims))

	sem := make(chan struct{}, p.maxParallel)
	var wg sync.WaitGroup

	for i, dim := range dims {
		wg.Add(1)
		go func(i int, dim Dimension) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			defer func() {
				if r := recover(); r != nil {
					p.log.Errorw("agent panicked", "dimension", string(dim), "panic", r)
					results[i] = crashResult(dim, r)
				}
			}()

			agent := NewAgent(dim, p.gateway, p.agentTimeout)
			results[i] = agent.Analyze(ctx, snap, report)
		}(i, dim)
	}
	wg.Wait()

	assessment.SortResults(results)
	return results
}

func crashResult(dim Dimension, cause interface{}) assessment.DimensionResult {
	weight := Weight(dim)
	return assessment.DimensionResult{
		Dimension:     string(dim),
		AgentName:     AgentName(dim),
		Score:         assessment.NeutralScore,
		Weight:        weight,
		WeightedScore: assessment.NeutralScore * weight,
		RiskFactors:   []string{"AI analysis unavailable: agent crashed"},
		Explanation:   "The agent terminated abnormally. A neutral score was substituted.",
		Error:         fmt.Sprintf("panic: %v", cause),
	}
}
