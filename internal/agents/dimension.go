package agents

import (
	"meridian/internal/adapters/ai"
	"meridian/internal/domain/application"
	"meridian/internal/domain/creditreport"
)

// Dimension identifies one risk dimension scored by exactly one agent per
// pipeline run.
type Dimension string

const (
	DimensionCreditHistory        Dimension = "credit_history"
	DimensionEmployment           Dimension = "employment"
	DimensionFinancialHealth      Dimension = "financial_health"
	DimensionProperty             Dimension = "property"
	DimensionApplicantProfile     Dimension = "applicant_profile"
	DimensionRegulatoryCompliance Dimension = "regulatory_compliance"
	DimensionDocumentQuality      Dimension = "document_quality"
	DimensionCreditHistoryDepth   Dimension = "credit_history_depth"
	DimensionPaymentHistory       Dimension = "payment_history"
	DimensionEarningPotential     Dimension = "earning_potential"
	DimensionFraudRisk            Dimension = "fraud_risk"
	DimensionCompensatingFactors  Dimension = "compensating_factors"
)

func (d Dimension) String() string {
	return string(d)
}

// promptBuilder renders the chat messages for one dimension.
type promptBuilder func(snap *application.Snapshot, report *creditreport.Report) []ai.Message

// dimensionSpec is the registry entry for one dimension.
type dimensionSpec struct {
	agentName   string
	weight      float64
	maxTokens   int
	buildPrompt promptBuilder
}

// registry is the closed dimension set. Weights come from the fixed
// per-dimension table; they are not required to sum to 1 because
// aggregation divides by the sum over succeeded agents only.
var registry = map[Dimension]dimensionSpec{
	DimensionCreditHistory: {
		agentName:   "credit_analysis",
		weight:      0.12,
		maxTokens:   2048,
		buildPrompt: buildCreditHistoryPrompt,
	},
	DimensionEmployment: {
		agentName:   "employment_verification",
		weight:      0.05,
		maxTokens:   2048,
		buildPrompt: buildEmploymentPrompt,
	},
	DimensionFinancialHealth: {
		agentName:   "financial_health",
		weight:      0.15,
		maxTokens:   2048,
		buildPrompt: buildFinancialHealthPrompt,
	},
	DimensionProperty: {
		agentName:   "property_valuation",
		weight:      0.05,
		maxTokens:   2048,
		buildPrompt: buildPropertyPrompt,
	},
	DimensionApplicantProfile: {
		agentName:   "applicant_profile",
		weight:      0.05,
		maxTokens:   2048,
		buildPrompt: buildApplicantProfilePrompt,
	},
	DimensionRegulatoryCompliance: {
		agentName:   "regulatory_compliance",
		weight:      0.10,
		maxTokens:   2048,
		buildPrompt: buildRegulatoryCompliancePrompt,
	},
	DimensionDocumentQuality: {
		agentName:   "document_analysis",
		weight:      0.10,
		maxTokens:   2048,
		buildPrompt: buildDocumentQualityPrompt,
	},
	DimensionCreditHistoryDepth: {
		agentName:   "credit_history_depth",
		weight:      0.08,
		maxTokens:   1536,
		buildPrompt: buildCreditHistoryDepthPrompt,
	},
	DimensionPaymentHistory: {
		agentName:   "payment_history",
		weight:      0.12,
		maxTokens:   1536,
		buildPrompt: buildPaymentHistoryPrompt,
	},
	DimensionEarningPotential: {
		agentName:   "earning_potential",
		weight:      0.05,
		maxTokens:   1536,
		buildPrompt: buildEarningPotentialPrompt,
	},
	DimensionFraudRisk: {
		agentName:   "fraud_screening",
		weight:      0.05,
		maxTokens:   1536,
		buildPrompt: buildFraudRiskPrompt,
	},
	DimensionCompensatingFactors: {
		agentName:   "compensating_factors",
		weight:      0.10,
		maxTokens:   1536,
		buildPrompt: buildCompensatingFactorsPrompt,
	},
}

// AllDimensions returns the full dimension list in a fixed order.
func AllDimensions() []Dimension {
	return []Dimension{
		DimensionCreditHistory,
		DimensionEmployment,
		DimensionFinancialHealth,
		DimensionProperty,
		DimensionApplicantProfile,
		DimensionRegulatoryCompliance,
		DimensionDocumentQuality,
		DimensionCreditHistoryDepth,
		DimensionPaymentHistory,
		DimensionEarningPotential,
		DimensionFraudRisk,
		DimensionCompensatingFactors,
	}
}

// Weight returns the fixed weight for a dimension, 0 for unknown names.
func Weight(d Dimension) float64 {
	return registry[d].weight
}

// AgentName returns the agent identifier scoring a dimension.
func AgentName(d Dimension) string {
	return registry[d].agentName
}
