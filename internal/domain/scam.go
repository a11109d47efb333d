// Package domain contains the core domain models for the SafeSenior
// call screening services.
package domain

// ScamType categorizes the fraud pattern detected in a call or described
// in a collected article.
type ScamType string

const (
	// ScamTypeGrandparent is the family emergency scam ("Hi grandma, I need bail money").
	ScamTypeGrandparent ScamType = "grandparent_scam"
	// ScamTypeIRS is government impersonation with payment demands and arrest threats.
	ScamTypeIRS ScamType = "irs_impersonation"
	// ScamTypeMedicare is health insurance impersonation fishing for personal details.
	ScamTypeMedicare ScamType = "medicare_scam"
	// ScamTypeLottery is the fake prize or sweepstakes scam.
	ScamTypeLottery ScamType = "lottery_scam"
	// ScamTypeTechSupport is the fake virus alert or remote access scam.
	ScamTypeTechSupport ScamType = "tech_support_scam"
	// ScamTypeGeneralFraud covers suspicious calls matching no specific pattern.
	ScamTypeGeneralFraud ScamType = "general_fraud"
)

// validScamTypes maps every recognised ScamType to true for O(1) lookup.
var validScamTypes = map[ScamType]bool{
	ScamTypeGrandparent:  true,
	ScamTypeIRS:          true,
	ScamTypeMedicare:     true,
	ScamTypeLottery:      true,
	ScamTypeTechSupport:  true,
	ScamTypeGeneralFraud: true,
}

// IsValid reports whether t is a recognised scam type.
func (t ScamType) IsValid() bool {
	return validScamTypes[t]
}

// Urgency grades how aggressively a scam pattern pressures its victim.
type Urgency string

const (
	// UrgencyCritical marks patterns demanding immediate irreversible action.
	UrgencyCritical Urgency = "critical"
	// UrgencyHigh marks patterns with strong time pressure.
	UrgencyHigh Urgency = "high"
	// UrgencyMedium is the default grade.
	UrgencyMedium Urgency = "medium"
)

// Urgency multipliers applied when knowledge matches contribute to risk.
const (
	criticalMultiplier = 1.5
	highMultiplier     = 1.2
	mediumMultiplier   = 1.0
)

// Multiplier returns the risk weighting for this urgency grade.
// Unknown grades weigh the same as medium.
func (u Urgency) Multiplier() float64 {
	switch u {
	case UrgencyCritical:
		return criticalMultiplier
	case UrgencyHigh:
		return highMultiplier
	case UrgencyMedium:
		return mediumMultiplier
	default:
		return mediumMultiplier
	}
}

// Action is the call-control decision taken after screening.
type Action string

const (
	// ActionTransferNormal connects the caller to the elder without restrictions.
	ActionTransferNormal Action = "transfer_normal"
	// ActionTransferMonitor connects the caller but keeps the call monitored.
	ActionTransferMonitor Action = "transfer_monitor"
	// ActionTransferFamily warm-transfers the caller to the family contact.
	ActionTransferFamily Action = "transfer_family"
	// ActionBlock terminates the call with a fraud warning message.
	ActionBlock Action = "block"
)

// Recommendation summarizes the screening verdict for downstream consumers.
type Recommendation string

const (
	// RecommendationBlockAndAlert flags high risk calls.
	RecommendationBlockAndAlert Recommendation = "BLOCK_AND_ALERT"
	// RecommendationWarnAndMonitor flags medium risk calls.
	RecommendationWarnAndMonitor Recommendation = "WARN_AND_MONITOR"
	// RecommendationTransferNormally flags low risk calls.
	RecommendationTransferNormally Recommendation = "TRANSFER_NORMALLY"
)

// Risk thresholds for recommendations.
const (
	blockThreshold = 0.8
	warnThreshold  = 0.6
)

// RecommendationForRisk maps a risk score to a recommendation.
func RecommendationForRisk(risk float64) Recommendation {
	if risk > blockThreshold {
		return RecommendationBlockAndAlert
	}
	if risk > warnThreshold {
		return RecommendationWarnAndMonitor
	}
	return RecommendationTransferNormally
}

// Describe returns the human-readable explanation for a recommendation.
func (r Recommendation) Describe() string {
	switch r {
	case RecommendationBlockAndAlert:
		return "BLOCK_AND_ALERT: High risk detected. Warm transfer to family."
	case RecommendationWarnAndMonitor:
		return "WARN_AND_MONITOR: Medium risk. Continue monitoring with warnings."
	case RecommendationTransferNormally:
		return "TRANSFER_NORMALLY: Low risk. Transfer to senior."
	default:
		return string(r)
	}
}

// ScamRule defines one keyword rule evaluated against call transcripts.
// Each keyword carries its own additive weight; a rule's score is the sum
// of the weights of its matched keywords.
type ScamRule struct {
	Name     string             `json:"name"      yaml:"name"`
	ScamType ScamType           `json:"scam_type" yaml:"scam_type"`
	Urgency  Urgency            `json:"urgency"   yaml:"urgency"`
	Priority int                `json:"priority"  yaml:"priority"` // Higher priority rules rank first in match results
	Enabled  bool               `json:"enabled"   yaml:"enabled"`
	Keywords map[string]float64 `json:"keywords"  yaml:"keywords"` // keyword -> additive weight
}

// RuleMatch records one rule that fired against a transcript.
type RuleMatch struct {
	RuleName string   `json:"rule_name"`
	ScamType ScamType `json:"scam_type"`
	Urgency  Urgency  `json:"urgency"`
	Priority int      `json:"priority"`
	Keywords []string `json:"keywords"`
	Score    float64  `json:"score"`
}
