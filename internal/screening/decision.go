package screening

import (
	"fmt"
	"strings"

	"github.com/arassiq/SafeSenior/internal/domain"
)

// Decision tree thresholds over the combined risk score.
const (
	highRiskThreshold    = 0.8
	monitorRiskThreshold = 0.5
)

// BlockReason is recorded when the high-risk block branch fires.
const BlockReason = "IRS impersonation scam detected"

// Markers that escalate a high-risk call from a warm transfer to a block.
const (
	blockMarkerAgency = "irs"
	blockMarkerThreat = "arrest"
)

// DecideAction maps a transcript and its combined risk score to a
// call-control action. High-risk calls pairing the IRS marker with an
// arrest threat are blocked outright; other high-risk calls are warm
// transferred to the family contact. Medium risk transfers with
// monitoring, everything else transfers normally.
func DecideAction(transcript string, risk float64) domain.Action {
	if risk > highRiskThreshold {
		lower := strings.ToLower(transcript)
		if strings.Contains(lower, blockMarkerAgency) && strings.Contains(lower, blockMarkerThreat) {
			return domain.ActionBlock
		}
		return domain.ActionTransferFamily
	}

	if risk > monitorRiskThreshold {
		return domain.ActionTransferMonitor
	}

	return domain.ActionTransferNormal
}

// CombineRisk folds the knowledge corroboration score into the rule
// engine score. The knowledge contribution is scaled by weight and the
// combined score capped at 1.0.
func CombineRisk(engineScore, knowledgeScore, weight float64) float64 {
	risk := engineScore + weight*knowledgeScore
	if risk > 1.0 {
		risk = 1.0
	}
	return risk
}

// reasonForResult explains the verdict when the upstream platform did
// not supply its own reason.
func reasonForResult(result *domain.ScreeningResult) string {
	if result.Action == domain.ActionBlock {
		return BlockReason
	}
	if !result.IsScam {
		return "No scam indicators detected"
	}
	if len(result.Indicators) > 0 {
		return fmt.Sprintf("Detected %s: %s", result.ScamType, strings.Join(result.Indicators, ", "))
	}
	return fmt.Sprintf("Detected %s with risk score %.2f", result.ScamType, result.RiskScore)
}
