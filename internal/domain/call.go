package domain

import "time"

// CallStatus tracks where a call sits in its screening lifecycle.
type CallStatus string

const (
	// CallStatusActive indicates the call is being screened.
	CallStatusActive CallStatus = "active"
	// CallStatusTransferredSenior indicates the call was passed through to the elder.
	CallStatusTransferredSenior CallStatus = "transferred_to_senior"
	// CallStatusTransferredFamily indicates the call was warm-transferred to the family contact.
	CallStatusTransferredFamily CallStatus = "transferred_to_family"
	// CallStatusBlocked indicates the call was terminated as fraudulent.
	CallStatusBlocked CallStatus = "blocked"
	// CallStatusCompleted indicates the call ended normally.
	CallStatusCompleted CallStatus = "completed"
)

// StatusForAction returns the call status resulting from a screening action.
func StatusForAction(a Action) CallStatus {
	switch a {
	case ActionBlock:
		return CallStatusBlocked
	case ActionTransferFamily:
		return CallStatusTransferredFamily
	case ActionTransferMonitor, ActionTransferNormal:
		return CallStatusTransferredSenior
	default:
		return CallStatusActive
	}
}

// Call represents one screened phone call.
type Call struct {
	ID           string           `json:"call_id"`
	CallerNumber string           `json:"caller_number"`
	Transcript   string           `json:"transcript"`
	Status       CallStatus       `json:"status"`
	StartedAt    time.Time        `json:"started_at"`
	ScreenedAt   *time.Time       `json:"screened_at,omitempty"`
	Result       *ScreeningResult `json:"result,omitempty"`
}

// ScreeningResult carries the full outcome of screening one call.
type ScreeningResult struct {
	CallID         string         `json:"call_id"`
	IsScam         bool           `json:"is_scam"`
	RiskScore      float64        `json:"risk_score"`
	EngineScore    float64        `json:"engine_score"`
	KnowledgeScore float64        `json:"knowledge_score"`
	ScamType       ScamType       `json:"scam_type,omitempty"`
	Reason         string         `json:"reason,omitempty"`
	Indicators     []string       `json:"indicators,omitempty"`
	Matches        []RuleMatch    `json:"matched_rules,omitempty"`
	Recommendation Recommendation `json:"recommendation"`
	Action         Action         `json:"action"`
	// ReportedScam echoes the upstream agent's verdict when the call
	// arrived through the platform webhook; nil otherwise.
	ReportedScam *bool     `json:"reported_scam,omitempty"`
	ScreenedAt   time.Time `json:"screened_at"`
}

// Intercepted reports whether the call counts as intercepted for
// notification purposes. The upstream agent's verdict wins when present;
// otherwise the computed verdict decides.
func (r *ScreeningResult) Intercepted() bool {
	if r.ReportedScam != nil {
		return *r.ReportedScam
	}
	return r.IsScam
}

// transcriptPreviewLen bounds transcript excerpts in notifications and incidents.
const transcriptPreviewLen = 100

// TranscriptPreview returns the first transcriptPreviewLen characters of
// the transcript for use in alerts and incident records.
func TranscriptPreview(transcript string) string {
	if len(transcript) <= transcriptPreviewLen {
		return transcript
	}
	return transcript[:transcriptPreviewLen]
}

// IncidentType labels persisted security incidents.
type IncidentType string

const (
	// IncidentCallBlocked records a call terminated as fraudulent.
	IncidentCallBlocked IncidentType = "call_blocked"
	// IncidentScamDetected records a scam that was transferred rather than blocked.
	IncidentScamDetected IncidentType = "scam_detected"
)

// Incident is the persisted record of a screening intervention.
type Incident struct {
	ID           int64        `json:"id"`
	CallID       string       `json:"call_id"`
	CallerNumber string       `json:"caller_number"`
	Type         IncidentType `json:"type"`
	RiskScore    float64      `json:"risk_score"`
	ScamType     ScamType     `json:"scam_type,omitempty"`
	Action       Action       `json:"action"`
	Details      string       `json:"details"`
	Transcript   string       `json:"transcript,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}
