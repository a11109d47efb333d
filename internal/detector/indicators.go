package detector

import "strings"

// maxIndicators limits how many indicator phrases a single transcript reports.
const maxIndicators = 5

// indicatorPattern pairs a transcript substring with the scam tell it evidences.
type indicatorPattern struct {
	phrase    string
	indicator string
}

// Checked in order; the first five hits win.
var indicatorPatterns = []indicatorPattern{
	{"gift card", "gift card payment demand"},
	{"arrest warrant", "fake arrest threats"},
	{"irs agent", "IRS impersonation"},
	{"medicare representative", "Medicare impersonation"},
	{"virus alert", "fake virus warnings"},
	{"immediate payment", "urgency tactics"},
	{"do not hang up", "psychological pressure"},
	{"verify ssn", "identity theft attempt"},
	{"bail money", "family emergency scam"},
	{"ai voice", "AI voice cloning"},
	{"deepfake", "deepfake technology"},
}

// ExtractIndicators reports which known scam tells appear in the text.
func ExtractIndicators(text string) []string {
	lower := strings.ToLower(text)

	indicators := make([]string, 0, maxIndicators)
	for _, p := range indicatorPatterns {
		if !strings.Contains(lower, p.phrase) {
			continue
		}
		indicators = append(indicators, p.indicator)
		if len(indicators) == maxIndicators {
			break
		}
	}
	return indicators
}
