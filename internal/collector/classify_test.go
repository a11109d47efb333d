package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arassiq/SafeSenior/internal/domain"
)

func TestClassifyWords(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		scamType domain.ScamType
		urgency  domain.Urgency
	}{
		{
			name:     "grandchild marker",
			text:     "Grandchild arrested abroad, family wires bail",
			scamType: domain.ScamTypeGrandparent,
			urgency:  domain.UrgencyHigh,
		},
		{
			name:     "irs word",
			text:     "IRS callers threaten seniors",
			scamType: domain.ScamTypeIRS,
			urgency:  domain.UrgencyCritical,
		},
		{
			name:     "tax word",
			text:     "Fake tax refund offers spreading",
			scamType: domain.ScamTypeIRS,
			urgency:  domain.UrgencyCritical,
		},
		{
			name:     "irs only matches whole words",
			text:     "The first syntax error in the report",
			scamType: domain.ScamTypeGeneralFraud,
			urgency:  domain.UrgencyMedium,
		},
		{
			name:     "medicare marker",
			text:     "Medicare enrollment calls ask for card numbers",
			scamType: domain.ScamTypeMedicare,
			urgency:  domain.UrgencyHigh,
		},
		{
			name:     "lottery marker",
			text:     "Sweepstakes lottery winnings notification letters",
			scamType: domain.ScamTypeLottery,
			urgency:  domain.UrgencyMedium,
		},
		{
			name:     "tech support phrase",
			text:     "Tech support cold calls offer remote fixes",
			scamType: domain.ScamTypeTechSupport,
			urgency:  domain.UrgencyMedium,
		},
		{
			name:     "urgency words raise medium to high",
			text:     "Claim your lottery prize immediately",
			scamType: domain.ScamTypeLottery,
			urgency:  domain.UrgencyHigh,
		},
		{
			name:     "first matching category wins",
			text:     "Grandchild bail demand with IRS threats",
			scamType: domain.ScamTypeGrandparent,
			urgency:  domain.UrgencyHigh,
		},
		{
			name:     "no markers",
			text:     "Online shopping complaints rise",
			scamType: domain.ScamTypeGeneralFraud,
			urgency:  domain.UrgencyMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scamType, urgency := classifyWords(normalizeWords(tt.text))
			assert.Equal(t, tt.scamType, scamType)
			assert.Equal(t, tt.urgency, urgency)
		})
	}
}

func TestClassify_FillsMissingFields(t *testing.T) {
	article := &domain.Article{
		Title:       "Gift card demands hit seniors",
		Description: "Scammers insist on immediate payment with gift cards.",
	}

	Classify(article)

	assert.Equal(t, domain.ScamTypeGeneralFraud, article.ScamType)
	assert.Equal(t, domain.UrgencyHigh, article.Urgency, "immediate payment language raises urgency")
	assert.True(t, article.ElderlySpecific)
	assert.Equal(t, []string{"gift card payment demand", "urgency tactics"}, article.Indicators)
}

func TestClassify_KeepsSourceClassification(t *testing.T) {
	article := &domain.Article{
		Title:           "IRS tax arrest threats",
		ScamType:        domain.ScamTypeLottery,
		Urgency:         domain.UrgencyCritical,
		ElderlySpecific: true,
		Indicators:      []string{"fake prize notification"},
	}

	Classify(article)

	assert.Equal(t, domain.ScamTypeLottery, article.ScamType)
	assert.Equal(t, domain.UrgencyCritical, article.Urgency)
	assert.Equal(t, []string{"fake prize notification"}, article.Indicators)
}

func TestClassify_ReadsEnrichedContent(t *testing.T) {
	article := &domain.Article{
		Title:   "Consumer alert",
		Content: "Tech support scammers run fake virus alert popups to reach older victims.",
	}

	Classify(article)

	assert.Equal(t, domain.ScamTypeTechSupport, article.ScamType)
	assert.Contains(t, article.Indicators, "fake virus warnings")
}
