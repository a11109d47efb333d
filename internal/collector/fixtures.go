package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/arassiq/SafeSenior/internal/domain"
)

// SimulatedSource serves built-in articles so demo deployments without
// any provider credentials still stock the knowledge index.
type SimulatedSource struct{}

// NewSimulatedSource creates the fixture-backed article source.
func NewSimulatedSource() *SimulatedSource { return &SimulatedSource{} }

// Name identifies this source in logs and metrics.
func (s *SimulatedSource) Name() string { return "simulated" }

// Fetch returns the fixture articles stamped with today's date.
func (s *SimulatedSource) Fetch(_ context.Context) ([]domain.Article, error) {
	return fixtureArticles(time.Now().UTC()), nil
}

func fixtureArticles(now time.Time) []domain.Article {
	day := now.Truncate(24 * time.Hour)

	return []domain.Article{
		{
			Title: "New IRS Impersonation Scam Targets Elderly with AI Voice Cloning",
			Description: "Scammers are using AI to clone voices of IRS agents, targeting elderly taxpayers " +
				"with threats of arrest. The FBI warns seniors to verify any IRS contact through official channels.",
			URL:             "https://example.com/irs-ai-scam",
			Source:          "perplexity",
			ScamType:        domain.ScamTypeIRS,
			Urgency:         domain.UrgencyCritical,
			ElderlySpecific: true,
			Indicators:      []string{"AI voice cloning", "IRS impersonation", "arrest threats", "immediate payment demands"},
			PublishedAt:     day.Add(10 * time.Hour),
		},
		{
			Title: "Medicare Open Enrollment Scams Surge 40% This Season",
			Description: "Federal Trade Commission reports dramatic increase in Medicare-related scams during " +
				"open enrollment. Fraudsters pose as Medicare representatives to steal personal information.",
			URL:             "https://example.com/medicare-scam-surge",
			Source:          "perplexity",
			ScamType:        domain.ScamTypeMedicare,
			Urgency:         domain.UrgencyHigh,
			ElderlySpecific: true,
			Indicators:      []string{"Medicare impersonation", "personal info requests", "unsolicited calls", "fake plan offers"},
			PublishedAt:     day.Add(8*time.Hour + 30*time.Minute),
		},
		{
			Title: "Grandparent Scam Evolution: Scammers Now Using Social Media Intel",
			Description: "Law enforcement warns that scammers are harvesting family information from social media " +
				"to make grandparent scams more convincing, including specific names and details.",
			URL:             "https://example.com/grandparent-social-media",
			Source:          "perplexity",
			ScamType:        domain.ScamTypeGrandparent,
			Urgency:         domain.UrgencyHigh,
			ElderlySpecific: true,
			Indicators:      []string{"family emergency", "bail money", "accident claims", "secrecy demands"},
			PublishedAt:     day.Add(14 * time.Hour),
		},
		{
			Title:       "Tech Support Scams Target Seniors with Fake Virus Warnings",
			Description: "Computer users over 65 are primary targets of tech support scams showing fake virus alerts.",
			URL:         "https://example.com/tech-support-scam",
			Source:      "TechNews Daily",
			PublishedAt: day.Add(12 * time.Hour),
		},
		{
			Title:       "FTC Alert: Romance Scams Cost Seniors $139 Million in 2024",
			Description: "Federal Trade Commission data shows romance scams disproportionately affect older adults.",
			URL:         "https://www.consumer.ftc.gov/romance-scam-alert",
			Source:      "FTC Consumer Protection",
			PublishedAt: now,
		},
	}
}

const testSnapshotIRSContent = `Based on recent reports, there has been a significant surge in elderly-targeted scams:

1. **IRS Impersonation Scams with AI Voice Cloning**: The FBI has issued urgent warnings about sophisticated scammers using AI technology to clone voices of IRS agents. These scammers are calling elderly taxpayers claiming they owe back taxes and threatening immediate arrest if payment isn't made via gift cards or wire transfers.

2. **Medicare Open Enrollment Fraud**: The FTC reports a 45% increase in Medicare-related scams during the current open enrollment period. Scammers are posing as Medicare representatives requesting Social Security numbers and bank account information to "verify benefits" or "process new Medicare cards."

3. **Gift Card Payment Demands**: Law enforcement agencies across the country report that gift card payment demands have become the most common payment method in elderly scams, with iTunes, Google Play, and Amazon gift cards being the most requested.

Recent arrests include a scam ring in California that defrauded over 200 seniors of $3.2 million using these tactics.`

const testSnapshotGrandparentContent = `Law enforcement agencies report evolving tactics in grandparent scams:

1. **Social Media Intelligence Gathering**: Scammers are now harvesting family information from Facebook, Instagram, and other social platforms to make their calls more convincing. They know grandchildren's names, recent activities, and even vacation plans.

2. **AI Voice Cloning of Family Members**: Using just a few seconds of audio from social media videos, criminals can now clone grandchildren's voices to make emergency calls sound authentic.

3. **Recent Case**: A syndicate operating from overseas was caught after defrauding elderly victims of over $5 million. They used detailed family information and claimed grandchildren were in accidents or arrested while traveling.

The AARP warns that these scams peak during holiday seasons when grandchildren might actually be traveling.`

// TestSnapshot returns the canned delivery behind the collector's
// webhook test endpoint, shaped exactly like a provider delivery.
func TestSnapshot(now time.Time) *SnapshotPayload {
	today := now.Format("2006-01-02")

	return &SnapshotPayload{
		SnapshotID: "test_snapshot_123",
		DatasetID:  "gd_m9qtf2mu1jp6ehx4r0",
		Status:     "success",
		Data: []SnapshotItem{
			{
				Input: SnapshotInput{
					URL:    promptTarget,
					Prompt: fmt.Sprintf("Latest elderly scam alerts and fraud warnings %s IRS impersonation Medicare fraud gift card scams", today),
				},
				Content: testSnapshotIRSContent,
			},
			{
				Input: SnapshotInput{
					URL:    promptTarget,
					Prompt: fmt.Sprintf("Grandparent scams family emergency fraud targeting seniors %s latest news arrests", today),
				},
				Content: testSnapshotGrandparentContent,
			},
		},
	}
}
