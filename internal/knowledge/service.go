package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/logger"
	"github.com/arassiq/SafeSenior/internal/telemetry"
)

const (
	// defaultTopK bounds how many index hits one assessment considers.
	defaultTopK = 5
	// matchMinScore filters weak hits; only scores above it count as matches.
	matchMinScore = 0.5
	// sampleSize bounds how many recent articles feed insights and stats.
	sampleSize = 100
	// trendCount is how many recent titles the stats report as trends.
	trendCount = 3
)

// Service answers risk queries against the article index. Assessment is
// best-effort: an unreachable index yields a zero score, never an error,
// so screening always proceeds.
type Service struct {
	index         Index
	scamThreshold float64
	logger        logger.Logger
	telemetry     *telemetry.Provider
}

// NewService wires an assessor over the given index.
func NewService(index Index, scamThreshold float64, log logger.Logger, tp *telemetry.Provider) *Service {
	return &Service{
		index:         index,
		scamThreshold: scamThreshold,
		logger:        log,
		telemetry:     tp,
	}
}

// Assess matches a transcript against indexed articles. The score is the
// best match score scaled by that article's urgency multiplier, capped at 1.0.
func (s *Service) Assess(ctx context.Context, transcript string) domain.Assessment {
	start := time.Now()
	hits, err := s.index.Query(ctx, transcript, defaultTopK)
	if s.telemetry != nil {
		s.telemetry.RecordKnowledgeQuery(ctx, time.Since(start), err)
	}
	if err != nil {
		s.logger.Warn("knowledge query failed, screening proceeds without corroboration",
			logger.Error(err))
		return domain.Assessment{AssessedAt: time.Now().UTC()}
	}

	assessment := domain.Assessment{AssessedAt: time.Now().UTC()}
	for _, hit := range hits {
		if hit.Score <= matchMinScore {
			continue
		}

		assessment.Matches = append(assessment.Matches, domain.PatternMatch{
			Pattern:  hit.Article.Title,
			Score:    hit.Score,
			Source:   hit.Article.Source,
			ScamType: hit.Article.ScamType,
			Urgency:  hit.Article.Urgency,
		})

		risk := hit.Score * hit.Article.Urgency.Multiplier()
		if risk > assessment.Score {
			assessment.Score = risk
		}
	}

	if assessment.Score > 1.0 {
		assessment.Score = 1.0
	}
	if len(assessment.Matches) > 0 {
		top := assessment.Matches[0]
		scamType := top.ScamType
		if scamType == "" {
			scamType = domain.ScamTypeGeneralFraud
		}
		assessment.Insight = fmt.Sprintf("resembles recent %s reporting: %s", scamType, top.Pattern)
	}
	return assessment
}

// QueryResult is the admin-facing answer to a transcript query.
type QueryResult struct {
	Transcript     string                `json:"transcript"`
	RiskScore      float64               `json:"risk_score"`
	IsScam         bool                  `json:"is_scam"`
	Matches        []domain.PatternMatch `json:"matched_patterns"`
	Recommendation domain.Recommendation `json:"recommendation"`
	Description    string                `json:"description"`
}

// Query assesses a transcript and attaches the verdict and recommendation.
func (s *Service) Query(ctx context.Context, transcript string) QueryResult {
	assessment := s.Assess(ctx, transcript)
	recommendation := domain.RecommendationForRisk(assessment.Score)

	return QueryResult{
		Transcript:     transcript,
		RiskScore:      assessment.Score,
		IsScam:         assessment.Score > s.scamThreshold,
		Matches:        assessment.Matches,
		Recommendation: recommendation,
		Description:    recommendation.Describe(),
	}
}

// Insights buckets indexed indicators by how they target elderly victims.
type Insights struct {
	HighRiskPhrases    []string `json:"high_risk_phrases"`
	EmotionalTriggers  []string `json:"emotional_triggers"`
	UrgencyTactics     []string `json:"urgency_tactics"`
	ImpersonationTypes []string `json:"impersonation_types"`
}

// Insights summarizes recent indexed articles.
func (s *Service) Insights(ctx context.Context) (Insights, error) {
	articles, err := s.index.Recent(ctx, sampleSize)
	if err != nil {
		return Insights{}, fmt.Errorf("load recent articles: %w", err)
	}
	return BuildInsights(articles), nil
}

// BuildInsights buckets article indicators into elderly-vulnerability
// categories. Each indicator lands in at most one bucket.
func BuildInsights(articles []domain.Article) Insights {
	var insights Insights
	for _, article := range articles {
		for _, indicator := range article.Indicators {
			lower := strings.ToLower(indicator)
			switch {
			case strings.Contains(lower, "medicare") || strings.Contains(lower, "social security"):
				insights.HighRiskPhrases = appendUnique(insights.HighRiskPhrases, indicator)
			case strings.Contains(lower, "grandchild") || strings.Contains(lower, "family"):
				insights.EmotionalTriggers = appendUnique(insights.EmotionalTriggers, indicator)
			case strings.Contains(lower, "urgent") || strings.Contains(lower, "immediate"):
				insights.UrgencyTactics = appendUnique(insights.UrgencyTactics, indicator)
			case strings.Contains(lower, "impersonation") || strings.Contains(lower, "official"):
				insights.ImpersonationTypes = appendUnique(insights.ImpersonationTypes, indicator)
			}
		}
	}
	return insights
}

// Stats reports what the index currently holds.
type Stats struct {
	TotalPatterns int            `json:"total_patterns"`
	ScamTypes     map[string]int `json:"scam_types"`
	UrgencyLevels map[string]int `json:"urgency_levels"`
	RecentTrends  []string       `json:"recent_trends"`
}

// Stats counts indexed articles by scam type and urgency.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	total, err := s.index.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count articles: %w", err)
	}

	articles, err := s.index.Recent(ctx, sampleSize)
	if err != nil {
		return Stats{}, fmt.Errorf("load recent articles: %w", err)
	}

	stats := Stats{
		TotalPatterns: total,
		ScamTypes:     make(map[string]int),
		UrgencyLevels: make(map[string]int),
	}
	for i, article := range articles {
		scamType := string(article.ScamType)
		if scamType == "" {
			scamType = "unknown"
		}
		stats.ScamTypes[scamType]++

		urgency := string(article.Urgency)
		if urgency == "" {
			urgency = string(domain.UrgencyMedium)
		}
		stats.UrgencyLevels[urgency]++

		if i < trendCount {
			stats.RecentTrends = append(stats.RecentTrends, article.Title)
		}
	}
	return stats, nil
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
