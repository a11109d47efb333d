// Package detector scores call transcripts against weighted keyword rules.
// engine.go implements an Aho-Corasick based rule engine for O(n+m) keyword matching.
package detector

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/logger"
	"github.com/arassiq/SafeSenior/internal/telemetry"
)

// Rule engine constants
const (
	estimatedKeywordsPerRule = 8   // Used for initial slice capacity
	scoreCap                 = 1.0 // Weights are additive; scores never exceed this
)

// Analysis is the engine's verdict on a single transcript.
type Analysis struct {
	Score      float64            `json:"score"`
	ScamType   domain.ScamType    `json:"scam_type"`
	Matches    []domain.RuleMatch `json:"matches"`
	Indicators []string           `json:"indicators"`
}

// TrieRuleEngine uses Aho-Corasick for O(n+m) keyword matching.
// This is significantly faster than the naive O(r×k×n) approach when
// there are many rules with many keywords.
type TrieRuleEngine struct {
	mu        sync.RWMutex
	matcher   *ahocorasick.Matcher
	rules     []domain.ScamRule
	keywords  []string                // All keywords in order
	kwToRules map[string][]ruleEntry  // keyword -> rule entries
	telemetry *telemetry.Provider
	logger    logger.Logger
}

type ruleEntry struct {
	ruleIndex int
	weight    float64
}

// NewTrieRuleEngine builds the Aho-Corasick automaton from rules
func NewTrieRuleEngine(rules []domain.ScamRule, log logger.Logger, tp *telemetry.Provider) *TrieRuleEngine {
	engine := &TrieRuleEngine{
		rules:     enabledOnly(rules),
		kwToRules: make(map[string][]ruleEntry),
		telemetry: tp,
		logger:    log,
	}
	// No lock needed in constructor - engine not yet shared
	engine.rebuildLocked()

	if log != nil {
		log.Info("trie rule engine initialized",
			logger.Int("rules", len(engine.rules)),
			logger.Int("keywords", len(engine.keywords)))
	}

	return engine
}

// rebuildLocked constructs the Aho-Corasick automaton.
// MUST be called with e.mu write-locked, or before the engine is shared.
func (e *TrieRuleEngine) rebuildLocked() {
	e.keywords = make([]string, 0, len(e.rules)*estimatedKeywordsPerRule)
	e.kwToRules = make(map[string][]ruleEntry)

	for i := range e.rules {
		rule := &e.rules[i]
		if !rule.Enabled {
			continue
		}
		// Sorted iteration keeps the automaton and match output stable
		// across rebuilds; map order is not.
		seen := make(map[string]bool, len(rule.Keywords))
		for _, kw := range sortedKeywords(rule.Keywords) {
			normalized := normalizeKeyword(kw)
			if normalized == "" || seen[normalized] {
				continue
			}
			seen[normalized] = true
			e.keywords = append(e.keywords, normalized)
			e.kwToRules[normalized] = append(e.kwToRules[normalized], ruleEntry{
				ruleIndex: i,
				weight:    rule.Keywords[kw],
			})
		}
	}

	if len(e.keywords) > 0 {
		e.matcher = ahocorasick.NewStringMatcher(e.keywords)
	} else {
		e.matcher = nil
	}
}

// Analyze scores a transcript in a single pass and extracts indicator
// phrases. The score is the sum of matched keyword weights across all
// enabled rules, capped at 1.0. The scam type is the top match's; a
// transcript with no matches reports general_fraud with score 0.
func (e *TrieRuleEngine) Analyze(transcript string) Analysis {
	matches, score := e.match(transcript)

	result := Analysis{
		Score:      score,
		ScamType:   domain.ScamTypeGeneralFraud,
		Matches:    matches,
		Indicators: ExtractIndicators(transcript),
	}
	if len(matches) > 0 {
		result.ScamType = matches[0].ScamType
	}
	return result
}

// Match finds all matching rules in a single pass through the transcript.
// Returns matches sorted by priority (desc), then score (desc).
func (e *TrieRuleEngine) Match(transcript string) []domain.RuleMatch {
	matches, _ := e.match(transcript)
	return matches
}

func (e *TrieRuleEngine) match(transcript string) ([]domain.RuleMatch, float64) {
	start := time.Now()

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.matcher == nil {
		return nil, 0
	}

	// Normalize input text
	text := normalizeText(transcript)

	// Single pass through text - O(n + m)
	hits := e.matcher.Match([]byte(text))

	// Accumulate matched keywords per rule. The matcher reports each
	// distinct pattern at most once, and rebuildLocked dedupes keywords
	// within a rule, so every (rule, keyword) pair lands here once.
	ruleAccum := make(map[int]map[string]float64)

	for _, hitIndex := range hits {
		if hitIndex >= len(e.keywords) {
			continue
		}
		keyword := e.keywords[hitIndex]
		for _, entry := range e.kwToRules[keyword] {
			acc, exists := ruleAccum[entry.ruleIndex]
			if !exists {
				acc = make(map[string]float64)
				ruleAccum[entry.ruleIndex] = acc
			}
			acc[keyword] = entry.weight
		}
	}

	matches := make([]domain.RuleMatch, 0, len(ruleAccum))
	var total float64

	for idx, acc := range ruleAccum {
		rule := e.rules[idx]

		matched := make([]string, 0, len(acc))
		var raw float64
		for kw, weight := range acc {
			matched = append(matched, kw)
			raw += weight
		}
		sort.Strings(matched)
		total += raw

		matches = append(matches, domain.RuleMatch{
			RuleName: rule.Name,
			ScamType: rule.ScamType,
			Urgency:  rule.Urgency,
			Priority: rule.Priority,
			Keywords: matched,
			Score:    math.Min(scoreCap, raw),
		})
	}

	// Record telemetry
	duration := time.Since(start)
	if e.telemetry != nil {
		e.telemetry.RecordRuleMatch(context.Background(), duration, len(e.rules), len(matches))
	}

	// Sort by priority (desc), then score (desc)
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Priority != matches[j].Priority {
			return matches[i].Priority > matches[j].Priority
		}
		return matches[i].Score > matches[j].Score
	})

	return matches, math.Min(scoreCap, total)
}

// UpdateRules hot-reloads rules without restart.
// Thread-safe: acquires write lock to update rules and rebuild matcher atomically.
func (e *TrieRuleEngine) UpdateRules(rules []domain.ScamRule) {
	enabled := enabledOnly(rules)

	// Acquire lock before updating rules to prevent race with match()
	e.mu.Lock()
	e.rules = enabled
	e.rebuildLocked()
	keywordCount := len(e.keywords)
	e.mu.Unlock()

	if e.telemetry != nil {
		e.telemetry.RecordRuleReload(context.Background())
	}
	if e.logger != nil {
		e.logger.Info("trie rule engine updated",
			logger.Int("rules", len(enabled)),
			logger.Int("keywords", keywordCount))
	}
}

// RuleCount returns the number of enabled rules
func (e *TrieRuleEngine) RuleCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// KeywordCount returns total keywords across all enabled rules
func (e *TrieRuleEngine) KeywordCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.keywords)
}

// GetRules returns a copy of the current rules
func (e *TrieRuleEngine) GetRules() []domain.ScamRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	result := make([]domain.ScamRule, len(e.rules))
	copy(result, e.rules)
	return result
}

func enabledOnly(rules []domain.ScamRule) []domain.ScamRule {
	enabled := make([]domain.ScamRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Enabled {
			enabled = append(enabled, rule)
		}
	}
	return enabled
}

func sortedKeywords(keywords map[string]float64) []string {
	out := make([]string, 0, len(keywords))
	for kw := range keywords {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

func normalizeKeyword(kw string) string {
	return strings.ToLower(strings.TrimSpace(kw))
}

func normalizeText(text string) string {
	// Lowercase and normalize unicode
	text = strings.ToLower(text)

	// Replace non-alphanumeric with spaces (preserves word boundaries)
	var result strings.Builder
	result.Grow(len(text))

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		} else {
			result.WriteByte(' ')
		}
	}

	return result.String()
}
