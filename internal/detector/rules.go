package detector

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arassiq/SafeSenior/internal/domain"
)

type rulesFile struct {
	Rules []domain.ScamRule `yaml:"rules"`
}

// LoadRulesFile reads and validates a YAML rule set.
func LoadRulesFile(path string) ([]domain.ScamRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file %s: %w", path, err)
	}

	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if len(rf.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s defines no rules", path)
	}

	for i := range rf.Rules {
		if err := validateRule(&rf.Rules[i]); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return rf.Rules, nil
}

func validateRule(rule *domain.ScamRule) error {
	if rule.Name == "" {
		return fmt.Errorf("missing name")
	}
	if !rule.ScamType.IsValid() {
		return fmt.Errorf("%s: unknown scam type %q", rule.Name, rule.ScamType)
	}
	if rule.Urgency == "" {
		rule.Urgency = domain.UrgencyMedium
	}
	if len(rule.Keywords) == 0 {
		return fmt.Errorf("%s: no keywords", rule.Name)
	}
	for kw, weight := range rule.Keywords {
		if weight <= 0 || weight > 1 {
			return fmt.Errorf("%s: keyword %q has weight %v outside (0, 1]", rule.Name, kw, weight)
		}
	}
	return nil
}

// DefaultRules is the built-in rule set, mirrored in config/rules.yml.
// Used when no rules file is configured or the configured one fails to load.
func DefaultRules() []domain.ScamRule {
	return []domain.ScamRule{
		{
			Name:     "irs-impersonation",
			ScamType: domain.ScamTypeIRS,
			Urgency:  domain.UrgencyCritical,
			Priority: 100,
			Enabled:  true,
			Keywords: map[string]float64{
				"irs":            0.4,
				"irs agent":      0.5,
				"back taxes":     0.4,
				"unpaid taxes":   0.4,
				"tax fraud":      0.35,
				"arrest":         0.3,
				"arrest warrant": 0.5,
			},
		},
		{
			Name:     "grandparent-emergency",
			ScamType: domain.ScamTypeGrandparent,
			Urgency:  domain.UrgencyCritical,
			Priority: 90,
			Enabled:  true,
			Keywords: map[string]float64{
				"grandma":       0.25,
				"grandpa":       0.25,
				"grandson":      0.25,
				"granddaughter": 0.25,
				"bail":          0.45,
				"in trouble":    0.3,
				"need money":    0.3,
			},
		},
		{
			Name:     "medicare-benefits",
			ScamType: domain.ScamTypeMedicare,
			Urgency:  domain.UrgencyHigh,
			Priority: 80,
			Enabled:  true,
			Keywords: map[string]float64{
				"medicare":                 0.35,
				"medicare representative":  0.5,
				"social security":          0.35,
				"verify your social":       0.45,
				"benefits will be stopped": 0.4,
			},
		},
		{
			Name:     "lottery-prize",
			ScamType: domain.ScamTypeLottery,
			Urgency:  domain.UrgencyHigh,
			Priority: 70,
			Enabled:  true,
			Keywords: map[string]float64{
				"lottery":         0.35,
				"sweepstakes":     0.35,
				"prize":           0.3,
				"winner":          0.3,
				"million dollars": 0.3,
				"processing fee":  0.4,
				"congratulations": 0.2,
			},
		},
		{
			Name:     "tech-support",
			ScamType: domain.ScamTypeTechSupport,
			Urgency:  domain.UrgencyHigh,
			Priority: 60,
			Enabled:  true,
			Keywords: map[string]float64{
				"virus":             0.25,
				"virus alert":       0.5,
				"microsoft support": 0.4,
				"remote access":     0.4,
				"tech support":      0.3,
				"computer infected": 0.4,
			},
		},
		{
			Name:     "payment-pressure",
			ScamType: domain.ScamTypeGeneralFraud,
			Urgency:  domain.UrgencyHigh,
			Priority: 50,
			Enabled:  true,
			Keywords: map[string]float64{
				"gift card":         0.35,
				"wire transfer":     0.3,
				"western union":     0.3,
				"bitcoin":           0.3,
				"bank account":      0.3,
				"immediate payment": 0.3,
				"do not hang up":    0.35,
			},
		},
		{
			Name:     "urgency-language",
			ScamType: domain.ScamTypeGeneralFraud,
			Urgency:  domain.UrgencyMedium,
			Priority: 10,
			Enabled:  true,
			Keywords: map[string]float64{
				"urgent":       0.1,
				"act now":      0.1,
				"limited time": 0.1,
				"verify":       0.1,
				"winner":       0.1,
				"prize":        0.1,
			},
		},
	}
}
