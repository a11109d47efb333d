package collector

import (
	"strings"
	"unicode"

	"github.com/arassiq/SafeSenior/internal/detector"
	"github.com/arassiq/SafeSenior/internal/domain"
)

// typeMarker maps article vocabulary to a scam category. Checked in
// order; the first row with a matching word wins.
type typeMarker struct {
	words    []string
	scamType domain.ScamType
	urgency  domain.Urgency
}

var typeMarkers = []typeMarker{
	{[]string{"grandchild", "bail"}, domain.ScamTypeGrandparent, domain.UrgencyHigh},
	{[]string{"irs", "tax"}, domain.ScamTypeIRS, domain.UrgencyCritical},
	{[]string{"medicare", "health"}, domain.ScamTypeMedicare, domain.UrgencyHigh},
	{[]string{"prize", "lottery"}, domain.ScamTypeLottery, domain.UrgencyMedium},
	{[]string{"tech support", "virus"}, domain.ScamTypeTechSupport, domain.UrgencyMedium},
}

// urgencyWords raise a medium-grade classification to high when the
// article leans on time pressure.
var urgencyWords = []string{"urgent", "urgently", "immediate", "immediately"}

// elderWords flag articles about elder-targeted fraud specifically.
var elderWords = []string{
	"elderly", "elder", "senior", "seniors", "grandparent", "grandparents",
	"grandma", "grandmother", "retiree", "retirees", "medicare", "aarp",
}

// Classify fills in the classification fields an article arrived without.
// Fields already set by the source are kept as delivered.
func Classify(article *domain.Article) {
	text := article.SearchText()
	if article.Content != "" {
		text += " " + article.Content
	}

	if len(article.Indicators) == 0 {
		article.Indicators = detector.ExtractIndicators(text)
	}

	words := normalizeWords(text)

	scamType, urgency := classifyWords(words)
	if article.ScamType == "" {
		article.ScamType = scamType
	}
	if article.Urgency == "" {
		article.Urgency = urgency
	}
	if !article.ElderlySpecific {
		article.ElderlySpecific = hasAnyMarker(words, elderWords)
	}
}

func classifyWords(words string) (domain.ScamType, domain.Urgency) {
	for _, marker := range typeMarkers {
		if hasAnyMarker(words, marker.words) {
			return marker.scamType, bumpUrgency(words, marker.urgency)
		}
	}
	return domain.ScamTypeGeneralFraud, bumpUrgency(words, domain.UrgencyMedium)
}

func bumpUrgency(words string, urgency domain.Urgency) domain.Urgency {
	if urgency == domain.UrgencyMedium && hasAnyMarker(words, urgencyWords) {
		return domain.UrgencyHigh
	}
	return urgency
}

// normalizeWords lowercases the text and collapses every run of
// non-alphanumeric characters to a single space, so markers match whole
// words only. Substring matching would tag every article containing
// "first" as an IRS story.
func normalizeWords(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 2)
	b.WriteByte(' ')

	inSpace := true
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			inSpace = false
			continue
		}
		if !inSpace {
			b.WriteByte(' ')
			inSpace = true
		}
	}
	if !inSpace {
		b.WriteByte(' ')
	}
	return b.String()
}

func hasAnyMarker(words string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(words, " "+marker+" ") {
			return true
		}
	}
	return false
}
