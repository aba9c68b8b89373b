package scoring

import (
	"fmt"
	"regexp"
	"strings"

	"safezonex-be/models"
)

// Result is the outcome of scoring a report. Confidence is a 0-100
// authenticity estimate; Status/Priority/Tag are the derived classification.
type Result struct {
	Confidence  int                  `json:"confidence"`
	Status      models.AlertStatus   `json:"status"`
	Priority    models.AlertPriority `json:"priority"`
	Tag         string               `json:"verificationTag"`
	Explanation string               `json:"explanation"`
}

const (
	baseline = 35

	highWeight   = 25
	highCap      = 50
	mediumWeight = 15
	mediumCap    = 30
	lowWeight    = 8
	lowCap       = 16

	lengthBonus     = 5
	lengthThreshold = 50
	longThreshold   = 150
	evidenceBonus   = 10
	categoryBonus   = 10

	spamPenalty = 40
	testPenalty = 40

	minConfidence = 15
	maxConfidence = 95

	// Classification thresholds (inclusive lower bounds).
	VerifiedThreshold    = 70
	NeedsReviewThreshold = 30
)

var (
	highSeverityRe = regexp.MustCompile(`\b(?:weapon|gun|knife|armed|robbery|robbed|theft|stolen|assault|attack(?:ed|ing)?|stab(?:bed|bing)?|shoot(?:ing)?|shot|kidnap(?:ped|ping)?)\b`)
	medSeverityRe  = regexp.MustCompile(`\b(?:suspicious|suspect|harass(?:ed|ment|ing)?|stalk(?:er|ing)?|vandal(?:ism|ized)?|threat(?:en|ened|ening)?|fight(?:ing)?|trespass(?:ing)?|drunk)\b`)
	lowSeverityRe  = regexp.MustCompile(`\b(?:broken|streetlight|pothole|graffiti|leak(?:ing)?|blocked|flicker(?:ing)?|damaged|hazard)\b`)

	spamRe = regexp.MustCompile(`(?:buy now|free offer|click here|limited time|discount|promo code|visit my|subscribe|follow me|check out my)`)
	testRe = regexp.MustCompile(`\b(?:test|testing|demo|sample|asdf|lorem ipsum|ignore this)\b`)

	// criticalRe escalates priority independent of the numeric score. This
	// keyword override must stay a separate path from the threshold tiers:
	// a textual "this sounds dangerous" beats a merely statistical score.
	criticalRe = regexp.MustCompile(`\b(?:gun|knife|weapon|armed|shoot(?:ing)?|shot|stab(?:bed|bing)?|assault|attack(?:ed|ing)?|kidnap(?:ped|ping)?|rape|bomb|robbery|emergency|help me)\b`)
)

// highPriorityCategories get a fixed confidence bonus.
var highPriorityCategories = map[models.AlertCategory]bool{
	models.TheftRobbery:       true,
	models.Harassment:         true,
	models.DrugActivity:       true,
	models.UnauthorizedAccess: true,
}

// Score maps a report's text and metadata to a confidence score and
// classification. Pure and deterministic; an empty description yields a valid
// low score, never an error. Unknown categories get no bonus.
func Score(description string, evidenceImages int, category models.AlertCategory) Result {
	text := strings.ToLower(description)
	confidence := baseline
	var reasons []string

	if n := uniqueMatches(highSeverityRe, text); n > 0 {
		confidence += capped(n*highWeight, highCap)
		reasons = append(reasons, fmt.Sprintf("%d high-severity term(s)", n))
	}
	if n := uniqueMatches(medSeverityRe, text); n > 0 {
		confidence += capped(n*mediumWeight, mediumCap)
		reasons = append(reasons, fmt.Sprintf("%d medium-severity term(s)", n))
	}
	if n := uniqueMatches(lowSeverityRe, text); n > 0 {
		confidence += capped(n*lowWeight, lowCap)
		reasons = append(reasons, fmt.Sprintf("%d infrastructure term(s)", n))
	}

	if len(description) > lengthThreshold {
		confidence += lengthBonus
		reasons = append(reasons, "detailed description")
	}
	if len(description) > longThreshold {
		confidence += lengthBonus
	}
	if evidenceImages > 0 {
		confidence += evidenceBonus
		reasons = append(reasons, "evidence attached")
	}
	if highPriorityCategories[category] {
		confidence += categoryBonus
		reasons = append(reasons, "high-priority category")
	}

	if spamRe.MatchString(text) {
		confidence -= spamPenalty
		reasons = append(reasons, "spam patterns")
	}
	if testRe.MatchString(text) {
		confidence -= testPenalty
		reasons = append(reasons, "test/demo patterns")
	}

	if confidence < minConfidence {
		confidence = minConfidence
	}
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	status, priority, tag := classify(confidence, text)

	explanation := "baseline score"
	if len(reasons) > 0 {
		explanation = strings.Join(reasons, ", ")
	}

	return Result{
		Confidence:  confidence,
		Status:      status,
		Priority:    priority,
		Tag:         tag,
		Explanation: explanation,
	}
}

// classify applies the tiered thresholds, then the critical-keyword override.
// The override never lifts a report out of the lowest confidence band.
func classify(confidence int, text string) (models.AlertStatus, models.AlertPriority, string) {
	var (
		status   models.AlertStatus
		priority models.AlertPriority
		tag      string
	)
	switch {
	case confidence >= VerifiedThreshold:
		status, priority, tag = models.StatusVerified, models.PriorityHigh, "Verified"
	case confidence >= NeedsReviewThreshold:
		status, priority, tag = models.StatusNeedsReview, models.PriorityMedium, "Needs Review"
	default:
		status, priority, tag = models.StatusUnverified, models.PriorityLow, "Unverified"
	}

	if confidence >= NeedsReviewThreshold && criticalRe.MatchString(text) {
		priority = models.PriorityCritical
	}

	return status, priority, tag
}

func uniqueMatches(re *regexp.Regexp, text string) int {
	matches := re.FindAllString(text, -1)
	if len(matches) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		seen[m] = true
	}
	return len(seen)
}

func capped(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}
