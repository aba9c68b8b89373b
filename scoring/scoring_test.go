package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"safezonex-be/models"
)

func TestScoreArmedRobberyReport(t *testing.T) {
	result := Score("Armed robbery in progress near the main library entrance, suspect has a gun", 0, models.TheftRobbery)

	assert.Equal(t, 95, result.Confidence)
	assert.Equal(t, models.StatusVerified, result.Status)
	assert.Equal(t, models.PriorityCritical, result.Priority)
	assert.Equal(t, "Verified", result.Tag)
}

func TestScoreTestDemoReport(t *testing.T) {
	result := Score("just testing this demo", 0, models.OtherCategory)

	assert.Equal(t, 15, result.Confidence)
	assert.Equal(t, models.StatusUnverified, result.Status)
	assert.Equal(t, models.PriorityLow, result.Priority)
	assert.Equal(t, "Unverified", result.Tag)
}

func TestScoreSpamReport(t *testing.T) {
	result := Score("buy now limited time discount on watches", 0, models.OtherCategory)

	assert.Equal(t, 15, result.Confidence)
	assert.Equal(t, models.StatusUnverified, result.Status)
}

func TestScoreEmptyDescription(t *testing.T) {
	result := Score("", 0, models.OtherCategory)

	assert.Equal(t, 35, result.Confidence)
	assert.Equal(t, models.StatusNeedsReview, result.Status)
	assert.Equal(t, models.PriorityMedium, result.Priority)
	assert.Equal(t, "baseline score", result.Explanation)
}

func TestScoreEvidenceBonus(t *testing.T) {
	without := Score("someone took my bag", 0, models.OtherCategory)
	with := Score("someone took my bag", 2, models.OtherCategory)

	assert.Equal(t, evidenceBonus, with.Confidence-without.Confidence)
}

func TestScoreHighSeverityCap(t *testing.T) {
	// Four distinct high-severity terms, but the class contribution is capped.
	result := Score("gun knife armed robbery", 0, models.OtherCategory)

	assert.Equal(t, baseline+highCap, result.Confidence)
	assert.Equal(t, models.StatusVerified, result.Status)
	assert.Equal(t, models.PriorityCritical, result.Priority)
}

func TestScoreRepeatedKeywordCountsOnce(t *testing.T) {
	once := Score("gun", 0, models.OtherCategory)
	twice := Score("gun gun gun", 0, models.OtherCategory)

	assert.Equal(t, once.Confidence, twice.Confidence)
}

func TestScoreLengthBonuses(t *testing.T) {
	short := Score(strings.Repeat("a", 40), 0, models.OtherCategory)
	medium := Score(strings.Repeat("a", 60), 0, models.OtherCategory)
	long := Score(strings.Repeat("a", 200), 0, models.OtherCategory)

	assert.Equal(t, lengthBonus, medium.Confidence-short.Confidence)
	assert.Equal(t, 2*lengthBonus, long.Confidence-short.Confidence)
}

func TestScoreCategoryBonus(t *testing.T) {
	plain := Score("saw something odd", 0, models.SafetyHazard)
	boosted := Score("saw something odd", 0, models.Harassment)

	assert.Equal(t, categoryBonus, boosted.Confidence-plain.Confidence)
}

func TestClassifyThresholdBoundaries(t *testing.T) {
	cases := []struct {
		confidence int
		status     models.AlertStatus
		priority   models.AlertPriority
	}{
		{70, models.StatusVerified, models.PriorityHigh},
		{69, models.StatusNeedsReview, models.PriorityMedium},
		{30, models.StatusNeedsReview, models.PriorityMedium},
		{29, models.StatusUnverified, models.PriorityLow},
	}
	for _, tc := range cases {
		status, priority, _ := classify(tc.confidence, "nothing alarming")
		assert.Equal(t, tc.status, status, "confidence %d", tc.confidence)
		assert.Equal(t, tc.priority, priority, "confidence %d", tc.confidence)
	}
}

func TestClassifyCriticalKeywordOverride(t *testing.T) {
	_, priority, _ := classify(45, "man with a gun")
	assert.Equal(t, models.PriorityCritical, priority)

	// The override never lifts a report out of the lowest band.
	_, priority, _ = classify(29, "man with a gun")
	assert.Equal(t, models.PriorityLow, priority)

	// Status is untouched by the override.
	status, _, tag := classify(45, "man with a gun")
	assert.Equal(t, models.StatusNeedsReview, status)
	assert.Equal(t, "Needs Review", tag)
}
