package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"safezonex-be/models"
)

// The status-update and re-score writes must carry the terminal guard inside
// the query itself; a separate read-then-write would let a concurrent resolve
// slip a mutation onto a closed record.
func TestActiveAlertFilterGuardsTerminalStatuses(t *testing.T) {
	filter := activeAlertFilter("a1")

	assert.Equal(t, "a1", filter["alertId"])

	statusClause, ok := filter["status"].(bson.M)
	require.True(t, ok, "status guard must be part of the update filter")
	excluded, ok := statusClause["$nin"].([]models.AlertStatus)
	require.True(t, ok)
	assert.ElementsMatch(t, []models.AlertStatus{models.StatusResolved, models.StatusFalseAlarm}, excluded)
}

func TestWithLegacyAliases(t *testing.T) {
	out := withLegacyAliases([]models.AlertStatus{models.StatusNeedsReview, models.StatusVerified})

	assert.ElementsMatch(t, []models.AlertStatus{
		models.StatusNeedsReview, "active", "pending_review",
		models.StatusVerified, "real",
	}, out)
}
