package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestPendingCodeFilterKeysByPurpose(t *testing.T) {
	filter := pendingCodeFilter("aisha@campus.edu", "password_reset")

	assert.Equal(t, bson.M{
		"email":   "aisha@campus.edu",
		"purpose": "password_reset",
		"isUsed":  false,
	}, filter)
}

func TestPendingCodeFilterDefaultsPurpose(t *testing.T) {
	filter := pendingCodeFilter("aisha@campus.edu", "")

	assert.Equal(t, defaultCodePurpose, filter["purpose"],
		"issue and verify must resolve the same default purpose")
}
