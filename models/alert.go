package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AlertCategory enum
type AlertCategory string

const (
	SuspiciousPerson   AlertCategory = "Suspicious Person"
	TheftRobbery       AlertCategory = "Theft/Robbery"
	Vandalism          AlertCategory = "Vandalism"
	DrugActivity       AlertCategory = "Drug Activity"
	Harassment         AlertCategory = "Harassment"
	SafetyHazard       AlertCategory = "Safety Hazard"
	UnauthorizedAccess AlertCategory = "Unauthorized Access"
	OtherCategory      AlertCategory = "Other"
)

// ValidCategories is the accepted category set; anything else falls back to Other.
var ValidCategories = map[AlertCategory]bool{
	SuspiciousPerson:   true,
	TheftRobbery:       true,
	Vandalism:          true,
	DrugActivity:       true,
	Harassment:         true,
	SafetyHazard:       true,
	UnauthorizedAccess: true,
	OtherCategory:      true,
}

// AlertStatus enum. This is the canonical set; older records may still carry
// values accumulated over the system's evolution (active, pending_review, real)
// and are normalized on read via Canonical.
type AlertStatus string

const (
	StatusVerified      AlertStatus = "verified"
	StatusNeedsReview   AlertStatus = "needs_review"
	StatusUnverified    AlertStatus = "unverified"
	StatusInvestigating AlertStatus = "investigating"
	StatusResolved      AlertStatus = "resolved"
	StatusFalseAlarm    AlertStatus = "false_alarm"
)

// Canonical maps legacy persisted status values onto the canonical enum.
func (s AlertStatus) Canonical() AlertStatus {
	switch s {
	case "active", "pending_review":
		return StatusNeedsReview
	case "real":
		return StatusVerified
	case StatusVerified, StatusNeedsReview, StatusUnverified,
		StatusInvestigating, StatusResolved, StatusFalseAlarm:
		return s
	default:
		return StatusNeedsReview
	}
}

// Terminal reports accept no further transitions or automatic scoring.
func (s AlertStatus) Terminal() bool {
	c := s.Canonical()
	return c == StatusResolved || c == StatusFalseAlarm
}

// ValidStatuses for dashboard-issued updates.
var ValidStatuses = map[AlertStatus]bool{
	StatusVerified:      true,
	StatusNeedsReview:   true,
	StatusUnverified:    true,
	StatusInvestigating: true,
	StatusResolved:      true,
	StatusFalseAlarm:    true,
}

// AlertPriority enum
type AlertPriority string

const (
	PriorityLow      AlertPriority = "low"
	PriorityMedium   AlertPriority = "medium"
	PriorityHigh     AlertPriority = "high"
	PriorityCritical AlertPriority = "critical"
)

// Location is a report's geolocation
type Location struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
	Address   string  `bson:"address,omitempty" json:"address,omitempty"`
	Campus    string  `bson:"campus,omitempty" json:"campus,omitempty"`
}

// Alert represents a submitted safety incident report
type Alert struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	AlertID         string             `bson:"alertId" json:"alertId"`
	UserID          string             `bson:"userId" json:"userId"`
	UserName        string             `bson:"userName" json:"userName"`
	UserPhone       string             `bson:"userPhone" json:"userPhone"`
	Description     string             `bson:"description" json:"description"`
	Location        Location           `bson:"location" json:"location"`
	Category        AlertCategory      `bson:"alertType" json:"alertType"`
	EvidenceImages  []string           `bson:"evidenceImages,omitempty" json:"evidenceImages,omitempty"`
	Confidence      int                `bson:"confidence" json:"confidence"`
	Status          AlertStatus        `bson:"status" json:"status"`
	Priority        AlertPriority      `bson:"priority" json:"priority"`
	VerificationTag string             `bson:"verificationTag" json:"verificationTag"`
	Explanation     string             `bson:"explanation,omitempty" json:"explanation,omitempty"`
	Resolution      string             `bson:"resolution,omitempty" json:"resolution,omitempty"`
	ResolvedBy      string             `bson:"resolvedBy,omitempty" json:"resolvedBy,omitempty"`
	ResolvedAt      *time.Time         `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
