// Package store is the persistence facade for alert records.
package store

import (
	"context"
	"errors"

	"safezonex-be/models"
)

var (
	// ErrNotFound signals an operation on an alert id that does not exist.
	ErrNotFound = errors.New("alert not found")
	// ErrTerminalStatus signals a status update on a resolved or
	// false-alarm record.
	ErrTerminalStatus = errors.New("alert is in a terminal status")
)

// Filter selects alerts for listing. The zero value returns everything
// newest-first; DefaultFilter returns the dashboard's "currently actionable"
// view.
type Filter struct {
	Statuses        []models.AlertStatus
	ExcludeStatuses []models.AlertStatus
	MinConfidence   int
	Limit           int
	Offset          int
}

// DefaultFilter excludes terminal records, matching the dashboard view.
func DefaultFilter() Filter {
	return Filter{
		ExcludeStatuses: []models.AlertStatus{models.StatusResolved, models.StatusFalseAlarm},
		Limit:           50,
	}
}

// StatusUpdate is a dashboard-issued transition.
type StatusUpdate struct {
	Status     models.AlertStatus
	Resolution string
	ResolvedBy string
}

// AlertStore persists and queries alert records. Timestamps are assigned by
// the store at write time, never trusted from the caller's record.
type AlertStore interface {
	Create(ctx context.Context, alert *models.Alert) error
	FindByID(ctx context.Context, alertID string) (*models.Alert, error)
	List(ctx context.Context, filter Filter) ([]models.Alert, int64, error)
	UpdateStatus(ctx context.Context, alertID string, update StatusUpdate) (*models.Alert, error)
	UpdateScore(ctx context.Context, alertID string, confidence int, status models.AlertStatus, priority models.AlertPriority, explanation string) error
}
