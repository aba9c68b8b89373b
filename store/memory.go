package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"safezonex-be/models"
)

// MemoryAlertStore is an in-memory AlertStore used by tests and by local
// development without a MongoDB instance.
type MemoryAlertStore struct {
	mu     sync.RWMutex
	alerts map[string]models.Alert
	order  []string
}

func NewMemoryAlertStore() *MemoryAlertStore {
	return &MemoryAlertStore{alerts: make(map[string]models.Alert)}
}

func (s *MemoryAlertStore) Create(_ context.Context, alert *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	alert.CreatedAt = now
	alert.UpdatedAt = now
	s.alerts[alert.AlertID] = *alert
	s.order = append(s.order, alert.AlertID)
	return nil
}

func (s *MemoryAlertStore) FindByID(_ context.Context, alertID string) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alert, ok := s.alerts[alertID]
	if !ok {
		return nil, ErrNotFound
	}
	alert.Status = alert.Status.Canonical()
	return &alert, nil
}

func (s *MemoryAlertStore) List(_ context.Context, filter Filter) ([]models.Alert, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Alert
	for _, id := range s.order {
		alert := s.alerts[id]
		alert.Status = alert.Status.Canonical()
		if !filter.matches(&alert) {
			continue
		}
		matched = append(matched, alert)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, total, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (s *MemoryAlertStore) UpdateStatus(_ context.Context, alertID string, update StatusUpdate) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.alerts[alertID]
	if !ok {
		return nil, ErrNotFound
	}
	if alert.Status.Terminal() {
		return nil, ErrTerminalStatus
	}

	now := time.Now()
	alert.Status = update.Status
	alert.UpdatedAt = now
	if update.Status.Terminal() {
		alert.ResolvedAt = &now
		alert.Resolution = update.Resolution
		alert.ResolvedBy = update.ResolvedBy
	}
	s.alerts[alertID] = alert
	return &alert, nil
}

func (s *MemoryAlertStore) UpdateScore(_ context.Context, alertID string, confidence int, status models.AlertStatus, priority models.AlertPriority, explanation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.alerts[alertID]
	if !ok {
		return ErrNotFound
	}
	if alert.Status.Terminal() {
		return ErrTerminalStatus
	}

	alert.Confidence = confidence
	alert.Status = status
	alert.Priority = priority
	alert.Explanation = explanation
	alert.UpdatedAt = time.Now()
	s.alerts[alertID] = alert
	return nil
}

func (f Filter) matches(alert *models.Alert) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if alert.Status == st.Canonical() {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	} else {
		for _, st := range f.ExcludeStatuses {
			if alert.Status == st.Canonical() {
				return false
			}
		}
	}
	if f.MinConfidence > 0 && alert.Confidence < f.MinConfidence {
		return false
	}
	return true
}
