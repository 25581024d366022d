package alert

import (
	"price-alert-bot/internal/types"
	"sync"
)

// Registry holds pending alerts per user in memory
type Registry struct {
	mu     sync.RWMutex
	alerts map[types.UserID][]types.Alert
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		alerts: make(map[types.UserID][]types.Alert),
	}
}

// Add appends an alert to the user's collection
func (r *Registry) Add(user types.UserID, a types.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.alerts[user] = append(r.alerts[user], a)
}

// Remove deletes the first alert equal to a. It reports whether anything was removed.
func (r *Registry) Remove(user types.UserID, a types.Alert) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.alerts[user]
	for i, existing := range current {
		if existing != a {
			continue
		}

		if len(current) == 1 {
			delete(r.alerts, user)
			return true
		}

		// Build a fresh slice so a previously handed-out backing array is never shifted
		next := make([]types.Alert, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		r.alerts[user] = next
		return true
	}
	return false
}

// Snapshot returns a deep copy of all pending alerts
func (r *Registry) Snapshot() map[types.UserID][]types.Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[types.UserID][]types.Alert, len(r.alerts))
	for user, alerts := range r.alerts {
		snapshot[user] = append([]types.Alert(nil), alerts...)
	}
	return snapshot
}

// List returns a copy of the user's pending alerts
func (r *Registry) List(user types.UserID) []types.Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]types.Alert(nil), r.alerts[user]...)
}

// Len returns the number of pending alerts across all users
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, alerts := range r.alerts {
		total += len(alerts)
	}
	return total
}
