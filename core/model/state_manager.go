// Package model provides state management and persistence for trained models.
package model

import (
	"fmt"
	"sync"
)

// StateManager manages the fitted state of a model in a thread-safe manner.
// Estimators hold one by composition.
type StateManager struct {
	Fitted bool // Public for gob encoding
	mu     sync.RWMutex

	// Index dimensions seen at fit time - Public for gob encoding
	NUsers int
	NItems int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{
		Fitted: false,
	}
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted marks the model as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
}

// Reset resets the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NUsers = 0
	s.NItems = 0
}

// SetDimensions records the index dimensions seen during fitting.
func (s *StateManager) SetDimensions(nUsers, nItems int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NUsers = nUsers
	s.NItems = nItems
}

// GetDimensions returns the index dimensions seen during fitting.
func (s *StateManager) GetDimensions() (nUsers, nItems int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NUsers, s.NItems
}

// RequireFitted returns an error if the model has not been fitted.
func (s *StateManager) RequireFitted() error {
	if !s.IsFitted() {
		return fmt.Errorf("model has not been fitted yet. Call Fit() first")
	}
	return nil
}
