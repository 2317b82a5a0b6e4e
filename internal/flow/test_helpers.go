package flow

import (
	"github.com/naapim/naapim/internal/store"
)

// NewMockStateManager creates a mock state manager for testing
func NewMockStateManager() StateManager {
	return NewStoreBasedStateManager(store.NewInMemoryStore())
}
