// Package store provides in-memory Store and Directory implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/verdant/seed-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	transactions map[engine.EntityID][]engine.Transaction

	seedsByUser     map[string][]engine.EntityID
	tagsByUser      map[string][]engine.EntityID
	followupsBySeed map[engine.EntityID][]engine.EntityID
	userOrder       []string
}

func NewMemory() *Memory {
	return &Memory{
		transactions:    make(map[engine.EntityID][]engine.Transaction),
		seedsByUser:     make(map[string][]engine.EntityID),
		tagsByUser:      make(map[string][]engine.EntityID),
		followupsBySeed: make(map[engine.EntityID][]engine.EntityID),
	}
}

// Append adds a single transaction. Append-only.
func (m *Memory) Append(_ context.Context, tx engine.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	txs := m.transactions[tx.EntityID]

	// Insert in chronological position so reads come back ordered.
	i := sort.Search(len(txs), func(i int) bool {
		return txs[i].CreatedAt.After(tx.CreatedAt)
	})
	txs = append(txs, engine.Transaction{})
	copy(txs[i+1:], txs[i:])
	txs[i] = tx
	m.transactions[tx.EntityID] = txs
	return nil
}

func (m *Memory) ListByEntity(_ context.Context, entityID engine.EntityID) ([]engine.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]engine.Transaction, len(m.transactions[entityID]))
	copy(result, m.transactions[entityID])
	return result, nil
}

func (m *Memory) ListByEntities(_ context.Context, entityIDs []engine.EntityID) (map[engine.EntityID][]engine.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[engine.EntityID][]engine.Transaction, len(entityIDs))
	for _, id := range entityIDs {
		if txs, ok := m.transactions[id]; ok {
			cp := make([]engine.Transaction, len(txs))
			copy(cp, txs)
			result[id] = cp
		}
	}
	return result, nil
}

// =============================================================================
// MEMORY DIRECTORY
// =============================================================================

func (m *Memory) RegisterSeed(_ context.Context, userID string, seedID engine.EntityID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, known := m.seedsByUser[userID]; !known {
		m.userOrder = append(m.userOrder, userID)
	}
	m.seedsByUser[userID] = append(m.seedsByUser[userID], seedID)
	return nil
}

func (m *Memory) RegisterTag(_ context.Context, userID string, tagID engine.EntityID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tagsByUser[userID] = append(m.tagsByUser[userID], tagID)
	return nil
}

func (m *Memory) RegisterFollowup(_ context.Context, seedID, followupID engine.EntityID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.followupsBySeed[seedID] = append(m.followupsBySeed[seedID], followupID)
	return nil
}

func (m *Memory) ListUsers(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]string, len(m.userOrder))
	copy(users, m.userOrder)
	return users, nil
}

func (m *Memory) ListSeeds(_ context.Context, userID string) ([]engine.EntityID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyIDs(m.seedsByUser[userID]), nil
}

func (m *Memory) ListTags(_ context.Context, userID string) ([]engine.EntityID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyIDs(m.tagsByUser[userID]), nil
}

func (m *Memory) ListFollowups(_ context.Context, seedID engine.EntityID) ([]engine.EntityID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyIDs(m.followupsBySeed[seedID]), nil
}

func copyIDs(ids []engine.EntityID) []engine.EntityID {
	if len(ids) == 0 {
		return nil
	}
	cp := make([]engine.EntityID, len(ids))
	copy(cp, ids)
	return cp
}
