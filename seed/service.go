/*
service.go - Seed orchestration: append a validated transaction, re-derive state

PURPOSE:
  Thin orchestration over the reducer and the transaction store. Every
  mutating operation is append-then-read; no in-place update ever occurs.
  Store errors propagate unchanged - durability is the store's job.
*/
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/verdant/seed-engine/engine"
)

// Precondition violations surfaced to callers with fixed messages.
var (
	ErrSeedNotFound    = errors.New("Seed not found")
	ErrContentRequired = errors.New("Seed content is required")
)

// Service orchestrates seed mutations and reads.
type Service struct {
	store  engine.Store
	dir    engine.Directory
	clock  engine.Clock
	logger engine.Logger
}

func NewService(store engine.Store, dir engine.Directory, clock engine.Clock, logger engine.Logger) *Service {
	if clock == nil {
		clock = engine.SystemClock{}
	}
	if logger == nil {
		logger = engine.NopLogger{}
	}
	return &Service{store: store, dir: dir, clock: clock, logger: logger}
}

// =============================================================================
// MUTATIONS - append a transaction, then re-reduce
// =============================================================================

// Create appends the creation transaction for a new seed, registers it under
// userID, and returns the freshly reduced state.
func (s *Service) Create(ctx context.Context, userID, content string, metadata map[string]any, automationID engine.AutomationID) (*State, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrContentRequired
	}

	id := engine.NewEntityID()
	if err := s.append(ctx, id, TxCreateSeed, CreateSeedPayload{Content: content, Metadata: metadata}, automationID); err != nil {
		return nil, err
	}
	if err := s.dir.RegisterSeed(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// EditContent replaces a seed's content. Empty content is allowed: users may
// clear a seed. The old content is recorded only when it actually changes,
// to keep audit payloads minimal.
func (s *Service) EditContent(ctx context.Context, id engine.EntityID, content string, automationID engine.AutomationID) (*State, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrSeedNotFound
	}

	p := EditContentPayload{Content: content}
	if current.Content != content {
		old := current.Content
		p.OldContent = &old
	}
	if err := s.append(ctx, id, TxEditContent, p, automationID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// AddTag attaches a tag reference. The reducer is idempotent on tag ids, so
// re-adding an attached tag is harmless.
func (s *Service) AddTag(ctx context.Context, id engine.EntityID, tagID, name string, automationID engine.AutomationID) (*State, error) {
	if err := s.requireExists(ctx, id); err != nil {
		return nil, err
	}
	if err := s.append(ctx, id, TxAddTag, AddTagPayload{TagID: tagID, Name: name}, automationID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// RemoveTag detaches a tag reference. No-op if the tag is not attached.
func (s *Service) RemoveTag(ctx context.Context, id engine.EntityID, tagID string, automationID engine.AutomationID) (*State, error) {
	if err := s.requireExists(ctx, id); err != nil {
		return nil, err
	}
	if err := s.append(ctx, id, TxRemoveTag, RemoveTagPayload{TagID: tagID}, automationID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// SetCategory replaces the seed's category slot with the given category.
func (s *Service) SetCategory(ctx context.Context, id engine.EntityID, category CategoryRef, automationID engine.AutomationID) (*State, error) {
	if err := s.requireExists(ctx, id); err != nil {
		return nil, err
	}
	p := SetCategoryPayload{CategoryID: category.ID, Name: category.Name, Path: category.Path}
	if err := s.append(ctx, id, TxSetCategory, p, automationID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// RemoveCategory clears a category by id.
func (s *Service) RemoveCategory(ctx context.Context, id engine.EntityID, categoryID string, automationID engine.AutomationID) (*State, error) {
	if err := s.requireExists(ctx, id); err != nil {
		return nil, err
	}
	if err := s.append(ctx, id, TxRemoveCategory, RemoveCategoryPayload{CategoryID: categoryID}, automationID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// RecordSprout appends the audit-trail transaction noting that a sprout
// (follow-up, external reference, ...) was attached to this seed. It has no
// effect on the seed's derived state.
func (s *Service) RecordSprout(ctx context.Context, id engine.EntityID, sproutID, sproutType string, automationID engine.AutomationID) error {
	return s.append(ctx, id, TxAddSprout, AddSproutPayload{SproutID: sproutID, SproutType: sproutType}, automationID)
}

// =============================================================================
// READS - fetch transactions, reduce, return
// =============================================================================

// GetByID returns the seed's current state, or nil (not an error) when no
// transactions exist for the id.
func (s *Service) GetByID(ctx context.Context, id engine.EntityID) (*State, error) {
	txs, err := s.store.ListByEntity(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, nil
	}
	return Reduce(txs, s.logger)
}

// GetByUser returns the current state of every seed owned by userID, using
// one batched transaction fetch.
func (s *Service) GetByUser(ctx context.Context, userID string) ([]*State, error) {
	ids, err := s.dir.ListSeeds(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	byEntity, err := s.store.ListByEntities(ctx, ids)
	if err != nil {
		return nil, err
	}

	states := make([]*State, 0, len(ids))
	for _, id := range ids {
		txs := byEntity[id]
		if len(txs) == 0 {
			continue
		}
		st, err := Reduce(txs, s.logger)
		if err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	return states, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

func (s *Service) requireExists(ctx context.Context, id engine.EntityID) error {
	txs, err := s.store.ListByEntity(ctx, id)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		return ErrSeedNotFound
	}
	return nil
}

func (s *Service) append(ctx context.Context, id engine.EntityID, t engine.TxType, payload any, automationID engine.AutomationID) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.store.Append(ctx, engine.Transaction{
		ID:           engine.NewTransactionID(),
		EntityID:     id,
		Type:         t,
		Payload:      raw,
		CreatedAt:    s.clock.Now(),
		AutomationID: automationID,
	})
}
