// service.go - Tag orchestration: append a validated transaction, re-derive state.
package tag

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/verdant/seed-engine/engine"
)

// Precondition violations surfaced to callers with fixed messages.
var (
	ErrTagNotFound  = errors.New("Tag not found")
	ErrNameRequired = errors.New("Tag name is required")
	ErrNameEmpty    = errors.New("Tag name cannot be empty")
)

// Service orchestrates tag mutations and reads.
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

// Create appends the creation transaction for a new tag and registers it
// under userID.
func (s *Service) Create(ctx context.Context, userID, name string, color *string, automationID engine.AutomationID) (*State, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameRequired
	}

	id := engine.NewEntityID()
	if err := s.append(ctx, id, TxCreation, CreationPayload{Name: name, Color: color}, automationID); err != nil {
		return nil, err
	}
	if err := s.dir.RegisterTag(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Edit renames a tag. Unlike seed content, a tag name must stay non-empty.
// The old name is recorded only when it actually changes.
func (s *Service) Edit(ctx context.Context, id engine.EntityID, name string, automationID engine.AutomationID) (*State, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameEmpty
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrTagNotFound
	}

	p := EditPayload{Name: name}
	if current.Name != name {
		old := current.Name
		p.OldName = &old
	}
	if err := s.append(ctx, id, TxEdit, p, automationID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// SetColor replaces the tag's color. A nil color clears it.
func (s *Service) SetColor(ctx context.Context, id engine.EntityID, color *string, automationID engine.AutomationID) (*State, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrTagNotFound
	}

	p := SetColorPayload{Color: color}
	if !colorEqual(current.Color, color) {
		p.OldColor = current.Color
	}
	if err := s.append(ctx, id, TxSetColor, p, automationID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// GetByID returns the tag's current state, or nil (not an error) when no
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

// GetByUser returns the current state of every tag owned by userID.
func (s *Service) GetByUser(ctx context.Context, userID string) ([]*State, error) {
	ids, err := s.dir.ListTags(ctx, userID)
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

func colorEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
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
