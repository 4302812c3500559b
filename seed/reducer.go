/*
reducer.go - Seed state reconstruction

PURPOSE:
  Folds a seed's transaction history into its current displayable State.
  The shared skeleton (sorting, creation location, fatal-vs-skip policy)
  lives in engine.Reduce; this file supplies the seed-specific transitions.

TRANSITIONS:
  edit_content     -> full content replace (not a patch)
  add_tag          -> append {id,name} unless id already present (idempotent)
  remove_tag       -> filter by id (no-op if absent)
  set_category     -> REPLACE the category list with the single new category
                      ("set" semantics: one category slot)
  remove_category  -> filter by id
  add_sprout       -> no state effect; exists only for the audit trail
*/
package seed

import (
	"encoding/json"
	"time"

	"github.com/verdant/seed-engine/engine"
)

// =============================================================================
// DERIVED STATE
// =============================================================================

// TagRef is an attached tag reference, de-duplicated by ID.
type TagRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategoryRef is an attached category reference.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// State is a seed's current state, ephemeral and computed on demand.
// Never persisted as a source of truth.
type State struct {
	ID         engine.EntityID `json:"id"`
	Content    string          `json:"content"`
	Tags       []TagRef        `json:"tags"`
	Categories []CategoryRef   `json:"categories"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// =============================================================================
// REDUCER
// =============================================================================

// Reduce derives a seed's current state from its transaction history.
// Deterministic and pure given a valid creation transaction.
func Reduce(txs []engine.Transaction, logger engine.Logger) (*State, error) {
	f := &folder{}
	if _, err := engine.Reduce(txs, f, logger); err != nil {
		return nil, err
	}
	return f.state, nil
}

type folder struct {
	state *State
}

func (f *folder) Entity() string              { return "Seed" }
func (f *folder) CreationType() engine.TxType { return TxCreateSeed }

func (f *folder) Validate(t engine.TxType, payload []byte) error {
	return ValidatePayload(t, payload)
}

func (f *folder) Init(creation engine.Transaction) error {
	var p CreateSeedPayload
	if err := json.Unmarshal(creation.Payload, &p); err != nil {
		return engine.NewValidationError(creation.Type, "malformed create_seed payload: %v", err)
	}
	f.state = &State{
		ID:        creation.EntityID,
		Content:   p.Content,
		Metadata:  p.Metadata,
		CreatedAt: creation.CreatedAt,
	}
	return nil
}

func (f *folder) Apply(tx engine.Transaction) error {
	switch tx.Type {
	case TxEditContent:
		var p EditContentPayload
		if err := json.Unmarshal(tx.Payload, &p); err != nil {
			return err
		}
		f.state.Content = p.Content

	case TxAddTag:
		var p AddTagPayload
		if err := json.Unmarshal(tx.Payload, &p); err != nil {
			return err
		}
		for _, t := range f.state.Tags {
			if t.ID == p.TagID {
				return nil // already attached
			}
		}
		f.state.Tags = append(f.state.Tags, TagRef{ID: p.TagID, Name: p.Name})

	case TxRemoveTag:
		var p RemoveTagPayload
		if err := json.Unmarshal(tx.Payload, &p); err != nil {
			return err
		}
		kept := f.state.Tags[:0]
		for _, t := range f.state.Tags {
			if t.ID != p.TagID {
				kept = append(kept, t)
			}
		}
		f.state.Tags = kept

	case TxSetCategory:
		var p SetCategoryPayload
		if err := json.Unmarshal(tx.Payload, &p); err != nil {
			return err
		}
		f.state.Categories = []CategoryRef{{ID: p.CategoryID, Name: p.Name, Path: p.Path}}

	case TxRemoveCategory:
		var p RemoveCategoryPayload
		if err := json.Unmarshal(tx.Payload, &p); err != nil {
			return err
		}
		kept := f.state.Categories[:0]
		for _, c := range f.state.Categories {
			if c.ID != p.CategoryID {
				kept = append(kept, c)
			}
		}
		f.state.Categories = kept

	case TxAddSprout:
		// Audit-trail only; sprout state lives on its own entity.
	}
	return nil
}
