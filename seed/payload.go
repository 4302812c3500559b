/*
Package seed implements the seed entity family: capture notes ("seeds")
whose current state is derived by replaying their transaction history.

PURPOSE:
  A seed is never updated in place. Content edits, tag attachments,
  category assignment and sprout enrichments are all appended as typed
  transactions; State is recomputed on every read.

KEY CONCEPTS IN THIS FILE (payload.go):
  - The closed TxType enumeration for seeds
  - One payload struct per type (the sum type, keyed by Transaction.Type)
  - ValidatePayload: the total, side-effect-free validator

VALIDATION RULES:
  - create_seed requires non-blank content (trimmed length > 0)
  - edit_content permits empty content: users may clear a seed
  - reference additions (add_tag, set_category) require every field;
    removals require only the id
  - unknown types always raise "Unknown transaction type: <type>"

SEE ALSO:
  - reducer.go: per-type transitions
  - service.go: append-then-reduce orchestration
*/
package seed

import (
	"encoding/json"
	"strings"

	"github.com/verdant/seed-engine/engine"
)

// =============================================================================
// TRANSACTION TYPES - Closed enumeration for the seed family
// =============================================================================

const (
	TxCreateSeed     engine.TxType = "create_seed"
	TxEditContent    engine.TxType = "edit_content"
	TxAddTag         engine.TxType = "add_tag"
	TxRemoveTag      engine.TxType = "remove_tag"
	TxSetCategory    engine.TxType = "set_category"
	TxRemoveCategory engine.TxType = "remove_category"
	TxAddSprout      engine.TxType = "add_sprout"
)

// =============================================================================
// PAYLOAD SHAPES - One struct per transaction type
// =============================================================================

type CreateSeedPayload struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type EditContentPayload struct {
	Content    string  `json:"content"`
	OldContent *string `json:"old_content,omitempty"`
}

type AddTagPayload struct {
	TagID string `json:"tag_id"`
	Name  string `json:"name"`
}

type RemoveTagPayload struct {
	TagID string `json:"tag_id"`
}

type SetCategoryPayload struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Path       string `json:"path"`
}

type RemoveCategoryPayload struct {
	CategoryID string `json:"category_id"`
}

type AddSproutPayload struct {
	SproutID   string `json:"sprout_id"`
	SproutType string `json:"sprout_type,omitempty"`
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidatePayload checks payload against the rules for t. Pure; called both
// fail-fast on creation transactions and skip-on-failure mid-fold.
func ValidatePayload(t engine.TxType, payload []byte) error {
	switch t {
	case TxCreateSeed:
		var p CreateSeedPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return engine.NewValidationError(t, "malformed create_seed payload: %v", err)
		}
		if strings.TrimSpace(p.Content) == "" {
			return engine.NewValidationError(t, "Seed content is required")
		}
		return nil

	case TxEditContent:
		// Empty content is legal here: clearing a seed is a supported edit.
		var p EditContentPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return engine.NewValidationError(t, "malformed edit_content payload: %v", err)
		}
		return nil

	case TxAddTag:
		var p AddTagPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return engine.NewValidationError(t, "malformed add_tag payload: %v", err)
		}
		if p.TagID == "" || p.Name == "" {
			return engine.NewValidationError(t, "add_tag requires tag_id and name")
		}
		return nil

	case TxRemoveTag:
		var p RemoveTagPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return engine.NewValidationError(t, "malformed remove_tag payload: %v", err)
		}
		if p.TagID == "" {
			return engine.NewValidationError(t, "remove_tag requires tag_id")
		}
		return nil

	case TxSetCategory:
		var p SetCategoryPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return engine.NewValidationError(t, "malformed set_category payload: %v", err)
		}
		if p.CategoryID == "" || p.Name == "" || p.Path == "" {
			return engine.NewValidationError(t, "set_category requires category_id, name and path")
		}
		return nil

	case TxRemoveCategory:
		var p RemoveCategoryPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return engine.NewValidationError(t, "malformed remove_category payload: %v", err)
		}
		if p.CategoryID == "" {
			return engine.NewValidationError(t, "remove_category requires category_id")
		}
		return nil

	case TxAddSprout:
		var p AddSproutPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return engine.NewValidationError(t, "malformed add_sprout payload: %v", err)
		}
		if p.SproutID == "" {
			return engine.NewValidationError(t, "add_sprout requires sprout_id")
		}
		return nil

	default:
		return engine.NewUnknownTypeError(t)
	}
}
