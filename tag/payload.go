/*
Package tag implements the tag entity family. Like seeds, tags are never
updated in place: renames and color changes are appended as transactions and
current state is recomputed by replay.

VALIDATION RULES:
  - creation requires a non-blank name; color may be null or a string
  - edit does NOT allow an empty name: a tag must always stay nameable,
    unlike seed content which users may clear
  - set_color accepts null (clear the color) or a string; any other JSON
    type fails to decode and raises
*/
package tag

import (
	"encoding/json"
	"strings"

	"github.com/verdant/seed-engine/engine"
)

// =============================================================================
// TRANSACTION TYPES - Closed enumeration for the tag family
// =============================================================================

const (
	TxCreation engine.TxType = "creation"
	TxEdit     engine.TxType = "edit"
	TxSetColor engine.TxType = "set_color"
)

// =============================================================================
// PAYLOAD SHAPES
// =============================================================================

type CreationPayload struct {
	Name     string         `json:"name"`
	Color    *string        `json:"color"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type EditPayload struct {
	Name    string  `json:"name"`
	OldName *string `json:"old_name,omitempty"`
}

type SetColorPayload struct {
	Color    *string `json:"color"`
	OldColor *string `json:"old_color,omitempty"`
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidatePayload checks payload against the rules for t.
func ValidatePayload(t engine.TxType, payload []byte) error {
	switch t {
	case TxCreation:
		var p CreationPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return engine.NewValidationError(t, "malformed creation payload: %v", err)
		}
		if strings.TrimSpace(p.Name) == "" {
			return engine.NewValidationError(t, "Tag name is required")
		}
		return nil

	case TxEdit:
		var p EditPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return engine.NewValidationError(t, "malformed edit payload: %v", err)
		}
		if strings.TrimSpace(p.Name) == "" {
			return engine.NewValidationError(t, "Tag name cannot be empty")
		}
		return nil

	case TxSetColor:
		var p SetColorPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return engine.NewValidationError(t, "malformed set_color payload: %v", err)
		}
		return nil

	default:
		return engine.NewUnknownTypeError(t)
	}
}
