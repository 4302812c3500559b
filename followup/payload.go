/*
Package followup implements the follow-up entity family: reminders attached
to seeds, with a due time that moves under edits and snoozes and a terminal
dismissal flag. Current state is derived by replaying the transaction
history; the full sorted history is kept on the state for audit display.

TIME SEMANTICS:
  Snooze durations are wall-clock minutes, applied additively to the
  CURRENT accumulated due time (after prior edits and snoozes), never to the
  original creation time. Durations decode through decimal.Decimal so
  fractional minutes coming off the wire survive exactly.

VALIDATION RULES:
  - creation requires a due time and a non-blank message
  - edit is a partial update: new_time and new_message are each optional
  - dismissal requires a dismissed_at timestamp
  - snooze requires a positive duration and a known method
*/
package followup

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/verdant/seed-engine/engine"
)

// =============================================================================
// TRANSACTION TYPES - Closed enumeration for the follow-up family
// =============================================================================

const (
	TxCreation  engine.TxType = "creation"
	TxEdit      engine.TxType = "edit"
	TxDismissal engine.TxType = "dismissal"
	TxSnooze    engine.TxType = "snooze"
)

// SnoozeMethod records whether a snooze came from the user or the scheduler.
type SnoozeMethod string

const (
	MethodManual    SnoozeMethod = "manual"
	MethodAutomatic SnoozeMethod = "automatic"
)

// =============================================================================
// PAYLOAD SHAPES
// =============================================================================

type CreationPayload struct {
	InitialTime time.Time `json:"initial_time"`
	Message     string    `json:"message"`
}

// EditPayload is a partial update: each new_* field is independently
// optional. old_* fields are present only when the value actually changed.
type EditPayload struct {
	NewTime    *time.Time `json:"new_time,omitempty"`
	NewMessage *string    `json:"new_message,omitempty"`
	OldTime    *time.Time `json:"old_time,omitempty"`
	OldMessage *string    `json:"old_message,omitempty"`
}

type DismissalPayload struct {
	DismissedAt   time.Time `json:"dismissed_at"`
	DismissalType string    `json:"dismissal_type,omitempty"`
}

type SnoozePayload struct {
	DurationMinutes decimal.Decimal `json:"duration_minutes"`
	Method          SnoozeMethod    `json:"method,omitempty"`
}

// Duration converts the snooze amount to a wall-clock duration. Decimal
// multiplication keeps fractional minutes exact down to the nanosecond.
func (p SnoozePayload) Duration() time.Duration {
	nanos := p.DurationMinutes.Mul(decimal.NewFromInt(int64(time.Minute)))
	return time.Duration(nanos.IntPart())
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
		if p.InitialTime.IsZero() {
			return engine.NewValidationError(t, "Followup due time is required")
		}
		if strings.TrimSpace(p.Message) == "" {
			return engine.NewValidationError(t, "Followup message is required")
		}
		return nil

	case TxEdit:
		var p EditPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return engine.NewValidationError(t, "malformed edit payload: %v", err)
		}
		return nil

	case TxDismissal:
		var p DismissalPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return engine.NewValidationError(t, "malformed dismissal payload: %v", err)
		}
		if p.DismissedAt.IsZero() {
			return engine.NewValidationError(t, "dismissal requires dismissed_at")
		}
		return nil

	case TxSnooze:
		var p SnoozePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return engine.NewValidationError(t, "malformed snooze payload: %v", err)
		}
		if !p.DurationMinutes.IsPositive() {
			return engine.NewValidationError(t, "snooze requires a positive duration_minutes")
		}
		if p.Method != "" && p.Method != MethodManual && p.Method != MethodAutomatic {
			return engine.NewValidationError(t, "snooze method must be manual or automatic")
		}
		return nil

	default:
		return engine.NewUnknownTypeError(t)
	}
}
