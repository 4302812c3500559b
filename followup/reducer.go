/*
reducer.go - Follow-up state reconstruction

TRANSITIONS:
  edit      -> replace due time with new_time if present, message with
               new_message if present (partial update)
  snooze    -> due time += duration, relative to the CURRENT accumulated due
               time; repeated snoozes compound additively
  dismissal -> dismissed=true, dismissedAt=payload.dismissed_at (terminal)

The reduced State carries the full sorted transaction history for audit
display; the scheduler also uses it for staleness checks.
*/
package followup

import (
	"encoding/json"
	"time"

	"github.com/verdant/seed-engine/engine"
)

// State is a follow-up's current state, computed on demand.
type State struct {
	ID          engine.EntityID `json:"id"`
	DueTime     time.Time       `json:"due_time"`
	Message     string          `json:"message"`
	Dismissed   bool            `json:"dismissed"`
	DismissedAt *time.Time      `json:"dismissed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`

	// Transactions is the full chronologically sorted history, kept for
	// audit display and staleness checks.
	Transactions []engine.Transaction `json:"-"`
}

// LatestTransaction returns the most recent transaction by time, or nil for
// an empty history.
func (s *State) LatestTransaction() *engine.Transaction {
	if len(s.Transactions) == 0 {
		return nil
	}
	return &s.Transactions[len(s.Transactions)-1]
}

// Reduce derives a follow-up's current state from its transaction history.
func Reduce(txs []engine.Transaction, logger engine.Logger) (*State, error) {
	f := &folder{}
	sorted, err := engine.Reduce(txs, f, logger)
	if err != nil {
		return nil, err
	}
	f.state.Transactions = sorted
	return f.state, nil
}

type folder struct {
	state *State
}

func (f *folder) Entity() string              { return "Followup" }
func (f *folder) CreationType() engine.TxType { return TxCreation }

func (f *folder) Validate(t engine.TxType, payload []byte) error {
	return ValidatePayload(t, payload)
}

func (f *folder) Init(creation engine.Transaction) error {
	var p CreationPayload
	if err := json.Unmarshal(creation.Payload, &p); err != nil {
		return engine.NewValidationError(creation.Type, "malformed creation payload: %v", err)
	}
	f.state = &State{
		ID:        creation.EntityID,
		DueTime:   p.InitialTime,
		Message:   p.Message,
		CreatedAt: creation.CreatedAt,
	}
	return nil
}

func (f *folder) Apply(tx engine.Transaction) error {
	switch tx.Type {
	case TxEdit:
		var p EditPayload
		if err := json.Unmarshal(tx.Payload, &p); err != nil {
			return err
		}
		if p.NewTime != nil {
			f.state.DueTime = *p.NewTime
		}
		if p.NewMessage != nil {
			f.state.Message = *p.NewMessage
		}

	case TxSnooze:
		var p SnoozePayload
		if err := json.Unmarshal(tx.Payload, &p); err != nil {
			return err
		}
		f.state.DueTime = f.state.DueTime.Add(p.Duration())

	case TxDismissal:
		var p DismissalPayload
		if err := json.Unmarshal(tx.Payload, &p); err != nil {
			return err
		}
		at := p.DismissedAt
		f.state.Dismissed = true
		f.state.DismissedAt = &at
	}
	return nil
}
