// reducer.go - Tag state reconstruction. The shared skeleton lives in
// engine.Reduce; transitions here are a name replace and a color replace
// (including replace-to-null).
package tag

import (
	"encoding/json"
	"time"

	"github.com/verdant/seed-engine/engine"
)

// State is a tag's current state, computed on demand.
type State struct {
	ID        engine.EntityID `json:"id"`
	Name      string          `json:"name"`
	Color     *string         `json:"color"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Reduce derives a tag's current state from its transaction history.
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

func (f *folder) Entity() string              { return "Tag" }
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
		Name:      p.Name,
		Color:     p.Color,
		Metadata:  p.Metadata,
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
		f.state.Name = p.Name

	case TxSetColor:
		var p SetColorPayload
		if err := json.Unmarshal(tx.Payload, &p); err != nil {
			return err
		}
		f.state.Color = p.Color
	}
	return nil
}
