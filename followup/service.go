/*
service.go - Follow-up orchestration

PURPOSE:
  Append-then-read orchestration for follow-ups, plus the due-detection read
  path the scheduler drives. Creating a follow-up is the one place where a
  mutation on one entity family causes a side-effecting append on another:
  the parent seed receives an add_sprout audit transaction. The two appends
  are sequential, not atomic; a failed seed-side append is logged and the
  create still succeeds (the entity is intact, only the parent audit record
  is missing).
*/
package followup

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/verdant/seed-engine/engine"
	"github.com/verdant/seed-engine/seed"
)

// Precondition violations surfaced to callers with fixed messages.
var (
	ErrFollowupNotFound = errors.New("Followup not found")
	ErrEditDismissed    = errors.New("Cannot edit dismissed followup")
	ErrSnoozeDismissed  = errors.New("Cannot snooze dismissed followup")
	ErrAlreadyDismissed = errors.New("Followup already dismissed")
	ErrDueTimeRequired  = errors.New("Followup due time is required")
	ErrMessageRequired  = errors.New("Followup message is required")
)

// DueFollowup is the lightweight notification record projected for due,
// undismissed follow-ups.
type DueFollowup struct {
	FollowupID engine.EntityID `json:"followup_id"`
	SeedID     engine.EntityID `json:"seed_id"`
	UserID     string          `json:"user_id"`
	DueTime    time.Time       `json:"due_time"`
	Message    string          `json:"message"`
}

// Service orchestrates follow-up mutations and reads.
type Service struct {
	store  engine.Store
	dir    engine.Directory
	seeds  *seed.Service
	clock  engine.Clock
	logger engine.Logger
}

func NewService(store engine.Store, dir engine.Directory, seeds *seed.Service, clock engine.Clock, logger engine.Logger) *Service {
	if clock == nil {
		clock = engine.SystemClock{}
	}
	if logger == nil {
		logger = engine.NopLogger{}
	}
	return &Service{store: store, dir: dir, seeds: seeds, clock: clock, logger: logger}
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Create appends the creation transaction for a new follow-up under seedID
// and records an add_sprout audit transaction on the seed. The seed-side
// append is best-effort-sequential: its failure is logged, not returned.
func (s *Service) Create(ctx context.Context, seedID engine.EntityID, dueTime time.Time, message string, automationID engine.AutomationID) (*State, error) {
	if dueTime.IsZero() {
		return nil, ErrDueTimeRequired
	}
	if strings.TrimSpace(message) == "" {
		return nil, ErrMessageRequired
	}

	parent, err := s.seeds.GetByID(ctx, seedID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, seed.ErrSeedNotFound
	}

	id := engine.NewEntityID()
	p := CreationPayload{InitialTime: dueTime, Message: message}
	if err := s.append(ctx, id, TxCreation, p, automationID); err != nil {
		return nil, err
	}
	if err := s.dir.RegisterFollowup(ctx, seedID, id); err != nil {
		return nil, err
	}

	// Cross-entity audit record on the parent. Not atomic with the append
	// above; see the inconsistency-window note in the package doc.
	if err := s.seeds.RecordSprout(ctx, seedID, string(id), "followup", automationID); err != nil {
		s.logger.Printf("[followup] seed %s missing add_sprout audit record for followup %s: %v", seedID, id, err)
	}

	return s.GetByID(ctx, id)
}

// Edit applies a partial update. Rejected once the follow-up is dismissed.
// old_* fields are attached only when the corresponding value actually
// changes, keeping audit payloads minimal.
func (s *Service) Edit(ctx context.Context, id engine.EntityID, newTime *time.Time, newMessage *string, automationID engine.AutomationID) (*State, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrFollowupNotFound
	}
	if current.Dismissed {
		return nil, ErrEditDismissed
	}

	p := EditPayload{NewTime: newTime, NewMessage: newMessage}
	if newTime != nil && !newTime.Equal(current.DueTime) {
		old := current.DueTime
		p.OldTime = &old
	}
	if newMessage != nil && *newMessage != current.Message {
		old := current.Message
		p.OldMessage = &old
	}
	if err := s.append(ctx, id, TxEdit, p, automationID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Snooze shifts the due time forward by whole minutes, compounding on top of
// prior edits and snoozes. Rejected once the follow-up is dismissed.
func (s *Service) Snooze(ctx context.Context, id engine.EntityID, minutes int, method SnoozeMethod, automationID engine.AutomationID) (*State, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrFollowupNotFound
	}
	if current.Dismissed {
		return nil, ErrSnoozeDismissed
	}

	p := SnoozePayload{DurationMinutes: decimal.NewFromInt(int64(minutes)), Method: method}
	if err := s.append(ctx, id, TxSnooze, p, automationID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Dismiss terminally flags the follow-up. The history can still accept
// appends at the store layer, but edit/snooze/dismiss reject from here on.
func (s *Service) Dismiss(ctx context.Context, id engine.EntityID, dismissalType string, automationID engine.AutomationID) (*State, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrFollowupNotFound
	}
	if current.Dismissed {
		return nil, ErrAlreadyDismissed
	}

	p := DismissalPayload{DismissedAt: s.clock.Now(), DismissalType: dismissalType}
	if err := s.append(ctx, id, TxDismissal, p, automationID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// =============================================================================
// READS
// =============================================================================

// GetByID returns the follow-up's current state, or nil (not an error) when
// no transactions exist for the id.
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

// GetBySeedID returns every follow-up attached to seedID, using one batched
// transaction fetch. Empty (not an error) when the seed has none.
func (s *Service) GetBySeedID(ctx context.Context, seedID engine.EntityID) ([]*State, error) {
	ids, err := s.dir.ListFollowups(ctx, seedID)
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

// GetDueFollowups projects notification records for every undismissed
// follow-up of userID whose due time has passed. Returns early, without the
// batched transaction fetch, when the user has no seeds.
func (s *Service) GetDueFollowups(ctx context.Context, userID string) ([]DueFollowup, error) {
	seedIDs, err := s.dir.ListSeeds(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(seedIDs) == 0 {
		return nil, nil
	}

	seedByFollowup := make(map[engine.EntityID]engine.EntityID)
	var followupIDs []engine.EntityID
	for _, seedID := range seedIDs {
		ids, err := s.dir.ListFollowups(ctx, seedID)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			seedByFollowup[id] = seedID
			followupIDs = append(followupIDs, id)
		}
	}
	if len(followupIDs) == 0 {
		return nil, nil
	}

	byEntity, err := s.store.ListByEntities(ctx, followupIDs)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var due []DueFollowup
	for _, id := range followupIDs {
		txs := byEntity[id]
		if len(txs) == 0 {
			continue
		}
		st, err := Reduce(txs, s.logger)
		if err != nil {
			return nil, err
		}
		if st.Dismissed || st.DueTime.After(now) {
			continue
		}
		due = append(due, DueFollowup{
			FollowupID: id,
			SeedID:     seedByFollowup[id],
			UserID:     userID,
			DueTime:    st.DueTime,
			Message:    st.Message,
		})
	}
	return due, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

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
