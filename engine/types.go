/*
Package engine provides the event-sourced state reconstruction core.

PURPOSE:
  This package contains the entity-family-agnostic types and algorithms for
  deriving current entity state from an append-only transaction history.
  Whether the entity is a seed, a tag, or a follow-up, the same skeleton
  applies: sort transactions chronologically, seed state from the creation
  transaction, fold the rest.

KEY CONCEPTS IN THIS FILE (types.go):
  - Transaction: An immutable record of a single state change
  - TxType: The per-family discriminator selecting the payload shape
  - EntityID / TransactionID / AutomationID: Type-safe identifiers
  - Clock / Logger: Injectable ports so reducers stay pure and testable

DESIGN PRINCIPLES:
  1. Immutability: Transactions are never updated or deleted; corrections
     are new transactions
  2. Order independence: State is a function of the transaction SET, not of
     arrival order; replay sorts by CreatedAt with a deterministic tie-break
  3. Type Safety: Strong typing for IDs prevents mixing entity/transaction IDs
  4. Auditability: Every transaction carries its automation attribution

SEE ALSO:
  - reduce.go: The shared fold skeleton
  - store.go: Persistence and directory interfaces
  - errors.go: Sentinel and structured errors
*/
package engine

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EntityID string
type TransactionID string

// AutomationID is a weak back-reference to the automated process that
// produced a transaction. Empty means user-initiated.
type AutomationID string

// TxType discriminates the payload shape of a transaction. Each entity
// family defines its own closed set of values.
type TxType string

// NewTransactionID mints a fresh, never-reused transaction id.
func NewTransactionID() TransactionID {
	return TransactionID(uuid.NewString())
}

// NewEntityID mints a fresh entity id.
func NewEntityID() EntityID {
	return EntityID(uuid.NewString())
}

// =============================================================================
// TRANSACTION - Atomic, immutable state change
// =============================================================================

// Transaction is an immutable, timestamped, typed record of a single state
// change for one entity. CreatedAt is the sole ordering key for replay:
// multiple transactions for the same entity may share or interleave
// timestamps arbitrarily, and replay ordering is by this field, never by
// insertion order.
type Transaction struct {
	ID           TransactionID
	EntityID     EntityID
	Type         TxType
	Payload      json.RawMessage
	CreatedAt    time.Time
	AutomationID AutomationID
}

// SortChronological returns a copy of txs ordered by CreatedAt ascending.
// Equal timestamps are broken by lexical transaction id so replay is
// deterministic regardless of the store's return order.
func SortChronological(txs []Transaction) []Transaction {
	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

// =============================================================================
// CLOCK - Injectable time source
// =============================================================================

// Clock abstracts time.Now so due-time filtering and staleness checks are
// deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// =============================================================================
// LOGGER - Injectable observability port
// =============================================================================

// Logger is the narrow logging port used by reducers and services.
// Reducers report skipped corrupt transactions through it instead of
// writing to stdout, which keeps the fold pure and capturable in tests.
type Logger interface {
	Printf(format string, args ...any)
}

// NopLogger discards everything. Used as the default in tests.
type NopLogger struct{}

func (NopLogger) Printf(string, ...any) {}
