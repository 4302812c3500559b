/*
store.go - Persistence and directory interfaces

PURPOSE:
  Defines the contract between the reconstruction engine and whatever
  persists transactions. The engine never updates or deletes a transaction;
  the Store interface makes that structural.

APPEND-ONLY CONTRACT:
  - Append(): the ONLY write operation on transactions
  - NO Update() or Delete() methods exist
  - Corrections are new transactions

ORDERING:
  ListByEntity and ListByEntities SHOULD return transactions ordered by
  CreatedAt ascending, but the engine re-sorts before every fold, so replay
  is correct even for stores without ordering guarantees.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - engine/store:  in-memory store for tests and development

SEE ALSO:
  - reduce.go: consumes ordered histories
  - store/sqlite/sqlite.go: concrete implementation
*/
package engine

import "context"

// =============================================================================
// STORE - Append-only transaction persistence
// =============================================================================

// Store persists immutable transactions keyed by entity id.
// IMPORTANT: Store is APPEND-ONLY. No Update, No Delete. Ever.
type Store interface {
	// Append persists a transaction. This is the ONLY write operation.
	Append(ctx context.Context, tx Transaction) error

	// ListByEntity returns all transactions for one entity, ordered by
	// CreatedAt ascending.
	ListByEntity(ctx context.Context, entityID EntityID) ([]Transaction, error)

	// ListByEntities returns all transactions for a set of entities in one
	// batched query, grouped by entity id. Used by the due-follow-up paths
	// to avoid one round trip per entity.
	ListByEntities(ctx context.Context, entityIDs []EntityID) (map[EntityID][]Transaction, error)
}

// =============================================================================
// DIRECTORY - Parent-entity enumeration
// =============================================================================

// Directory maps ownership between users, seeds, tags and follow-ups.
// It is a plain key listing: no ordering or transactional semantics are
// required beyond read-your-writes.
type Directory interface {
	// RegisterSeed records that seedID belongs to userID.
	RegisterSeed(ctx context.Context, userID string, seedID EntityID) error

	// RegisterTag records that tagID belongs to userID.
	RegisterTag(ctx context.Context, userID string, tagID EntityID) error

	// RegisterFollowup records that followupID hangs off seedID.
	RegisterFollowup(ctx context.Context, seedID, followupID EntityID) error

	// ListUsers returns every user that owns at least one seed.
	ListUsers(ctx context.Context) ([]string, error)

	// ListSeeds returns the seed ids owned by userID.
	ListSeeds(ctx context.Context, userID string) ([]EntityID, error)

	// ListTags returns the tag ids owned by userID.
	ListTags(ctx context.Context, userID string) ([]EntityID, error)

	// ListFollowups returns the follow-up ids attached to seedID.
	ListFollowups(ctx context.Context, seedID EntityID) ([]EntityID, error)
}
