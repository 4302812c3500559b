/*
reduce.go - The shared fold skeleton

PURPOSE:
  Derives an entity's current state by replaying its transaction history in
  chronological order. The skeleton is identical across all three entity
  families; the family-specific pieces (creation type, payload validation,
  state seeding, per-type transitions) plug in through the Folder interface.

ALGORITHM:
  1. Sort by CreatedAt ascending, tie-break by transaction id
  2. Locate the first creation-typed transaction; none -> fatal
  3. Validate the creation payload; invalid -> fatal
  4. Seed the accumulator from the creation payload
  5. Fold the remaining transactions in order; a transaction that fails
     validation (or a stray second creation) is logged and SKIPPED, never
     fatal - mid-history corruption must not make the entity unreadable
  6. Return the sorted history for audit display

ERROR POLICY:
  The asymmetry between steps 3 and 5 is the heart of this design:
  a malformed creation transaction is fatal, a malformed later transaction
  is skippable corruption. See errors.go.
*/
package engine

// Folder is the family-specific half of a reduction. A Folder owns the
// accumulator it seeds and mutates; the engine owns ordering, creation
// location, and the fatal-vs-skip policy.
type Folder interface {
	// Entity names the family for error messages, e.g. "Seed".
	Entity() string

	// CreationType is the family's creation variant.
	CreationType() TxType

	// Validate checks a payload against the family's rules for the given
	// type. Pure and side-effect-free.
	Validate(t TxType, payload []byte) error

	// Init seeds the accumulator from a validated creation transaction.
	Init(creation Transaction) error

	// Apply folds one validated non-creation transaction into the
	// accumulator. An error from Apply is treated as skippable corruption.
	Apply(tx Transaction) error
}

// Reduce replays txs through f and returns the chronologically sorted
// history. The fold is deterministic: state is a pure function of the
// transaction set, independent of arrival order.
func Reduce(txs []Transaction, f Folder, logger Logger) ([]Transaction, error) {
	if logger == nil {
		logger = NopLogger{}
	}

	sorted := SortChronological(txs)

	// Locate the creation transaction. Excluded from the fold by identity,
	// not by type: a stray second creation-typed transaction is bad data
	// and gets skipped below instead of reprocessed.
	var creation *Transaction
	for i := range sorted {
		if sorted[i].Type == f.CreationType() {
			creation = &sorted[i]
			break
		}
	}
	if creation == nil {
		return nil, &MissingCreationError{Entity: f.Entity()}
	}

	if err := f.Validate(creation.Type, creation.Payload); err != nil {
		return nil, err
	}
	if err := f.Init(*creation); err != nil {
		return nil, err
	}

	for i := range sorted {
		tx := sorted[i]
		if tx.ID == creation.ID {
			continue
		}
		if tx.Type == f.CreationType() {
			logger.Printf("[reduce] skipping duplicate creation transaction %s for %s %s", tx.ID, f.Entity(), tx.EntityID)
			continue
		}
		if err := f.Validate(tx.Type, tx.Payload); err != nil {
			logger.Printf("[reduce] skipping invalid transaction %s (%s) on %s %s: %v", tx.ID, tx.Type, f.Entity(), tx.EntityID, err)
			continue
		}
		if err := f.Apply(tx); err != nil {
			logger.Printf("[reduce] skipping unappliable transaction %s (%s) on %s %s: %v", tx.ID, tx.Type, f.Entity(), tx.EntityID, err)
			continue
		}
	}

	return sorted, nil
}
