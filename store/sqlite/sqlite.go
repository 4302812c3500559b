/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements engine.Store (append-only transaction persistence) and
  engine.Directory (user/seed/tag/follow-up ownership) using SQLite. In
  production the same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the transactions table
  - No DELETE statements on the transactions table
  - Corrections are new transactions

KEY TABLES:
  transactions: immutable record of every state change, ordered on read by
                created_at (RFC3339Nano strings preserve full fidelity)
  seeds:        seed id -> owning user
  tags:         tag id -> owning user
  followups:    follow-up id -> parent seed

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time.

USAGE:
  st, err := sqlite.New("./data/seeds.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

SEE ALSO:
  - engine/store.go: interface definitions
  - engine/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/verdant/seed-engine/engine"
)

// Store implements engine.Store and engine.Directory using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Transactions (append-only)
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		entity_id TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		automation_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_entity
		ON transactions(entity_id, created_at);

	-- Directory tables
	CREATE TABLE IF NOT EXISTS seeds (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		registered_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_seeds_user ON seeds(user_id);

	CREATE TABLE IF NOT EXISTS tags (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		registered_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tags_user ON tags(user_id);

	CREATE TABLE IF NOT EXISTS followups (
		id TEXT PRIMARY KEY,
		seed_id TEXT NOT NULL,
		registered_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_followups_seed ON followups(seed_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// STORE - append-only transaction persistence
// =============================================================================

// Append persists a transaction. This is the only write path into the
// transactions table.
func (s *Store) Append(ctx context.Context, tx engine.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var automationID any
	if tx.AutomationID != "" {
		automationID = string(tx.AutomationID)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, entity_id, tx_type, payload_json, automation_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(tx.ID), string(tx.EntityID), string(tx.Type), string(tx.Payload),
		automationID, tx.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// ListByEntity returns all transactions for one entity, ordered by
// created_at ascending (id breaks ties, matching the replay order).
func (s *Store) ListByEntity(ctx context.Context, entityID engine.EntityID) ([]engine.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_id, tx_type, payload_json, automation_id, created_at
		FROM transactions
		WHERE entity_id = ?
		ORDER BY created_at ASC, id ASC`,
		string(entityID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListByEntities returns all transactions for a set of entities in one
// query, grouped by entity id.
func (s *Store) ListByEntities(ctx context.Context, entityIDs []engine.EntityID) (map[engine.EntityID][]engine.Transaction, error) {
	if len(entityIDs) == 0 {
		return map[engine.EntityID][]engine.Transaction{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(entityIDs)), ",")
	args := make([]any, len(entityIDs))
	for i, id := range entityIDs {
		args[i] = string(id)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, entity_id, tx_type, payload_json, automation_id, created_at
		FROM transactions
		WHERE entity_id IN (%s)
		ORDER BY created_at ASC, id ASC`, placeholders),
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs, err := scanTransactions(rows)
	if err != nil {
		return nil, err
	}

	grouped := make(map[engine.EntityID][]engine.Transaction)
	for _, tx := range txs {
		grouped[tx.EntityID] = append(grouped[tx.EntityID], tx)
	}
	return grouped, nil
}

func scanTransactions(rows *sql.Rows) ([]engine.Transaction, error) {
	var txs []engine.Transaction
	for rows.Next() {
		var (
			id, entityID, txType, payload, createdAt string
			automationID                             sql.NullString
		)
		if err := rows.Scan(&id, &entityID, &txType, &payload, &automationID, &createdAt); err != nil {
			return nil, err
		}

		at, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("corrupt created_at on transaction %s: %w", id, err)
		}

		tx := engine.Transaction{
			ID:        engine.TransactionID(id),
			EntityID:  engine.EntityID(entityID),
			Type:      engine.TxType(txType),
			Payload:   []byte(payload),
			CreatedAt: at,
		}
		if automationID.Valid {
			tx.AutomationID = engine.AutomationID(automationID.String)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// =============================================================================
// DIRECTORY - ownership tables
// =============================================================================

func (s *Store) RegisterSeed(ctx context.Context, userID string, seedID engine.EntityID) error {
	return s.register(ctx, `INSERT INTO seeds (id, user_id, registered_at) VALUES (?, ?, ?)`, string(seedID), userID)
}

func (s *Store) RegisterTag(ctx context.Context, userID string, tagID engine.EntityID) error {
	return s.register(ctx, `INSERT INTO tags (id, user_id, registered_at) VALUES (?, ?, ?)`, string(tagID), userID)
}

func (s *Store) RegisterFollowup(ctx context.Context, seedID, followupID engine.EntityID) error {
	return s.register(ctx, `INSERT INTO followups (id, seed_id, registered_at) VALUES (?, ?, ?)`, string(followupID), string(seedID))
}

func (s *Store) register(ctx context.Context, query, id, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, query, id, owner, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM seeds ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) ListSeeds(ctx context.Context, userID string) ([]engine.EntityID, error) {
	return s.listIDs(ctx, `SELECT id FROM seeds WHERE user_id = ? ORDER BY registered_at ASC, id ASC`, userID)
}

func (s *Store) ListTags(ctx context.Context, userID string) ([]engine.EntityID, error) {
	return s.listIDs(ctx, `SELECT id FROM tags WHERE user_id = ? ORDER BY registered_at ASC, id ASC`, userID)
}

func (s *Store) ListFollowups(ctx context.Context, seedID engine.EntityID) ([]engine.EntityID, error) {
	return s.listIDs(ctx, `SELECT id FROM followups WHERE seed_id = ? ORDER BY registered_at ASC, id ASC`, string(seedID))
}

func (s *Store) listIDs(ctx context.Context, query, owner string) ([]engine.EntityID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []engine.EntityID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, engine.EntityID(id))
	}
	return ids, rows.Err()
}
