// Package postgres keeps models in a Postgres JSONB table, one row per
// model, behind the in-memory transactional store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"kineticcore/internal/infra/persistence/memory"
	"kineticcore/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// defaultDSN applies when NewStore is given an empty DSN.
	defaultDSN = "postgres://localhost/kineticcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store writes the models a transaction changed after every successful
// commit. Reads are served from memory.
type Store struct {
	*memory.Store
	db      *sql.DB
	mu      sync.Mutex
	tracker *memory.DocumentTracker
}

// NewStore connects to dsn, creates the models table when missing and
// loads every stored model.
func NewStore(dsn string, engine *domain.RulesEngine) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS models (
		id TEXT PRIMARY KEY,
		document JSONB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("ensure models table: %w", err)
	}
	tracker := memory.NewDocumentTracker()
	snapshot, err := load(ctx, db, tracker)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore(engine)
	mem.ImportState(snapshot)
	return &Store{Store: mem, db: db, tracker: tracker}, nil
}

// RunInTransaction writes the models fn changed before installing them in
// memory. A failed write leaves both the database and memory untouched.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	return s.Store.RunInTransactionWith(ctx, fn, s.persist)
}

func (s *Store) DB() *sql.DB { return s.db }

func load(ctx context.Context, db *sql.DB, tracker *memory.DocumentTracker) (memory.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, document FROM models`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select models: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []memory.Document
	for rows.Next() {
		var doc memory.Document
		if err := rows.Scan(&doc.ID, &doc.Data); err != nil {
			return memory.Snapshot{}, fmt.Errorf("scan model: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return memory.Snapshot{}, fmt.Errorf("iterate models: %w", err)
	}
	return tracker.Decode(docs)
}

func (s *Store) persist(ctx context.Context, next memory.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delta, err := s.tracker.Diff(next.Models)
	if err != nil || delta.Empty() {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, doc := range delta.Upserts {
		if _, err := tx.ExecContext(ctx, `INSERT INTO models(id,document) VALUES($1,$2) ON CONFLICT(id) DO UPDATE SET document=EXCLUDED.document`, doc.ID, doc.Data); err != nil {
			return fmt.Errorf("upsert model %s: %w", doc.ID, err)
		}
	}
	for _, id := range delta.Deletes {
		if _, err := tx.ExecContext(ctx, `DELETE FROM models WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete model %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	s.tracker.Apply(delta)
	return nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
