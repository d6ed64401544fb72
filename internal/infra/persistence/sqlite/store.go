// Package sqlite keeps models in an embedded SQLite database, one JSON
// document per model, behind the in-memory transactional store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"kineticcore/internal/infra/persistence/memory"
	"kineticcore/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

// DefaultPath is used when NewStore is given an empty path.
const DefaultPath = "kineticcore.db"

const schema = `CREATE TABLE IF NOT EXISTS models (
	id TEXT PRIMARY KEY,
	document BLOB NOT NULL
)`

// Store writes the models a transaction changed after every successful
// commit. Reads are served from memory.
type Store struct {
	*memory.Store
	db      *sql.DB
	mu      sync.Mutex
	tracker *memory.DocumentTracker
	path    string
}

func NewStore(path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create models table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine), db: db, tracker: memory.NewDocumentTracker(), path: path}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT id, document FROM models`)
	if err != nil {
		return fmt.Errorf("select models: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var docs []memory.Document
	for rows.Next() {
		var doc memory.Document
		if err := rows.Scan(&doc.ID, &doc.Data); err != nil {
			return fmt.Errorf("scan model: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate models: %w", err)
	}
	snapshot, err := s.tracker.Decode(docs)
	if err != nil {
		return err
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist(ctx context.Context, next memory.Snapshot) (retErr error) {
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
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, doc := range delta.Upserts {
		if _, err := tx.ExecContext(ctx, `INSERT INTO models(id,document) VALUES(?,?) ON CONFLICT(id) DO UPDATE SET document=excluded.document`, doc.ID, doc.Data); err != nil {
			return fmt.Errorf("upsert model %s: %w", doc.ID, err)
		}
	}
	for _, id := range delta.Deletes {
		if _, err := tx.ExecContext(ctx, `DELETE FROM models WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete model %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.tracker.Apply(delta)
	return nil
}

// RunInTransaction writes the models fn changed before installing them in
// memory. A failed write leaves both the database and memory untouched.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	return s.Store.RunInTransactionWith(ctx, fn, s.persist)
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Path() string { return s.path }
