package core

import "kineticcore/internal/infra/persistence/sqlite"

// SQLiteStore is the embedded document backend.
type SQLiteStore = sqlite.Store

// NewSQLiteStore opens a SQLite-backed store at path (empty for the default
// file) evaluating the given rules on every commit.
func NewSQLiteStore(path string, engine *RulesEngine) (*SQLiteStore, error) {
	return sqlite.NewStore(path, engine)
}
