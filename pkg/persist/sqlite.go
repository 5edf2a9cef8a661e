package persist

import (
	"context"
	"database/sql"
	"fmt"
)

// SetupSchema creates the snippets table if it does not exist.
func SetupSchema(db *sql.DB) error {
	const schemaSnippets = `
CREATE TABLE IF NOT EXISTS snippets (
    key TEXT NOT NULL,
    position INTEGER NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (key, position)
);
`
	if _, err := db.Exec(schemaSnippets); err != nil {
		return fmt.Errorf("could not create snippets table: %w", err)
	}
	return nil
}

// SQLiteBackend stores snippets as rows of (key, position, value). The
// database handle belongs to the caller; Close only releases statements.
type SQLiteBackend struct {
	db *sql.DB

	stmtLoad   *sql.Stmt
	stmtDelete *sql.Stmt
	stmtInsert *sql.Stmt
}

// NewSQLiteBackend sets up the schema on db and prepares its statements.
func NewSQLiteBackend(db *sql.DB) (*SQLiteBackend, error) {
	if err := SetupSchema(db); err != nil {
		return nil, err
	}

	stmtLoad, err := db.Prepare(`SELECT key, value FROM snippets ORDER BY key, position;`)
	if err != nil {
		return nil, err
	}
	stmtDelete, err := db.Prepare(`DELETE FROM snippets WHERE key = ?;`)
	if err != nil {
		_ = stmtLoad.Close()
		return nil, err
	}
	stmtInsert, err := db.Prepare(`INSERT INTO snippets (key, position, value) VALUES (?, ?, ?);`)
	if err != nil {
		_ = stmtLoad.Close()
		_ = stmtDelete.Close()
		return nil, err
	}

	return &SQLiteBackend{
		db:         db,
		stmtLoad:   stmtLoad,
		stmtDelete: stmtDelete,
		stmtInsert: stmtInsert,
	}, nil
}

func (s *SQLiteBackend) Load(ctx context.Context) (map[string][]string, error) {
	rows, err := s.stmtLoad.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	out := make(map[string][]string)
	for rows.Next() {
		var key, value string
		if err = rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = append(out[key], value)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Save replaces the rows of key within a single transaction.
func (s *SQLiteBackend) Save(ctx context.Context, key string, values []string) error {
	if key == "" {
		return ErrInvalidKey
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	// A committed transaction makes this a no-op.
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.StmtContext(ctx, s.stmtDelete).ExecContext(ctx, key); err != nil {
		return fmt.Errorf("failed to clear key %q: %w", key, err)
	}
	insert := tx.StmtContext(ctx, s.stmtInsert)
	for i, v := range values {
		if _, err = insert.ExecContext(ctx, key, i, v); err != nil {
			return fmt.Errorf("failed to insert value %d of key %q: %w", i, key, err)
		}
	}
	return tx.Commit()
}

// Close releases the prepared statements.
func (s *SQLiteBackend) Close() error {
	_ = s.stmtLoad.Close()
	_ = s.stmtDelete.Close()
	return s.stmtInsert.Close()
}
