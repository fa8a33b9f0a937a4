package main

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// StateStore persists local UI state that is not part of the user's profile:
// per-table column widths and the last opened base/table. It lives in a
// sqlite file next to config.yaml so resize state survives restarts.
type StateStore struct {
	db *sql.DB
}

const stateSchema = `
CREATE TABLE IF NOT EXISTS column_widths (
	table_id  TEXT NOT NULL,
	column_id TEXT NOT NULL,
	width     INTEGER NOT NULL,
	PRIMARY KEY (table_id, column_id)
);
CREATE TABLE IF NOT EXISTS last_opened (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	base_id  TEXT NOT NULL,
	table_id TEXT NOT NULL
);
`

// OpenStateStore opens (creating if needed) the state database under the
// config dir.
func OpenStateStore() (*StateStore, error) {
	if err := EnsureConfigDir(); err != nil {
		return nil, err
	}
	configDir, err := getConfigDir()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", filepath.Join(configDir, "state.db"))
	if err != nil {
		return nil, fmt.Errorf("could not open state store: %w", err)
	}
	if _, err := db.Exec(stateSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize state store: %w", err)
	}

	return &StateStore{db: db}, nil
}

func (s *StateStore) Close() error {
	return s.db.Close()
}

// ColumnWidths returns the saved widths for a table, keyed by column id.
func (s *StateStore) ColumnWidths(tableID string) (map[string]int, error) {
	rows, err := s.db.Query(
		"SELECT column_id, width FROM column_widths WHERE table_id = ?", tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	widths := make(map[string]int)
	for rows.Next() {
		var columnID string
		var width int
		if err := rows.Scan(&columnID, &width); err != nil {
			return nil, err
		}
		widths[columnID] = width
	}
	return widths, rows.Err()
}

// SetColumnWidth upserts one column's width.
func (s *StateStore) SetColumnWidth(tableID, columnID string, width int) error {
	_, err := s.db.Exec(`
		INSERT INTO column_widths (table_id, column_id, width) VALUES (?, ?, ?)
		ON CONFLICT (table_id, column_id) DO UPDATE SET width = excluded.width`,
		tableID, columnID, width)
	return err
}

// DropTableState removes saved widths for a table. Called when the table is
// deleted so the store does not accumulate rows for dead ids.
func (s *StateStore) DropTableState(tableID string) error {
	_, err := s.db.Exec("DELETE FROM column_widths WHERE table_id = ?", tableID)
	return err
}

// LastOpened returns the most recently opened base and table ids, or empty
// strings when nothing was recorded yet.
func (s *StateStore) LastOpened() (baseID, tableID string, err error) {
	err = s.db.QueryRow("SELECT base_id, table_id FROM last_opened WHERE id = 1").
		Scan(&baseID, &tableID)
	if err == sql.ErrNoRows {
		return "", "", nil
	}
	return baseID, tableID, err
}

// SetLastOpened records the base/table to restore on next launch.
func (s *StateStore) SetLastOpened(baseID, tableID string) error {
	_, err := s.db.Exec(`
		INSERT INTO last_opened (id, base_id, table_id) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET base_id = excluded.base_id, table_id = excluded.table_id`,
		baseID, tableID)
	return err
}
