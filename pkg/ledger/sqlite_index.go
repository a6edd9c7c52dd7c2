package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// sqliteIndex mirrors ledger records into a queryable table, grounded on
// the teacher's pkg/store/ledger SQLLedger: same schema-on-open and plain
// database/sql usage, but here it is a secondary index rather than the
// system of record — the JSONL file stays authoritative per spec.md §4.7.
type sqliteIndex struct {
	db *sql.DB
}

const indexSchema = `
CREATE TABLE IF NOT EXISTS ledger_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts TEXT NOT NULL,
	kind TEXT NOT NULL,
	fields TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ledger_records_kind ON ledger_records(kind);
CREATE INDEX IF NOT EXISTS idx_ledger_records_ts ON ledger_records(ts);
`

func newSQLiteIndex(path string) (*sqliteIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open sqlite index: %w", err)
	}
	return newSQLiteIndexFromDB(db)
}

// newSQLiteIndexFromDB wraps an already-open *sql.DB, letting tests
// substitute a sqlmock connection for the real driver.
func newSQLiteIndexFromDB(db *sql.DB) (*sqliteIndex, error) {
	if _, err := db.Exec(indexSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: init sqlite schema: %w", err)
	}
	return &sqliteIndex{db: db}, nil
}

func (s *sqliteIndex) insert(rec Record) error {
	raw, err := json.Marshal(rec.Fields)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO ledger_records (ts, kind, fields) VALUES (?, ?, ?)`,
		rec.TS, string(rec.Kind), string(raw),
	)
	return err
}

// countByKind returns the number of indexed records of the given kind.
func (s *sqliteIndex) countByKind(kind Kind) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM ledger_records WHERE kind = ?`, string(kind)).Scan(&n)
	return n, err
}

func (s *sqliteIndex) close() error {
	return s.db.Close()
}
