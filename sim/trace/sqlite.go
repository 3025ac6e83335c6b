package trace

import (
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteSink appends records to a SQLite table. Each record is one INSERT, so a
// record is either stored whole or the write returns an error.
type SQLiteSink struct {
	conn *sqlx.DB
}

// StoredRecord is a row of the records table.
type StoredRecord struct {
	ID      int64  `db:"id"`
	Tick    int64  `db:"tick"`
	Type    string `db:"type"`
	Fields  string `db:"fields_json"`
	Message string `db:"message"`
}

// OpenSQLiteSink opens or creates a SQLite database at path.
func OpenSQLiteSink(path string) (*SQLiteSink, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open record db: %w", err)
	}
	s := &SQLiteSink{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate record db: %w", err)
	}
	return s, nil
}

func (s *SQLiteSink) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		type TEXT NOT NULL,
		fields_json TEXT NOT NULL,
		message TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_tick ON records(tick);
	`
	_, err := s.conn.Exec(schema)
	return err
}

func (s *SQLiteSink) Write(fields map[string]any, human string) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	tick, _ := fields[FieldTick].(int64)
	typ, _ := fields[FieldType].(string)
	_, err = s.conn.Exec(
		"INSERT INTO records (tick, type, fields_json, message) VALUES (?, ?, ?, ?)",
		tick, typ, string(data), human,
	)
	if err != nil {
		return fmt.Errorf("insert record (tick %d): %w", tick, err)
	}
	return nil
}

// Records returns stored rows for a tick range [from, to], oldest first.
func (s *SQLiteSink) Records(from, to int64) ([]StoredRecord, error) {
	var out []StoredRecord
	err := s.conn.Select(&out,
		"SELECT id, tick, type, fields_json, message FROM records WHERE tick BETWEEN ? AND ? ORDER BY id",
		from, to,
	)
	return out, err
}

// Count returns the number of stored records of the given type ("" for all).
func (s *SQLiteSink) Count(typ string) (int, error) {
	var n int
	var err error
	if typ == "" {
		err = s.conn.Get(&n, "SELECT COUNT(*) FROM records")
	} else {
		err = s.conn.Get(&n, "SELECT COUNT(*) FROM records WHERE type = ?", typ)
	}
	return n, err
}

func (s *SQLiteSink) Close() error {
	return s.conn.Close()
}
