// Package trace records completed cache operations in a sqlite database,
// one row per bus-level transaction sequence. It is the software stand-in
// for the waveform dumps the hardware testbench produced: a durable,
// queryable log of what the model was asked to do and what it answered.
// It never feeds back into the store; cache contents still start empty on
// every reset.
package trace

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS operations (
	id     TEXT    NOT NULL,
	op     TEXT    NOT NULL,
	key    INTEGER NOT NULL,
	value  INTEGER NOT NULL,
	hit    INTEGER NOT NULL,
	err    INTEGER NOT NULL,
	ticks  INTEGER NOT NULL,
	at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS operations_at ON operations (at);
`

// Record is one completed operation as seen at the bus boundary.
type Record struct {
	ID    string
	Op    string
	Key   uint64
	Value uint64
	Hit   bool
	Err   bool
	Ticks uint64
	At    time.Time
}

// Recorder appends operation records to a sqlite file.
type Recorder struct {
	db *sql.DB
}

// Open creates or opens the trace database at path and ensures the
// schema exists.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open trace db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create trace schema: %w", err)
	}
	return &Recorder{db: db}, nil
}

func (r *Recorder) Close() error {
	return r.db.Close()
}

// Append writes one record. A zero At timestamp is filled with now.
func (r *Recorder) Append(rec Record) error {
	if rec.At.IsZero() {
		rec.At = time.Now()
	}
	_, err := r.db.Exec(
		`INSERT INTO operations (id, op, key, value, hit, err, ticks, at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Op, int64(rec.Key), int64(rec.Value),
		boolInt(rec.Hit), boolInt(rec.Err), int64(rec.Ticks), rec.At.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("append trace record: %w", err)
	}
	return nil
}

// Count returns the number of recorded operations.
func (r *Recorder) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM operations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count trace records: %w", err)
	}
	return n, nil
}

// Recent returns up to n records, newest first.
func (r *Recorder) Recent(n int) ([]Record, error) {
	rows, err := r.db.Query(
		`SELECT id, op, key, value, hit, err, ticks, at FROM operations ORDER BY at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query trace records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var key, value, ticks, at int64
		var hit, errFlag int
		if err := rows.Scan(&rec.ID, &rec.Op, &key, &value, &hit, &errFlag, &ticks, &at); err != nil {
			return nil, fmt.Errorf("scan trace record: %w", err)
		}
		rec.Key = uint64(key)
		rec.Value = uint64(value)
		rec.Hit = hit != 0
		rec.Err = errFlag != 0
		rec.Ticks = uint64(ticks)
		rec.At = time.Unix(0, at)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
