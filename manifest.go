package sitegen

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when the manifest has no record for an output path.
var ErrNotFound = sql.ErrNoRows

// PageRecord is the manifest entry for one generated page.
type PageRecord struct {
	Output   string
	Content  string
	Template string
	Checksum string // SHA-256 of the rendered output, hex encoded
	BuiltAt  time.Time
}

// Manifest wraps a SQLite database recording what each build wrote. It lets
// incremental builds leave unchanged pages alone.
type Manifest struct {
	db *sql.DB
}

// OpenManifest opens (or creates) the SQLite database at path, ensures the
// parent directory exists, and creates the schema.
func OpenManifest(path string) (*Manifest, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the preview server read while a rebuild writes.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	m := &Manifest{db: db}
	if err := m.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

// Close closes the underlying database connection.
func (m *Manifest) Close() error {
	return m.db.Close()
}

func (m *Manifest) ensureSchema() error {
	_, err := m.db.Exec(`
CREATE TABLE IF NOT EXISTS pages (
    output TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    template TEXT NOT NULL,
    checksum TEXT NOT NULL,
    built_at TEXT NOT NULL
);
`)
	return err
}

// Record upserts the entry for r.Output.
func (m *Manifest) Record(r PageRecord) error {
	_, err := m.db.Exec(`INSERT INTO pages (output, content, template, checksum, built_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(output) DO UPDATE SET content = excluded.content, template = excluded.template, checksum = excluded.checksum, built_at = excluded.built_at`,
		r.Output, r.Content, r.Template, r.Checksum, r.BuiltAt.UTC().Format(time.RFC3339Nano))
	return err
}

// Get returns the entry for an output path, or ErrNotFound.
func (m *Manifest) Get(output string) (PageRecord, error) {
	r := PageRecord{Output: output}
	var builtAt string
	err := m.db.QueryRow(`SELECT content, template, checksum, built_at FROM pages WHERE output = ?`, output).
		Scan(&r.Content, &r.Template, &r.Checksum, &builtAt)
	if err != nil {
		return PageRecord{}, err
	}
	r.BuiltAt = parseBuiltAt(builtAt)
	return r, nil
}

// List returns every entry ordered by output path.
func (m *Manifest) List() ([]PageRecord, error) {
	rows, err := m.db.Query(`SELECT output, content, template, checksum, built_at FROM pages ORDER BY output`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PageRecord
	for rows.Next() {
		var r PageRecord
		var builtAt string
		if err := rows.Scan(&r.Output, &r.Content, &r.Template, &r.Checksum, &builtAt); err != nil {
			return nil, err
		}
		r.BuiltAt = parseBuiltAt(builtAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Remove deletes the entry for an output path.
func (m *Manifest) Remove(output string) error {
	_, err := m.db.Exec(`DELETE FROM pages WHERE output = ?`, output)
	return err
}

func parseBuiltAt(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
