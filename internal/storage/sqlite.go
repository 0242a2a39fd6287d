package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"notesd/internal/notes"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Timestamps are stored as RFC3339 text with a fixed-width nanosecond
// fraction: sub-second precision keeps updated_at strictly increasing for
// mutations within the same second, and the fixed width keeps the text
// column lexicographically sortable (RFC3339Nano trims trailing zeros,
// which breaks ORDER BY).
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements notes.Store on a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ notes.Store = (*SQLiteStore)(nil)

// Open opens (or creates) the SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (tests).
func Open(dataDir string) (*SQLiteStore, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "notesd.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *SQLiteStore) migrate() error {
	// Ensure schema_version table exists (bootstrap).
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		// Check if already applied.
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *SQLiteStore) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

const noteColumns = "id, owner_id, title, content, tags, summary, created_at, updated_at"

// Create persists a new note, assigning id and timestamps.
func (s *SQLiteStore) Create(ctx context.Context, n notes.Note) (notes.Note, error) {
	if err := notes.ValidateNew(n); err != nil {
		return notes.Note{}, err
	}

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	tags, err := marshalTags(n.Tags)
	if err != nil {
		return notes.Note{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notes (`+noteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.OwnerID, n.Title, n.Content, tags, n.Summary,
		now.Format(timeFormat), now.Format(timeFormat),
	)
	if err != nil {
		// Distinguish a duplicate id from other failures without relying on
		// driver-specific error codes.
		var count int
		if qerr := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes WHERE id = ?", n.ID).Scan(&count); qerr == nil && count > 0 {
			return notes.Note{}, notes.ErrConflict
		}
		return notes.Note{}, fmt.Errorf("inserting note: %w", err)
	}

	if n.Tags == nil {
		n.Tags = []string{}
	}
	return n, nil
}

// GetByID returns the note when it exists and belongs to ownerID.
func (s *SQLiteStore) GetByID(ctx context.Context, id, ownerID string) (notes.Note, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+noteColumns+` FROM notes WHERE id = ? AND owner_id = ?`, id, ownerID)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return notes.Note{}, notes.ErrNotFound
	}
	if err != nil {
		return notes.Note{}, err
	}
	return n, nil
}

// List returns all notes for ownerID.
func (s *SQLiteStore) List(ctx context.Context, ownerID string) ([]notes.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+noteColumns+` FROM notes WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []notes.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// orderColumns maps allow-listed sort keys to their columns. ListPaged only
// interpolates values from this map, never caller input.
var orderColumns = map[string]string{
	notes.OrderCreatedAt: "created_at",
	notes.OrderUpdatedAt: "updated_at",
	notes.OrderTitle:     "title",
}

// ListPaged returns one page of notes plus the total matching count.
// Ordering always tie-breaks on id ascending so pages neither skip nor
// repeat rows when the sort key has duplicate values.
func (s *SQLiteStore) ListPaged(ctx context.Context, p notes.ListParams) ([]notes.Note, int, error) {
	p = p.Normalize()

	col := orderColumns[p.OrderBy]
	dir := "DESC"
	if p.Direction == "asc" {
		dir = "ASC"
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notes WHERE owner_id = ?", p.OwnerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting notes: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM notes WHERE owner_id = ?
		ORDER BY %s %s, id ASC LIMIT ? OFFSET ?`, noteColumns, col, dir)

	rows, err := s.db.QueryContext(ctx, query, p.OwnerID, p.PageSize, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	items := make([]notes.Note, 0, p.PageSize)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

// Update replaces the caller-settable fields of an existing note and
// refreshes updated_at. created_at is never touched.
func (s *SQLiteStore) Update(ctx context.Context, n notes.Note) (notes.Note, error) {
	tags, err := marshalTags(n.Tags)
	if err != nil {
		return notes.Note{}, err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE notes SET title = ?, content = ?, tags = ?, summary = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		n.Title, n.Content, tags, n.Summary, now.Format(timeFormat), n.ID, n.OwnerID,
	)
	if err != nil {
		return notes.Note{}, fmt.Errorf("updating note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return notes.Note{}, err
	}
	if affected == 0 {
		return notes.Note{}, notes.ErrNotFound
	}

	return s.GetByID(ctx, n.ID, n.OwnerID)
}

// Delete removes a note. Deleting a nonexistent note is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id, ownerID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM notes WHERE id = ? AND owner_id = ?", id, ownerID)
	return err
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (notes.Note, error) {
	var n notes.Note
	var tags, createdAt, updatedAt string
	err := row.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &tags, &n.Summary, &createdAt, &updatedAt)
	if err != nil {
		return notes.Note{}, err
	}

	if n.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return notes.Note{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if n.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return notes.Note{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	if err = json.Unmarshal([]byte(tags), &n.Tags); err != nil {
		return notes.Note{}, fmt.Errorf("parsing tags: %w", err)
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return n, nil
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		return "[]", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshalling tags: %w", err)
	}
	return string(b), nil
}
