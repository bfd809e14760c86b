package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	dferrors "github.com/dfind/dfind/internal/errors"
)

// SQLiteStore implements IndexStore on a single SQLite file.
// WAL mode keeps searches readable while a volume generation commits;
// readers observe the pre-replace snapshot until the commit lands.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// Verify interface implementation at compile time
var _ IndexStore = (*SQLiteStore)(nil)

// HashString returns the digest stored in the hash columns: xxhash64 of
// the UTF-8 bytes, rendered as 16 uppercase hex characters. The digest
// format is shared with earlier generations of the store, so it must
// not change.
func HashString(s string) string {
	return fmt.Sprintf("%016X", xxhash.Sum64String(s))
}

// validateIntegrity checks an existing store file before opening it.
// Returns nil if the file is missing (it will be created).
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}

	return nil
}

// Open opens or creates the index store at path.
// An empty path opens an in-memory store for testing.
//
// Corruption and schema mismatches surface as store-corrupt errors;
// Open never clears data on its own. The indexing command may remove
// the file and rebuild, a search must report the condition.
func Open(path string) (*SQLiteStore, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, dferrors.StoreError(fmt.Sprintf("cannot create store directory %s", dir), err)
		}

		if err := validateIntegrity(path); err != nil {
			return nil, dferrors.New(dferrors.ErrCodeStoreCorrupt,
				fmt.Sprintf("index store corrupted at %s", path), err).
				WithSuggestion("run 'dfind index' to rebuild the store")
		}

		// _busy_timeout covers lock contention between a search and an
		// in-flight generation commit.
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, dferrors.StoreError("cannot open index store", err)
	}

	// Single writer to prevent lock contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL mode must be set via PRAGMA for modernc.org/sqlite, DSN
	// parameters alone are not applied.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -65536",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, dferrors.StoreError("cannot configure index store", err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// initSchema creates the tables idempotently and pins the schema version.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Key-value metadata about the store itself
	CREATE TABLE IF NOT EXISTS index_info (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	-- One generation record per indexed volume
	CREATE TABLE IF NOT EXISTS volumes (
		volume     TEXT PRIMARY KEY,
		files      INTEGER NOT NULL DEFAULT 0,
		dirs       INTEGER NOT NULL DEFAULT 0,
		total_size INTEGER NOT NULL DEFAULT 0,
		skipped    INTEGER NOT NULL DEFAULT 0,
		elapsed_ms INTEGER NOT NULL DEFAULT 0,
		indexed_at INTEGER NOT NULL
	);

	-- Indexed file-system entries, one row per path per volume
	CREATE TABLE IF NOT EXISTS entries (
		volume      TEXT NOT NULL,
		path        TEXT NOT NULL,
		path_hash   TEXT NOT NULL,
		name        TEXT NOT NULL,
		name_hash   TEXT NOT NULL,
		size        INTEGER NOT NULL DEFAULT 0,
		modified_at INTEGER NOT NULL DEFAULT 0,
		is_dir      INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (volume, path)
	);
	CREATE INDEX IF NOT EXISTS idx_entries_name_hash ON entries(name_hash);
	CREATE INDEX IF NOT EXISTS idx_entries_path_hash ON entries(path_hash);
	CREATE INDEX IF NOT EXISTS idx_entries_name_nocase ON entries(name COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_entries_file_size ON entries(size) WHERE is_dir = 0;

	-- Per-directory aggregates of direct child files
	CREATE TABLE IF NOT EXISTS folders (
		volume    TEXT NOT NULL,
		path      TEXT NOT NULL,
		path_hash TEXT NOT NULL,
		name      TEXT NOT NULL,
		name_hash TEXT NOT NULL,
		size      INTEGER NOT NULL DEFAULT 0,
		files     INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (volume, path)
	);
	CREATE INDEX IF NOT EXISTS idx_folders_size ON folders(size);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return dferrors.StoreError("cannot initialize store schema", err)
	}

	if _, err := s.db.Exec(
		`INSERT OR IGNORE INTO index_info (key, value) VALUES ('schema_version', ?), ('created_at', ?)`,
		strconv.Itoa(CurrentSchemaVersion),
		strconv.FormatInt(time.Now().Unix(), 10),
	); err != nil {
		return dferrors.StoreError("cannot record store metadata", err)
	}

	raw, err := s.infoValue("schema_version")
	if err != nil {
		return dferrors.StoreError("cannot read schema version", err)
	}
	version, err := strconv.Atoi(raw)
	if err != nil || version != CurrentSchemaVersion {
		return dferrors.New(dferrors.ErrCodeStoreCorrupt,
			fmt.Sprintf("store schema version %q, this build expects %d", raw, CurrentSchemaVersion), nil).
			WithSuggestion("run 'dfind index' to rebuild the store")
	}

	return nil
}

// infoValue reads one index_info key. Callers hold the lock or run
// during Open before the store is shared.
func (s *SQLiteStore) infoValue(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM index_info WHERE key = ?`, key).Scan(&value)
	return value, err
}

// Path returns the store file location, empty for in-memory stores.
func (s *SQLiteStore) Path() string {
	return s.path
}

// ReplaceVolume swaps one volume's generation in a single transaction:
// clear the volume's rows, bulk insert the new ones, record the stats.
// A failed or cancelled replace rolls back and leaves the previous
// generation untouched.
func (s *SQLiteStore) ReplaceVolume(ctx context.Context, volume string, entries []*Entry, folders []*FolderStat, stat *VolumeStat) error {
	if volume == "" {
		return dferrors.StoreError("volume id is empty", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dferrors.StoreError("cannot begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM entries WHERE volume = ?`,
		`DELETE FROM folders WHERE volume = ?`,
		`DELETE FROM volumes WHERE volume = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, volume); err != nil {
			return dferrors.StoreError("cannot clear previous generation", err)
		}
	}

	entryStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (volume, path, path_hash, name, name_hash, size, modified_at, is_dir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return dferrors.StoreError("cannot prepare entry insert", err)
	}
	defer entryStmt.Close()

	for _, e := range entries {
		_, err := entryStmt.ExecContext(ctx, volume, e.Path, HashString(e.Path),
			e.Name, HashString(e.Name), e.Size, e.ModTime.Unix(), e.IsDir)
		if err != nil {
			return dferrors.StoreError(fmt.Sprintf("cannot insert entry %s", e.Path), err)
		}
	}

	folderStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO folders (volume, path, path_hash, name, name_hash, size, files)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return dferrors.StoreError("cannot prepare folder insert", err)
	}
	defer folderStmt.Close()

	for _, f := range folders {
		_, err := folderStmt.ExecContext(ctx, volume, f.Path, HashString(f.Path),
			f.Name, HashString(f.Name), f.Size, f.Files)
		if err != nil {
			return dferrors.StoreError(fmt.Sprintf("cannot insert folder %s", f.Path), err)
		}
	}

	st := stat
	if st == nil {
		st = &VolumeStat{}
	}
	indexedAt := st.IndexedAt
	if indexedAt.IsZero() {
		indexedAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO volumes (volume, files, dirs, total_size, skipped, elapsed_ms, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		volume, st.Files, st.Dirs, st.TotalSize, st.Skipped,
		st.Elapsed.Milliseconds(), indexedAt.Unix()); err != nil {
		return dferrors.StoreError("cannot record volume stats", err)
	}

	if err := tx.Commit(); err != nil {
		return dferrors.StoreError("cannot commit volume generation", err)
	}

	return nil
}

// RemoveVolume drops one volume's generation.
// Removing an unknown volume is not an error.
func (s *SQLiteStore) RemoveVolume(ctx context.Context, volume string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dferrors.StoreError("cannot begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM entries WHERE volume = ?`,
		`DELETE FROM folders WHERE volume = ?`,
		`DELETE FROM volumes WHERE volume = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, volume); err != nil {
			return dferrors.StoreError(fmt.Sprintf("cannot remove volume %s", volume), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return dferrors.StoreError("cannot commit volume removal", err)
	}

	return nil
}

// Query returns entries matching q, ordered by (volume, path).
// The ordering is part of the search contract, not an implementation
// detail: repeated queries over an unchanged store return identical
// result sequences.
func (s *SQLiteStore) Query(ctx context.Context, q *Query) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	match, args, err := buildMatch(q)
	if err != nil {
		return nil, err
	}

	query := `SELECT volume, path, path_hash, name, name_hash, size, modified_at, is_dir
		FROM entries WHERE ` + match

	switch q.Type {
	case "", TypeAll:
	case TypeFile:
		query += ` AND is_dir = 0`
	case TypeDir:
		query += ` AND is_dir = 1`
	default:
		return nil, dferrors.QueryError(fmt.Sprintf("unknown entry type %q", q.Type), nil)
	}

	query += ` ORDER BY volume, path`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dferrors.StoreError("query failed", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var e Entry
		var modified int64
		if err := rows.Scan(&e.Volume, &e.Path, &e.PathHash, &e.Name, &e.NameHash,
			&e.Size, &modified, &e.IsDir); err != nil {
			return nil, dferrors.StoreError("cannot scan entry", err)
		}
		e.ModTime = time.Unix(modified, 0)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, dferrors.StoreError("query failed", err)
	}

	return out, nil
}

// buildMatch renders the WHERE fragment for q's match mode and scope.
func buildMatch(q *Query) (string, []any, error) {
	if q == nil {
		return "", nil, dferrors.New(dferrors.ErrCodeQueryEmpty, "empty query", nil)
	}

	pattern := q.Term
	if !q.Exact {
		if q.CaseSensitive {
			pattern = q.Glob
		} else {
			pattern = q.Like
		}
	}
	if pattern == "" {
		return "", nil, dferrors.New(dferrors.ErrCodeQueryEmpty, "empty search term", nil)
	}

	clause := func(column, hashColumn string) (string, []any) {
		switch {
		case q.Exact && q.CaseSensitive:
			// The hash narrows through its index, the equality check
			// rejects collisions.
			return fmt.Sprintf("(%s = ? AND %s = ?)", hashColumn, column),
				[]any{HashString(q.Term), q.Term}
		case q.Exact:
			return fmt.Sprintf("%s = ? COLLATE NOCASE", column), []any{q.Term}
		case q.CaseSensitive:
			return fmt.Sprintf("%s GLOB ?", column), []any{q.Glob}
		default:
			return fmt.Sprintf(`%s LIKE ? ESCAPE '\'`, column), []any{q.Like}
		}
	}

	switch q.Scope {
	case "", ScopeName:
		c, args := clause("name", "name_hash")
		return c, args, nil
	case ScopePath:
		c, args := clause("path", "path_hash")
		return c, args, nil
	case ScopeBoth:
		nameClause, nameArgs := clause("name", "name_hash")
		pathClause, pathArgs := clause("path", "path_hash")
		return "(" + nameClause + " OR " + pathClause + ")", append(nameArgs, pathArgs...), nil
	default:
		return "", nil, dferrors.QueryError(fmt.Sprintf("unknown search scope %q", q.Scope), nil)
	}
}

// TopBySize ranks files or folders by size. A non-positive limit
// defaults to 10. Ties break on (volume, path) for a stable order.
func (s *SQLiteStore) TopBySize(ctx context.Context, kind TopKind, limit int, ascending bool) ([]*TopEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	if limit <= 0 {
		limit = 10
	}
	order := "DESC"
	if ascending {
		order = "ASC"
	}

	var query string
	switch kind {
	case TopFiles:
		query = fmt.Sprintf(`SELECT volume, path, name, size FROM entries
			WHERE is_dir = 0 ORDER BY size %s, volume, path LIMIT ?`, order)
	case TopFolders:
		query = fmt.Sprintf(`SELECT volume, path, name, size FROM folders
			ORDER BY size %s, volume, path LIMIT ?`, order)
	default:
		return nil, dferrors.QueryError(fmt.Sprintf("unknown top kind %q", kind), nil)
	}

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, dferrors.StoreError("top query failed", err)
	}
	defer rows.Close()

	var out []*TopEntry
	for rows.Next() {
		var t TopEntry
		if err := rows.Scan(&t.Volume, &t.Path, &t.Name, &t.Size); err != nil {
			return nil, dferrors.StoreError("cannot scan top row", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, dferrors.StoreError("top query failed", err)
	}

	return out, nil
}

// Stats returns store-wide totals for status reporting.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	st := &Stats{}
	var updated int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(files), 0), COALESCE(SUM(dirs), 0),
		       COALESCE(SUM(total_size), 0), COALESCE(MAX(indexed_at), 0)
		FROM volumes`).Scan(&st.Volumes, &st.Files, &st.Dirs, &st.TotalSize, &updated)
	if err != nil {
		return nil, dferrors.StoreError("cannot read volume stats", err)
	}
	if updated > 0 {
		st.UpdatedAt = time.Unix(updated, 0)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM folders`).Scan(&st.Folders); err != nil {
		return nil, dferrors.StoreError("cannot count folders", err)
	}

	raw, err := s.infoValue("schema_version")
	if err != nil {
		return nil, dferrors.StoreError("cannot read schema version", err)
	}
	if st.SchemaVersion, err = strconv.Atoi(raw); err != nil {
		return nil, dferrors.StoreError("cannot parse schema version", err)
	}

	if raw, err = s.infoValue("created_at"); err != nil {
		return nil, dferrors.StoreError("cannot read creation time", err)
	}
	created, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, dferrors.StoreError("cannot parse creation time", err)
	}
	st.CreatedAt = time.Unix(created, 0)

	if s.path != "" {
		if fi, err := os.Stat(s.path); err == nil {
			st.SizeBytes = fi.Size()
		}
	}

	return st, nil
}

// VolumeStats returns per-volume generation stats ordered by volume.
func (s *SQLiteStore) VolumeStats(ctx context.Context) ([]*VolumeStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT volume, files, dirs, total_size, skipped, elapsed_ms, indexed_at
		FROM volumes ORDER BY volume`)
	if err != nil {
		return nil, dferrors.StoreError("cannot read volume stats", err)
	}
	defer rows.Close()

	var out []*VolumeStat
	for rows.Next() {
		var v VolumeStat
		var elapsedMS, indexedAt int64
		if err := rows.Scan(&v.Volume, &v.Files, &v.Dirs, &v.TotalSize,
			&v.Skipped, &elapsedMS, &indexedAt); err != nil {
			return nil, dferrors.StoreError("cannot scan volume stats", err)
		}
		v.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		v.IndexedAt = time.Unix(indexedAt, 0)
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, dferrors.StoreError("cannot read volume stats", err)
	}

	return out, nil
}

// Close checkpoints the WAL and releases the database handle.
// Close is idempotent.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.db != nil {
		// Checkpoint before close so the main file is complete on disk.
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		return s.db.Close()
	}
	return nil
}

func errClosed() error {
	return dferrors.New(dferrors.ErrCodeStoreClosed, "index store is closed", nil)
}
