// # internal/data/store/catalog.go

// Package store persists the class catalog: every class definition and
// reference site of a workspace, queryable without loading the workspace
// file. The engine never reads it back at runtime; exports, health checks
// and cross-session tooling do.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"classforge/internal/shared/observability"
)

const (
	catalogDriverName    = "sqlite"
	catalogSchemaVersion = 2
)

// Catalog is a sqlite-backed definition snapshot, keyed by workspace so
// one database serves every open workspace.
type Catalog struct {
	db           *sql.DB
	workspaceKey string

	classStmt   *sql.Stmt
	methodsStmt *sql.Stmt

	cacheMu    sync.RWMutex
	classCache map[string]classCacheEntry
}

type classCacheEntry struct {
	row ClassRow
	ok  bool
}

// OpenCatalog opens or creates the catalog database and migrates it to
// the current schema. The workspace key scopes every read and write;
// empty falls back to "default".
func OpenCatalog(path, workspaceKey string) (*Catalog, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("catalog path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("catalog path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create catalog directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(catalogDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping catalog %q: %w", cleanPath, err)
	}
	if err := migrateCatalogSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	key := strings.TrimSpace(workspaceKey)
	if key == "" {
		key = "default"
	}

	classStmt, err := db.Prepare(`SELECT colour, constructor, attributes
FROM classes
WHERE workspace_key = ? AND name = ?`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare class lookup stmt: %w", err)
	}
	methodsStmt, err := db.Prepare(`SELECT name, parameters, has_return
FROM methods
WHERE workspace_key = ? AND class_name = ?
ORDER BY position`)
	if err != nil {
		_ = classStmt.Close()
		_ = db.Close()
		return nil, fmt.Errorf("prepare methods lookup stmt: %w", err)
	}

	return &Catalog{
		db:           db,
		workspaceKey: key,
		classStmt:    classStmt,
		methodsStmt:  methodsStmt,
		classCache:   make(map[string]classCacheEntry),
	}, nil
}

// migrateCatalogSchema creates or migrates the catalog to schema v2.
func migrateCatalogSchema(db *sql.DB) error {
	var version int
	_ = db.QueryRow(`PRAGMA user_version`).Scan(&version)

	if version > catalogSchemaVersion {
		return fmt.Errorf("catalog schema version %d is newer than supported version %d", version, catalogSchemaVersion)
	}

	if version == 0 {
		_, err := db.Exec(`
CREATE TABLE classes (
  workspace_key TEXT NOT NULL,
  name TEXT NOT NULL,
  colour INTEGER NOT NULL DEFAULT 0,
  constructor TEXT NOT NULL DEFAULT '[]',
  attributes TEXT NOT NULL DEFAULT '[]',
  PRIMARY KEY (workspace_key, name)
);

CREATE TABLE methods (
  workspace_key TEXT NOT NULL,
  class_name TEXT NOT NULL,
  name TEXT NOT NULL,
  parameters TEXT NOT NULL DEFAULT '[]',
  has_return INTEGER NOT NULL DEFAULT 0,
  position INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (workspace_key, class_name, name)
);
CREATE INDEX idx_methods_workspace_name ON methods(workspace_key, name);

CREATE TABLE sites (
  workspace_key TEXT NOT NULL,
  block_id TEXT NOT NULL,
  block_type TEXT NOT NULL,
  class_name TEXT NOT NULL DEFAULT '',
  member_name TEXT NOT NULL DEFAULT '',
  member_kind TEXT NOT NULL DEFAULT '',
  finalized INTEGER NOT NULL DEFAULT 0,
  position INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (workspace_key, block_id)
);
CREATE INDEX idx_sites_workspace_class ON sites(workspace_key, class_name);

PRAGMA user_version = 2;
`)
		if err != nil {
			return fmt.Errorf("create catalog schema: %w", err)
		}
		return nil
	}

	if version < 2 {
		_, err := db.Exec(`
CREATE TABLE sites (
  workspace_key TEXT NOT NULL,
  block_id TEXT NOT NULL,
  block_type TEXT NOT NULL,
  class_name TEXT NOT NULL DEFAULT '',
  member_name TEXT NOT NULL DEFAULT '',
  member_kind TEXT NOT NULL DEFAULT '',
  finalized INTEGER NOT NULL DEFAULT 0,
  position INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (workspace_key, block_id)
);
CREATE INDEX idx_sites_workspace_class ON sites(workspace_key, class_name);
PRAGMA user_version = 2;
`)
		if err != nil {
			return fmt.Errorf("catalog schema v2 migration: %w", err)
		}
	}

	return nil
}

func (c *Catalog) clearCache() {
	if c == nil {
		return
	}
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.classCache = make(map[string]classCacheEntry)
}

// SyncWorkspace replaces the catalog's view of this workspace with the
// given rows, in one transaction. Method and site positions record the
// order the rows arrive in, which for collected rows is declaration and
// traversal order.
func (c *Catalog) SyncWorkspace(classes []ClassRow, sites []SiteRow) error {
	if c == nil || c.db == nil {
		return fmt.Errorf("catalog not initialized")
	}
	start := time.Now()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin catalog sync tx: %w", err)
	}
	for _, table := range []string{"classes", "methods", "sites"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE workspace_key = ?`, c.workspaceKey); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("clear %s for sync: %w", table, err)
		}
	}
	if err := insertClassRows(tx, c.workspaceKey, classes); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := insertSiteRows(tx, c.workspaceKey, sites); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog sync tx: %w", err)
	}

	c.clearCache()
	observability.StoreWriteDuration.WithLabelValues("catalog").Observe(time.Since(start).Seconds())
	return nil
}

// Inserts use OR REPLACE: a sync batch unions every scanned file, and a
// class defined in two files keeps the last occurrence.
func insertClassRows(tx *sql.Tx, workspaceKey string, classes []ClassRow) error {
	classStmt, err := tx.Prepare(`INSERT OR REPLACE INTO classes (workspace_key, name, colour, constructor, attributes) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare class insert: %w", err)
	}
	defer classStmt.Close()
	methodStmt, err := tx.Prepare(`INSERT OR REPLACE INTO methods (workspace_key, class_name, name, parameters, has_return, position) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare method insert: %w", err)
	}
	defer methodStmt.Close()

	for _, class := range classes {
		ctor, err := marshalNames(class.Constructor)
		if err != nil {
			return fmt.Errorf("marshal constructor for %q: %w", class.Name, err)
		}
		attrs, err := marshalNames(class.Attributes)
		if err != nil {
			return fmt.Errorf("marshal attributes for %q: %w", class.Name, err)
		}
		if _, err := classStmt.Exec(workspaceKey, class.Name, class.Colour, ctor, attrs); err != nil {
			return fmt.Errorf("insert class row %q: %w", class.Name, err)
		}
		for i, m := range class.Methods {
			params, err := marshalNames(m.Parameters)
			if err != nil {
				return fmt.Errorf("marshal parameters for %q.%q: %w", class.Name, m.Name, err)
			}
			if _, err := methodStmt.Exec(workspaceKey, class.Name, m.Name, params, boolToInt(m.HasReturn), i); err != nil {
				return fmt.Errorf("insert method row %q.%q: %w", class.Name, m.Name, err)
			}
		}
	}
	return nil
}

func insertSiteRows(tx *sql.Tx, workspaceKey string, sites []SiteRow) error {
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO sites (workspace_key, block_id, block_type, class_name, member_name, member_kind, finalized, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare site insert: %w", err)
	}
	defer stmt.Close()
	for i, s := range sites {
		if _, err := stmt.Exec(workspaceKey, s.BlockID, s.BlockType, s.Class, s.Member, s.Kind, boolToInt(s.Finalized), i); err != nil {
			return fmt.Errorf("insert site row %q: %w", s.BlockID, err)
		}
	}
	return nil
}

// Class returns one class row with its methods. Results, including
// misses, are cached until the next sync.
func (c *Catalog) Class(name string) (ClassRow, bool) {
	if c == nil || c.db == nil || c.classStmt == nil {
		return ClassRow{}, false
	}

	c.cacheMu.RLock()
	if entry, ok := c.classCache[name]; ok {
		c.cacheMu.RUnlock()
		return entry.row, entry.ok
	}
	c.cacheMu.RUnlock()

	row, ok := c.lookupClass(name)

	c.cacheMu.Lock()
	if c.classCache == nil {
		c.classCache = make(map[string]classCacheEntry)
	}
	c.classCache[name] = classCacheEntry{row: row, ok: ok}
	c.cacheMu.Unlock()

	return row, ok
}

func (c *Catalog) lookupClass(name string) (ClassRow, bool) {
	var (
		colour    int
		ctorJSON  string
		attrsJSON string
	)
	err := c.classStmt.QueryRow(c.workspaceKey, name).Scan(&colour, &ctorJSON, &attrsJSON)
	if err != nil {
		return ClassRow{}, false
	}
	row := ClassRow{
		Name:        name,
		Colour:      colour,
		Constructor: unmarshalNames(ctorJSON),
		Attributes:  unmarshalNames(attrsJSON),
	}

	rows, err := c.methodsStmt.Query(c.workspaceKey, name)
	if err != nil {
		return row, true
	}
	defer rows.Close()
	for rows.Next() {
		var (
			m          MethodRow
			paramsJSON string
			hasReturn  int
		)
		if err := rows.Scan(&m.Name, &paramsJSON, &hasReturn); err != nil {
			continue
		}
		m.Parameters = unmarshalNames(paramsJSON)
		m.HasReturn = hasReturn != 0
		row.Methods = append(row.Methods, m)
	}
	return row, true
}

// ClassNames lists the workspace's classes sorted by name.
func (c *Catalog) ClassNames() []string {
	if c == nil || c.db == nil {
		return nil
	}
	rows, err := c.db.Query(`SELECT name FROM classes WHERE workspace_key = ? ORDER BY name`, c.workspaceKey)
	if err != nil {
		return nil
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		out = append(out, name)
	}
	return out
}

// MethodOwners lists the classes defining a method of this name, sorted.
func (c *Catalog) MethodOwners(method string) []string {
	if c == nil || c.db == nil {
		return nil
	}
	rows, err := c.db.Query(`SELECT class_name FROM methods WHERE workspace_key = ? AND name = ? ORDER BY class_name`, c.workspaceKey, method)
	if err != nil {
		return nil
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		out = append(out, name)
	}
	return out
}

// SitesForClass lists the persisted reference sites of a class in the
// order they were collected, which is workspace traversal order.
func (c *Catalog) SitesForClass(name string) []SiteRow {
	if c == nil || c.db == nil {
		return nil
	}
	rows, err := c.db.Query(`SELECT block_id, block_type, class_name, member_name, member_kind, finalized
FROM sites
WHERE workspace_key = ? AND class_name = ?
ORDER BY position`, c.workspaceKey, name)
	if err != nil {
		return nil
	}
	defer rows.Close()
	out := make([]SiteRow, 0)
	for rows.Next() {
		var (
			s         SiteRow
			finalized int
		)
		if err := rows.Scan(&s.BlockID, &s.BlockType, &s.Class, &s.Member, &s.Kind, &finalized); err != nil {
			continue
		}
		s.Finalized = finalized != 0
		out = append(out, s)
	}
	return out
}

// Close releases the prepared statements and the database handle.
func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	if c.classStmt != nil {
		_ = c.classStmt.Close()
	}
	if c.methodsStmt != nil {
		_ = c.methodsStmt.Close()
	}
	return c.db.Close()
}

func marshalNames(names []string) (string, error) {
	if len(names) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(names)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func unmarshalNames(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
