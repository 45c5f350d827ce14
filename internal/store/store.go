// Package store persists reconciled hierarchy snapshots into SQLite so other
// tooling can query ownership relations without re-reading the Doxygen XML.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"doxgraph/internal/graph"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	refid            TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	kind             TEXT NOT NULL,
	parent_refid     TEXT,
	defined_in_refid TEXT,
	location         TEXT
);
CREATE TABLE IF NOT EXISTS edges (
	parent_refid TEXT NOT NULL,
	child_refid  TEXT NOT NULL,
	PRIMARY KEY (parent_refid, child_refid)
);
CREATE TABLE IF NOT EXISTS diagnostics (
	severity TEXT NOT NULL,
	refid    TEXT NOT NULL,
	message  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(kind);
`

// Store writes hierarchy snapshots to a SQLite database.
type Store struct {
	db   *sql.DB
	path string
	log  *zap.Logger
}

// Open initializes the database at path, creating the directory and the
// schema when needed.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// a single writer is all the snapshot workload needs
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		log.Debug("set journal_mode=WAL failed", zap.Error(err))
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Store{db: db, path: path, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveResult replaces the stored snapshot with res. The write is a single
// transaction: a partially written snapshot never becomes visible.
func (s *Store) SaveResult(res *graph.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"nodes", "edges", "diagnostics"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	insertNode, err := tx.Prepare(`INSERT INTO nodes
		(refid, name, kind, parent_refid, defined_in_refid, location)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare node insert: %w", err)
	}
	defer insertNode.Close()

	insertEdge, err := tx.Prepare(
		"INSERT OR IGNORE INTO edges (parent_refid, child_refid) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare edge insert: %w", err)
	}
	defer insertEdge.Close()

	for _, n := range res.Registry.All() {
		var location string
		if n.File != nil {
			location = n.File.Location
		}
		if _, err := insertNode.Exec(n.Refid, n.Name, string(n.Kind),
			refidOf(n.Parent), refidOf(n.DefinedIn), location); err != nil {
			return fmt.Errorf("insert node %s: %w", n.Refid, err)
		}
		for _, child := range n.Children {
			if _, err := insertEdge.Exec(n.Refid, child.Refid); err != nil {
				return fmt.Errorf("insert edge %s -> %s: %w", n.Refid, child.Refid, err)
			}
		}
	}

	for _, d := range res.Diagnostics {
		if _, err := tx.Exec(
			"INSERT INTO diagnostics (severity, refid, message) VALUES (?, ?, ?)",
			string(d.Severity), d.Refid, d.Message); err != nil {
			return fmt.Errorf("insert diagnostic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	s.log.Info("snapshot saved",
		zap.String("path", s.path),
		zap.Int("nodes", res.Registry.Len()),
		zap.Int("diagnostics", len(res.Diagnostics)))
	return nil
}

// CountNodes returns the number of stored nodes, optionally filtered by kind.
func (s *Store) CountNodes(kind graph.Kind) (int, error) {
	var (
		n   int
		err error
	)
	if kind == "" {
		err = s.db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&n)
	} else {
		err = s.db.QueryRow("SELECT COUNT(*) FROM nodes WHERE kind = ?", string(kind)).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return n, nil
}

// ChildrenOf returns the refids of the stored children of parent, in
// insertion order.
func (s *Store) ChildrenOf(parentRefid string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT child_refid FROM edges WHERE parent_refid = ? ORDER BY rowid", parentRefid)
	if err != nil {
		return nil, fmt.Errorf("query children of %s: %w", parentRefid, err)
	}
	defer rows.Close()

	var refids []string
	for rows.Next() {
		var refid string
		if err := rows.Scan(&refid); err != nil {
			return nil, fmt.Errorf("scan child refid: %w", err)
		}
		refids = append(refids, refid)
	}
	return refids, rows.Err()
}

func refidOf(n *graph.Node) any {
	if n == nil {
		return nil
	}
	return n.Refid
}
