package blocks

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS content_blocks (
	entity   TEXT    NOT NULL,
	lang     TEXT    NOT NULL,
	position INTEGER NOT NULL,
	kind     TEXT    NOT NULL,
	level    INTEGER NOT NULL DEFAULT 0,
	text     TEXT    NOT NULL,
	PRIMARY KEY (entity, lang, position)
);`

// SQLiteStore keeps content blocks in an SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) the block database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating blocks db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open blocks db: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		schema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init blocks db: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Fetch implements Store.
func (s *SQLiteStore) Fetch(ctx context.Context, entity, lang string) ([]Block, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, level, text FROM content_blocks WHERE entity = ? AND lang = ? ORDER BY position`,
		entity, lang)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	var out []Block
	for rows.Next() {
		var kind, text string
		var level int
		if err := rows.Scan(&kind, &level, &text); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		if kind == KindHeader.String() {
			out = append(out, Header(level, text))
		} else {
			out = append(out, Paragraph(text))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read blocks: %w", err)
	}
	if len(out) == 0 {
		return nil, NotFoundError{Entity: entity, Lang: lang}
	}
	return out, nil
}

// Put replaces the stored blocks of entity and lang.
func (s *SQLiteStore) Put(ctx context.Context, entity, lang string, blocks []Block) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM content_blocks WHERE entity = ? AND lang = ?`, entity, lang); err != nil {
		return fmt.Errorf("clear blocks: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO content_blocks (entity, lang, position, kind, level, text) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, b := range blocks {
		if _, err := stmt.ExecContext(ctx, entity, lang, i, b.Kind.String(), b.Level, b.Text); err != nil {
			return fmt.Errorf("insert block %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Entities lists the stored (entity, lang) pairs.
func (s *SQLiteStore) Entities(ctx context.Context) ([][2]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT entity, lang FROM content_blocks ORDER BY entity, lang`)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	var out [][2]string
	for rows.Next() {
		var e, l string
		if err := rows.Scan(&e, &l); err != nil {
			return nil, err
		}
		out = append(out, [2]string{e, l})
	}
	return out, rows.Err()
}
