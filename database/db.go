package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
	_ "github.com/mattn/go-sqlite3"
)

// DB bundles the two stores the service runs on: a DuckDB lake holding
// the high-volume event history (plans, downtime, rejections) and a
// SQLite app database for master data, the derived per-plan summaries
// and recompute-job tracking.
type DB struct {
	Lake *sql.DB
	App  *sql.DB
}

// Initialize opens both databases, creating parent directories as
// needed. An empty path opens an in-memory database (used by tests).
func Initialize(lakePath, appPath string) (*DB, error) {
	for _, p := range []string{lakePath, appPath} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
	}

	lake, err := sql.Open("duckdb", lakePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open lake db: %w", err)
	}
	if _, err := lake.Exec("PRAGMA threads=4"); err != nil {
		log.Printf("Warning: failed to set lake threads: %v", err)
	}
	if err := lake.Ping(); err != nil {
		lake.Close()
		return nil, fmt.Errorf("failed to ping lake db: %w", err)
	}

	if appPath == "" {
		appPath = ":memory:"
	}
	app, err := sql.Open("sqlite3", appPath)
	if err != nil {
		lake.Close()
		return nil, fmt.Errorf("failed to open app db: %w", err)
	}
	if _, err := app.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.Printf("Warning: failed to set WAL mode: %v", err)
	}
	if err := app.Ping(); err != nil {
		lake.Close()
		app.Close()
		return nil, fmt.Errorf("failed to ping app db: %w", err)
	}

	return &DB{Lake: lake, App: app}, nil
}

// Close closes both handles.
func (db *DB) Close() {
	if db.Lake != nil {
		db.Lake.Close()
	}
	if db.App != nil {
		db.App.Close()
	}
}
