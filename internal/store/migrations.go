package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "memories: records with embeddings, confidence, and temporal metadata",
		SQL: `
CREATE TABLE memories (
    id              TEXT PRIMARY KEY,
    content         TEXT NOT NULL,
    embedding       BLOB,
    embedding_model TEXT,
    created_at      INTEGER NOT NULL,

    -- Confidence and graph flags
    confidence      REAL NOT NULL DEFAULT 1.0,
    latest          INTEGER NOT NULL DEFAULT 1,
    static          INTEGER NOT NULL DEFAULT 0,

    -- Metadata
    source          TEXT NOT NULL DEFAULT 'userInput'
                    CHECK (source IN ('conversation', 'document', 'userInput', 'derived', 'imported')),
    entities        TEXT,
    topics          TEXT,
    importance      REAL NOT NULL DEFAULT 0.5,
    access_count    INTEGER NOT NULL DEFAULT 0,
    last_accessed   INTEGER,
    user_confirmed  INTEGER NOT NULL DEFAULT 0,
    container_tags  TEXT,

    -- Temporal extraction
    event_time      INTEGER,
    granularity     TEXT NOT NULL DEFAULT 'unknown',
    ongoing         INTEGER NOT NULL DEFAULT 0,
    markers         TEXT,
    temporal_type   TEXT NOT NULL DEFAULT 'present'
);

CREATE INDEX idx_memories_created ON memories(created_at);
CREATE INDEX idx_memories_latest  ON memories(latest);
`,
	},
	{
		Version:     2,
		Description: "relationships: typed directed edges between memories",
		SQL: `
CREATE TABLE relationships (
    source_id   TEXT NOT NULL,
    type        TEXT NOT NULL
                CHECK (type IN ('updates', 'extends', 'derives', 'contradicts', 'relatedTo')),
    target_id   TEXT NOT NULL,
    confidence  REAL NOT NULL DEFAULT 1.0,
    created_at  INTEGER NOT NULL,
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,

    FOREIGN KEY (source_id) REFERENCES memories(id),
    UNIQUE (source_id, type, target_id)
);

CREATE INDEX idx_rel_source ON relationships(source_id);
CREATE INDEX idx_rel_target ON relationships(target_id);
`,
	},
}

func (db *DB) migrate() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
