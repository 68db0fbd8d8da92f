// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database; it lives inside the Go binary as a single
// file, with no separate server to install or manage. That fits a
// single-server deployment, and ":memory:" gives tests a real SQL engine
// (real UNIQUE constraints, real transactions) with zero setup.
//
// We use modernc.org/sqlite rather than mattn/go-sqlite3: it is a pure Go
// translation of SQLite, so no CGo and no C compiler, and cross-compilation
// just works.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver with database/sql
)

// DB wraps a sql.DB connection pool and implements every repository
// interface. One type for all of them keeps transactions that span entities
// (account creation, conversation seeding) inside a single handle.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath (":memory:" for tests), applies pragmas,
// runs migrations, and seeds reference data the application expects to exist
// (the achievement catalog, and the starter lessons when the lessons table
// is empty).
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an immediate connection so a bad path surfaces here, not on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress, required
	// for a web server where requests overlap.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite; the delete ordering in
	// DeleteConversation relies on them being enforced.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	if err := db.seed(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: seeding reference data: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Defer this wherever New is called.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates all tables. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every start; schema changes beyond that would move to a real
// migration tool.
func (db *DB) migrate() error {
	stmts := []string{
		// Identity record, distinct from the learning profile below.
		`CREATE TABLE IF NOT EXISTS auth_users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// Learning profile. Shares its primary key with auth_users so the
		// pair is 1:1; a missing profile for an existing identity is a
		// detectable integrity fault.
		`CREATE TABLE IF NOT EXISTS users (
			id                TEXT PRIMARY KEY REFERENCES auth_users(id),
			email             TEXT NOT NULL,
			name              TEXT NOT NULL,
			native_language   TEXT NOT NULL DEFAULT 'English',
			learning_language TEXT NOT NULL DEFAULT 'Spanish',
			proficiency_level TEXT NOT NULL DEFAULT 'Beginner',
			avatar_url        TEXT NOT NULL DEFAULT '',
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS lessons (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			language    TEXT NOT NULL,
			level       TEXT NOT NULL,
			duration    INTEGER NOT NULL DEFAULT 0,
			type        TEXT NOT NULL,
			content     TEXT NOT NULL DEFAULT '{}',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lessons_language_level ON lessons(language, level)`,

		// The UNIQUE constraint makes "start lesson" idempotent at the
		// storage layer; concurrent starts collapse to one row.
		`CREATE TABLE IF NOT EXISTS user_lessons (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL REFERENCES users(id),
			lesson_id    TEXT NOT NULL REFERENCES lessons(id),
			progress     INTEGER NOT NULL DEFAULT 0,
			completed    INTEGER NOT NULL DEFAULT 0,
			started_at   DATETIME NOT NULL,
			completed_at DATETIME,
			UNIQUE(user_id, lesson_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_user_lessons_user_id ON user_lessons(user_id)`,

		`CREATE TABLE IF NOT EXISTS lesson_performances (
			id             TEXT PRIMARY KEY,
			user_lesson_id TEXT NOT NULL REFERENCES user_lessons(id),
			date           DATETIME NOT NULL,
			score          REAL NOT NULL,
			duration       INTEGER NOT NULL DEFAULT 0,
			metrics        TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lesson_performances_user_lesson_id
			ON lesson_performances(user_lesson_id)`,

		`CREATE TABLE IF NOT EXISTS conversations (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			title      TEXT NOT NULL,
			language   TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_user_id ON conversations(user_id)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL REFERENCES conversations(id),
			sender          TEXT NOT NULL,
			text            TEXT NOT NULL,
			audio_url       TEXT NOT NULL DEFAULT '',
			timestamp       DATETIME NOT NULL,
			pronunciation   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages(conversation_id)`,

		`CREATE TABLE IF NOT EXISTS performance_metrics (
			id       TEXT PRIMARY KEY,
			user_id  TEXT NOT NULL REFERENCES users(id),
			date     DATETIME NOT NULL,
			category TEXT NOT NULL,
			score    REAL NOT NULL,
			details  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_performance_metrics_user_date
			ON performance_metrics(user_id, date)`,

		`CREATE TABLE IF NOT EXISTS achievements (
			id          TEXT PRIMARY KEY,
			type        TEXT NOT NULL UNIQUE,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			icon        TEXT NOT NULL DEFAULT '',
			xp_reward   INTEGER NOT NULL DEFAULT 0
		)`,

		// UNIQUE makes unlock idempotent; the check-then-insert race
		// collapses into "conflict means already unlocked".
		`CREATE TABLE IF NOT EXISTS user_achievements (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL REFERENCES users(id),
			achievement_id TEXT NOT NULL REFERENCES achievements(id),
			unlocked_at    DATETIME NOT NULL,
			UNIQUE(user_id, achievement_id)
		)`,

		`CREATE TABLE IF NOT EXISTS user_progress (
			user_id            TEXT PRIMARY KEY REFERENCES users(id),
			total_xp           INTEGER NOT NULL DEFAULT 0,
			level              INTEGER NOT NULL DEFAULT 1,
			current_streak     INTEGER NOT NULL DEFAULT 0,
			longest_streak     INTEGER NOT NULL DEFAULT 0,
			last_activity_date TEXT NOT NULL DEFAULT '',
			updated_at         DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS user_activity (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL REFERENCES users(id),
			activity_type TEXT NOT NULL,
			xp_earned     INTEGER NOT NULL DEFAULT 0,
			metadata      TEXT NOT NULL DEFAULT '{}',
			created_at    DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_user_activity_user_id ON user_activity(user_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. modernc.org/sqlite exposes no typed error for this, so we match
// the stable message text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
