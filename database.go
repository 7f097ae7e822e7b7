package main

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func initDB(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		author_id INTEGER NOT NULL REFERENCES users(id),
		image_path TEXT
	);

	CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		expires_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`

	_, err := db.Exec(schema)
	if err != nil {
		return err
	}

	if err := migrateDB(db); err != nil {
		return err
	}

	return nil
}

func migrateDB(db *sql.DB) error {
	// image_path arrived after the first deployments
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('posts') WHERE name='image_path'`).Scan(&count)
	if err != nil {
		return err
	}

	if count == 0 {
		_, err = db.Exec(`ALTER TABLE posts ADD COLUMN image_path TEXT`)
		if err != nil {
			return err
		}
	}

	return nil
}

func seedSettings(db *sql.DB) error {
	// Seed default intro text if not exists
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM settings WHERE key = 'intro'").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaultIntro := "Welcome. Register an account to start writing."
	_, err := db.Exec("INSERT INTO settings (key, value) VALUES (?, ?)", "intro", defaultIntro)
	return err
}
