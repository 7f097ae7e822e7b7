package main

import (
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidCredentials is returned for both unknown usernames and wrong
	// passwords, so login failures never reveal whether an account exists.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func createUser(db *sql.DB, username, password string) (int64, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&count); err != nil {
		return 0, fmt.Errorf("checking username: %w", err)
	}
	if count > 0 {
		return 0, ErrDuplicateUsername
	}

	hash, err := hashPassword(password)
	if err != nil {
		return 0, err
	}

	result, err := db.Exec(`
		INSERT INTO users (username, password_hash)
		VALUES (?, ?)`, username, hash)
	if err != nil {
		return 0, fmt.Errorf("inserting user: %w", err)
	}

	return result.LastInsertId()
}

func getUserByUsername(db *sql.DB, username string) (*User, error) {
	row := db.QueryRow(`
		SELECT id, username, password_hash
		FROM users
		WHERE username = ?`, username)

	var user User
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	return &user, nil
}

func authenticateUser(db *sql.DB, username, password string) (int, error) {
	user, err := getUserByUsername(db, username)
	if err != nil {
		return 0, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil || !checkPassword(user.PasswordHash, password) {
		return 0, ErrInvalidCredentials
	}
	return user.ID, nil
}
