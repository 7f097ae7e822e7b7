package main

import "time"

type User struct {
	ID           int
	Username     string
	PasswordHash string
}

type Post struct {
	ID        int
	Title     string
	Content   string
	CreatedAt time.Time
	AuthorID  int
	Author    string // username, joined in by the post queries
	ImagePath *string
}

type Session struct {
	Token     string
	UserID    int
	ExpiresAt time.Time
}
