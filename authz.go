package main

import "errors"

var (
	ErrPostNotFound = errors.New("post not found")
	ErrNotAuthor    = errors.New("not the author of this post")
)

// canMutatePost reports whether userID may edit or delete the post. It must
// run before any mutating media or repository call, never after. A nil post
// yields ErrPostNotFound so callers can pass a lookup result straight in.
func canMutatePost(post *Post, userID int) error {
	if post == nil {
		return ErrPostNotFound
	}
	if post.AuthorID != userID {
		return ErrNotAuthor
	}
	return nil
}
