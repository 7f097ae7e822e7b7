package main

import "database/sql"

// getPosts returns every post with its author's username, newest first
// (created_at descending, id as tiebreak).
func getPosts(db *sql.DB) ([]Post, error) {
	query := `
		SELECT p.id, p.title, p.content, p.created_at, p.author_id, u.username, p.image_path
		FROM posts p
		JOIN users u ON u.id = p.author_id
		ORDER BY p.created_at DESC, p.id DESC`
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var post Post
		err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.CreatedAt, &post.AuthorID, &post.Author, &post.ImagePath)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func getPostByID(db *sql.DB, id int) (*Post, error) {
	row := db.QueryRow(`
		SELECT p.id, p.title, p.content, p.created_at, p.author_id, u.username, p.image_path
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = ?`, id)

	var post Post
	err := row.Scan(&post.ID, &post.Title, &post.Content, &post.CreatedAt, &post.AuthorID, &post.Author, &post.ImagePath)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &post, nil
}

func createPost(db *sql.DB, title, content string, authorID int, imagePath *string) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO posts (title, content, author_id, image_path)
		VALUES (?, ?, ?, ?)`, title, content, authorID, imagePath)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// updatePost overwrites the mutable fields of a post. The author, id and
// creation time never change after creation.
func updatePost(db *sql.DB, id int, title, content string, imagePath *string) error {
	result, err := db.Exec(`
		UPDATE posts
		SET title = ?, content = ?, image_path = ?
		WHERE id = ?`, title, content, imagePath, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return nil
}

func deletePost(db *sql.DB, id int) error {
	result, err := db.Exec("DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return nil
}
