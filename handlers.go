package main

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
)

func (b *Blog) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	posts, err := getPosts(b.db)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	intro, err := getSetting(b.db, "intro")
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	userID := b.currentUserID(r)

	data := map[string]any{
		"Title":           "Home",
		"Posts":           posts,
		"Intro":           intro,
		"IsAuthenticated": userID != 0,
		"UserID":          userID,
		"Flash":           popFlash(w, r),
		"CSRFToken":       ensureCSRFToken(w, r),
	}

	err = b.templates["home.html"].ExecuteTemplate(w, "base", data)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (b *Blog) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	post, err := getPostByID(b.db, id)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if post == nil {
		http.NotFound(w, r)
		return
	}

	userID := b.currentUserID(r)

	data := map[string]any{
		"Title":           post.Title,
		"Post":            post,
		"IsAuthenticated": userID != 0,
		"IsOwner":         userID != 0 && userID == post.AuthorID,
		"Flash":           popFlash(w, r),
		"CSRFToken":       ensureCSRFToken(w, r),
	}

	err = b.templates["detail.html"].ExecuteTemplate(w, "base", data)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (b *Blog) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		b.renderAuthPage(w, r, "register.html", "Register", "", http.StatusOK)
		return
	}

	if r.Method == http.MethodPost {
		if !parseFormWithCSRF(w, r) {
			return
		}

		username := r.FormValue("username")
		password := r.FormValue("password")

		if username == "" || password == "" {
			http.Error(w, "Username and password are required", http.StatusBadRequest)
			return
		}

		_, err := createUser(b.db, username, password)
		if errors.Is(err, ErrDuplicateUsername) {
			b.renderAuthPage(w, r, "register.html", "Register", "Username already exists.", http.StatusConflict)
			return
		}
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		setFlash(w, "success", "Registration successful. Please log in.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

func (b *Blog) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		b.renderAuthPage(w, r, "login.html", "Login", "", http.StatusOK)
		return
	}

	if r.Method == http.MethodPost {
		if !parseFormWithCSRF(w, r) {
			return
		}

		username := r.FormValue("username")
		password := r.FormValue("password")

		userID, err := authenticateUser(b.db, username, password)
		if errors.Is(err, ErrInvalidCredentials) {
			b.renderAuthPage(w, r, "login.html", "Login", "Invalid username or password", http.StatusUnauthorized)
			return
		}
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		token, err := createSession(b.db, userID)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		setSessionCookie(w, token)
		setFlash(w, "success", "Login successful!")
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (b *Blog) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if !parseFormWithCSRF(w, r) {
		return
	}

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := deleteSession(b.db, cookie.Value); err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	clearSessionCookie(w)
	setFlash(w, "info", "You have been logged out.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (b *Blog) Create(w http.ResponseWriter, r *http.Request, userID int) {
	if r.Method == http.MethodGet {
		data := map[string]any{
			"Title":           "New Post",
			"IsAuthenticated": true,
			"Flash":           popFlash(w, r),
			"CSRFToken":       ensureCSRFToken(w, r),
		}
		err := b.templates["create.html"].ExecuteTemplate(w, "base", data)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	if r.Method == http.MethodPost {
		if !b.parseUploadForm(w, r) {
			return
		}

		title := r.FormValue("title")
		content := r.FormValue("content")

		if title == "" || content == "" {
			http.Error(w, "Title and content are required", http.StatusBadRequest)
			return
		}

		var imagePath *string
		file, filename, err := formImage(r)
		if err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		if file != nil {
			defer file.Close()
			saved, err := b.media.save(file, filename)
			if errors.Is(err, ErrUnsupportedFileType) {
				http.Error(w, "Unsupported file type", http.StatusBadRequest)
				return
			}
			if err != nil {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			imagePath = &saved
		}

		if _, err := createPost(b.db, title, content, userID, imagePath); err != nil {
			b.media.removeQuietly(imagePath)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		setFlash(w, "success", "Post created.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (b *Blog) Edit(w http.ResponseWriter, r *http.Request, userID int) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	post, err := getPostByID(b.db, id)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ownership is checked before the form is even shown, and again before
	// any file or record is touched.
	if err := canMutatePost(post, userID); err != nil {
		b.denyMutation(w, r, err, fmt.Sprintf("/post/%d", id))
		return
	}

	if r.Method == http.MethodGet {
		data := map[string]any{
			"Title":           fmt.Sprintf("Editing %q", post.Title),
			"Post":            post,
			"IsAuthenticated": true,
			"Flash":           popFlash(w, r),
			"CSRFToken":       ensureCSRFToken(w, r),
		}
		err = b.templates["edit.html"].ExecuteTemplate(w, "base", data)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	if r.Method == http.MethodPost {
		if !b.parseUploadForm(w, r) {
			return
		}

		title := r.FormValue("title")
		content := r.FormValue("content")

		if title == "" || content == "" {
			http.Error(w, "Title and content are required", http.StatusBadRequest)
			return
		}

		file, filename, err := formImage(r)
		if err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		if file != nil {
			defer file.Close()
		}

		clearImage := r.FormValue("remove_image") == "on"

		imagePath, err := b.media.replace(post.ImagePath, file, filename, clearImage)
		if errors.Is(err, ErrUnsupportedFileType) {
			http.Error(w, "Unsupported file type", http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if err := updatePost(b.db, id, title, content, imagePath); err != nil {
			if errors.Is(err, ErrPostNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		setFlash(w, "success", "Post updated.")
		http.Redirect(w, r, fmt.Sprintf("/post/%d", id), http.StatusSeeOther)
	}
}

func (b *Blog) Delete(w http.ResponseWriter, r *http.Request, userID int) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	post, err := getPostByID(b.db, id)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := canMutatePost(post, userID); err != nil {
		b.denyMutation(w, r, err, "/")
		return
	}

	if r.Method == http.MethodGet {
		data := map[string]any{
			"Title":           fmt.Sprintf("Deleting %q", post.Title),
			"Post":            post,
			"IsAuthenticated": true,
			"Flash":           popFlash(w, r),
			"CSRFToken":       ensureCSRFToken(w, r),
		}
		err = b.templates["delete.html"].ExecuteTemplate(w, "base", data)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	if r.Method == http.MethodPost {
		if !parseFormWithCSRF(w, r) {
			return
		}

		// Record first, then the file: a crash in between leaves an
		// orphaned file, never a live record pointing at a missing one.
		if err := deletePost(b.db, id); err != nil {
			if errors.Is(err, ErrPostNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		b.media.removeQuietly(post.ImagePath)

		setFlash(w, "success", "Post deleted.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// denyMutation turns an authorization failure into its boundary response:
// absent posts are a plain 404, foreign posts a flash and redirect.
func (b *Blog) denyMutation(w http.ResponseWriter, r *http.Request, err error, redirectTo string) {
	if errors.Is(err, ErrPostNotFound) {
		http.NotFound(w, r)
		return
	}
	setFlash(w, "danger", "You are not the author of this post.")
	http.Redirect(w, r, redirectTo, http.StatusSeeOther)
}

// parseUploadForm parses a multipart form capped at the configured upload
// size and validates its CSRF token.
func (b *Blog) parseUploadForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, b.media.maxBytes)
	if err := r.ParseMultipartForm(b.media.maxBytes); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return false
	}
	if !validateCSRF(r) {
		http.Error(w, "Invalid CSRF token", http.StatusForbidden)
		return false
	}
	return true
}

// formImage returns the uploaded image and its original filename, or a nil
// file when the form carried no upload. A part with an empty filename counts
// as no upload.
func formImage(r *http.Request) (multipart.File, string, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	if header.Filename == "" {
		file.Close()
		return nil, "", nil
	}
	return file, header.Filename, nil
}

// renderAuthPage renders the login or register form. Cookies (flash, CSRF)
// are written before the status line goes out.
func (b *Blog) renderAuthPage(w http.ResponseWriter, r *http.Request, page, title, errMsg string, status int) {
	data := map[string]any{
		"Title":           title,
		"Error":           errMsg,
		"IsAuthenticated": b.currentUserID(r) != 0,
		"Flash":           popFlash(w, r),
		"CSRFToken":       ensureCSRFToken(w, r),
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := b.templates[page].ExecuteTemplate(w, "base", data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
