package main

import (
	"database/sql"
	"html/template"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Blog struct {
	db        *sql.DB
	media     *mediaStore
	templates map[string]*template.Template
}

func NewBlog(db *sql.DB, media *mediaStore) *Blog {
	return &Blog{
		db:        db,
		media:     media,
		templates: loadTemplates(),
	}
}

func main() {
	godotenv.Load()

	initAuth()

	db, err := openDB(envDefault("DATABASE_PATH", "blog.db"))
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err = initDB(db); err != nil {
		log.Fatalf("initializing database: %v", err)
	}

	if err = seedSettings(db); err != nil {
		log.Fatalf("seeding settings: %v", err)
	}

	if err = cleanupExpiredSessions(db); err != nil {
		log.Printf("cleaning up expired sessions: %v", err)
	}

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			if err := cleanupExpiredSessions(db); err != nil {
				log.Printf("cleaning up expired sessions: %v", err)
			}
		}
	}()

	mediaRoot := envDefault("MEDIA_ROOT", "static/media")
	media, err := newMediaStore(
		mediaRoot,
		envInt64("MAX_UPLOAD_SIZE", 16<<20),
		strings.Split(envDefault("ALLOWED_EXTENSIONS", "png,jpg,jpeg,gif"), ","),
	)
	if err != nil {
		log.Fatalf("initializing media store: %v", err)
	}

	blog := NewBlog(db, media)

	fs := http.FileServer(http.Dir("static"))
	http.Handle("/static/", http.StripPrefix("/static/", fs))
	http.Handle("/media/", http.StripPrefix("/media/", http.FileServer(http.Dir(mediaRoot))))

	// Public routes
	http.HandleFunc("/", blog.Home)
	http.HandleFunc("/post/{id}", blog.Detail)
	http.HandleFunc("/register", blog.Register)
	http.HandleFunc("/login", blog.Login)
	http.HandleFunc("/logout", blog.Logout)

	// Protected routes
	http.HandleFunc("/new", blog.requireAuth(blog.Create))
	http.HandleFunc("/post/{id}/edit", blog.requireAuth(blog.Edit))
	http.HandleFunc("/post/{id}/delete", blog.requireAuth(blog.Delete))

	port := envDefault("PORT", "8080")
	log.Println("Server starting on :" + port)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("invalid %s %q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}
