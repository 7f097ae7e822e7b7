package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var ErrUnsupportedFileType = errors.New("unsupported file type")

// mediaStore manages uploaded files under a single root directory. Stored
// paths are relative to the root and always forward-slash separated.
type mediaStore struct {
	root        string
	maxBytes    int64
	allowedExts map[string]bool
}

func newMediaStore(root string, maxBytes int64, exts []string) (*mediaStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating media root: %w", err)
	}

	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(ext, ".")))
		if ext != "" {
			allowed[ext] = true
		}
	}

	return &mediaStore{root: root, maxBytes: maxBytes, allowedExts: allowed}, nil
}

// allowedFile reports whether the filename carries an extension on the
// allow-list. The check is case-insensitive; filenames without an extension
// are rejected.
func (m *mediaStore) allowedFile(filename string) bool {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return false
	}
	return m.allowedExts[strings.ToLower(ext)]
}

// sanitizeFilename strips directory components and any characters outside
// [a-zA-Z0-9._-], so the result is always safe to join under the media root.
func sanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}

	return strings.TrimLeft(b.String(), ".")
}

// save writes the upload under the media root and returns its path relative
// to the root. The stored name is the sanitized original prefixed with a
// timestamp; a counter suffix covers uploads landing in the same second.
func (m *mediaStore) save(src io.Reader, originalFilename string) (string, error) {
	if !m.allowedFile(originalFilename) {
		return "", ErrUnsupportedFileType
	}

	name := time.Now().Format("20060102150405") + "-" + sanitizeFilename(originalFilename)

	relPath := name
	for i := 2; ; i++ {
		_, err := os.Stat(filepath.Join(m.root, relPath))
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("checking media file: %w", err)
		}
		ext := path.Ext(name)
		relPath = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), i, ext)
	}

	dst, err := os.OpenFile(filepath.Join(m.root, relPath), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating media file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("writing media file: %w", err)
	}

	return relPath, nil
}

// remove deletes the file at relPath under the media root. A missing file is
// not an error, so callers can remove speculatively.
func (m *mediaStore) remove(relPath string) error {
	if relPath == "" {
		return nil
	}

	full, err := m.resolve(relPath)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing media file: %w", err)
	}
	return nil
}

// removeQuietly logs and swallows removal failures. Removal is idempotent,
// so cleanup after a record change is best-effort.
func (m *mediaStore) removeQuietly(relPath *string) {
	if relPath == nil {
		return
	}
	if err := m.remove(*relPath); err != nil {
		log.Printf("removing media file %s: %v", *relPath, err)
	}
}

// replace applies the three-way policy for a post's image on edit: a new
// valid upload replaces the old file, an explicit clear removes it, and
// anything else leaves the existing path untouched. The new file is written
// before the old one is removed, so an interrupted edit can leave an
// orphaned file but never a reference to a missing one.
func (m *mediaStore) replace(existing *string, src io.Reader, originalFilename string, clearImage bool) (*string, error) {
	if src == nil || originalFilename == "" {
		if clearImage {
			m.removeQuietly(existing)
			return nil, nil
		}
		return existing, nil
	}

	newPath, err := m.save(src, originalFilename)
	if err != nil {
		return existing, err
	}
	m.removeQuietly(existing)
	return &newPath, nil
}

// resolve joins relPath under the media root, rejecting paths that would
// escape it.
func (m *mediaStore) resolve(relPath string) (string, error) {
	local := filepath.FromSlash(relPath)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("media path %q escapes the media root", relPath)
	}
	return filepath.Join(m.root, local), nil
}
