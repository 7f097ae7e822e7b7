package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupMediaStore(t *testing.T) *mediaStore {
	t.Helper()
	media, err := newMediaStore(t.TempDir(), 16<<20, []string{"png", "jpg", "jpeg", "gif"})
	if err != nil {
		t.Fatalf("newMediaStore() error: %v", err)
	}
	return media
}

func mediaFileExists(t *testing.T, m *mediaStore, relPath string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(m.root, filepath.FromSlash(relPath)))
	return err == nil
}

func saveTestFile(t *testing.T, m *mediaStore, filename, content string) string {
	t.Helper()
	relPath, err := m.save(strings.NewReader(content), filename)
	if err != nil {
		t.Fatalf("save(%q) error: %v", filename, err)
	}
	return relPath
}

func TestAllowedFile(t *testing.T) {
	media := setupMediaStore(t)

	tests := []struct {
		filename string
		want     bool
	}{
		{"photo.png", true},
		{"photo.jpg", true},
		{"photo.jpeg", true},
		{"photo.gif", true},
		{"photo.JPG", true},
		{"photo.PnG", true},
		{"doc.pdf", false},
		{"noext", false},
		{"archive.tar.gz", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := media.allowedFile(tt.filename)
			if got != tt.want {
				t.Errorf("allowedFile(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"plain name", "photo.png", "photo.png"},
		{"strips directories", "../../etc/passwd.png", "passwd.png"},
		{"strips windows directories", `C:\tmp\pic.jpg`, "pic.jpg"},
		{"strips unsafe characters", "my photo!.png", "myphoto.png"},
		{"strips leading dots", ".hidden.png", "hidden.png"},
		{"keeps dashes and underscores", "a-b_c.png", "a-b_c.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeFilename(tt.filename)
			if got != tt.want {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestSave(t *testing.T) {
	media := setupMediaStore(t)

	relPath := saveTestFile(t, media, "photo.png", "image bytes")

	if !strings.HasSuffix(relPath, "-photo.png") {
		t.Errorf("expected timestamp-prefixed name ending in '-photo.png', got %q", relPath)
	}
	if strings.ContainsAny(relPath, `/\`) {
		t.Errorf("expected a bare relative filename, got %q", relPath)
	}

	data, err := os.ReadFile(filepath.Join(media.root, relPath))
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(data) != "image bytes" {
		t.Errorf("expected file content 'image bytes', got %q", data)
	}
}

func TestSave_UnsupportedType(t *testing.T) {
	media := setupMediaStore(t)

	_, err := media.save(strings.NewReader("not an image"), "doc.pdf")
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Errorf("expected ErrUnsupportedFileType, got %v", err)
	}
}

func TestSave_SameNameSameSecond(t *testing.T) {
	media := setupMediaStore(t)

	first := saveTestFile(t, media, "photo.png", "one")
	second := saveTestFile(t, media, "photo.png", "two")

	if first == second {
		t.Fatalf("expected distinct paths for same-name uploads, both got %q", first)
	}
	if !mediaFileExists(t, media, first) || !mediaFileExists(t, media, second) {
		t.Error("expected both uploads to exist on disk")
	}
}

func TestRemove_Idempotent(t *testing.T) {
	media := setupMediaStore(t)

	relPath := saveTestFile(t, media, "photo.png", "bytes")

	if err := media.remove(relPath); err != nil {
		t.Fatalf("first remove() error: %v", err)
	}
	if mediaFileExists(t, media, relPath) {
		t.Error("expected file to be removed")
	}

	// Removing a missing file is not an error
	if err := media.remove(relPath); err != nil {
		t.Errorf("second remove() error: %v", err)
	}
}

func TestRemove_EmptyPath(t *testing.T) {
	media := setupMediaStore(t)

	if err := media.remove(""); err != nil {
		t.Errorf("remove(\"\") error: %v", err)
	}
}

func TestRemove_RejectsEscapingPath(t *testing.T) {
	media := setupMediaStore(t)

	if err := media.remove("../outside.png"); err == nil {
		t.Error("expected error for path escaping the media root")
	}
}

func TestReplace_NoUploadNoClear(t *testing.T) {
	media := setupMediaStore(t)

	existing := saveTestFile(t, media, "old.png", "old bytes")

	got, err := media.replace(&existing, nil, "", false)
	if err != nil {
		t.Fatalf("replace() error: %v", err)
	}
	if got == nil || *got != existing {
		t.Errorf("expected existing path %q to be kept, got %v", existing, got)
	}
	if !mediaFileExists(t, media, existing) {
		t.Error("expected existing file to be untouched")
	}
}

func TestReplace_NewUpload(t *testing.T) {
	media := setupMediaStore(t)

	existing := saveTestFile(t, media, "old.png", "old bytes")

	got, err := media.replace(&existing, strings.NewReader("new bytes"), "new.png", false)
	if err != nil {
		t.Fatalf("replace() error: %v", err)
	}
	if got == nil {
		t.Fatal("expected new path, got nil")
	}
	if *got == existing {
		t.Errorf("expected a new path, got the old one %q", existing)
	}
	if mediaFileExists(t, media, existing) {
		t.Error("expected old file to be removed")
	}
	if !mediaFileExists(t, media, *got) {
		t.Error("expected new file to exist")
	}
}

func TestReplace_Clear(t *testing.T) {
	media := setupMediaStore(t)

	existing := saveTestFile(t, media, "old.png", "old bytes")

	got, err := media.replace(&existing, nil, "", true)
	if err != nil {
		t.Fatalf("replace() error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil path after clear, got %q", *got)
	}
	if mediaFileExists(t, media, existing) {
		t.Error("expected old file to be removed")
	}
}

func TestReplace_ClearWithNoExisting(t *testing.T) {
	media := setupMediaStore(t)

	got, err := media.replace(nil, nil, "", true)
	if err != nil {
		t.Fatalf("replace() error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil path, got %q", *got)
	}
}

func TestReplace_InvalidUploadKeepsExisting(t *testing.T) {
	media := setupMediaStore(t)

	existing := saveTestFile(t, media, "old.png", "old bytes")

	got, err := media.replace(&existing, strings.NewReader("bytes"), "doc.pdf", false)
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
	if got == nil || *got != existing {
		t.Errorf("expected existing path %q to be kept on failure, got %v", existing, got)
	}
	if !mediaFileExists(t, media, existing) {
		t.Error("expected old file to survive a failed replacement")
	}
}

func TestNewMediaStore_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "media")

	if _, err := newMediaStore(root, 16<<20, []string{"png"}); err != nil {
		t.Fatalf("newMediaStore() error: %v", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		t.Fatalf("stat media root: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected media root to be a directory")
	}
}
