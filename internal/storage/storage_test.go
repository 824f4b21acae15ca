package storage

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

// newTestImage はテスト用の単色画像を作る
func newTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 128, G: 64, B: 32, A: 255})
		}
	}
	return img
}

func TestImageStore_SaveJPEGAndPNG(t *testing.T) {
	store, err := NewImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewImageStore failed: %v", err)
	}

	// JPEGは .jpg 拡張子で保存される
	filename, err := store.Save(newTestImage(8, 8), "abc123", "jpeg", 95)
	if err != nil {
		t.Fatalf("Save jpeg failed: %v", err)
	}
	if filename != "abc123.jpg" {
		t.Errorf("Expected abc123.jpg, got %s", filename)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), filename)); err != nil {
		t.Errorf("Expected saved file to exist: %v", err)
	}

	// PNGは .png 拡張子で保存される
	filename, err = store.Save(newTestImage(8, 8), "def456", "png", 95)
	if err != nil {
		t.Fatalf("Save png failed: %v", err)
	}
	if filename != "def456.png" {
		t.Errorf("Expected def456.png, got %s", filename)
	}
}

func TestImageStore_ResolveKnownFile(t *testing.T) {
	store, err := NewImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewImageStore failed: %v", err)
	}

	filename, err := store.Save(newTestImage(4, 4), "known", "png", 95)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	path, err := store.Resolve(filename)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if filepath.Dir(path) != store.Dir() {
		t.Errorf("Expected resolved path inside %s, got %s", store.Dir(), path)
	}
}

func TestImageStore_ResolveUnknownFile(t *testing.T) {
	store, err := NewImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewImageStore failed: %v", err)
	}

	_, err = store.Resolve("missing.png")
	if !errors.Is(err, ErrImageNotFound) {
		t.Errorf("Expected ErrImageNotFound, got %v", err)
	}
}

func TestImageStore_ResolveRejectsTraversal(t *testing.T) {
	store, err := NewImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewImageStore failed: %v", err)
	}

	traversals := []string{
		"../secret.png",
		"..",
		"sub/secret.png",
		"/etc/passwd",
		".hidden",
		"",
	}

	for _, filename := range traversals {
		_, err := store.Resolve(filename)
		if !errors.Is(err, ErrInvalidImagePath) {
			t.Errorf("Expected ErrInvalidImagePath for %q, got %v", filename, err)
		}
	}
}

func TestMediaType(t *testing.T) {
	testCases := []struct {
		filename string
		expected string
	}{
		{"a.jpg", "image/jpeg"},
		{"a.jpeg", "image/jpeg"},
		{"a.JPG", "image/jpeg"},
		{"a.png", "image/png"},
		{"a.bin", "application/octet-stream"},
		{"noext", "application/octet-stream"},
	}

	for _, tc := range testCases {
		if got := MediaType(tc.filename); got != tc.expected {
			t.Errorf("MediaType(%q) = %q, want %q", tc.filename, got, tc.expected)
		}
	}
}
