package batch

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func TestFindImagesFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.png"))
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "c.JPG"))

	images, err := FindImages(dir, false)
	if err != nil {
		t.Fatalf("FindImages failed: %v", err)
	}

	if len(images) != 3 {
		t.Fatalf("expected 3 images, got %d: %v", len(images), images)
	}
	if !sort.StringsAreSorted(images) {
		t.Error("images must be sorted")
	}
	for _, image := range images {
		if !filepath.IsAbs(image) {
			t.Errorf("expected canonical absolute path, got %s", image)
		}
	}
}

func TestFindImagesRecursive(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "top.jpg"))
	touch(t, filepath.Join(dir, "sub", "nested.png"))

	flat, err := FindImages(dir, false)
	if err != nil {
		t.Fatalf("FindImages failed: %v", err)
	}
	if len(flat) != 1 {
		t.Errorf("non-recursive scan found %d images, want 1", len(flat))
	}

	deep, err := FindImages(dir, true)
	if err != nil {
		t.Fatalf("FindImages failed: %v", err)
	}
	if len(deep) != 2 {
		t.Errorf("recursive scan found %d images, want 2", len(deep))
	}
}

func TestFindImagesMissingDirectory(t *testing.T) {
	if _, err := FindImages(filepath.Join(t.TempDir(), "absent"), false); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFindImagesNotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.jpg")
	touch(t, file)

	if _, err := FindImages(file, false); err == nil {
		t.Error("expected error for non-directory")
	}
}

func TestIsSupportedImage(t *testing.T) {
	cases := map[string]bool{
		"photo.jpg":  true,
		"photo.JPEG": true,
		"scan.webp":  true,
		"notes.txt":  false,
		"archive":    false,
	}
	for path, want := range cases {
		if got := IsSupportedImage(path); got != want {
			t.Errorf("IsSupportedImage(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestCanonicalIsStable(t *testing.T) {
	if Canonical("img1.jpg") != Canonical("./img1.jpg") {
		t.Error("equivalent relative paths must canonicalize identically")
	}
}
