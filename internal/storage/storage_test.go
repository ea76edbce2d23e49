package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	path, err := store.Save(7, "evidence.jpg", strings.NewReader("jpeg bytes"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if filepath.Base(path) != "7_evidence.jpg" {
		t.Errorf("stored name = %s, want 7_evidence.jpg", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "jpeg bytes" {
		t.Errorf("content = %q", data)
	}

	if err := store.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should be gone after Remove")
	}
}

func TestSaveStripsDirectoryComponents(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	cases := []struct {
		filename string
		want     string
	}{
		{"../../etc/passwd", "3_passwd"},
		{"/tmp/abs.jpg", "3_abs.jpg"},
		{`..\..\windows\evil.exe`, "3_evil.exe"},
		{"", "3_attachment"},
		{"..", "3_attachment"},
	}

	for _, tc := range cases {
		path, err := store.Save(3, tc.filename, strings.NewReader("x"))
		if err != nil {
			t.Fatalf("Save(%q) failed: %v", tc.filename, err)
		}
		if filepath.Base(path) != tc.want {
			t.Errorf("Save(%q) = %s, want %s", tc.filename, filepath.Base(path), tc.want)
		}
		if filepath.Dir(path) != filepath.Clean(dir) {
			t.Errorf("Save(%q) escaped the store directory: %s", tc.filename, path)
		}
		os.Remove(path)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := store.Save(1, "a.txt", strings.NewReader("data")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestRemoveRejectsOutsidePaths(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := store.Remove("/etc/hosts"); err == nil {
		t.Error("Remove outside the store directory should fail")
	}
}
