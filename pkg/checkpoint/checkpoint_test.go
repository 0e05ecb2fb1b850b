package checkpoint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"redditdl/pkg/logger"
)

func TestCheckpointManager(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	target := "pics+aww"

	t.Run("CreateAndLoad", func(t *testing.T) {
		mgr, err := NewManager(target, logger.NewNopLogger())
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		cp, err := mgr.Create(target, false, "top")
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}
		if cp.Target != target || cp.Sort != "top" || cp.Version != CurrentVersion {
			t.Errorf("unexpected checkpoint: %+v", cp)
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to load checkpoint: %v", err)
		}
		if loaded == nil {
			t.Fatal("Expected checkpoint, got nil")
		}
		if loaded.Target != target {
			t.Errorf("Expected loaded target %s, got %s", target, loaded.Target)
		}
	})

	t.Run("UpdateProgress", func(t *testing.T) {
		mgr, err := NewManager(target, nil)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		cp, err := mgr.Create(target, false, "")
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}

		counts := Counts{Processed: 25, Downloaded: 20, Skipped: 3, Exists: 1, Failed: 1}
		if err := mgr.UpdateProgress(cp, "t9z8y7", 5, counts); err != nil {
			t.Fatalf("Failed to update progress: %v", err)
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to load checkpoint: %v", err)
		}
		if loaded.LastID != "t9z8y7" {
			t.Errorf("Expected last id t9z8y7, got %s", loaded.LastID)
		}
		if loaded.LastProcessedPage != 5 {
			t.Errorf("Expected page 5, got %d", loaded.LastProcessedPage)
		}
		if loaded.Counts != counts {
			t.Errorf("Expected counts %+v, got %+v", counts, loaded.Counts)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		mgr, err := NewManager(target, nil)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		if _, err := mgr.Create(target, false, ""); err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}
		if !mgr.Exists() {
			t.Error("Expected checkpoint to exist")
		}

		if err := mgr.Delete(); err != nil {
			t.Fatalf("Failed to delete checkpoint: %v", err)
		}
		if mgr.Exists() {
			t.Error("Expected checkpoint to not exist after deletion")
		}
		if err := mgr.Delete(); err != nil {
			t.Errorf("Deleting a missing checkpoint should succeed, got %v", err)
		}
	})
}

func TestLoadMissingReturnsNil(t *testing.T) {
	mgr, err := NewManagerAt(t.TempDir(), "pics", nil)
	if err != nil {
		t.Fatal(err)
	}
	cp, err := mgr.Load()
	if err != nil || cp != nil {
		t.Errorf("Load() = %v, %v; want nil, nil", cp, err)
	}
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManagerAt(dir, "pics", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(mgr.Path(), []byte(`{"target":"pics","version":99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Load(); err == nil {
		t.Error("Expected an error for an unsupported version")
	}
}

func TestFileKey(t *testing.T) {
	tests := map[string]string{
		"pics":              "pics",
		"Pics+AWW":          "pics+aww",
		"jdoe/m/wallpapers": "jdoe_m_wallpapers",
		"/":                 "_",
	}
	for in, want := range tests {
		if got := fileKey(in); got != want {
			t.Errorf("fileKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTargetsDoNotShareFiles(t *testing.T) {
	dir := t.TempDir()
	a, _ := NewManagerAt(dir, "pics", nil)
	b, _ := NewManagerAt(dir, "aww", nil)
	if a.Path() == b.Path() {
		t.Fatal("distinct targets mapped to the same file")
	}
	if !strings.HasPrefix(a.Path(), dir) || filepath.Ext(a.Path()) != ".json" {
		t.Errorf("unexpected path %s", a.Path())
	}
}

func TestGetDataDirectory(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	dir, err := getDataDirectory()
	if err != nil {
		t.Fatalf("Failed to get data directory: %v", err)
	}
	if dir == "" {
		t.Error("Data directory is empty")
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("Data directory was not created: %v", err)
	}
}
