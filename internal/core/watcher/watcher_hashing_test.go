package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_ContentHashing(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "watcher-hash-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	changedFiles := make(chan []string, 10)
	w, err := NewWatcher(50*time.Millisecond, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.Watch([]string{tmpDir})
	time.Sleep(100 * time.Millisecond)

	testFile := filepath.Join(tmpDir, "garage.cfw")
	content := []byte(`{"version": 1, "blocks": []}`)

	// Initial create
	if err := os.WriteFile(testFile, content, 0644); err != nil {
		t.Fatal(err)
	}

	// Wait for initial event
	select {
	case <-changedFiles:
		// OK
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for create event")
	}

	// Touch without change: rewrite the same bytes.
	if err := os.WriteFile(testFile, content, 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changedFiles:
		t.Errorf("Received unexpected event for identical content: %v", paths)
	case <-time.After(200 * time.Millisecond):
		// Expected timeout - no event should fire
	}

	// Change content
	newContent := []byte(`{"version": 1, "variables": []}`)
	if err := os.WriteFile(testFile, newContent, 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == testFile {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected event for %s, got %v", testFile, paths)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Timed out waiting for content change")
	}

	// Removal must report even though the content cannot be read.
	if err := os.Remove(testFile); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == testFile {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected removal event for %s, got %v", testFile, paths)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Timed out waiting for removal event")
	}
}
