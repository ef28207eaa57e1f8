package history

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"classforge/internal/engine/workspace"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_AppendAndLoadSince(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	batch := []Entry{
		{Kind: "class_rename", Old: "Car", New: "Truck", GroupID: "g1", Timestamp: base},
		{Kind: "change", Field: "CLASS", Old: "Car", New: "Truck", GroupID: "g1", Timestamp: base},
		{Kind: "method_rename", Old: "start", New: "go", GroupID: "g2", Timestamp: base.Add(2 * time.Hour)},
	}
	if err := store.Append("garage", batch); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := store.LoadSince("garage", base.Add(time.Hour))
	if err != nil {
		t.Fatalf("load since: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry after since filter, got %d", len(got))
	}
	if got[0].Kind != "method_rename" || got[0].New != "go" {
		t.Fatalf("unexpected entry: %+v", got[0])
	}

	all, err := store.LoadSince("garage", time.Time{})
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].ID >= all[1].ID {
		t.Fatal("expected insertion order by id")
	}
	if all[0].WorkspaceKey != "garage" {
		t.Fatalf("expected workspace key to be stamped, got %q", all[0].WorkspaceKey)
	}
}

func TestStore_LoadGroup(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	if err := store.Append("garage", []Entry{
		{Kind: "class_rename", GroupID: "g1", Timestamp: base},
		{Kind: "change", GroupID: "g1", Timestamp: base},
		{Kind: "change", GroupID: "g2", Timestamp: base},
	}); err != nil {
		t.Fatal(err)
	}

	g1, err := store.LoadGroup("garage", "g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(g1) != 2 {
		t.Fatalf("expected 2 entries in g1, got %d", len(g1))
	}

	none, err := store.LoadGroup("garage", "missing")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Fatalf("expected empty result for unknown group, got %d", len(none))
	}
}

func TestStore_WorkspaceIsolation(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	if err := store.Append("a", []Entry{{Kind: "create", Timestamp: base}}); err != nil {
		t.Fatal(err)
	}
	if err := store.Append("b", []Entry{{Kind: "dispose", Timestamp: base}}); err != nil {
		t.Fatal(err)
	}

	aRows, err := store.LoadSince("a", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(aRows) != 1 || aRows[0].Kind != "create" {
		t.Fatalf("unexpected rows for a: %+v", aRows)
	}
	bRows, err := store.LoadSince("b", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(bRows) != 1 || bRows[0].Kind != "dispose" {
		t.Fatalf("unexpected rows for b: %+v", bRows)
	}
}

func TestStore_Prune(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	if err := store.Append("garage", []Entry{
		{Kind: "create", Timestamp: base.Add(-48 * time.Hour)},
		{Kind: "create", Timestamp: base},
	}); err != nil {
		t.Fatal(err)
	}

	removed, err := store.Prune("garage", base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned entry, got %d", removed)
	}
	rest, err := store.LoadSince("garage", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 1 || !rest[0].Timestamp.Equal(base) {
		t.Fatalf("unexpected survivors: %+v", rest)
	}
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir())
	if err == nil {
		t.Fatal("expected open error for directory path")
	}
	if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStore_OpenCorruptDBPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	if err := os.WriteFile(path, []byte("this is not sqlite"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if err == nil {
		t.Fatal("expected sqlite open error")
	}
	lower := strings.ToLower(err.Error())
	if !strings.Contains(lower, "not a database") && !strings.Contains(lower, "schema") {
		t.Fatalf("expected schema/open error, got: %v", err)
	}
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	_, err = store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1)
	if err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open(driverName, "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	err = EnsureSchema(db)
	if err == nil {
		t.Fatal("expected drift error")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuildActivityReport(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	entries := []Entry{
		{Kind: "class_rename", GroupID: "g1", Timestamp: base},
		{Kind: "change", GroupID: "g1", Timestamp: base.Add(time.Minute)},
		{Kind: "var_retype", GroupID: "g1", Timestamp: base.Add(time.Minute)},
		{Kind: "method_rename", GroupID: "g2", Timestamp: base.Add(25 * time.Hour)},
	}

	report, err := BuildActivityReport("garage", entries, 24*time.Hour)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if report.EntryCount != 4 {
		t.Fatalf("expected entry_count=4, got %d", report.EntryCount)
	}
	if report.GestureCount != 2 {
		t.Fatalf("expected 2 gestures, got %d", report.GestureCount)
	}
	if len(report.Points) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(report.Points))
	}
	first := report.Points[0]
	if first.Total != 3 || first.ClassRenames != 1 || first.Retypes != 1 || first.Gestures != 1 {
		t.Fatalf("unexpected first bucket: %+v", first)
	}
	if report.Points[1].MethodRenames != 1 {
		t.Fatalf("unexpected second bucket: %+v", report.Points[1])
	}

	if _, err := BuildActivityReport("garage", nil, time.Hour); err == nil {
		t.Fatal("expected error for empty journal")
	}
}

func TestRecorder_BuffersAndFlushes(t *testing.T) {
	store := openTestStore(t)

	reg := workspace.NewRegistry()
	reg.Register("note", func(ws *workspace.Workspace) workspace.Block {
		b := &noteBlock{}
		b.Base = workspace.NewBase(ws, b, "note")
		return b
	})
	ws := workspace.New(reg)
	rec := Record(ws, "garage", "session")

	b, err := ws.NewBlock("note")
	if err != nil {
		t.Fatal(err)
	}
	b.SetField("NAME", "Car")

	if rec.Pending() != 2 {
		t.Fatalf("expected 2 buffered entries, got %d", rec.Pending())
	}
	if err := rec.Flush(store); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if rec.Pending() != 0 {
		t.Fatalf("expected drained buffer, got %d", rec.Pending())
	}

	rows, err := store.LoadSince("garage", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Kind != "create" || rows[1].Kind != "change" {
		t.Fatalf("unexpected journal rows: %+v", rows)
	}
	if rows[1].Source != "session" {
		t.Fatalf("expected source tag, got %q", rows[1].Source)
	}

	rec.Detach()
	b.SetField("NAME", "Truck")
	if rec.Pending() != 0 {
		t.Fatalf("detached recorder must not observe, got %d", rec.Pending())
	}
}

type noteBlock struct{ workspace.Base }
