// # internal/session/session_test.go
package session

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"classforge/internal/core/errors"
	"classforge/internal/core/ports"
	"classforge/internal/data/history"
	"classforge/internal/engine/index"
	"classforge/internal/engine/palette"
	"classforge/internal/engine/workspace"
	"classforge/internal/session/contracts"
)

// fakeEngine records the last call and returns canned results.
type fakeEngine struct {
	lastOp     string
	lastRename ports.RenameRequest

	classes   []workspace.ClassDefinition
	members   []index.Member
	sites     []workspace.ReferenceSite
	entries   []history.Entry
	renameOut ports.RenameResult
	err       error
}

func (f *fakeEngine) ListClasses(ctx context.Context) ([]workspace.ClassDefinition, error) {
	f.lastOp = "ListClasses"
	return f.classes, f.err
}

func (f *fakeEngine) LookupClass(ctx context.Context, name string) (workspace.ClassDefinition, error) {
	f.lastOp = "LookupClass"
	if f.err != nil {
		return workspace.ClassDefinition{}, f.err
	}
	for _, def := range f.classes {
		if def.Name == name {
			return def, nil
		}
	}
	return workspace.ClassDefinition{}, errors.New(errors.CodeNotFound, "class not found")
}

func (f *fakeEngine) LookupMethod(ctx context.Context, name string) (ports.MethodLookup, error) {
	f.lastOp = "LookupMethod"
	return ports.MethodLookup{}, f.err
}

func (f *fakeEngine) LegalName(ctx context.Context, req ports.LegalNameRequest) (string, error) {
	f.lastOp = "LegalName"
	return req.Proposed + "2", f.err
}

func (f *fakeEngine) FindReferences(ctx context.Context, className string) ([]workspace.ReferenceSite, error) {
	f.lastOp = "FindReferences"
	return f.sites, f.err
}

func (f *fakeEngine) FindMembers(ctx context.Context, className string) ([]index.Member, error) {
	f.lastOp = "FindMembers"
	return f.members, f.err
}

func (f *fakeEngine) FindConstructor(ctx context.Context, className string) (workspace.ConstructorSignature, bool, error) {
	f.lastOp = "FindConstructor"
	return workspace.ConstructorSignature{Parameters: []string{"size"}}, true, f.err
}

func (f *fakeEngine) RenameClass(ctx context.Context, req ports.RenameRequest) (ports.RenameResult, error) {
	f.lastOp = "RenameClass"
	f.lastRename = req
	return f.renameOut, f.err
}

func (f *fakeEngine) RenameMethod(ctx context.Context, req ports.RenameRequest) (ports.RenameResult, error) {
	f.lastOp = "RenameMethod"
	f.lastRename = req
	return f.renameOut, f.err
}

func (f *fakeEngine) MutateCallers(ctx context.Context, className string) (int, error) {
	f.lastOp = "MutateCallers"
	return 3, f.err
}

func (f *fakeEngine) BuildPalette(ctx context.Context) ([]palette.Template, error) {
	f.lastOp = "BuildPalette"
	return []palette.Template{{Type: "class_def"}}, f.err
}

func (f *fakeEngine) LoadWorkspace(ctx context.Context, req ports.LoadRequest) (ports.LoadResult, error) {
	f.lastOp = "LoadWorkspace"
	return ports.LoadResult{Path: req.Path, Blocks: 4, Classes: 1}, f.err
}

func (f *fakeEngine) SaveWorkspace(ctx context.Context, req ports.SaveRequest) (ports.SaveResult, error) {
	f.lastOp = "SaveWorkspace"
	return ports.SaveResult{Path: req.Path, Bytes: 128}, f.err
}

func (f *fakeEngine) History(ctx context.Context, req ports.HistoryRequest) ([]history.Entry, error) {
	f.lastOp = "History"
	return f.entries, f.err
}

func (f *fakeEngine) Health(ctx context.Context) (ports.HealthReport, error) {
	f.lastOp = "Health"
	return ports.HealthReport{Status: "up", Version: "test", Uptime: 90 * time.Second}, f.err
}

var _ ports.EngineService = (*fakeEngine)(nil)

func TestHandleClassList(t *testing.T) {
	engine := &fakeEngine{classes: []workspace.ClassDefinition{
		{Name: "Car", Attributes: []string{"speed"}, Methods: []workspace.MethodDefinition{
			{Name: "drive", Parameters: []string{"distance"}, HasReturn: true},
		}},
	}}
	d := NewDispatcher(engine, 0)

	result, err := d.Handle(context.Background(), "class.list", nil)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	out, ok := result.(contracts.ClassListOutput)
	if !ok {
		t.Fatalf("Expected ClassListOutput, got %T", result)
	}
	if len(out.Classes) != 1 || out.Classes[0].Name != "Car" {
		t.Fatalf("Expected one class Car, got %+v", out.Classes)
	}
	if len(out.Classes[0].Methods) != 1 || !out.Classes[0].Methods[0].HasReturn {
		t.Errorf("Expected method snapshot with return flag, got %+v", out.Classes[0].Methods)
	}
}

func TestHandleRenameClassPassesThrough(t *testing.T) {
	engine := &fakeEngine{renameOut: ports.RenameResult{LegalName: "Car3", SitesUpdated: 2}}
	d := NewDispatcher(engine, 0)

	result, err := d.Handle(context.Background(), "class.rename",
		map[string]any{"old_name": "Car", "new_name": "Car2"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	out := result.(contracts.RenameOutput)
	if out.LegalName != "Car3" {
		t.Errorf("Expected legal name Car3, got %q", out.LegalName)
	}
	if out.SitesUpdated != 2 {
		t.Errorf("Expected 2 sites updated, got %d", out.SitesUpdated)
	}
	if engine.lastRename.OldName != "Car" || engine.lastRename.NewName != "Car2" {
		t.Errorf("Expected rename request Car->Car2, got %+v", engine.lastRename)
	}
}

func TestHandleValidationStopsBeforeEngine(t *testing.T) {
	engine := &fakeEngine{}
	d := NewDispatcher(engine, 0)

	_, err := d.Handle(context.Background(), "class.rename", map[string]any{"old_name": "Car"})
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if engine.lastOp != "" {
		t.Errorf("Expected engine untouched, got call to %s", engine.lastOp)
	}
}

func TestHandleTranslatesDomainErrors(t *testing.T) {
	cases := []struct {
		domain errors.ErrorCode
		wire   string
	}{
		{errors.CodeNotFound, contracts.ErrorNotFound},
		{errors.CodeValidationError, contracts.ErrorInvalidArgument},
		{errors.CodeConflict, contracts.ErrorConflict},
		{errors.CodeNotSupported, contracts.ErrorUnavailable},
		{errors.CodeInternal, contracts.ErrorInternal},
	}
	for _, tc := range cases {
		engine := &fakeEngine{err: errors.New(tc.domain, "boom")}
		d := NewDispatcher(engine, 0)
		_, err := d.Handle(context.Background(), "members.find", map[string]any{"class": "Car"})
		var opErr contracts.OpError
		if !stderrors.As(err, &opErr) {
			t.Fatalf("Expected OpError for %s, got %v", tc.domain, err)
		}
		if opErr.Code != tc.wire {
			t.Errorf("Expected %s -> %s, got %s", tc.domain, tc.wire, opErr.Code)
		}
	}
}

func TestHandleRefsFindCapsResponse(t *testing.T) {
	engine := &fakeEngine{}
	for i := 0; i < 10; i++ {
		engine.sites = append(engine.sites, workspace.ReferenceSite{BlockID: "b", BoundClass: "Car"})
	}
	d := NewDispatcher(engine, 4)

	result, err := d.Handle(context.Background(), "refs.find", map[string]any{"class": "Car"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	out := result.(contracts.RefsFindOutput)
	if len(out.Sites) != 4 {
		t.Errorf("Expected response capped at 4 sites, got %d", len(out.Sites))
	}
}

func TestHandleHistoryFormatsTimestamps(t *testing.T) {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	engine := &fakeEngine{entries: []history.Entry{
		{ID: 1, Kind: "class_rename", Old: "Car", New: "Auto", Timestamp: ts},
	}}
	d := NewDispatcher(engine, 0)

	result, err := d.Handle(context.Background(), "history.list", nil)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	out := result.(contracts.HistoryListOutput)
	if out.EntryCount != 1 {
		t.Fatalf("Expected 1 entry, got %d", out.EntryCount)
	}
	if out.Entries[0].Timestamp != "2026-08-01T12:00:00Z" {
		t.Errorf("Expected RFC3339 timestamp, got %q", out.Entries[0].Timestamp)
	}
}

func TestHandleHealthReportsUptimeSeconds(t *testing.T) {
	d := NewDispatcher(&fakeEngine{}, 0)
	result, err := d.Handle(context.Background(), "system.health", nil)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	out := result.(contracts.SystemHealthOutput)
	if out.Status != "up" {
		t.Errorf("Expected status up, got %q", out.Status)
	}
	if out.UptimeSeconds != 90 {
		t.Errorf("Expected uptime 90s, got %d", out.UptimeSeconds)
	}
}
