// # internal/core/app/service.go
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"classforge/internal/core/config"
	"classforge/internal/core/errors"
	"classforge/internal/core/ports"
	"classforge/internal/data/history"
	"classforge/internal/data/markup"
	"classforge/internal/data/store"
	"classforge/internal/engine/index"
	"classforge/internal/engine/names"
	"classforge/internal/engine/palette"
	"classforge/internal/engine/propagate"
	"classforge/internal/engine/workspace"
	"classforge/internal/shared/observability"
	"classforge/internal/shared/util"
	"classforge/internal/shared/version"
)

// engineService adapts the App to the session-facing operation surface.
// Every method serializes on the app mutex, which is what makes the
// single-threaded engine safe to drive from concurrent transports.
type engineService struct {
	app *App
}

var _ ports.EngineService = (*engineService)(nil)

func NewEngineService(app *App) ports.EngineService {
	return &engineService{app: app}
}

func (a *App) EngineService() ports.EngineService {
	return NewEngineService(a)
}

func (s *engineService) ListClasses(ctx context.Context) ([]workspace.ClassDefinition, error) {
	ctx, span := observability.Tracer.Start(ctx, "engineService.ListClasses")
	defer span.End()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.app.mu.Lock()
	defer s.app.mu.Unlock()

	defs := make([]workspace.ClassDefinition, 0)
	for _, b := range s.app.Active().AllBlocks(false) {
		if cd, ok := b.(workspace.ClassDefiner); ok {
			if def := cd.Definition(); def.Name != "" {
				defs = append(defs, def)
			}
		}
	}
	return defs, nil
}

// LookupClass prefers the active workspace and falls back to the class
// catalog, which holds every scanned file.
func (s *engineService) LookupClass(ctx context.Context, name string) (workspace.ClassDefinition, error) {
	ctx, span := observability.Tracer.Start(ctx, "engineService.LookupClass")
	defer span.End()
	if err := ctx.Err(); err != nil {
		return workspace.ClassDefinition{}, err
	}
	if name == "" {
		return workspace.ClassDefinition{}, errors.New(errors.CodeValidationError, "class name is required")
	}

	s.app.mu.Lock()
	defer s.app.mu.Unlock()

	if def, ok := names.LookupClass(s.app.Active(), name); ok {
		return def, nil
	}
	if s.app.catalog != nil {
		if row, ok := s.app.catalog.Class(name); ok {
			return classRowDefinition(row), nil
		}
	}
	return workspace.ClassDefinition{}, notFound(fmt.Sprintf("class %q not found", name), errors.CtxClass, name)
}

func (s *engineService) LookupMethod(ctx context.Context, name string) (ports.MethodLookup, error) {
	ctx, span := observability.Tracer.Start(ctx, "engineService.LookupMethod")
	defer span.End()
	if err := ctx.Err(); err != nil {
		return ports.MethodLookup{}, err
	}
	if name == "" {
		return ports.MethodLookup{}, errors.New(errors.CodeValidationError, "method name is required")
	}

	s.app.mu.Lock()
	defer s.app.mu.Unlock()

	ws := s.app.Active()
	if def, ok := names.LookupMethod(ws, name); ok {
		return ports.MethodLookup{Class: methodOwner(ws, def.Name), Method: def}, nil
	}
	if s.app.catalog != nil {
		if lookup, ok := catalogMethod(s.app.catalog, name); ok {
			return lookup, nil
		}
	}
	return ports.MethodLookup{}, notFound(fmt.Sprintf("method %q not found", name), errors.CtxMember, name)
}

func (s *engineService) LegalName(ctx context.Context, req ports.LegalNameRequest) (string, error) {
	ctx, span := observability.Tracer.Start(ctx, "engineService.LegalName")
	defer span.End()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	kind, err := nameKind(req.Kind)
	if err != nil {
		return "", err
	}

	s.app.mu.Lock()
	defer s.app.mu.Unlock()

	ws := s.app.Active()
	if req.BlockID != "" {
		block, ok := ws.BlockByID(req.BlockID)
		if !ok {
			return "", notFound(fmt.Sprintf("block %q not found", req.BlockID), errors.CtxBlock, req.BlockID)
		}
		return names.FindLegalName(req.Proposed, block, kind), nil
	}
	return names.LegalNameIn(ws, req.Proposed, kind), nil
}

func (s *engineService) FindReferences(ctx context.Context, className string) ([]workspace.ReferenceSite, error) {
	ctx, span := observability.Tracer.Start(ctx, "engineService.FindReferences")
	defer span.End()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.app.mu.Lock()
	defer s.app.mu.Unlock()
	return index.Snapshots(s.app.Active(), className), nil
}

func (s *engineService) FindMembers(ctx context.Context, className string) ([]index.Member, error) {
	ctx, span := observability.Tracer.Start(ctx, "engineService.FindMembers")
	defer span.End()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.app.mu.Lock()
	defer s.app.mu.Unlock()
	return index.FindMembers(s.app.Active(), className), nil
}

func (s *engineService) FindConstructor(ctx context.Context, className string) (workspace.ConstructorSignature, bool, error) {
	ctx, span := observability.Tracer.Start(ctx, "engineService.FindConstructor")
	defer span.End()
	if err := ctx.Err(); err != nil {
		return workspace.ConstructorSignature{}, false, err
	}

	s.app.mu.Lock()
	defer s.app.mu.Unlock()
	sig, ok := index.FindConstructor(s.app.Active(), className)
	return sig, ok, nil
}

func (s *engineService) RenameClass(ctx context.Context, req ports.RenameRequest) (ports.RenameResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "engineService.RenameClass")
	defer span.End()
	if err := ctx.Err(); err != nil {
		return ports.RenameResult{}, err
	}

	s.app.mu.Lock()
	defer s.app.mu.Unlock()

	ws := s.app.Active()
	def, ok := names.LookupClassBlock(ws, req.OldName)
	if !ok {
		return ports.RenameResult{}, notFound(fmt.Sprintf("class %q not found", req.OldName), errors.CtxClass, req.OldName)
	}

	before := def.ClassName()
	sites := len(index.FindReferenceSites(ws, before))
	legal := propagate.RenameClass(def, req.NewName)
	if legal == before {
		return ports.RenameResult{LegalName: legal}, nil
	}

	s.app.afterMutation()
	return ports.RenameResult{LegalName: legal, SitesUpdated: sites}, nil
}

func (s *engineService) RenameMethod(ctx context.Context, req ports.RenameRequest) (ports.RenameResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "engineService.RenameMethod")
	defer span.End()
	if err := ctx.Err(); err != nil {
		return ports.RenameResult{}, err
	}

	s.app.mu.Lock()
	defer s.app.mu.Unlock()

	ws := s.app.Active()
	def, ok := names.LookupMethodBlock(ws, req.OldName)
	if !ok {
		return ports.RenameResult{}, notFound(fmt.Sprintf("method %q not found", req.OldName), errors.CtxMember, req.OldName)
	}

	before := def.MethodName()
	sites := countMemberSites(ws, before)
	legal := propagate.RenameMethod(def, req.NewName)
	if legal == before {
		return ports.RenameResult{LegalName: legal}, nil
	}

	s.app.afterMutation()
	return ports.RenameResult{LegalName: legal, SitesUpdated: sites}, nil
}

func (s *engineService) MutateCallers(ctx context.Context, className string) (int, error) {
	ctx, span := observability.Tracer.Start(ctx, "engineService.MutateCallers")
	defer span.End()
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.app.mu.Lock()
	defer s.app.mu.Unlock()

	count := propagate.MutateCallers(s.app.Active(), className)
	if count > 0 {
		s.app.afterMutation()
	}
	return count, nil
}

func (s *engineService) BuildPalette(ctx context.Context) ([]palette.Template, error) {
	ctx, span := observability.Tracer.Start(ctx, "engineService.BuildPalette")
	defer span.End()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.app.mu.Lock()
	defer s.app.mu.Unlock()
	return palette.Build(s.app.Active()), nil
}

func (s *engineService) LoadWorkspace(ctx context.Context, req ports.LoadRequest) (ports.LoadResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "engineService.LoadWorkspace")
	defer span.End()
	if err := ctx.Err(); err != nil {
		return ports.LoadResult{}, err
	}
	if req.Path == "" {
		return ports.LoadResult{}, errors.New(errors.CodeValidationError, "workspace path is required")
	}

	s.app.mu.Lock()
	defer s.app.mu.Unlock()

	path := config.ResolveRelative(s.app.Paths.WorkspaceRoot, req.Path)
	outcome, err := s.app.loadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ports.LoadResult{}, errors.AddContext(
				errors.Wrap(err, errors.CodeNotFound, "workspace file not found"), errors.CtxWorkspace, path)
		}
		return ports.LoadResult{}, errors.AddContext(
			errors.Wrap(err, errors.CodeValidationError, "parse workspace file"), errors.CtxWorkspace, path)
	}

	s.app.setActive(path)
	s.app.afterMutation()
	return ports.LoadResult{
		Path:      path,
		Blocks:    outcome.ws.BlockCount(),
		Classes:   classCount(outcome.ws),
		Refreshed: outcome.refreshed,
		FromCache: outcome.fromCache,
	}, nil
}

func (s *engineService) SaveWorkspace(ctx context.Context, req ports.SaveRequest) (ports.SaveResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "engineService.SaveWorkspace")
	defer span.End()
	if err := ctx.Err(); err != nil {
		return ports.SaveResult{}, err
	}

	s.app.mu.Lock()
	defer s.app.mu.Unlock()

	path := s.app.active
	if req.Path != "" {
		path = config.ResolveRelative(s.app.Paths.WorkspaceRoot, req.Path)
	}
	if path == "" {
		return ports.SaveResult{}, errors.New(errors.CodeValidationError, "no workspace file loaded and no path given")
	}

	data, err := markup.Encode(markup.Snapshot(s.app.Active()))
	if err != nil {
		return ports.SaveResult{}, errors.Wrap(err, errors.CodeInternal, "encode workspace")
	}

	start := time.Now()
	if err := util.WriteFileWithDirs(path, data, 0o644); err != nil {
		return ports.SaveResult{}, errors.AddContext(
			errors.Wrap(err, errors.CodeInternal, "write workspace file"), errors.CtxWorkspace, path)
	}
	observability.StoreWriteDuration.WithLabelValues("markup").Observe(time.Since(start).Seconds())

	s.app.flushRecorder()
	return ports.SaveResult{Path: path, Bytes: len(data)}, nil
}

func (s *engineService) History(ctx context.Context, req ports.HistoryRequest) ([]history.Entry, error) {
	ctx, span := observability.Tracer.Start(ctx, "engineService.History")
	defer span.End()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.app.journal == nil {
		return nil, errors.New(errors.CodeNotSupported, "history is disabled")
	}

	// Flush buffered edits first so the response includes them.
	s.app.mu.Lock()
	s.app.flushRecorder()
	s.app.mu.Unlock()

	key := s.app.Config.Database.WorkspaceKey
	var (
		entries []history.Entry
		err     error
	)
	if req.GroupID != "" {
		entries, err = s.app.journal.LoadGroup(key, req.GroupID)
	} else {
		entries, err = s.app.journal.LoadSince(key, req.Since)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load journal entries")
	}
	if req.Limit > 0 && len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}
	return entries, nil
}

func (s *engineService) Health(ctx context.Context) (ports.HealthReport, error) {
	ctx, span := observability.Tracer.Start(ctx, "engineService.Health")
	defer span.End()
	if err := ctx.Err(); err != nil {
		return ports.HealthReport{}, err
	}

	s.app.mu.Lock()
	defer s.app.mu.Unlock()

	status := "up"
	if s.app.Config.Database.Enabled && s.app.catalog == nil {
		status = "degraded"
	}
	if s.app.Config.History.IsEnabled() && s.app.journal == nil {
		status = "degraded"
	}

	blocks, classes := 0, 0
	for _, ws := range s.app.workspaces {
		blocks += ws.BlockCount()
		classes += classCount(ws)
	}
	return ports.HealthReport{
		Status:      status,
		Version:     version.Get(),
		Blocks:      blocks,
		Classes:     classes,
		HeapAllocMB: util.HeapAllocMB(),
		Uptime:      time.Since(s.app.startedAt),
	}, nil
}

func nameKind(kind string) (names.NameKind, error) {
	switch kind {
	case "class":
		return names.KindClass, nil
	case "method":
		return names.KindMethod, nil
	}
	return names.KindClass, errors.New(errors.CodeValidationError, fmt.Sprintf("unknown name kind %q", kind))
}

func notFound(msg, ctxKey, ctxValue string) error {
	return errors.AddContext(errors.New(errors.CodeNotFound, msg), ctxKey, ctxValue)
}

// classRowDefinition rebuilds a definition snapshot from catalog rows,
// for lookups that miss the live workspace.
func classRowDefinition(row store.ClassRow) workspace.ClassDefinition {
	def := workspace.ClassDefinition{
		Name:        row.Name,
		Colour:      row.Colour,
		Constructor: workspace.ConstructorSignature{Parameters: row.Constructor},
		Attributes:  row.Attributes,
	}
	for _, m := range row.Methods {
		def.Methods = append(def.Methods, workspace.MethodDefinition{
			Name:       m.Name,
			Parameters: m.Parameters,
			HasReturn:  m.HasReturn,
		})
	}
	return def
}

func catalogMethod(catalog *store.Catalog, name string) (ports.MethodLookup, bool) {
	owners := catalog.MethodOwners(name)
	if len(owners) == 0 {
		return ports.MethodLookup{}, false
	}
	row, ok := catalog.Class(owners[0])
	if !ok {
		return ports.MethodLookup{}, false
	}
	for _, m := range row.Methods {
		if m.Name == name {
			return ports.MethodLookup{
				Class: row.Name,
				Method: workspace.MethodDefinition{
					Name:       m.Name,
					Parameters: m.Parameters,
					HasReturn:  m.HasReturn,
				},
			}, true
		}
	}
	return ports.MethodLookup{}, false
}

// methodOwner scans class definitions for the one declaring the method.
// Method names are workspace-unique, so the first hit is the only one.
func methodOwner(ws *workspace.Workspace, method string) string {
	for _, b := range ws.AllBlocks(false) {
		cd, ok := b.(workspace.ClassDefiner)
		if !ok {
			continue
		}
		for _, m := range cd.Definition().Methods {
			if ws.NameEquals(m.Name, method) {
				return cd.ClassName()
			}
		}
	}
	return ""
}

func countMemberSites(ws *workspace.Workspace, member string) int {
	n := 0
	for _, b := range ws.AllBlocks(true) {
		if sr, ok := b.(index.SiteReporter); ok {
			if snap := sr.BindingSnapshot(); snap.BoundMember != "" && ws.NameEquals(snap.BoundMember, member) {
				n++
			}
		}
	}
	return n
}
