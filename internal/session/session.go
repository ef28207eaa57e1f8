// # internal/session/session.go

// Package session dispatches validated operations to the engine service
// and translates engine results and errors into the wire contracts.
// Transports hold a Dispatcher and nothing else.
package session

import (
	"context"
	stderrors "errors"
	"time"

	"classforge/internal/core/errors"
	"classforge/internal/core/ports"
	"classforge/internal/engine/workspace"
	"classforge/internal/session/contracts"
	"classforge/internal/session/validate"
	"classforge/internal/shared/observability"
)

const defaultMaxItems = 500

type Dispatcher struct {
	engine   ports.EngineService
	maxItems int
}

// NewDispatcher wraps the engine service. maxItems caps list responses;
// zero selects the default.
func NewDispatcher(engine ports.EngineService, maxItems int) *Dispatcher {
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	return &Dispatcher{engine: engine, maxItems: maxItems}
}

// Handle parses, validates and dispatches one raw operation call. This
// is the single entry point every transport funnels into.
func (d *Dispatcher) Handle(ctx context.Context, operation string, raw map[string]any) (any, error) {
	op, input, err := validate.ParseArgs(operation, raw)
	if err != nil {
		observability.SessionRequestsTotal.WithLabelValues(operation, "invalid").Inc()
		return nil, err
	}

	start := time.Now()
	result, err := d.dispatch(ctx, op, input)
	observability.SessionRequestDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.SessionRequestsTotal.WithLabelValues(string(op), "error").Inc()
		return nil, translateError(err)
	}
	observability.SessionRequestsTotal.WithLabelValues(string(op), "ok").Inc()
	return result, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, op contracts.OperationID, input any) (any, error) {
	switch op {
	case contracts.OperationClassList:
		defs, err := d.engine.ListClasses(ctx)
		if err != nil {
			return nil, err
		}
		out := contracts.ClassListOutput{Classes: make([]contracts.ClassSnapshot, 0, len(defs))}
		for _, def := range defs {
			out.Classes = append(out.Classes, classSnapshot(def))
		}
		return out, nil

	case contracts.OperationClassLookup:
		in := input.(contracts.ClassLookupInput)
		def, err := d.engine.LookupClass(ctx, in.Name)
		if err != nil {
			return nil, err
		}
		return contracts.ClassLookupOutput{Class: classSnapshot(def)}, nil

	case contracts.OperationMethodLookup:
		in := input.(contracts.MethodLookupInput)
		lookup, err := d.engine.LookupMethod(ctx, in.Name)
		if err != nil {
			return nil, err
		}
		return contracts.MethodLookupOutput{
			Class: lookup.Class,
			Method: contracts.MethodSnapshot{
				Name:       lookup.Method.Name,
				Parameters: lookup.Method.Parameters,
				HasReturn:  lookup.Method.HasReturn,
			},
		}, nil

	case contracts.OperationNameLegal:
		in := input.(contracts.NameLegalInput)
		legal, err := d.engine.LegalName(ctx, ports.LegalNameRequest{
			Proposed: in.Proposed,
			Kind:     in.Kind,
			BlockID:  in.BlockID,
		})
		if err != nil {
			return nil, err
		}
		return contracts.NameLegalOutput{LegalName: legal}, nil

	case contracts.OperationRefsFind:
		in := input.(contracts.RefsFindInput)
		sites, err := d.engine.FindReferences(ctx, in.Class)
		if err != nil {
			return nil, err
		}
		out := contracts.RefsFindOutput{Sites: make([]contracts.SiteSnapshot, 0, len(sites))}
		for _, site := range sites {
			if len(out.Sites) >= d.maxItems {
				break
			}
			out.Sites = append(out.Sites, contracts.SiteSnapshot{
				BlockID:     site.BlockID,
				BlockType:   site.BlockType,
				BoundClass:  site.BoundClass,
				BoundMember: site.BoundMember,
				Kind:        string(site.Kind),
				Finalized:   site.Finalized,
			})
		}
		return out, nil

	case contracts.OperationMembersFind:
		in := input.(contracts.MembersFindInput)
		members, err := d.engine.FindMembers(ctx, in.Class)
		if err != nil {
			return nil, err
		}
		out := contracts.MembersFindOutput{Members: make([]contracts.MemberSnapshot, 0, len(members))}
		for _, m := range members {
			out.Members = append(out.Members, contracts.MemberSnapshot{
				Name:       m.Name,
				Kind:       string(m.Kind),
				HasReturn:  m.HasReturn,
				Parameters: m.Parameters,
			})
		}
		return out, nil

	case contracts.OperationCtorFind:
		in := input.(contracts.CtorFindInput)
		sig, found, err := d.engine.FindConstructor(ctx, in.Class)
		if err != nil {
			return nil, err
		}
		return contracts.CtorFindOutput{Found: found, Parameters: sig.Parameters}, nil

	case contracts.OperationClassRename:
		in := input.(contracts.RenameInput)
		res, err := d.engine.RenameClass(ctx, ports.RenameRequest{OldName: in.OldName, NewName: in.NewName})
		if err != nil {
			return nil, err
		}
		return contracts.RenameOutput{LegalName: res.LegalName, SitesUpdated: res.SitesUpdated}, nil

	case contracts.OperationMethodRename:
		in := input.(contracts.RenameInput)
		res, err := d.engine.RenameMethod(ctx, ports.RenameRequest{OldName: in.OldName, NewName: in.NewName})
		if err != nil {
			return nil, err
		}
		return contracts.RenameOutput{LegalName: res.LegalName, SitesUpdated: res.SitesUpdated}, nil

	case contracts.OperationCallersMutate:
		in := input.(contracts.CallersMutateInput)
		count, err := d.engine.MutateCallers(ctx, in.Class)
		if err != nil {
			return nil, err
		}
		return contracts.CallersMutateOutput{SitesRefreshed: count}, nil

	case contracts.OperationPaletteBuild:
		templates, err := d.engine.BuildPalette(ctx)
		if err != nil {
			return nil, err
		}
		out := contracts.PaletteBuildOutput{Templates: make([]contracts.TemplateSnapshot, 0, len(templates))}
		for _, t := range templates {
			out.Templates = append(out.Templates, contracts.TemplateSnapshot{
				Type:   t.Type,
				Fields: t.Fields,
				Tag:    t.Tag,
			})
		}
		return out, nil

	case contracts.OperationWorkspaceLoad:
		in := input.(contracts.WorkspaceLoadInput)
		res, err := d.engine.LoadWorkspace(ctx, ports.LoadRequest{Path: in.Path})
		if err != nil {
			return nil, err
		}
		return contracts.WorkspaceLoadOutput{
			Path:      res.Path,
			Blocks:    res.Blocks,
			Classes:   res.Classes,
			Refreshed: res.Refreshed,
			FromCache: res.FromCache,
		}, nil

	case contracts.OperationWorkspaceSave:
		in := input.(contracts.WorkspaceSaveInput)
		res, err := d.engine.SaveWorkspace(ctx, ports.SaveRequest{Path: in.Path})
		if err != nil {
			return nil, err
		}
		return contracts.WorkspaceSaveOutput{Path: res.Path, Bytes: res.Bytes}, nil

	case contracts.OperationHistoryList:
		in := input.(contracts.HistoryListInput)
		req := ports.HistoryRequest{GroupID: in.GroupID, Limit: in.Limit}
		if in.Since != "" {
			since, err := time.Parse(time.RFC3339, in.Since)
			if err != nil {
				return nil, errors.New(errors.CodeValidationError, "since must be an RFC3339 timestamp")
			}
			req.Since = since
		}
		if req.Limit <= 0 || req.Limit > d.maxItems {
			req.Limit = d.maxItems
		}
		entries, err := d.engine.History(ctx, req)
		if err != nil {
			return nil, err
		}
		out := contracts.HistoryListOutput{
			EntryCount: len(entries),
			Entries:    make([]contracts.HistoryEntry, 0, len(entries)),
		}
		for _, e := range entries {
			out.Entries = append(out.Entries, contracts.HistoryEntry{
				ID:        e.ID,
				Kind:      e.Kind,
				BlockID:   e.BlockID,
				Field:     e.Field,
				Old:       e.Old,
				New:       e.New,
				GroupID:   e.GroupID,
				Source:    e.Source,
				Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
			})
		}
		return out, nil

	case contracts.OperationSystemHealth:
		report, err := d.engine.Health(ctx)
		if err != nil {
			return nil, err
		}
		return contracts.SystemHealthOutput{
			Status:        report.Status,
			Version:       report.Version,
			Blocks:        report.Blocks,
			Classes:       report.Classes,
			HeapAllocMB:   report.HeapAllocMB,
			UptimeSeconds: int64(report.Uptime.Seconds()),
		}, nil
	}

	return nil, contracts.OpError{Code: contracts.ErrorInvalidArgument, Message: "unsupported operation: " + string(op)}
}

func classSnapshot(def workspace.ClassDefinition) contracts.ClassSnapshot {
	out := contracts.ClassSnapshot{
		Name:        def.Name,
		Constructor: def.Constructor.Parameters,
		Attributes:  def.Attributes,
		Colour:      def.Colour,
	}
	for _, m := range def.Methods {
		out.Methods = append(out.Methods, contracts.MethodSnapshot{
			Name:       m.Name,
			Parameters: m.Parameters,
			HasReturn:  m.HasReturn,
		})
	}
	return out
}

// translateError maps engine errors onto the wire error envelope.
// Context cancellation surfaces as unavailable; everything unrecognized
// is internal.
func translateError(err error) error {
	var opErr contracts.OpError
	if stderrors.As(err, &opErr) {
		return opErr
	}
	var de *errors.DomainError
	if stderrors.As(err, &de) {
		code := contracts.ErrorInternal
		switch de.Code {
		case errors.CodeNotFound:
			code = contracts.ErrorNotFound
		case errors.CodeValidationError:
			code = contracts.ErrorInvalidArgument
		case errors.CodeConflict:
			code = contracts.ErrorConflict
		case errors.CodeNotSupported:
			code = contracts.ErrorUnavailable
		}
		return contracts.OpError{Code: code, Message: de.Message, Details: de.Context}
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return contracts.OpError{Code: contracts.ErrorUnavailable, Message: err.Error()}
	}
	return contracts.OpError{Code: contracts.ErrorInternal, Message: err.Error()}
}
