// # internal/core/app/output.go
package app

import (
	"fmt"
	"strings"

	"classforge/internal/core/config"
	"classforge/internal/core/errors"
	"classforge/internal/data/store"
	"classforge/internal/output"
	"classforge/internal/shared/util"
)

type outputTargets struct {
	Mermaid string
	DOT     string
	TSV     string
}

// Diagrams land in the diagrams dir, the flat TSV next to the output
// root.
func (a *App) resolveOutputTargets() outputTargets {
	return outputTargets{
		Mermaid: config.ResolveRelative(a.Paths.DiagramsDir, a.Config.Output.Mermaid),
		DOT:     config.ResolveRelative(a.Paths.DiagramsDir, a.Config.Output.DOT),
		TSV:     config.ResolveRelative(a.Paths.OutputRoot, a.Config.Output.TSV),
	}
}

// inventory snapshots every loaded workspace into render rows. Callers
// must hold mu.
func (a *App) inventory() output.Inventory {
	var (
		classes []store.ClassRow
		sites   []store.SiteRow
	)
	for _, path := range util.SortedStringKeys(a.workspaces) {
		c, s := store.CollectRows(a.workspaces[path])
		classes = append(classes, c...)
		sites = append(sites, s...)
	}
	return output.NewInventory(classes, sites)
}

// GenerateOutputs renders the class inventory to the configured export
// targets.
func (a *App) GenerateOutputs() error {
	a.mu.Lock()
	inv := a.inventory()
	a.mu.Unlock()
	targets := a.resolveOutputTargets()

	mmd, err := output.NewMermaidGenerator(inv).Generate()
	if err != nil {
		return fmt.Errorf("generate mermaid output: %w", err)
	}
	if err := util.WriteFileWithDirs(targets.Mermaid, []byte(mmd), 0o644); err != nil {
		return fmt.Errorf("write mermaid output %q: %w", targets.Mermaid, err)
	}

	dot, err := output.NewDOTGenerator(inv).Generate()
	if err != nil {
		return fmt.Errorf("generate DOT output: %w", err)
	}
	if err := util.WriteFileWithDirs(targets.DOT, []byte(dot), 0o644); err != nil {
		return fmt.Errorf("write DOT output %q: %w", targets.DOT, err)
	}

	tsv, err := renderTSV(inv)
	if err != nil {
		return fmt.Errorf("generate TSV output: %w", err)
	}
	if err := util.WriteFileWithDirs(targets.TSV, []byte(tsv), 0o644); err != nil {
		return fmt.Errorf("write TSV output %q: %w", targets.TSV, err)
	}
	return nil
}

// RenderFormat renders one export format to a string, for the --export
// flag and for transports that hand a diagram straight to a client.
func (a *App) RenderFormat(format string) (string, error) {
	a.mu.Lock()
	inv := a.inventory()
	a.mu.Unlock()

	switch format {
	case "mermaid":
		return output.NewMermaidGenerator(inv).Generate()
	case "dot":
		return output.NewDOTGenerator(inv).Generate()
	case "tsv":
		return renderTSV(inv)
	}
	return "", errors.New(errors.CodeValidationError, fmt.Sprintf("unknown export format %q", format))
}

// renderTSV joins the class table with the sites table, skipping the
// second block when no sites exist.
func renderTSV(inv output.Inventory) (string, error) {
	gen := output.NewTSVGenerator(inv)
	classesTSV, err := gen.Generate()
	if err != nil {
		return "", err
	}
	if len(inv.Sites) == 0 {
		return classesTSV, nil
	}
	sitesTSV, err := gen.GenerateSites()
	if err != nil {
		return "", err
	}
	return strings.TrimRight(classesTSV, "\n") + "\n\n" + strings.TrimRight(sitesTSV, "\n") + "\n", nil
}
