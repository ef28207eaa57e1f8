// # cmd/classforge/serve.go
package main

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"classforge/internal/core/app"
	"classforge/internal/core/ports"
	"classforge/internal/session"
	"classforge/internal/session/transport"
)

// runServe runs the HTTP/WebSocket session next to the file watcher and
// shuts both down when the context ends.
func runServe(ctx context.Context, application *app.App) error {
	dispatcher := session.NewDispatcher(application.EngineService(), application.Config.Session.MaxResponseItems)
	hub := transport.NewHub()

	watch := application.WatchService()
	watch.Subscribe(func(update ports.WatchUpdate) {
		eventType := transport.EventWorkspaceReloaded
		if update.Blocks == 0 && update.Classes == 0 {
			eventType = transport.EventWorkspaceRemoved
		}
		hub.Publish(transport.Event{
			Type:    eventType,
			Path:    update.Path,
			Blocks:  update.Blocks,
			Classes: update.Classes,
		})
	})

	httpTransport := transport.NewHTTP(application.Config.Session, hub)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpTransport.Start(gCtx, dispatcher.Handle)
	})
	g.Go(func() error {
		if err := watch.Start(gCtx); err != nil {
			return err
		}
		<-gCtx.Done()
		return watch.Close()
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runStdio serves JSON-RPC on stdin/stdout with the watcher reloading
// files in the background.
func runStdio(ctx context.Context, application *app.App) error {
	dispatcher := session.NewDispatcher(application.EngineService(), application.Config.Session.MaxResponseItems)
	adapter := transport.NewStdio(application.Config.Session)

	watch := application.WatchService()
	if err := watch.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := watch.Close(); err != nil {
			slog.Warn("watcher close failed", "error", err)
		}
	}()

	err := adapter.Start(ctx, dispatcher.Handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runWatch is the default mode: keep workspaces loaded and exports in
// sync until interrupted.
func runWatch(ctx context.Context, application *app.App) error {
	if err := application.GenerateOutputs(); err != nil {
		slog.Warn("failed to write exports", "error", err)
	}

	watch := application.WatchService()
	watch.Subscribe(func(update ports.WatchUpdate) {
		if err := application.GenerateOutputs(); err != nil {
			slog.Warn("failed to refresh exports", "path", update.Path, "error", err)
		}
	})
	if err := watch.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return watch.Close()
}
