// # cmd/classforge/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"classforge/internal/core/app"
	"classforge/internal/core/config"
	"classforge/internal/shared/observability"
	"classforge/internal/shared/version"
)

var (
	configPath = flag.String("config", "./classforge.toml", "Path to config file")
	once       = flag.Bool("once", false, "Load workspaces, write exports and exit")
	serve      = flag.Bool("serve", false, "Serve the HTTP/WebSocket session API")
	stdio      = flag.Bool("stdio", false, "Serve the JSON-RPC session on stdin/stdout")
	export     = flag.String("export", "", "Render one export format (mermaid, dot, tsv) to stdout and exit")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	printVer   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *printVer {
		fmt.Printf("classforge v%s\n", version.Get())
		os.Exit(0)
	}

	// .env before config, so CLASSFORGE_* overrides from it apply.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logOut := os.Stdout
	if *stdio {
		// Stdout belongs to the RPC stream in stdio mode.
		logOut = os.Stderr
	}
	var handler slog.Handler
	if *serve {
		handler = slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: logLevel})
	}
	slog.SetDefault(slog.New(handler))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if flag.NArg() > 0 {
		cfg.WorkspacePaths = []string{flag.Arg(0)}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.EnableTracing {
		shutdown, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, version.Get())
		if err != nil {
			slog.Error("failed to initialize tracing", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Warn("trace exporter shutdown failed", "error", err)
			}
		}()
	}

	application, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := application.Close(); err != nil {
			slog.Warn("shutdown cleanup failed", "error", err)
		}
	}()

	if err := application.InitialScan(); err != nil {
		slog.Error("initial scan failed", "error", err)
		os.Exit(1)
	}

	switch {
	case *export != "":
		out, err := application.RenderFormat(*export)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Print(out)

	case *once:
		if err := application.GenerateOutputs(); err != nil {
			slog.Error("failed to write exports", "error", err)
			os.Exit(1)
		}
		printSummary(ctx, application)

	case *stdio:
		if err := runStdio(ctx, application); err != nil {
			slog.Error("stdio session failed", "error", err)
			os.Exit(1)
		}

	case *serve:
		if err := runServe(ctx, application); err != nil {
			slog.Error("serve mode failed", "error", err)
			os.Exit(1)
		}

	default:
		if err := runWatch(ctx, application); err != nil {
			slog.Error("watch mode failed", "error", err)
			os.Exit(1)
		}
	}
}

// loadConfig falls back to built-in defaults when the default config
// path does not exist. An explicit --config path must exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if os.IsNotExist(err) && path == "./classforge.toml" {
		return config.Default()
	}
	return nil, err
}

func printSummary(ctx context.Context, application *app.App) {
	report, err := application.EngineService().Health(ctx)
	if err != nil {
		slog.Warn("health report failed", "error", err)
		return
	}
	fmt.Printf("classforge v%s: %d blocks, %d classes loaded (active: %s)\n",
		report.Version, report.Blocks, report.Classes, application.ActivePath())
}
