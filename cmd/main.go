package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"watchlist/db"
	"watchlist/internal/app"
	"watchlist/internal/commands"
	"watchlist/internal/config"
	"watchlist/internal/logging"
)

const usage = `Usage: watchlist <command> [flags]

Commands:
  serve                                  run the web server (default)
  initdb [--drop]                        create the database schema
  forge                                  generate demo data
  admin --username <u> --password <p>    create or update the admin user
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one subcommand and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, stderr)

	var action func(ctx context.Context, cmds *commands.Commands) error

	switch command {
	case "serve":
		fs := newFlagSet("serve", stderr)
		if err := fs.Parse(args); err != nil {
			return 2
		}
	case "initdb":
		fs := newFlagSet("initdb", stderr)
		drop := fs.Bool("drop", false, "drop tables before creating them")
		if err := fs.Parse(args); err != nil {
			return 2
		}
		action = func(ctx context.Context, cmds *commands.Commands) error {
			return cmds.InitDB(ctx, *drop)
		}
	case "forge":
		fs := newFlagSet("forge", stderr)
		if err := fs.Parse(args); err != nil {
			return 2
		}
		action = func(ctx context.Context, cmds *commands.Commands) error {
			return cmds.Forge(ctx)
		}
	case "admin":
		fs := newFlagSet("admin", stderr)
		username := fs.String("username", "", "admin username")
		password := fs.String("password", "", "admin password")
		if err := fs.Parse(args); err != nil {
			return 2
		}
		if *username == "" || *password == "" {
			fmt.Fprintln(stderr, "admin: --username and --password are required")
			fs.Usage()
			return 2
		}
		action = func(ctx context.Context, cmds *commands.Commands) error {
			return cmds.Admin(ctx, *username, *password)
		}
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", command, usage)
		return 2
	}

	gdb, err := db.ConnectToSQLite(cfg.SQLitePath, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to SQLite")
		return 1
	}
	factory := db.NewRepositoryFactory(gdb)
	defer factory.Close()

	if action != nil {
		if err := action(ctx, commands.New(factory, stdout, logger)); err != nil {
			logger.Error().Err(err).Str("command", command).Msg("Command failed")
			return 1
		}
		return 0
	}

	if err := serve(ctx, factory, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("Server failed")
		return 1
	}
	return 0
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func serve(ctx context.Context, factory *db.RepositoryFactory, cfg *config.Config, logger zerolog.Logger) error {
	logger.Info().
		Int("pid", os.Getpid()).
		Str("runtime", runtime.GOOS+"/"+runtime.GOARCH).
		Str("go", runtime.Version()).
		Msg("Starting watchlist")

	if err := db.InitializeSchema(ctx, factory.DB, false); err != nil {
		return err
	}

	application, err := app.New(factory, cfg, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           application.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("Server is starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logger.Info().Msg("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info().Msg("Shutting down the server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("Server stopped")
	return nil
}
