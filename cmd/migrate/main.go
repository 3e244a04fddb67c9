// Command migrate manages the sync engine's PostgreSQL schema.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/infrastructure/config"
	"github.com/shopsync/backend/internal/infrastructure/logger"
	"github.com/shopsync/backend/internal/infrastructure/migration"
)

const defaultMigrationsPath = "migrations"

var errUsage = errors.New("usage")

type options struct {
	path     string
	embedded bool
	log      *zap.Logger
	out      io.Writer
}

type command struct {
	usage string
	// needsDB commands get a migrator; the others work on files only
	needsDB bool
	run     func(opts *options, m *migration.Migrator, args []string) error
}

var commands = map[string]command{
	"up": {usage: "up", needsDB: true, run: func(_ *options, m *migration.Migrator, _ []string) error {
		return m.Up()
	}},
	"down": {usage: "down", needsDB: true, run: func(_ *options, m *migration.Migrator, _ []string) error {
		return m.Down()
	}},
	"step": {usage: "step <n>", needsDB: true, run: func(_ *options, m *migration.Migrator, args []string) error {
		n, err := intArg(args, "step count")
		if err != nil {
			return err
		}
		return m.Steps(n)
	}},
	"goto": {usage: "goto <version>", needsDB: true, run: func(_ *options, m *migration.Migrator, args []string) error {
		v, err := intArg(args, "version")
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("version must not be negative")
		}
		return m.GoTo(uint(v))
	}},
	"force": {usage: "force <version>", needsDB: true, run: func(_ *options, m *migration.Migrator, args []string) error {
		v, err := intArg(args, "version")
		if err != nil {
			return err
		}
		return m.Force(v)
	}},
	"version": {usage: "version", needsDB: true, run: func(opts *options, m *migration.Migrator, _ []string) error {
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if v == 0 {
			fmt.Fprintln(opts.out, "no migrations applied")
			return nil
		}
		fmt.Fprintf(opts.out, "version %d dirty=%t\n", v, dirty)
		return nil
	}},
	"drop": {usage: "drop -confirm", needsDB: true, run: func(_ *options, m *migration.Migrator, args []string) error {
		if !slices.Contains(args, "-confirm") && !slices.Contains(args, "--confirm") {
			return fmt.Errorf("drop removes every table; rerun with -confirm")
		}
		return m.Drop()
	}},
	"create": {usage: "create <name> [description]", run: func(opts *options, _ *migration.Migrator, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("%w: migration name required", errUsage)
		}
		desc := ""
		if len(args) > 1 {
			desc = args[1]
		}
		mf, err := migration.CreateMigration(opts.path, args[0], desc)
		if err != nil {
			return err
		}
		fmt.Fprintln(opts.out, mf.UpPath)
		fmt.Fprintln(opts.out, mf.DownPath)
		return nil
	}},
	"list": {usage: "list", run: func(opts *options, _ *migration.Migrator, _ []string) error {
		list, err := migration.ListMigrations(os.DirFS(opts.path))
		if err != nil {
			return err
		}
		for _, name := range list {
			fmt.Fprintln(opts.out, name)
		}
		return nil
	}},
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
		}
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(argv []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	path := fs.String("path", "", "migrations directory (default ./migrations)")
	level := fs.String("log-level", "info", "debug, info, warn or error")
	embedded := fs.Bool("embedded", false, "apply the schema compiled into the binary")
	if err := fs.Parse(argv); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	args := fs.Args()
	if len(args) == 0 {
		return fmt.Errorf("%w: command required", errUsage)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	log, err := logger.New(&logger.Config{Level: *level, Format: "console", Output: "stderr", Service: "shopsync-migrate"})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync(log) }()

	opts := &options{path: resolveMigrationsPath(*path), embedded: *embedded, log: log, out: out}
	log.Debug("Migration command", zap.String("command", args[0]), zap.String("path", opts.path), zap.Bool("embedded", opts.embedded))

	if !cmd.needsDB {
		return cmd.run(opts, nil, args[1:])
	}

	m, closeDB, err := openMigrator(opts)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := cmd.run(opts, m, args[1:]); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	log.Info("Migration command finished", zap.String("command", args[0]))
	return nil
}

func openMigrator(opts *options) (*migration.Migrator, func(), error) {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		opts.log.Warn("Failed to read .env file", zap.Error(err))
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	source := opts.path
	if opts.embedded {
		source = ""
	}
	m, err := migration.New(db, source, opts.log)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	// closing the migrator closes db as well
	return m, func() { _ = m.Close() }, nil
}

func intArg(args []string, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: %s required", errUsage, what)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, args[0])
	}
	return n, nil
}

// resolveMigrationsPath falls back to ../../migrations relative to the
// executable when the working directory has none
func resolveMigrationsPath(path string) string {
	if path == "" {
		path = defaultMigrationsPath
		if _, err := os.Stat(path); err != nil {
			if exe, err := os.Executable(); err == nil {
				candidate := filepath.Join(filepath.Dir(exe), "..", "..", defaultMigrationsPath)
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
				}
			}
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	fmt.Fprintln(w, "usage: migrate [-path dir] [-embedded] [-log-level level] <command>")
	fmt.Fprintln(w, "\ncommands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
	fmt.Fprintln(w, "\ndatabase settings come from SHOPSYNC_DATABASE_* variables or .env")
}
