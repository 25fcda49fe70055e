package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/cafehop-backend/pkg/config"
	"github.com/angelmondragon/cafehop-backend/pkg/db"
	"github.com/angelmondragon/cafehop-backend/pkg/logger"
	"github.com/angelmondragon/cafehop-backend/pkg/migrate"
	"github.com/joho/godotenv"
)

// invocation carries the parsed flags into a command.
type invocation struct {
	dir     string
	name    string
	version string
	out     io.Writer
}

type command struct {
	usage string
	// offline commands never open the database
	offline bool
	run     func(ctx context.Context, inv invocation, sqlDB *sql.DB, driver string) error
}

var commands = map[string]command{
	"up":     {usage: "apply pending migrations", run: gooseCommand("up")},
	"down":   {usage: "roll back the latest migration", run: gooseCommand("down")},
	"status": {usage: "list applied and pending migrations", run: gooseCommand("status")},
	"version": {
		usage: "migrate up or down to -version",
		run: func(ctx context.Context, inv invocation, sqlDB *sql.DB, driver string) error {
			if inv.version == "" {
				return errors.New("-version is required")
			}
			return migrate.MigrateToVersion(ctx, sqlDB, driver, inv.dir, inv.version)
		},
	},
	"create": {
		usage:   "scaffold an empty migration named -name",
		offline: true,
		run: func(_ context.Context, inv invocation, _ *sql.DB, _ string) error {
			if inv.name == "" {
				return errors.New("-name is required")
			}
			path, err := migrate.Scaffold(inv.dir, inv.name, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(inv.out, "created", path)
			return nil
		},
	},
	"validate": {
		usage:   "check filenames and portable SQL in -dir",
		offline: true,
		run: func(_ context.Context, inv invocation, _ *sql.DB, _ string) error {
			if err := migrate.ValidateDir(inv.dir); err != nil {
				return err
			}
			fmt.Fprintln(inv.out, "migrations ok")
			return nil
		},
	},
}

func gooseCommand(name string) func(context.Context, invocation, *sql.DB, string) error {
	return func(ctx context.Context, inv invocation, sqlDB *sql.DB, driver string) error {
		return migrate.Run(ctx, sqlDB, driver, inv.dir, name)
	}
}

func main() {
	_ = godotenv.Load()
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	name := fs.String("cmd", "up", "one of: "+strings.Join(commandNames(), ", "))
	inv := invocation{out: out}
	fs.StringVar(&inv.dir, "dir", migrate.DefaultDir, "migrations directory")
	fs.StringVar(&inv.name, "name", "", "migration name for create")
	fs.StringVar(&inv.version, "version", "", "target version (YYYYMMDDHHMMSS) for version")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: migrate -cmd <command> [flags]")
		for _, key := range commandNames() {
			fmt.Fprintf(fs.Output(), "  %-9s %s\n", key, commands[key].usage)
		}
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd, ok := commands[*name]
	if !ok {
		return fmt.Errorf("unknown command %q", *name)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"cmd": *name, "dir": inv.dir, "driver": cfg.DB.Driver})

	if cmd.offline {
		return cmd.run(ctx, inv, nil, cfg.DB.Driver)
	}

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer client.Close()
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}

	logg.Info(ctx, "running migration command")
	if err := cmd.run(ctx, inv, sqlDB, cfg.DB.Driver); err != nil {
		logg.Error(ctx, "migration command failed", err)
		return err
	}
	return nil
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for key := range commands {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}
