// Command activityctl inspects and edits a user's activity history directly
// in the configured store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"healthtrack/backend/internal/config"
	"healthtrack/backend/internal/db"
	"healthtrack/backend/internal/repository"
	"healthtrack/backend/internal/store"
)

// opener yields the store to operate on and a function releasing it.
type opener func(ctx context.Context) (store.Store, func(), error)

func main() {
	if err := rootCmd(openConfiguredStore).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd(open opener) *cobra.Command {
	var (
		userID   string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:           "activityctl",
		Short:         "Inspect a user's activity history",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&userID, "user", "", "User id owning the history (required)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	_ = cmd.MarkPersistentFlagRequired("user")

	withRepo := func(run func(ctx context.Context, repo *repository.SessionRepository, out io.Writer, args []string) error) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(c.ErrOrStderr(), &slog.HandlerOptions{Level: parseLevel(logLevel)}))

			ctx := c.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			st, closeFn, err := open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			repo, err := repository.NewSessionRepositories(st, logger).For(ctx, userID)
			if err != nil {
				return err
			}
			return run(ctx, repo, c.OutOrStdout(), args)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print aggregate totals and records",
		Args:  cobra.NoArgs,
		RunE: withRepo(func(_ context.Context, repo *repository.SessionRepository, out io.Writer, _ []string) error {
			return writeJSON(out, repo.Stats())
		}),
	})

	var from, to string
	list := &cobra.Command{
		Use:   "list",
		Short: "List sessions newest first",
		Args:  cobra.NoArgs,
		RunE: withRepo(func(_ context.Context, repo *repository.SessionRepository, out io.Writer, _ []string) error {
			if from == "" && to == "" {
				return writeJSON(out, repo.ListAll())
			}
			start, end := time.Time{}, time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
			if from != "" {
				parsed, err := time.Parse(time.RFC3339, from)
				if err != nil {
					return fmt.Errorf("--from: %w", err)
				}
				start = parsed
			}
			if to != "" {
				parsed, err := time.Parse(time.RFC3339, to)
				if err != nil {
					return fmt.Errorf("--to: %w", err)
				}
				end = parsed
			}
			return writeJSON(out, repo.ListByRange(start, end))
		}),
	}
	list.Flags().StringVar(&from, "from", "", "Earliest start time, RFC3339")
	list.Flags().StringVar(&to, "to", "", "Latest start time, RFC3339")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print one session",
		Args:  cobra.ExactArgs(1),
		RunE: withRepo(func(_ context.Context, repo *repository.SessionRepository, out io.Writer, args []string) error {
			session, ok := repo.Get(args[0])
			if !ok {
				return fmt.Errorf("session %s: %w", args[0], repository.ErrNotFound)
			}
			return writeJSON(out, session)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one session",
		Args:  cobra.ExactArgs(1),
		RunE: withRepo(func(ctx context.Context, repo *repository.SessionRepository, out io.Writer, args []string) error {
			if _, ok := repo.Get(args[0]); !ok {
				return fmt.Errorf("session %s: %w", args[0], repository.ErrNotFound)
			}
			if err := repo.Delete(ctx, args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(out, "deleted %s\n", args[0])
			return err
		}),
	})

	return cmd
}

func openConfiguredStore(ctx context.Context) (store.Store, func(), error) {
	cfg := config.Load()

	database, err := db.Open(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		_ = database.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	st, closeStore, err := store.Open(ctx, store.Options{
		Backend:     cfg.StoreBackend,
		SQLite:      database,
		PostgresDSN: cfg.PostgresDSN,
		Secret:      cfg.StoreSecret,
	})
	if err != nil {
		_ = database.Close()
		return nil, nil, err
	}
	return st, func() {
		closeStore()
		_ = database.Close()
	}, nil
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
