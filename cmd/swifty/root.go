package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/swifty-companion/student-api/pkg/bootstrap"
	"github.com/swifty-companion/student-api/pkg/core"
	"github.com/swifty-companion/student-api/pkg/intra"
	"github.com/swifty-companion/student-api/pkg/scheduler"
)

// fetcher is the scheduler surface the commands use.
type fetcher interface {
	FetchStudent(ctx context.Context, login string) *scheduler.Future[intra.Student]
	FetchProjects(ctx context.Context, userID string) *scheduler.Future[[]intra.ProjectUser]
	FetchSkills(ctx context.Context, userID string) *scheduler.Future[scheduler.Skills]
	FetchProfile(ctx context.Context, login string) (scheduler.Profile, error)
}

type globalFlags struct {
	store    string
	dbPath   string
	logLevel string
	compact  bool
}

// opener builds the fetcher for one invocation and returns its cleanup.
type opener func(ctx context.Context, flags globalFlags, logger *slog.Logger) (fetcher, func(context.Context) error, error)

func openRuntime(_ context.Context, flags globalFlags, logger *slog.Logger) (fetcher, func(context.Context) error, error) {
	if err := core.LoadEnv(); err != nil {
		logger.Debug("no .env file loaded", slog.Any("error", err))
	}

	cfg, err := core.NewConfigFromEnv(
		core.WithTokenStoreBackend(flags.store),
		core.WithTokenStoreSQLitePath(flags.dbPath),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	rt, err := bootstrap.New(&cfg, bootstrap.Options{Logger: logger})
	if err != nil {
		return nil, nil, err
	}
	return rt.Scheduler, rt.Close, nil
}

func newRootCmd(open opener) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:          "swifty",
		Short:        "Look up students on the school API",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.store, "store", core.TokenStoreSQLite, "token store backend (memory|redis|sqlite)")
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "swifty-companion.db", "SQLite file holding the access token")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	root.PersistentFlags().BoolVar(&flags.compact, "compact", false, "print JSON on one line")

	// run opens the runtime, executes fn and prints its result as JSON.
	run := func(fn func(ctx context.Context, f fetcher, arg string) (any, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			logger := core.NewLoggerWithWriter(core.NewConfig(core.WithLogLevel(flags.logLevel)), cmd.ErrOrStderr())

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			f, closeFn, err := open(ctx, flags, logger)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := closeFn(closeCtx); err != nil {
					logger.Warn("shutdown failed", slog.Any("error", err))
				}
			}()

			result, err := fn(ctx, f, args[0])
			if err != nil {
				return describe(err)
			}

			return printJSON(cmd, result, flags.compact)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "student <login>",
			Short: "Print a student's public profile",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, f fetcher, login string) (any, error) {
				student, err := f.FetchStudent(ctx, login).Wait(ctx)
				return student, err
			}),
		},
		&cobra.Command{
			Use:   "projects <user-id>",
			Short: "Print every project of a student",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, f fetcher, userID string) (any, error) {
				projects, err := f.FetchProjects(ctx, userID).Wait(ctx)
				return projects, err
			}),
		},
		&cobra.Command{
			Use:   "skills <user-id>",
			Short: "Print a student's level and skills",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, f fetcher, userID string) (any, error) {
				skills, err := f.FetchSkills(ctx, userID).Wait(ctx)
				return skills, err
			}),
		},
		&cobra.Command{
			Use:   "profile <login>",
			Short: "Print a student with projects and skills",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, f fetcher, login string) (any, error) {
				profile, err := f.FetchProfile(ctx, login)
				return profile, err
			}),
		},
	)

	return root
}

func printJSON(cmd *cobra.Command, v any, compact bool) error {
	var (
		data []byte
		err  error
	)
	if compact {
		data, err = json.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func describe(err error) error {
	switch {
	case core.IsNotFound(err):
		return fmt.Errorf("student not found: %w", err)
	case scheduler.IsTransient(err):
		return fmt.Errorf("school API unavailable, try again later: %w", err)
	default:
		return err
	}
}
