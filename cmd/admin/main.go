// Command admin is the operator tool for a yatube database: it manages
// groups and users and lists posts, working directly on the same SQLite
// file the server uses.
//
//	admin group create --title Cats --slug cats
//	admin group list
//	admin user delete spammer
//	admin post list --search kitten
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/yatube/internal/auth"
	"github.com/sakif/yatube/internal/config"
	sqliteRepo "github.com/sakif/yatube/internal/repository/sqlite"
	"github.com/sakif/yatube/internal/service"
)

// app is the set of services one command needs. It is opened before the
// command runs and closed after.
type app struct {
	db       *sqliteRepo.DB
	groups   *service.GroupService
	accounts *service.AccountService
	posts    *service.PostService
}

func (a *app) Close() error { return a.db.Close() }

type opener func(dbPath string, logger *slog.Logger) (*app, error)

// appOpener builds services the way the server does, minus HTTP and media.
func appOpener(cfg config.Config) opener {
	return func(dbPath string, logger *slog.Logger) (*app, error) {
		db, err := sqliteRepo.New(dbPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
		if err != nil {
			db.Close()
			return nil, err
		}
		users := db.Users()
		return &app{
			db:       db,
			groups:   service.NewGroupService(db.Groups(), logger),
			accounts: service.NewAccountService(users, tokens, auth.NewPasswordServiceWithCost(cfg.BcryptCost), logger),
			posts: service.NewPostService(service.PostServiceDeps{
				Posts:    db.Posts(),
				Comments: db.Comments(),
				Groups:   db.Groups(),
				Users:    users,
				Follows:  service.NewFollowService(users, db.Follows(), logger),
				PageSize: cfg.PageSize,
			}, logger),
		}, nil
	}
}

func newRootCmd(out io.Writer, defaultDB string, open opener) *cobra.Command {
	var (
		dbPath  string
		verbose bool
		a       *app
	)

	root := &cobra.Command{
		Use:           "admin",
		Short:         "Manage groups, users and posts in a yatube database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			var err error
			a, err = open(dbPath, logger)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a == nil {
				return nil
			}
			return a.Close()
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "SQLite database path (env DB_PATH)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log service activity")

	current := func() *app { return a }
	root.AddCommand(
		newGroupCmd(current),
		newUserCmd(current),
		newPostCmd(current),
	)
	return root
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: invalid configuration:", err)
		os.Exit(1)
	}
	if err := newRootCmd(os.Stdout, cfg.DBPath, appOpener(cfg)).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
