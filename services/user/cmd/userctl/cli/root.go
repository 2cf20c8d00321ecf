// Package cli implements userctl, the operator tool for the user service
// store: schema migration, role seeding, services and grants.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/mosgim/platform/pkg/config"
	"github.com/mosgim/platform/pkg/db"
	"github.com/mosgim/platform/pkg/tokens"
	"github.com/mosgim/platform/services/user/internal/repo"
	"github.com/mosgim/platform/services/user/internal/service"
)

type storeOptions struct {
	databaseURL string
	sqlitePath  string
}

type storeEnv struct {
	DatabaseURL string `envconfig:"DATABASE_URL"`
}

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "userctl",
		Short:        "Administer the user service store",
		SilenceUsage: true,
	}
	opts := &storeOptions{}
	root.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "Postgres DSN (defaults to DATABASE_URL)")
	root.PersistentFlags().StringVar(&opts.sqlitePath, "sqlite", "", "Path of a sqlite database to use instead of postgres")

	root.AddCommand(newMigrateCommand(opts))
	root.AddCommand(newSeedRolesCommand(opts))
	root.AddCommand(newCreateServiceCommand(opts))
	root.AddCommand(newGrantCommand(opts))
	root.AddCommand(newListCommand(opts))
	return root
}

func (o *storeOptions) open(ctx context.Context) (*gorm.DB, error) {
	if o.sqlitePath != "" {
		return db.OpenSQLite(o.sqlitePath)
	}
	dsn := o.databaseURL
	if dsn == "" {
		var env storeEnv
		if err := config.Load(&env); err != nil {
			return nil, err
		}
		dsn = env.DatabaseURL
	}
	if dsn == "" {
		return nil, errors.New("no database: pass --database-url, --sqlite or set DATABASE_URL")
	}
	return db.Open(ctx, dsn)
}

// withService opens the store, migrates it and hands fn a service bound to
// it. Commands never issue tokens, so the issuer secret is irrelevant.
func (o *storeOptions) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.AuthService) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	gdb, err := o.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	r := repo.New(gdb)
	if err := r.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return fn(ctx, service.New(r, tokens.NewIssuer(nil), nil))
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(id), nil
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
