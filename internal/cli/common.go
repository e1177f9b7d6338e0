package cli

import (
	"context"
	"flag"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/entrypoint"
)

// dbFlag registers the shared -db flag, defaulting to DATABASE_PATH.
func dbFlag(fs *flag.FlagSet, target *string) {
	fs.StringVar(target, "db", config.NewConfig().Database.Path, "Path to the library database file")
}

// openApp builds the application against dbPath.
func openApp(ctx context.Context, dbPath string, verbose bool) (*entrypoint.App, error) {
	cfg := config.NewConfig()
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	return entrypoint.Build(ctx, cfg, !verbose)
}
