package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/entrypoint"
)

// ServeCommand runs the HTTP server.
type ServeCommand struct {
	Version string
	Port    int
}

func NewServeCommand(version string) *ServeCommand {
	return &ServeCommand{Version: version}
}

func (cmd *ServeCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)

	fs.IntVar(&cmd.Port, "port", 0, "Port to listen on (overrides PORT)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s serve [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Start the HTTP server. Everything else is configured through the\n")
		fmt.Fprintf(os.Stderr, "environment or a .env file.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *ServeCommand) Run() error {
	cfg := config.NewConfig()
	if cmd.Port > 0 {
		cfg.HTTP.Port = int32(cmd.Port)
	}
	return entrypoint.Run(context.Background(), cfg, cmd.Version)
}
