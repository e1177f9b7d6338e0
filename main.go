package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/mrlokans/bookshelf/internal/cli"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

// command is implemented by every sub-command in internal/cli.
type command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	name := "serve"
	var args []string
	if len(os.Args) >= 2 {
		name = os.Args[1]
		args = os.Args[2:]
	}

	var cmd command
	switch name {
	case "serve":
		cmd = cli.NewServeCommand(Version)
	case "ingest":
		cmd = cli.NewIngestCommand()
	case "list":
		cmd = cli.NewListCommand()
	case "delete":
		cmd = cli.NewDeleteCommand()
	case "export":
		cmd = cli.NewExportCommand()
	case "import":
		cmd = cli.NewImportCommand()
	case "search":
		cmd = cli.NewSearchCommand()
	case "version":
		fmt.Printf("bookshelf %s (%s)\n", Version, Commit)
		return
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve     Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  ingest    Add EPUB files to the library\n")
	fmt.Fprintf(os.Stderr, "  list      List the books in the library\n")
	fmt.Fprintf(os.Stderr, "  delete    Delete a book with its position and annotations\n")
	fmt.Fprintf(os.Stderr, "  export    Write a backup archive\n")
	fmt.Fprintf(os.Stderr, "  import    Merge a backup archive into the library\n")
	fmt.Fprintf(os.Stderr, "  search    Search the text of a book\n")
	fmt.Fprintf(os.Stderr, "  version   Print the version\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
