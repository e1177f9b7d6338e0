package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/mrlokans/bookshelf/internal/utils"
)

// IngestCommand adds EPUB files to the library.
type IngestCommand struct {
	DatabasePath string
	Verbose      bool
	Paths        []string
}

func NewIngestCommand() *IngestCommand {
	return &IngestCommand{}
}

func (cmd *IngestCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)

	dbFlag(fs, &cmd.DatabasePath)
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s ingest [options] <file.epub>...\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Add EPUB files to the library. Files that fail are reported and skipped.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd.Paths = fs.Args()
	if len(cmd.Paths) == 0 {
		return fmt.Errorf("at least one file is required")
	}
	return nil
}

func (cmd *IngestCommand) Run() error {
	ctx := context.Background()
	app, err := openApp(ctx, cmd.DatabasePath, cmd.Verbose)
	if err != nil {
		return err
	}
	defer app.Close()

	for _, p := range cmd.Paths {
		if !utils.HasEPUBExtension(p) {
			fmt.Printf("Warning: %s does not look like an EPUB file\n", p)
		}
	}

	result := app.Ingester.IngestFiles(ctx, cmd.Paths)
	for _, rec := range result.Ingested {
		fmt.Printf("Added %q by %s (%s)\n", rec.Title, rec.Author, rec.Key)
	}

	failed := make([]string, 0, len(result.Failed))
	for p := range result.Failed {
		failed = append(failed, p)
	}
	sort.Strings(failed)
	for _, p := range failed {
		fmt.Printf("Failed %s: %v\n", p, result.Failed[p])
	}

	fmt.Printf("\n%d added, %d failed\n", len(result.Ingested), len(result.Failed))
	if len(result.Ingested) == 0 {
		return fmt.Errorf("no books were added")
	}
	return nil
}
