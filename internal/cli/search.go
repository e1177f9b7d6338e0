package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
)

// SearchCommand runs a full-text search over one stored book.
type SearchCommand struct {
	DatabasePath string
	Key          string
	Query        string
	Verbose      bool
}

func NewSearchCommand() *SearchCommand {
	return &SearchCommand{}
}

func (cmd *SearchCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)

	dbFlag(fs, &cmd.DatabasePath)
	fs.StringVar(&cmd.Key, "key", "", "Library key of the book to search (required)")
	fs.StringVar(&cmd.Query, "q", "", "Text to search for (required)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s search -key <key> -q <text> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Search the text of a book. Matches are listed in reading order.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Key == "" {
		return fmt.Errorf("required flag -key not provided")
	}
	if cmd.Query == "" {
		return fmt.Errorf("required flag -q not provided")
	}
	return nil
}

func (cmd *SearchCommand) Run() error {
	ctx := context.Background()
	app, err := openApp(ctx, cmd.DatabasePath, cmd.Verbose)
	if err != nil {
		return err
	}
	defer app.Close()

	rec, ok := app.Index.Get(cmd.Key)
	if !ok {
		return fmt.Errorf("no book with key %s", cmd.Key)
	}
	data, err := app.Blobs.Get(ctx, cmd.Key)
	if err != nil {
		return fmt.Errorf("load %s: %w", cmd.Key, err)
	}

	results, err := app.Search(ctx, data, cmd.Query)
	if err != nil {
		return err
	}
	fmt.Printf("%d matches for %q in %s\n\n", len(results), cmd.Query, rec.Title)
	for i, r := range results {
		fmt.Printf("%3d. %s\n     %s\n", i+1, r.Excerpt, r.Token)
	}
	return nil
}
