package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
)

// DeleteCommand removes a book with its file, position and annotations.
type DeleteCommand struct {
	DatabasePath string
	Key          string
	Verbose      bool
}

func NewDeleteCommand() *DeleteCommand {
	return &DeleteCommand{}
}

func (cmd *DeleteCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)

	dbFlag(fs, &cmd.DatabasePath)
	fs.StringVar(&cmd.Key, "key", "", "Library key of the book to delete (required)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s delete -key <key> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete a book, its saved position and its annotations.\n")
		fmt.Fprintf(os.Stderr, "Use '%s list' to find keys.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Key == "" {
		return fmt.Errorf("required flag -key not provided")
	}
	return nil
}

func (cmd *DeleteCommand) Run() error {
	ctx := context.Background()
	app, err := openApp(ctx, cmd.DatabasePath, cmd.Verbose)
	if err != nil {
		return err
	}
	defer app.Close()

	rec, ok := app.Index.Get(cmd.Key)
	if !ok {
		fmt.Printf("No book with key %s\n", cmd.Key)
		return nil
	}
	if err := app.Manager.Delete(ctx, cmd.Key); err != nil {
		return fmt.Errorf("delete %s: %w", cmd.Key, err)
	}
	fmt.Printf("Deleted %q (%d annotations)\n", rec.Title, len(rec.Annotations))
	return nil
}
