package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/library"
)

// ListCommand prints the library.
type ListCommand struct {
	DatabasePath string
	Query        string
	Sort         string
	Verbose      bool
}

func NewListCommand() *ListCommand {
	return &ListCommand{}
}

func (cmd *ListCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)

	dbFlag(fs, &cmd.DatabasePath)
	fs.StringVar(&cmd.Query, "q", "", "Only show books whose title or author contains this text")
	fs.StringVar(&cmd.Sort, "sort", "newest", "Sort order: newest, oldest, title or author")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s list [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "List the books in the library.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *ListCommand) Run() error {
	order := library.ParseSortOrder(cmd.Sort)

	ctx := context.Background()
	app, err := openApp(ctx, cmd.DatabasePath, cmd.Verbose)
	if err != nil {
		return err
	}
	defer app.Close()

	books := library.Sort(library.Filter(app.Index.List(), cmd.Query), order)
	if len(books) == 0 {
		fmt.Println("No books found")
		return nil
	}

	if rec, ok := library.ContinueReading(app.Index.List()); ok {
		fmt.Printf("Continue reading: %s (%d%%)\n\n", rec.Title, rec.ProgressValue())
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTITLE\tAUTHOR\tPROGRESS\tANNOTATIONS")
	for _, rec := range books {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d%%\t%d\n", rec.Key, truncate(rec.Title, 40), truncate(authorOf(rec), 24), rec.ProgressValue(), len(rec.Annotations))
	}
	return tw.Flush()
}

func authorOf(rec entities.BookRecord) string {
	if strings.TrimSpace(rec.Author) == "" {
		return "(no author)"
	}
	return rec.Author
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
