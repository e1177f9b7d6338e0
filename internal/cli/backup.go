package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mrlokans/bookshelf/internal/backup"
	"github.com/mrlokans/bookshelf/internal/config"
)

// ExportCommand writes a backup archive of the whole library.
type ExportCommand struct {
	DatabasePath string
	Output       string
	Verbose      bool
}

func NewExportCommand() *ExportCommand {
	return &ExportCommand{}
}

func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	dbFlag(fs, &cmd.DatabasePath)
	fs.StringVar(&cmd.Output, "out", config.NewConfig().Backup.Dir, "Archive file, or a directory to write a timestamped archive into")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export books, annotations, positions and settings to a zip archive.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s export -out ./backups\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s export -out library.zip\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Output == "" {
		return fmt.Errorf("required flag -out not provided")
	}
	return nil
}

func (cmd *ExportCommand) Run() error {
	ctx := context.Background()
	app, err := openApp(ctx, cmd.DatabasePath, cmd.Verbose)
	if err != nil {
		return err
	}
	defer app.Close()

	progress := func(msg string) { fmt.Println(msg) }

	if filepath.Ext(cmd.Output) != ".zip" {
		path, summary, err := app.Backup.ExportToDir(ctx, cmd.Output, progress)
		if err != nil {
			return err
		}
		printExport(path, summary)
		return nil
	}

	if dir := filepath.Dir(cmd.Output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(cmd.Output)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	summary, err := app.Backup.Export(ctx, f, progress)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(cmd.Output)
		return err
	}
	printExport(cmd.Output, summary)
	return nil
}

func printExport(path string, s backup.ExportSummary) {
	fmt.Printf("\nWrote %s\n", path)
	fmt.Printf("  Books:     %d\n", s.Books)
	fmt.Printf("  Positions: %d\n", s.Positions)
	if len(s.Missing) > 0 {
		fmt.Printf("  Missing files: %d\n", len(s.Missing))
	}
}

// ImportCommand merges a backup archive into the library.
type ImportCommand struct {
	DatabasePath string
	File         string
	Verbose      bool
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	dbFlag(fs, &cmd.DatabasePath)
	fs.StringVar(&cmd.File, "file", "", "Backup archive to import (required)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -file <archive.zip> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Merge a backup archive into the library. Books in the archive replace\n")
		fmt.Fprintf(os.Stderr, "books with the same key; other books are kept.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.File == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	return nil
}

func (cmd *ImportCommand) Run() error {
	if _, err := os.Stat(cmd.File); os.IsNotExist(err) {
		return fmt.Errorf("archive not found: %s", cmd.File)
	}

	ctx := context.Background()
	app, err := openApp(ctx, cmd.DatabasePath, cmd.Verbose)
	if err != nil {
		return err
	}
	defer app.Close()

	start := time.Now()
	summary, err := app.Backup.ImportFile(ctx, cmd.File, func(msg string) { fmt.Println(msg) })
	if err != nil {
		return err
	}

	fmt.Printf("\nImported %s in %v\n", cmd.File, time.Since(start).Round(time.Millisecond))
	fmt.Printf("  Books:     %d (%d files restored)\n", summary.Books, summary.Restored)
	fmt.Printf("  Settings:  %d fields\n", len(summary.SettingsApplied))
	fmt.Printf("  Positions: %d\n", summary.PositionsApplied)
	for key, msg := range summary.Failed {
		fmt.Printf("  Failed %s: %s\n", key, msg)
	}
	return nil
}
