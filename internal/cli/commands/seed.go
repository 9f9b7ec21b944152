package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapgrid/internal/catalog"
	"github.com/leapstack-labs/leapgrid/internal/cli/output"
)

// SeedOptions holds options for the seed command.
type SeedOptions struct {
	DB string
}

// seedOutput is the JSON result of a seed run.
type seedOutput struct {
	File    string `json:"file"`
	DB      string `json:"db"`
	Records int    `json:"records"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	opts := &SeedOptions{}

	cmd := &cobra.Command{
		Use:   "seed FILE",
		Short: "Load a catalog file into a SQLite database",
		Long: `Load every product of a CSV, JSON or YAML catalog file into a SQLite
database, creating or migrating its schema first.

The database can then be served with --catalog products.db.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Seed products.db next to the file
  leapgrid seed products.csv

  # Seed a specific database
  leapgrid seed catalog.yaml --db data/catalog.db

  # Report as JSON
  leapgrid seed products.json --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite database to write (default: FILE with a .db extension)")

	return cmd
}

func runSeed(cmd *cobra.Command, file string, opts *SeedOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	db := opts.DB
	if db == "" {
		db = seedDBPath(file)
	}

	n, err := catalog.SeedFile(commandContext(cmd), file, db, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(seedOutput{File: file, DB: db, Records: n})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Catalog Seeded"))
		r.Println("")
		r.Println(output.FormatKeyValue("File", file))
		r.Println(output.FormatKeyValue("Database", db))
		r.Printf("**Records:** %d\n", n)
	default:
		r.Println("")
		r.Header(2, "Catalog Seeded")
		r.StatusLine(filepath.Base(db), "success", fmt.Sprintf("%d records from %s", n, file))
		r.Println("")
		r.Muted("Serve it with: leapgrid serve --catalog " + db)
	}
	return nil
}

// seedDBPath replaces the extension of file with .db.
func seedDBPath(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file)) + ".db"
}
