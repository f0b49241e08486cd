package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gradestat/gradestat/internal/bulletin"
	"github.com/gradestat/gradestat/internal/scaffold"
	"github.com/gradestat/gradestat/internal/store"
)

func newImportCommand() *cobra.Command {
	var (
		csvID    string
		csvName  string
		csvLevel string
		dbPath   string
	)

	cmd := &cobra.Command{
		Use:   "import <file.yaml|file.csv> [file...]",
		Short: "Validate bulletin files and store them in the subject database",
		Long: `Import loads each bulletin file, validates it, and upserts it into the
subject database. YAML files carry their own identity; CSV tables carry
only the per-grade columns, so --id, --name and --level name the subject
(defaults are derived from the file name).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if csvID != "" && len(args) > 1 {
				return fmt.Errorf("--id applies to a single CSV file, got %d files", len(args))
			}

			cfg, err := loadSettings(dbPath)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.Store.Path)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			out := cmd.OutOrStdout()
			for _, path := range args {
				f, err := loadImportFile(path, csvID, csvName, csvLevel)
				if err != nil {
					return err
				}
				if err := st.Put(f); err != nil {
					return fmt.Errorf("storing %s: %w", f.ID, err)
				}
				fmt.Fprintf(out, "  imported %s (%s)\n", f.ID, subjectTitle(f.Name, f.Level))
			}
			fmt.Fprintf(out, "%d subject(s) stored in %s\n", len(args), st.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&csvID, "id", "", "Subject id for a CSV import (default: file name)")
	cmd.Flags().StringVar(&csvName, "name", "", "Subject name for a CSV import (default: derived from the id)")
	cmd.Flags().StringVar(&csvLevel, "level", "", "Subject level for a CSV import")
	cmd.Flags().StringVar(&dbPath, "db", "", "Subject database path (default from .gradestat.yaml)")

	return cmd
}

// loadImportFile loads one import source. The extension picks the decoder:
// .csv goes through the table importer, everything else is parsed as YAML.
func loadImportFile(path, id, name, level string) (*bulletin.File, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		if id == "" {
			id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		if name == "" {
			name = scaffold.TitleCase(id)
		}
		return bulletin.FromCSV(path, id, name, level)
	}
	return bulletin.Load(path)
}
