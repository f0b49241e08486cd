package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gradestat/gradestat/internal/scaffold"
	"github.com/gradestat/gradestat/internal/wizard"
)

func newNewCommand() *cobra.Command {
	var (
		outPath    string
		gradeCount int
		name       string
		level      string
	)

	cmd := &cobra.Command{
		Use:     "new <id>",
		Aliases: []string{"scaffold"},
		Short:   "Create a subject bulletin file",
		Long: `New creates a bulletin file for a subject.

On a terminal, an interactive form collects the grade bands and candidate
shares and writes a complete, validated bulletin. Without a terminal a
starter file is scaffolded instead: --grades evenly split bands with a
uniform distribution, meant to be edited by hand and then verified with
gradestat check.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := scaffold.ValidateID(id); err != nil {
				return err
			}
			if outPath == "" {
				outPath = id + ".yaml"
			}
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("%s already exists", outPath)
			}

			// The wizard needs a real terminal; piped input gets a scaffold.
			isTTY := false
			if f, ok := cmd.InOrStdin().(*os.File); ok {
				isTTY = term.IsTerminal(int(f.Fd()))
			}

			out := cmd.OutOrStdout()
			if isTTY {
				spec, err := wizard.Run(cmd.InOrStdin(), out, id)
				if err != nil {
					return err
				}
				if err := spec.File().Save(outPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "\n  create %s\n\nVerify it with: gradestat check %s\n", outPath, outPath)
				return nil
			}

			rows := scaffold.UniformGrades(gradeCount)
			if rows == nil {
				return fmt.Errorf("grade count must be between 1 and 101, got %d", gradeCount)
			}
			if name == "" {
				name = scaffold.TitleCase(id)
			}
			content, err := scaffold.BulletinYAML(id, name, level, rows)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
				return err
			}

			fmt.Fprintf(out, "Scaffolding subject %s\n\n  create %s\n\n", id, outPath)
			fmt.Fprintf(out, "Edit the bands and shares, then verify with: gradestat check %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (default <id>.yaml)")
	cmd.Flags().IntVar(&gradeCount, "grades", 7, "Grade count for the scaffolded table")
	cmd.Flags().StringVar(&name, "name", "", "Subject name (default derived from the id)")
	cmd.Flags().StringVar(&level, "level", "", "Subject level, e.g. HL or SL")

	return cmd
}
