package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/gradestat/gradestat/internal/store"
)

var (
	listJSON bool
	listDB   string
)

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the subjects in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd)
		},
	}

	cmd.Flags().BoolVar(&listJSON, "json", false, "Emit JSON instead of text")
	cmd.Flags().StringVar(&listDB, "db", "", "Subject database path (default from .gradestat.yaml)")

	return cmd
}

func runList(cmd *cobra.Command) error {
	cfg, err := loadSettings(listDB)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	entries, err := st.List()
	if err != nil {
		return err
	}

	if listJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintf(w, "no subjects in %s\n", st.Path())
		return nil
	}

	// Column widths track the widest cell, counting wide runes.
	idW, nameW := runewidth.StringWidth("ID"), runewidth.StringWidth("NAME")
	for _, e := range entries {
		if sw := runewidth.StringWidth(e.ID); sw > idW {
			idW = sw
		}
		if sw := runewidth.StringWidth(e.Name); sw > nameW {
			nameW = sw
		}
	}

	fmt.Fprintf(w, "%s  %s  %-5s  %s\n", padRight("ID", idW), padRight("NAME", nameW), "LEVEL", "GRADES")
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s  %-5s  %6d\n", padRight(e.ID, idW), padRight(e.Name, nameW), e.Level, e.Grades)
	}
	fmt.Fprintf(w, "\n%d subject(s) in %s\n", len(entries), st.Path())
	return nil
}

// padRight pads s with spaces to display width w, counting wide runes.
func padRight(s string, w int) string {
	width := runewidth.StringWidth(s)
	if width >= w {
		return s
	}
	return s + strings.Repeat(" ", w-width)
}
