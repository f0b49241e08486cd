package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/gradestat/gradestat/internal/bulletin"
	"github.com/gradestat/gradestat/internal/projectconfig"
	"github.com/gradestat/gradestat/internal/store"
)

// loadSettings reads .gradestat.yaml defaults and applies the --db override
// when one was given.
func loadSettings(dbFlag string) (*projectconfig.ProjectConfig, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	cfg, err := projectconfig.Load(wd)
	if err != nil {
		return nil, err
	}
	if dbFlag != "" {
		cfg.Store.Path = dbFlag
	}
	return cfg, nil
}

// resolveBulletin resolves a subject argument. Behavior:
//   - Existing file path → the bulletin is loaded from the file
//   - Anything else → store lookup by subject id
//
// The store is only opened when the argument is not a file, so file-based
// invocations never touch (or create) the database.
func resolveBulletin(arg, dbPath string) (*bulletin.File, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return bulletin.Load(arg)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", dbPath, err)
	}
	defer st.Close() //nolint:errcheck

	f, err := st.Get(arg)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%q is neither a bulletin file nor a stored subject id", arg)
		}
		return nil, err
	}
	return f, nil
}
