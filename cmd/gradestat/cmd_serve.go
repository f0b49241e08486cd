package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gradestat/gradestat/internal/store"
	"github.com/gradestat/gradestat/internal/webapi"
	"github.com/gradestat/gradestat/internal/webserver"
)

func newServeCommand() *cobra.Command {
	var (
		host        string
		port        int
		dbPath      string
		dirPath     string
		allowRemote bool
		noBrowser   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the subject API and dashboard over HTTP",
		Long: `Serve starts the gradestat web server: a JSON API over the subject store
plus an HTML dashboard with per-subject reports.

Subjects come from the SQLite database by default; --dir serves a directory
of bulletin YAML files instead. The server binds to loopback unless
--allow-remote is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(dbPath)
			if err != nil {
				return err
			}
			if host == "" {
				host = cfg.Server.Host
			}
			if port == 0 {
				port = cfg.Server.Port
			}
			host = resolveHost(host, allowRemote, slog.Default())

			var st webapi.SubjectStore
			if dirPath != "" {
				st = webapi.NewDirStore(dirPath)
			} else {
				dbStore, err := store.Open(cfg.Store.Path)
				if err != nil {
					return err
				}
				defer dbStore.Close() //nolint:errcheck
				st = dbStore
			}

			srv, err := webserver.New(webserver.Config{
				Host:       host,
				Port:       port,
				Store:      st,
				Options:    cfg.BootstrapOptions(-1),
				Confidence: cfg.Bootstrap.Confidence,
				NoBrowser:  noBrowser,
				Logger:     slog.Default(),
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host to bind (default from .gradestat.yaml)")
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default from .gradestat.yaml)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Subject database path (default from .gradestat.yaml)")
	cmd.Flags().StringVar(&dirPath, "dir", "", "Serve bulletin YAML files from this directory instead of the database")
	cmd.Flags().BoolVar(&allowRemote, "allow-remote", false,
		"Allow binding to non-loopback addresses (WARNING: exposes the API to the network with no authentication)")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Do not open the dashboard in a browser")

	return cmd
}

// resolveHost keeps the listener on loopback unless --allow-remote is set.
func resolveHost(host string, allowRemote bool, logger *slog.Logger) string {
	if allowRemote {
		if host == "" {
			host = "0.0.0.0"
		}
		logger.Warn("server binding beyond loopback with no authentication", "host", host)
		return host
	}

	switch host {
	case "", "0.0.0.0", "::":
		return "127.0.0.1"
	case "localhost", "127.0.0.1", "::1":
		return host
	}
	logger.Warn("ignoring non-loopback host, pass --allow-remote to bind it", "host", host)
	return "127.0.0.1"
}
