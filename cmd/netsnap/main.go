package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yourorg/netsnap/internal/capture"
	"github.com/yourorg/netsnap/internal/config"
	"github.com/yourorg/netsnap/internal/history"
	"github.com/yourorg/netsnap/internal/session"
	"github.com/yourorg/netsnap/internal/snapshot"
)

const defaultConfigContent = `snapshots:
  dir: "./snapshots"

filter:
  ignore_url_prefixes: []
  ignore_methods:
    - OPTIONS

sanitize:
  headers:
    - Authorization
    - Cookie
    - Set-Cookie
    - X-Api-Key
    - X-Auth-Token
  params:
    - password
    - secret
    - token
    - api_key
    - access_token
  replacement: "***REDACTED***"

history:
  path: ""

log:
  level: "info"
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:   "netsnap",
		Short: "Record and validate snapshots of captured network traffic",
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path")

	root.AddCommand(newInitCmd())
	root.AddCommand(newRecordCmd(&cfgPath))
	root.AddCommand(newValidateCmd(&cfgPath))
	root.AddCommand(newListCmd(&cfgPath))
	root.AddCommand(newShowCmd(&cfgPath))
	root.AddCommand(newDeleteCmd(&cfgPath))
	root.AddCommand(newRunsCmd(&cfgPath))

	return root
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize ~/.netsnap directory and default config",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			baseDir := filepath.Join(home, ".netsnap")
			if err := os.MkdirAll(baseDir, 0o755); err != nil {
				return err
			}

			cfgFile := filepath.Join(baseDir, "config.yaml")
			if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
				if err := os.WriteFile(cfgFile, []byte(defaultConfigContent), 0o644); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "created", cfgFile)
			} else if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "exists", cfgFile)
			} else {
				return err
			}

			dbPath := filepath.Join(baseDir, "history.db")
			h, err := history.NewSQLiteStore(dbPath)
			if err != nil {
				return err
			}
			defer h.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "history database ready", dbPath)
			return nil
		},
	}
}

func newRecordCmd(cfgPath *string) *cobra.Command {
	var harPath, name string
	cmd := &cobra.Command{Use: "record", Short: "Record a reference snapshot from a HAR file", RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, h, err := buildController(*cfgPath, harPath)
		if err != nil {
			return err
		}
		defer closeHistory(h)
		if err := ctrl.Start(); err != nil {
			return err
		}
		if err := ctrl.Record(name); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "recorded snapshot", name)
		return nil
	}}
	cmd.Flags().StringVar(&harPath, "har", "", "HAR file path")
	cmd.Flags().StringVar(&name, "name", "", "snapshot name")
	_ = cmd.MarkFlagRequired("har")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newValidateCmd(cfgPath *string) *cobra.Command {
	var harPath, name string
	cmd := &cobra.Command{Use: "validate", Short: "Validate a HAR file against a stored snapshot", RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, h, err := buildController(*cfgPath, harPath)
		if err != nil {
			return err
		}
		defer closeHistory(h)
		if err := ctrl.Start(); err != nil {
			return err
		}
		result, err := ctrl.Validate(name)
		if err != nil {
			return err
		}
		if !result.OK() {
			return errors.New(result.String())
		}
		fmt.Fprintln(cmd.OutOrStdout(), "snapshots match")
		return nil
	}}
	cmd.Flags().StringVar(&harPath, "har", "", "HAR file path")
	cmd.Flags().StringVar(&name, "name", "", "snapshot name")
	_ = cmd.MarkFlagRequired("har")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newListCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{Use: "list", Short: "List stored snapshots", RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(*cfgPath)
		if err != nil {
			return err
		}
		names, err := store.List()
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	}}
}

func newShowCmd(cfgPath *string) *cobra.Command {
	var name string
	cmd := &cobra.Command{Use: "show", Short: "Show one stored snapshot", RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(*cfgPath)
		if err != nil {
			return err
		}
		snap, err := store.Load(name)
		if err != nil {
			return err
		}
		for i, r := range snap.Records {
			fmt.Fprintf(cmd.OutOrStdout(), "%3d %s %s\n", i, r.Method, r.URL)
		}
		return nil
	}}
	cmd.Flags().StringVar(&name, "name", "", "snapshot name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newDeleteCmd(cfgPath *string) *cobra.Command {
	var name string
	cmd := &cobra.Command{Use: "delete", Short: "Delete a stored snapshot", RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(*cfgPath)
		if err != nil {
			return err
		}
		return store.Delete(name)
	}}
	cmd.Flags().StringVar(&name, "name", "", "snapshot name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newRunsCmd(cfgPath *string) *cobra.Command {
	var name string
	cmd := &cobra.Command{Use: "runs", Short: "List recorded run outcomes", RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			return err
		}
		h, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return err
		}
		defer h.Close()
		runs, err := h.List(name)
		if err != nil {
			return err
		}
		for _, r := range runs {
			line := fmt.Sprintf("%s  %-8s %-8s %s (%d requests)",
				r.CreatedAt.Format("2006-01-02 15:04:05"), r.Mode, r.Outcome, r.Snapshot, r.Requests)
			if r.Detail != "" {
				line += "\n      " + r.Detail
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	}}
	cmd.Flags().StringVar(&name, "snapshot", "", "filter by snapshot name")
	return cmd
}

func buildController(cfgPath, harPath string) (*session.Controller, *history.SQLiteStore, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	opts := []session.Option{session.WithLogger(newLogger(cfg.Log.Level))}
	var h *history.SQLiteStore
	if cfg.History.Path != "" {
		h, err = history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, session.WithHistory(h))
	}
	ctrl, err := session.New(cfg, &capture.HARSource{Path: harPath}, opts...)
	if err != nil {
		closeHistory(h)
		return nil, nil, err
	}
	return ctrl, h, nil
}

func openStore(cfgPath string) (snapshot.Store, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return snapshot.NewFileStore(cfg.Snapshots.Dir)
}

func closeHistory(h *history.SQLiteStore) {
	if h != nil {
		_ = h.Close()
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
