package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvmigrate/internal/core"
	"github.com/JonMunkholm/csvmigrate/internal/report"
)

// migrationFlags are shared by run and preview.
type migrationFlags struct {
	mode         string
	lookupPolicy string
	lookups      []string
	compact      bool
}

func (f *migrationFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mode, "mode", "", "insert or update (default: profile, $MIGRATE_MODE, adapter default)")
	cmd.Flags().StringVar(&f.lookupPolicy, "lookup-policy", "", "Unresolved lookup references: warn or skip")
	cmd.Flags().StringArrayVar(&f.lookups, "lookup", nil, "Lookup file override as name=path (repeatable)")
	cmd.Flags().BoolVar(&f.compact, "compact", false, "Write compact JSON")
}

// parseLookupFlags parses repeated name=path values.
func parseLookupFlags(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, v := range values {
		name, path, ok := strings.Cut(v, "=")
		name, path = strings.TrimSpace(name), strings.TrimSpace(path)
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("invalid --lookup %q (want name=path)", v)
		}
		out[name] = path
	}
	return out, nil
}

func newRunCmd(a *app) *cobra.Command {
	var (
		flags   migrationFlags
		noAudit bool
	)

	cmd := &cobra.Command{
		Use:   "run <adapter> <file>",
		Short: "Migrate a CSV file and write the payload to stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), args[0], args[1], flags, noAudit)
		},
	}
	flags.bind(cmd)
	cmd.Flags().BoolVar(&noAudit, "no-audit", false, "Do not write side files")
	return cmd
}

func newPreviewCmd(a *app) *cobra.Command {
	var (
		flags   migrationFlags
		samples int
	)

	cmd := &cobra.Command{
		Use:   "preview <adapter> <file>",
		Short: "Dry-run a migration and print sampled results",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.preview(cmd.Context(), args[0], args[1], flags, samples)
		},
	}
	flags.bind(cmd)
	cmd.Flags().IntVar(&samples, "samples", core.DefaultPreviewSamples, "Rows sampled per outcome")
	return cmd
}

// request resolves the adapter settings and opens the input file. The
// caller closes the returned file.
func (a *app) request(adapterKey, path string, flags migrationFlags) (core.MigrationRequest, *os.File, error) {
	var req core.MigrationRequest

	overrides, err := parseLookupFlags(flags.lookups)
	if err != nil {
		return req, nil, err
	}

	def, err := core.Lookup(adapterKey)
	if err != nil {
		return req, nil, a.fatal(err, flags.compact)
	}

	rs, err := a.cfg.Resolve(def, a.profile, flags.mode, flags.lookupPolicy)
	if err != nil {
		return req, nil, a.fatal(&core.FatalError{
			Code:    "ADP002",
			Message: err.Error(),
			Context: map[string]any{"adapter": def.Info.Key, "modes": def.ModeNames()},
		}, flags.compact)
	}

	f, err := os.Open(path)
	if err != nil {
		return req, nil, a.fatal(&core.FatalError{
			Code:    "FILE001",
			Message: "unreadable input",
			Context: map[string]any{"file": path},
			Err:     err,
		}, flags.compact)
	}

	return core.MigrationRequest{
		AdapterKey:   def.Info.Key,
		Input:        f,
		FileName:     filepath.Base(path),
		Mode:         rs.Mode,
		LookupPolicy: rs.LookupPolicy,
		Lookups:      mergeLookups(rs.Lookups, overrides),
	}, f, nil
}

// mergeLookups layers flag overrides on top of profile paths.
func mergeLookups(profile, flags map[string]string) map[string]string {
	out := make(map[string]string, len(profile)+len(flags))
	for k, v := range profile {
		out[k] = v
	}
	for k, v := range flags {
		out[k] = v
	}
	return out
}

func (a *app) run(ctx context.Context, adapterKey, path string, flags migrationFlags, noAudit bool) error {
	req, f, err := a.request(adapterKey, path, flags)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := a.service(!noAudit, 0).Migrate(ctx, req)
	if err != nil {
		return a.fatal(err, flags.compact)
	}

	if err := report.WritePayload(a.stdout, res.Batch.Payload(), flags.compact); err != nil {
		return a.fatal(core.Fatal("OUT001", "write payload", err), flags.compact)
	}

	s := res.Batch.Summary
	slog.Info("migration finished",
		"run_id", res.RunID,
		"adapter", adapterKey,
		"records", s.RecordCount,
		"success", s.SuccessCount,
		"skipped", s.SkippedCount,
		"errors", s.ErrorCount,
	)
	for kind, p := range res.ReportFiles {
		slog.Info("report written", "kind", kind, "path", p)
	}
	return nil
}

func (a *app) preview(ctx context.Context, adapterKey, path string, flags migrationFlags, samples int) error {
	req, f, err := a.request(adapterKey, path, flags)
	if err != nil {
		return err
	}
	defer f.Close()

	resp, err := a.service(false, 0).Preview(ctx, req, samples)
	if err != nil {
		return a.fatal(err, flags.compact)
	}
	return report.WritePayload(a.stdout, resp, flags.compact)
}
