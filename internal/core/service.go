package core

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/csvmigrate/internal/logging"
)

// MigrationTimeout is the maximum duration for one migration in serve mode.
var MigrationTimeout = 10 * time.Minute

// ReportWriter persists the side files of a finished batch and returns the
// written paths keyed by kind ("log", "summary", "payload").
type ReportWriter interface {
	Write(result *BatchResult) (map[string]string, error)
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	LookupDir   string                       // Base for relative lookup paths
	LookupPaths map[string]map[string]string // adapter key -> lookup name -> path
	MaxFileSize int64
	Reports     ReportWriter // nil disables side files
	Now         func() time.Time
}

// Service runs migrations for any registered adapter.
// It is safe for concurrent use; every call loads its own lookup tables.
type Service struct {
	cfg ServiceConfig
}

// NewService creates a new Service instance.
func NewService(cfg ServiceConfig) *Service {
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = MaxFileSize
	}
	return &Service{cfg: cfg}
}

// MigrationRequest describes one migration.
type MigrationRequest struct {
	AdapterKey   string
	Input        io.Reader
	FileName     string
	Mode         Mode
	LookupPolicy LookupPolicy
	Lookups      map[string]string // Per-call lookup path overrides
	DryRun       bool              // Skip side files
}

// MigrationResult is the outcome of Service.Migrate.
type MigrationResult struct {
	RunID          string            `json:"runId"`
	Batch          *BatchResult      `json:"-"`
	LookupWarnings []string          `json:"lookupWarnings,omitempty"`
	ReportFiles    map[string]string `json:"reportFiles,omitempty"`
}

// ListAdapters returns information about all registered adapters.
func (s *Service) ListAdapters() []AdapterInfo {
	defs := All()
	infos := make([]AdapterInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// ListAdaptersByGroup returns adapters organized by group.
func (s *Service) ListAdaptersByGroup() map[string][]AdapterInfo {
	result := make(map[string][]AdapterInfo)
	for _, group := range Groups() {
		for _, def := range ByGroup(group) {
			result[group] = append(result[group], def.Info)
		}
	}
	return result
}

// LoadLookups loads every lookup def declares. Paths are taken, in order of
// precedence, from overrides, the configured per-adapter paths and the
// definition itself; relative paths are resolved against LookupDir.
func (s *Service) LoadLookups(def *AdapterDefinition, overrides map[string]string) (Lookups, []string, error) {
	paths := make(map[string]string, len(def.Lookups))
	for _, src := range def.Lookups {
		p := src.Path
		if cp, ok := s.cfg.LookupPaths[def.Info.Key][src.Name]; ok && cp != "" {
			p = cp
		}
		if op, ok := overrides[src.Name]; ok && op != "" {
			p = op
		}
		if p != "" && s.cfg.LookupDir != "" && !filepath.IsAbs(p) {
			p = filepath.Join(s.cfg.LookupDir, p)
		}
		paths[src.Name] = p
	}
	return LoadLookups(def.Lookups, paths)
}

// Migrate runs one adapter over req.Input.
// Fatal problems are returned as *FatalError.
func (s *Service) Migrate(ctx context.Context, req MigrationRequest) (*MigrationResult, error) {
	if req.Input == nil {
		return nil, &FatalError{Code: "FILE004", Message: "no file provided"}
	}

	def, err := Lookup(req.AdapterKey)
	if err != nil {
		return nil, err
	}

	ctx, runID := logging.WithRunID(ctx, logging.RunIDFromContext(ctx))
	log := logging.WithFields(ctx, "adapter", def.Info.Key, "file", req.FileName)

	lookups, warnings, err := s.LoadLookups(def, req.Lookups)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.Warn("lookup", "warning", w)
	}

	log.Info("migration started", "mode", req.Mode.String(), "lookup_policy", req.LookupPolicy.String())

	batch, err := Run(ctx, req.Input, def, RunOptions{
		Mode:         req.Mode,
		LookupPolicy: req.LookupPolicy,
		Lookups:      lookups,
		Now:          s.cfg.Now,
		Logger:       log,
		MaxBytes:     s.cfg.MaxFileSize,
	})
	if err != nil {
		log.Error("migration aborted", "error", err)
		return nil, err
	}
	batch.Warnings = append(append([]string(nil), warnings...), batch.Warnings...)

	result := &MigrationResult{
		RunID:          runID,
		Batch:          batch,
		LookupWarnings: warnings,
	}

	if s.cfg.Reports != nil && !req.DryRun {
		files, err := s.cfg.Reports.Write(batch)
		if err != nil {
			return nil, Fatal("OUT001", "write report", err)
		}
		result.ReportFiles = files
		log.Info("reports written", "files", len(files))
	}

	return result, nil
}

// Preview runs a migration without side files and summarizes it.
func (s *Service) Preview(ctx context.Context, req MigrationRequest, sampleSize int) (*PreviewResponse, error) {
	req.DryRun = true
	res, err := s.Migrate(ctx, req)
	if err != nil {
		return nil, err
	}
	return Preview(res.Batch, sampleSize), nil
}
