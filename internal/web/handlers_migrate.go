package web

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/csvmigrate/internal/core"
	"github.com/JonMunkholm/csvmigrate/internal/web/templates"
)

// maxFormMemory is the share of a multipart upload kept in memory; the rest
// spills to temporary files.
const maxFormMemory = 32 << 20

// migrateResponse is the JSON result of POST /api/migrate/{adapterKey}.
type migrateResponse struct {
	Status      string            `json:"status"`
	RunID       string            `json:"runId"`
	Summary     core.Summary      `json:"summary"`
	Payload     core.Payload      `json:"payload"`
	Outcomes    []core.RowOutcome `json:"outcomes"`
	Warnings    []string          `json:"warnings,omitempty"`
	ReportFiles map[string]string `json:"reportFiles,omitempty"`
}

// formFile returns the uploaded input_file, enforcing the upload size limit.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			return nil, nil, core.Fatal("FILE001", "file too large", err)
		case errors.Is(err, http.ErrNotMultipart):
			return nil, nil, &core.FatalError{Code: "FILE004", Message: "no file provided"}
		default:
			return nil, nil, core.Fatal("FILE001", "unreadable input", err)
		}
	}

	file, header, err := r.FormFile("input_file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, &core.FatalError{Code: "FILE004", Message: "no file provided"}
		}
		return nil, nil, core.Fatal("FILE001", "unreadable input", err)
	}
	return file, header, nil
}

// startMigration validates the adapter and form, acquires a migration slot
// and returns the request to run. release must be called when done.
func (s *Server) startMigration(w http.ResponseWriter, r *http.Request) (req core.MigrationRequest, ctx context.Context, release func(), err error) {
	def, err := core.Lookup(chi.URLParam(r, "adapterKey"))
	if err != nil {
		return req, nil, nil, err
	}

	file, header, err := s.formFile(w, r)
	if err != nil {
		return req, nil, nil, err
	}

	rs, err := s.cfg.Resolve(def, s.profile, r.FormValue("mode"), r.FormValue("lookup_policy"))
	if err != nil {
		file.Close()
		return req, nil, nil, &core.FatalError{
			Code:    "ADP002",
			Message: err.Error(),
			Context: map[string]any{"adapter": def.Info.Key, "modes": def.ModeNames()},
		}
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		file.Close()
		return req, nil, nil, err
	}

	timeout := s.cfg.Upload.Timeout
	if timeout <= 0 {
		timeout = core.MigrationTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)

	release = func() {
		cancel()
		file.Close()
		s.limiter.Release()
	}

	return core.MigrationRequest{
		AdapterKey:   def.Info.Key,
		Input:        file,
		FileName:     header.Filename,
		Mode:         rs.Mode,
		LookupPolicy: rs.LookupPolicy,
	}, ctx, release, nil
}

// handleMigrate runs a migration over the uploaded file and returns the
// payload, per-row outcomes and links to the written side files.
func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	req, ctx, release, err := s.startMigration(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer release()

	res, err := s.service.Migrate(ctx, req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	batch := res.Batch
	links := reportLinks(res.ReportFiles)

	if isHTMX(r) {
		templ.Handler(templates.Result(templates.ResultView{
			RunID:       res.RunID,
			AdapterKey:  batch.AdapterKey,
			Mode:        batch.Mode.String(),
			Records:     batch.RecordCount(),
			Success:     batch.Summary.SuccessCount,
			Skipped:     batch.Summary.SkippedCount,
			Errors:      batch.Summary.ErrorCount,
			Warnings:    batch.Warnings,
			ReportFiles: links,
		})).ServeHTTP(w, r)
		return
	}

	outcomes := batch.Outcomes
	if outcomes == nil {
		outcomes = []core.RowOutcome{}
	}
	writeJSON(w, r, http.StatusOK, migrateResponse{
		Status:      "completed",
		RunID:       res.RunID,
		Summary:     batch.Summary,
		Payload:     batch.Payload(),
		Outcomes:    outcomes,
		Warnings:    batch.Warnings,
		ReportFiles: links,
	})
}

// handlePreview runs a dry migration and returns sampled results. The
// optional "samples" query parameter sets the sample size per outcome.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	samples, _ := strconv.Atoi(r.URL.Query().Get("samples"))

	req, ctx, release, err := s.startMigration(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer release()

	preview, err := s.service.Preview(ctx, req, samples)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, preview)
}

// reportLinks turns written side-file paths into /reports URLs.
func reportLinks(files map[string]string) map[string]string {
	if len(files) == 0 {
		return nil
	}
	links := make(map[string]string, len(files))
	for kind, path := range files {
		links[kind] = "/reports/" + filepath.Base(path)
	}
	return links
}
