package web

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/csvmigrate/internal/core"
	"github.com/JonMunkholm/csvmigrate/internal/web/templates"
)

// adapterResponse describes one registered adapter.
type adapterResponse struct {
	Key         string   `json:"key"`
	Group       string   `json:"group"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Modes       []string `json:"modes"`
	DefaultMode string   `json:"defaultMode"`
	Headers     []string `json:"headers"`
}

// detectResponse is the result of header-based adapter detection.
type detectResponse struct {
	Headers []string            `json:"headers"`
	Matches []core.AdapterMatch `json:"matches"`
}

// handleIndex renders the adapter overview with one upload form per adapter.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	byGroup := s.service.ListAdaptersByGroup()

	var groups []templates.AdapterGroup
	for _, name := range core.Groups() {
		g := templates.AdapterGroup{Name: name}
		for _, info := range byGroup[name] {
			def, ok := core.Get(info.Key)
			if !ok {
				continue
			}
			g.Adapters = append(g.Adapters, templates.AdapterView{
				Key:         info.Key,
				Label:       info.Label,
				Description: info.Description,
				Modes:       def.ModeNames(),
			})
		}
		groups = append(groups, g)
	}

	templ.Handler(templates.Index(groups)).ServeHTTP(w, r)
}

// handleListAdapters returns every registered adapter.
func (s *Server) handleListAdapters(w http.ResponseWriter, r *http.Request) {
	defs := core.All()
	resp := make([]adapterResponse, 0, len(defs))
	for _, def := range defs {
		resp = append(resp, adapterResponse{
			Key:         def.Info.Key,
			Group:       def.Info.Group,
			Label:       def.Info.Label,
			Description: def.Info.Description,
			Modes:       def.ModeNames(),
			DefaultMode: def.DefaultMode().String(),
			Headers:     core.HeaderTemplate(def),
		})
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// handleTemplate downloads the expected CSV header for an adapter.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	def, err := core.Lookup(chi.URLParam(r, "adapterKey"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", def.Info.Key+"_template.csv"))

	cw := csv.NewWriter(w)
	if err := cw.Write(core.HeaderTemplate(def)); err != nil {
		respondError(w, r, err)
		return
	}
	cw.Flush()
}

// handleDetect reads the header of an uploaded file and ranks the adapters
// that could process it.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	file, _, err := s.formFile(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer file.Close()

	headers, err := core.ReadHeader(file, s.cfg.Upload.MaxFileSize)
	if err != nil {
		respondError(w, r, err)
		return
	}

	matches := core.DetectAdapter(headers)
	if matches == nil {
		matches = []core.AdapterMatch{}
	}
	writeJSON(w, r, http.StatusOK, detectResponse{Headers: headers, Matches: matches})
}

// handleStatus reports the migration limiter state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.limiter.Status())
}
