package api

import (
	"net/http"

	"codeberg.org/mutker/atmena/internal/ingest"
	"codeberg.org/mutker/atmena/internal/query"
	"github.com/gorilla/mux"
)

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleSelect(table query.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)

		opts, err := query.ParseOptions(r.URL.Query(), s.cfg.DefaultLimit)
		if err != nil {
			respondError(w, err)
			return
		}

		plan, err := query.Build(table, vars["dataType"], vars["deviceID"], opts)
		if err != nil {
			respondError(w, err)
			return
		}

		rows, err := s.store.Select(r.Context(), plan)
		if err != nil {
			respondError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, rows)
	}
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	reading, err := ingest.ParseForm(mux.Vars(r)["deviceID"], r.PostForm)
	if err != nil {
		respondError(w, err)
		return
	}

	if _, err := s.pipeline.Ingest(r.Context(), reading); err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Connection", "close")
	w.WriteHeader(http.StatusNoContent)
}
