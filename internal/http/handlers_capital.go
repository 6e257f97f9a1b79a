package http

import (
	"net/http"

	"atlas/internal/core"
	"atlas/internal/log"
	"atlas/internal/services"
	"atlas/internal/storage"
)

func (s *Server) handleListCapital(w http.ResponseWriter, r *http.Request) {
	var f storage.CapitalFilter
	if v := r.URL.Query().Get("type"); v != "" {
		f.Type = core.CapitalType(v)
		if !f.Type.Valid() {
			writeError(w, r, FieldErrors{"type": "oneof"})
			return
		}
	}
	entries, err := s.capital.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(mapSlice(entries, newCapitalResponse)).Write(w)
}

func (s *Server) handleGetCapital(w http.ResponseWriter, r *http.Request) {
	e, err := s.capital.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(newCapitalResponse(e)).Write(w)
}

func (s *Server) handleCreateCapital(w http.ResponseWriter, r *http.Request) {
	var req capitalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := req.toEntry()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.capital.Create(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.records.LogRecordWritten(r.Context(), string(storage.KindCapital), created.ID, log.OpCreate)
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/capital/"+created.ID).
		JSON(newCapitalResponse(created)).
		Write(w)
}

func (s *Server) handleReplaceCapital(w http.ResponseWriter, r *http.Request) {
	var req capitalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.updateCapital(w, r, patch)
}

func (s *Server) handlePatchCapital(w http.ResponseWriter, r *http.Request) {
	var req capitalPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.updateCapital(w, r, patch)
}

func (s *Server) updateCapital(w http.ResponseWriter, r *http.Request, patch services.CapitalPatch) {
	updated, err := s.capital.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.records.LogRecordWritten(r.Context(), string(storage.KindCapital), updated.ID, log.OpUpdate)
	NewResponse().JSON(newCapitalResponse(updated)).Write(w)
}

func (s *Server) handleDeleteCapital(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.capital.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.records.LogRecordWritten(r.Context(), string(storage.KindCapital), id, log.OpDelete)
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleCapitalSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.dashboard.CapitalSummary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(newCapitalSummaryResponse(sum)).Write(w)
}
