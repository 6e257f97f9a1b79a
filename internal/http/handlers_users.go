package http

import (
	"net/http"

	"atlas/internal/core"
	"atlas/internal/services"
	"atlas/internal/storage"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	var f storage.UserFilter
	if v := r.URL.Query().Get("role"); v != "" {
		f.Role = core.Role(v)
		if !f.Role.Valid() {
			writeError(w, r, FieldErrors{"role": "oneof"})
			return
		}
	}
	users, err := s.users.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(mapSlice(users, newUserResponse)).Write(w)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(newUserResponse(u)).Write(w)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.users.Create(r.Context(), req.toUser())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/users/"+created.ID).
		JSON(newUserResponse(created)).
		Write(w)
}

func (s *Server) handleReplaceUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.updateUser(w, r, req.toPatch())
}

func (s *Server) handlePatchUser(w http.ResponseWriter, r *http.Request) {
	var req userPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.updateUser(w, r, req.toPatch())
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request, patch services.UserPatch) {
	updated, err := s.users.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(newUserResponse(updated)).Write(w)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
