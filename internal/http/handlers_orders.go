package http

import (
	"net/http"

	"atlas/internal/core"
	"atlas/internal/log"
	"atlas/internal/services"
	"atlas/internal/storage"
)

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	var f storage.OrderFilter
	if v := r.URL.Query().Get("status"); v != "" {
		f.Status = core.OrderStatus(v)
		if !f.Status.Valid() {
			writeError(w, r, FieldErrors{"status": "oneof"})
			return
		}
	}
	orders, err := s.orders.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(mapSlice(orders, newOrderResponse)).Write(w)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.orders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(newOrderResponse(o)).Write(w)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := req.toOrder()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.orders.Create(r.Context(), o)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.records.LogRecordWritten(r.Context(), string(storage.KindOrder), created.ID, log.OpCreate)
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/orders/"+created.ID).
		JSON(newOrderResponse(created)).
		Write(w)
}

func (s *Server) handleReplaceOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.updateOrder(w, r, patch)
}

func (s *Server) handlePatchOrder(w http.ResponseWriter, r *http.Request) {
	var req orderPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.updateOrder(w, r, patch)
}

func (s *Server) updateOrder(w http.ResponseWriter, r *http.Request, patch services.OrderPatch) {
	updated, err := s.orders.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.records.LogRecordWritten(r.Context(), string(storage.KindOrder), updated.ID, log.OpUpdate)
	NewResponse().JSON(newOrderResponse(updated)).Write(w)
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.orders.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.records.LogRecordWritten(r.Context(), string(storage.KindOrder), id, log.OpDelete)
	NewResponse().Status(http.StatusNoContent).Write(w)
}
