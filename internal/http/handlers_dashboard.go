package http

import (
	"errors"
	"net/http"
	"strconv"

	"atlas/internal/services"
)

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := s.dashboard.Overview(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(newOverviewResponse(ov)).Write(w)
}

func (s *Server) handleRevenueChart(w http.ResponseWriter, r *http.Request) {
	png, err := s.dashboard.RevenueChart(r.Context())
	if errors.Is(err, services.ErrNoRevenue) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	resp, err := s.dashboard.GenerateSummary(r.Context(), services.SummaryPeriod{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(summaryResponse{Summary: resp.Summary}).Write(w)
}

func (s *Server) handleSummaryStatus(w http.ResponseWriter, r *http.Request) {
	st := s.dashboard.SummaryStatus()
	NewResponse().JSON(summaryStatusResponse{
		State:   st.State.String(),
		Summary: st.Result.Summary,
	}).Write(w)
}
