package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
	"github.com/theduckgroup/Apps-sub000/internal/usecases"
)

// ReportHandler handles report submission and history
type ReportHandler struct {
	responder
	usecase *usecases.ReportUsecase
}

func NewReportHandler(usecase *usecases.ReportUsecase, validate *validator.Validate, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		responder: newResponder(logger, validate),
		usecase:   usecase,
	}
}

// SubmitReport handles POST /catalogs/{id}/reports
func (h *ReportHandler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	var sub domain.Submission
	if err := h.decode(w, r, &sub); err != nil {
		h.respondError(w, r, err)
		return
	}

	rep, err := h.usecase.Submit(r.Context(), chi.URLParam(r, "id"), sub)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusCreated, rep)
}

// GetReport handles GET /reports/{id}
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.usecase.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, rep)
}

// ListUserReports handles GET /users/{user}/reports
func (h *ReportHandler) ListUserReports(w http.ResponseWriter, r *http.Request) {
	params, err := pageParams(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	res, err := h.usecase.ListUserReports(r.Context(), chi.URLParam(r, "user"), params)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, newPageResponse(res))
}
