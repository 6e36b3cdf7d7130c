package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/theduckgroup/Apps-sub000/internal/catalog"
	"github.com/theduckgroup/Apps-sub000/internal/domain"
	"github.com/theduckgroup/Apps-sub000/internal/usecases"
)

// CatalogHandler handles HTTP requests for catalogs
type CatalogHandler struct {
	responder
	usecase *usecases.CatalogUsecase
}

func NewCatalogHandler(usecase *usecases.CatalogUsecase, validate *validator.Validate, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		responder: newResponder(logger, validate),
		usecase:   usecase,
	}
}

// ListCatalogs handles GET /catalogs
func (h *CatalogHandler) ListCatalogs(w http.ResponseWriter, r *http.Request) {
	params, err := pageParams(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	filter := domain.CatalogFilter{PaginationParams: params}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		filter.Kind = domain.CatalogKind(kind)
		if _, err := filter.Kind.EntityKind(); err != nil {
			h.respondError(w, r, domain.NewValidationError("kind", err.Error()))
			return
		}
	}

	res, err := h.usecase.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, newPageResponse(res))
}

// CreateCatalog handles POST /catalogs
func (h *CatalogHandler) CreateCatalog(w http.ResponseWriter, r *http.Request) {
	var c domain.Catalog
	if err := h.decode(w, r, &c); err != nil {
		h.respondError(w, r, err)
		return
	}

	created, err := h.usecase.Create(r.Context(), &c)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusCreated, created)
}

// GetCatalog handles GET /catalogs/{id}
func (h *CatalogHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	c, err := h.usecase.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, c)
}

// ReplaceCatalog handles PUT /catalogs/{id}; the path id wins over the body.
func (h *CatalogHandler) ReplaceCatalog(w http.ResponseWriter, r *http.Request) {
	var c domain.Catalog
	if err := h.decode(w, r, &c); err != nil {
		h.respondError(w, r, err)
		return
	}
	c.ID = chi.URLParam(r, "id")

	replaced, err := h.usecase.Replace(r.Context(), &c)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, replaced)
}

// DeleteCatalog handles DELETE /catalogs/{id}
func (h *CatalogHandler) DeleteCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.usecase.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyCommand handles POST /catalogs/{id}/commands
func (h *CatalogHandler) ApplyCommand(w http.ResponseWriter, r *http.Request) {
	var cmd catalog.Command
	if err := h.decode(w, r, &cmd); err != nil {
		h.respondError(w, r, err)
		return
	}

	c, err := h.usecase.ApplyCommand(r.Context(), chi.URLParam(r, "id"), cmd)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, c)
}

type codeCheckResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// ValidateCode handles GET /catalogs/{id}/validate-code?code=&entity_id=
func (h *CatalogHandler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	msg, err := h.usecase.ValidateEntityCode(r.Context(), chi.URLParam(r, "id"), q.Get("code"), q.Get("entity_id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, codeCheckResponse{Valid: msg == "", Message: msg})
}
