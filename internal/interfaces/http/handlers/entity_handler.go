package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/ListSense/internal/application/extraction"
	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/internal/intelligence/list_extractor"
	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

// EntityHandler manages the entity catalog.
type EntityHandler struct {
	svc    extraction.Service
	logger logging.Logger
}

// NewEntityHandler creates a new EntityHandler.
func NewEntityHandler(svc extraction.Service, logger logging.Logger) *EntityHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &EntityHandler{svc: svc, logger: logger.Named("http.entities")}
}

// EntityListResponse is the payload of GET /api/v1/entities.
type EntityListResponse struct {
	Entities []list_extractor.CatalogEntry `json:"entities"`
	Total    int                           `json:"total"`
}

// List handles GET /api/v1/entities.
func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListEntities(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if entries == nil {
		entries = []list_extractor.CatalogEntry{}
	}
	if kind := r.URL.Query().Get("type"); kind != "" {
		filtered := entries[:0:0]
		for _, e := range entries {
			if string(e.Kind) == kind {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	writeData(w, r, http.StatusOK, EntityListResponse{Entities: entries, Total: len(entries)})
}

// Get handles GET /api/v1/entities/{name}.
func (h *EntityHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.GetEntity(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, e)
}

// PutList handles PUT /api/v1/entities/lists/{name}.
func (h *EntityHandler) PutList(w http.ResponseWriter, r *http.Request) {
	var def entity.ListEntityDef
	if err := decodeJSON(r, &def); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if err := bindName(&def.Name, chi.URLParam(r, "name")); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	e, err := h.svc.PutListEntity(r.Context(), def)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, e)
}

// PutPattern handles PUT /api/v1/entities/patterns/{name}.
func (h *EntityHandler) PutPattern(w http.ResponseWriter, r *http.Request) {
	var def entity.PatternEntityDefinition
	if err := decodeJSON(r, &def); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if err := bindName(&def.Name, chi.URLParam(r, "name")); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	e, err := h.svc.PutPatternEntity(r.Context(), def)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, e)
}

// Delete handles DELETE /api/v1/entities/{name}.
func (h *EntityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEntity(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// bindName fills an empty body name from the path and rejects a mismatch.
func bindName(body *string, path string) error {
	if *body == "" {
		*body = path
		return nil
	}
	if *body != path {
		return errors.New(errors.ErrCodeValidation, "entity name does not match path").
			WithDetailf("path=%s body=%s", path, *body)
	}
	return nil
}

//Personal.AI order the ending
