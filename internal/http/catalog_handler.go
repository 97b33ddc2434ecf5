package httpapi

import (
	"net/http"

	"biotrack-data/internal/repository"
	"biotrack-data/internal/service"

	"go.uber.org/zap"
)

// CatalogHandler read access to the biomarker catalog and the resolver.
type CatalogHandler struct {
	biomarkers repository.BiomarkersRepository
	normalize  service.NormalizeService
	logger     *zap.Logger
}

func NewCatalogHandler(biomarkers repository.BiomarkersRepository, normalize service.NormalizeService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{biomarkers: biomarkers, normalize: normalize, logger: logger}
}

// GET /bio/api/v1/biomarkers
func (h *CatalogHandler) ListBiomarkers(w http.ResponseWriter, r *http.Request) {
	list, err := h.biomarkers.ListBiomarkers(r.Context())
	if err != nil {
		h.logger.Error("failed to list biomarkers", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list biomarkers"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

// GET /bio/api/v1/biomarkers/resolve?name=&auto_create=
func (h *CatalogHandler) ResolveBiomarker(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, Fail("name is required"))
		return
	}
	autoCreate := r.URL.Query().Get("auto_create") == "true"

	bm, err := h.normalize.ResolveBiomarker(r.Context(), name, autoCreate)
	if err != nil {
		h.logger.Error("failed to resolve biomarker", zap.String("name", name), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to resolve biomarker"))
		return
	}
	if bm == nil {
		writeJSON(w, http.StatusNotFound, Fail("no biomarker matched"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(bm))
}
