package httpapi

import (
	"net/http"

	"biotrack-data/internal/domain"
	"biotrack-data/internal/repository"
	"biotrack-data/internal/service"

	"go.uber.org/zap"
)

// ExportHandler XLSX downloads.
type ExportHandler struct {
	persons repository.PersonsRepository
	export  service.ExportService
	logger  *zap.Logger
}

func NewExportHandler(persons repository.PersonsRepository, export service.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{persons: persons, export: export, logger: logger}
}

func (h *ExportHandler) person(w http.ResponseWriter, r *http.Request) *domain.Person {
	id, ok := parseInt64Param(r.URL.Query().Get("person_id"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, Fail("person_id is required"))
		return nil
	}
	p, err := h.persons.GetPerson(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load person", zap.Int64("person_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to load person"))
		return nil
	}
	if p == nil {
		writeJSON(w, http.StatusNotFound, Fail("person not found"))
		return nil
	}
	return p
}

// GET /bio/api/v1/export/wearable?person_id=&lang=&days=
func (h *ExportHandler) ExportWearablePanel(w http.ResponseWriter, r *http.Request) {
	p := h.person(w, r)
	if p == nil {
		return
	}
	lang := r.URL.Query().Get("lang")
	days := parseIntParam(r.URL.Query().Get("days"), 365)

	data, err := h.export.ExportWearablePanel(r.Context(), p, lang, days)
	if err != nil {
		h.logger.Error("failed to export wearable panel", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to export wearable panel"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="wearable_panel.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
