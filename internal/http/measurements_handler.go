package httpapi

import (
	"net/http"
	"time"

	"biotrack-data/internal/domain"
	"biotrack-data/internal/repository"
	"biotrack-data/internal/service"
	"biotrack-data/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MeasurementsHandler measurement CRUD plus the composite endpoints.
type MeasurementsHandler struct {
	persons      repository.PersonsRepository
	measurements repository.MeasurementsRepository
	biomarkers   repository.BiomarkersRepository
	normalize    service.NormalizeService
	composites   service.CompositeService
	ingest       service.IngestService
	kv           store.KV
	logger       *zap.Logger
}

func NewMeasurementsHandler(
	persons repository.PersonsRepository,
	measurements repository.MeasurementsRepository,
	biomarkers repository.BiomarkersRepository,
	normalize service.NormalizeService,
	composites service.CompositeService,
	ingest service.IngestService,
	kv store.KV,
	logger *zap.Logger,
) *MeasurementsHandler {
	return &MeasurementsHandler{
		persons:      persons,
		measurements: measurements,
		biomarkers:   biomarkers,
		normalize:    normalize,
		composites:   composites,
		ingest:       ingest,
		kv:           kv,
		logger:       logger,
	}
}

func (h *MeasurementsHandler) person(w http.ResponseWriter, r *http.Request) *domain.Person {
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

// MeasurementItem measurement enriched for display: biomarker identity plus
// the classification against the person's best-matching reference range.
type MeasurementItem struct {
	ID            int64      `json:"id"`
	BiomarkerCode string     `json:"biomarker_code"`
	BiomarkerName string     `json:"biomarker_name"`
	ValueStd      float64    `json:"value_std"`
	UnitStd       string     `json:"unit_std"`
	OriginalName  string     `json:"original_name"`
	OriginalValue string     `json:"original_value"`
	OriginalUnit  string     `json:"original_unit"`
	SourceType    string     `json:"source_type"`
	SampleTime    *time.Time `json:"sample_time,omitempty"`
	Status        string     `json:"status"`
	QualityNote   string     `json:"quality_note,omitempty"`
}

// GET /bio/api/v1/measurements?person_id=&limit=
func (h *MeasurementsHandler) ListMeasurements(w http.ResponseWriter, r *http.Request) {
	p := h.person(w, r)
	if p == nil {
		return
	}
	limit := parseIntParam(r.URL.Query().Get("limit"), 100)

	rows, err := h.measurements.ListByPerson(r.Context(), p.ID, limit)
	if err != nil {
		h.logger.Error("failed to list measurements", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list measurements"))
		return
	}

	items := make([]MeasurementItem, 0, len(rows))
	for _, m := range rows {
		item := MeasurementItem{
			ID:            m.ID,
			ValueStd:      m.ValueStd,
			UnitStd:       m.UnitStd,
			OriginalName:  m.OriginalName,
			OriginalValue: m.OriginalValue,
			OriginalUnit:  m.OriginalUnit,
			SourceType:    m.SourceType,
			SampleTime:    m.SampleTime,
			Status:        service.StatusUnknown,
			QualityNote:   m.QualityNote,
		}
		if bm, err := h.biomarkers.GetByID(r.Context(), m.BiomarkerID); err == nil && bm != nil {
			item.BiomarkerCode = bm.Code
			item.BiomarkerName = bm.NameEN
		}
		if rr, err := h.normalize.SelectReference(r.Context(), m.BiomarkerID, p); err == nil && rr != nil {
			item.Status = service.ClassifyValue(m.ValueStd, rr.Low, rr.High)
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

type createMeasurementRequest struct {
	OriginalName  string `json:"original_name"`
	ValueRaw      string `json:"value_raw"`
	UnitRaw       string `json:"unit_raw"`
	SampleTimeRaw string `json:"sample_time_raw"`
}

// POST /bio/api/v1/measurements?person_id=
func (h *MeasurementsHandler) CreateMeasurement(w http.ResponseWriter, r *http.Request) {
	p := h.person(w, r)
	if p == nil {
		return
	}
	var req createMeasurementRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil || req.OriginalName == "" {
		writeJSON(w, http.StatusBadRequest, Fail("original_name and value_raw are required"))
		return
	}

	result, err := h.ingest.IngestCandidates(r.Context(), p, service.IngestRequest{
		SourceType: domain.SourceManual,
		AutoCreate: true,
		Candidates: []domain.ParseCandidate{{
			OriginalName:  req.OriginalName,
			ValueRaw:      req.ValueRaw,
			UnitRaw:       req.UnitRaw,
			SampleTimeRaw: req.SampleTimeRaw,
		}},
	})
	if err != nil {
		h.logger.Error("failed to create measurement", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to create measurement"))
		return
	}
	h.invalidateDerived(r, p.ID)
	writeJSON(w, http.StatusOK, Ok(result))
}

type ingestCandidatesRequest struct {
	SourceType string                  `json:"source_type"`
	AutoCreate *bool                   `json:"auto_create"`
	Candidates []domain.ParseCandidate `json:"candidates"`
}

// POST /bio/api/v1/uploads/candidates?person_id=
// Batch intake from an extraction collaborator; every batch gets a fresh
// source ref so provenance survives.
func (h *MeasurementsHandler) IngestCandidates(w http.ResponseWriter, r *http.Request) {
	p := h.person(w, r)
	if p == nil {
		return
	}
	var req ingestCandidatesRequest
	if err := readBodyJSON(r, 8<<20, &req); err != nil || len(req.Candidates) == 0 {
		writeJSON(w, http.StatusBadRequest, Fail("candidates are required"))
		return
	}
	autoCreate := true
	if req.AutoCreate != nil {
		autoCreate = *req.AutoCreate
	}

	result, err := h.ingest.IngestCandidates(r.Context(), p, service.IngestRequest{
		SourceType: req.SourceType,
		SourceRef:  uuid.NewString(),
		AutoCreate: autoCreate,
		Candidates: req.Candidates,
	})
	if err != nil {
		h.logger.Error("failed to ingest candidates", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to ingest candidates"))
		return
	}
	h.invalidateDerived(r, p.ID)
	writeJSON(w, http.StatusOK, Ok(result))
}

// GET /bio/api/v1/composites?person_id=
func (h *MeasurementsHandler) GetComposites(w http.ResponseWriter, r *http.Request) {
	p := h.person(w, r)
	if p == nil {
		return
	}
	composites, err := h.composites.ComputeAll(r.Context(), p)
	if err != nil {
		h.logger.Error("failed to compute composites", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to compute composites"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(composites))
}

// POST /bio/api/v1/composites/refresh?person_id=
func (h *MeasurementsHandler) RefreshComposites(w http.ResponseWriter, r *http.Request) {
	p := h.person(w, r)
	if p == nil {
		return
	}
	if err := h.composites.AutoSave(r.Context(), p); err != nil {
		h.logger.Error("failed to refresh composites", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to refresh composites"))
		return
	}
	h.invalidateDerived(r, p.ID)
	writeJSON(w, http.StatusOK, Ok("refreshed"))
}

// invalidateDerived drops cached bioage results; new measurements change
// every derivation.
func (h *MeasurementsHandler) invalidateDerived(r *http.Request, personID int64) {
	if err := h.kv.DeletePattern(r.Context(), "bioage:"+formatInt64(personID)+":*"); err != nil {
		h.logger.Warn("failed to invalidate bioage cache", zap.Int64("person_id", personID), zap.Error(err))
	}
}
