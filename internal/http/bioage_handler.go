package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"biotrack-data/internal/domain"
	"biotrack-data/internal/repository"
	"biotrack-data/internal/service"
	"biotrack-data/internal/store"

	"go.uber.org/zap"
)

const bioAgeCacheTTL = 15 * time.Minute

// BioAgeHandler biological-age endpoints. Results are cached in the KV with
// a short TTL; ingest invalidates per-person keys.
type BioAgeHandler struct {
	persons repository.PersonsRepository
	bioage  service.BioAgeService
	kv      store.KV
	logger  *zap.Logger
}

func NewBioAgeHandler(persons repository.PersonsRepository, bioage service.BioAgeService, kv store.KV, logger *zap.Logger) *BioAgeHandler {
	return &BioAgeHandler{persons: persons, bioage: bioage, kv: kv, logger: logger}
}

func (h *BioAgeHandler) person(w http.ResponseWriter, r *http.Request) *domain.Person {
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

// serveCached caches the computed payload as JSON; any cache error is a miss.
func (h *BioAgeHandler) serveCached(ctx context.Context, w http.ResponseWriter, key string, compute func() (any, error)) {
	if raw, err := h.kv.Get(ctx, key); err == nil && raw != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(raw))
		return
	}

	result, err := compute()
	if err != nil {
		h.logger.Error("bioage computation failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("bioage computation failed"))
		return
	}
	envelope := Ok(result)
	if raw, err := json.Marshal(envelope); err == nil {
		if err := h.kv.Set(ctx, key, string(raw), bioAgeCacheTTL); err != nil {
			h.logger.Warn("failed to cache bioage result", zap.String("key", key), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, envelope)
}

// GET /bio/api/v1/bioage/phenoage?person_id=
func (h *BioAgeHandler) GetPhenoAge(w http.ResponseWriter, r *http.Request) {
	p := h.person(w, r)
	if p == nil {
		return
	}
	h.serveCached(r.Context(), w, BioAgeCacheKey(p.ID, "phenoage"), func() (any, error) {
		return h.bioage.PhenoAge(r.Context(), p)
	})
}

// GET /bio/api/v1/bioage/simple?person_id=
func (h *BioAgeHandler) GetSimpleBioAge(w http.ResponseWriter, r *http.Request) {
	p := h.person(w, r)
	if p == nil {
		return
	}
	h.serveCached(r.Context(), w, BioAgeCacheKey(p.ID, "simple"), func() (any, error) {
		return h.bioage.SimpleBioAge(r.Context(), p)
	})
}

// GET /bio/api/v1/bioage/all?person_id=
func (h *BioAgeHandler) GetAllBioAges(w http.ResponseWriter, r *http.Request) {
	p := h.person(w, r)
	if p == nil {
		return
	}
	h.serveCached(r.Context(), w, BioAgeCacheKey(p.ID, "all"), func() (any, error) {
		return h.bioage.AllBioAges(r.Context(), p)
	})
}

// BioAgeCacheKey cache key per person and method.
func BioAgeCacheKey(personID int64, kind string) string {
	return "bioage:" + formatInt64(personID) + ":" + kind
}
