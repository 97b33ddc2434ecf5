package httpapi

import (
	"net/http"
	"strings"

	"biotrack-data/internal/domain"
	"biotrack-data/internal/repository"
	"biotrack-data/internal/service"
	"biotrack-data/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WearableHandler vendor OAuth flow and on-demand sync. Token custody stays
// with the caller; this service only exchanges codes and polls with whatever
// access token the request carries.
type WearableHandler struct {
	persons repository.PersonsRepository
	client  *service.WearableClient
	ingest  service.IngestService
	kv      store.KV
	logger  *zap.Logger
}

func NewWearableHandler(persons repository.PersonsRepository, client *service.WearableClient, ingest service.IngestService, kv store.KV, logger *zap.Logger) *WearableHandler {
	return &WearableHandler{persons: persons, client: client, ingest: ingest, kv: kv, logger: logger}
}

func (h *WearableHandler) person(w http.ResponseWriter, r *http.Request) *domain.Person {
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

// GET /bio/api/v1/wearable/auth-url?person_id=
func (h *WearableHandler) GetAuthURL(w http.ResponseWriter, r *http.Request) {
	p := h.person(w, r)
	if p == nil {
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{
		"auth_url": h.client.AuthURL(formatInt64(p.ID)),
	}))
}

// POST /bio/api/v1/wearable/connect?person_id=&code=
// Returns the vendor token pair to the caller, which owns its storage.
func (h *WearableHandler) Connect(w http.ResponseWriter, r *http.Request) {
	p := h.person(w, r)
	if p == nil {
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, Fail("code is required"))
		return
	}
	token, err := h.client.ExchangeCode(r.Context(), code)
	if err != nil {
		h.logger.Error("wearable code exchange failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, Fail("wearable code exchange failed"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(token))
}

// POST /bio/api/v1/wearable/sync?person_id=
// The access token arrives as a bearer header on every sync call.
func (h *WearableHandler) Sync(w http.ResponseWriter, r *http.Request) {
	p := h.person(w, r)
	if p == nil {
		return
	}
	accessToken := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if accessToken == "" {
		writeJSON(w, http.StatusBadRequest, Fail("bearer access token is required"))
		return
	}

	candidates, err := h.client.FetchBodyMeasurements(r.Context(), accessToken)
	if err != nil {
		h.logger.Error("wearable sync failed", zap.Int64("person_id", p.ID), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, Fail("wearable sync failed"))
		return
	}
	if len(candidates) == 0 {
		writeJSON(w, http.StatusOK, Ok(&service.IngestResult{}))
		return
	}

	result, err := h.ingest.IngestCandidates(r.Context(), p, service.IngestRequest{
		SourceType: domain.SourceWearable,
		SourceRef:  uuid.NewString(),
		AutoCreate: false,
		Candidates: candidates,
	})
	if err != nil {
		h.logger.Error("failed to ingest wearable candidates", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to ingest wearable candidates"))
		return
	}
	if err := h.kv.DeletePattern(r.Context(), "bioage:"+formatInt64(p.ID)+":*"); err != nil {
		h.logger.Warn("failed to invalidate bioage cache", zap.Int64("person_id", p.ID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, Ok(result))
}
