package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router thin wrapper over http.ServeMux (no third-party routing dependency
// needed for this surface).
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// RegisterBioAgeRoutes biological-age endpoints.
func (r *Router) RegisterBioAgeRoutes(h *BioAgeHandler) {
	r.Handle("/bio/api/v1/bioage/phenoage", methodOnly(http.MethodGet, h.GetPhenoAge))
	r.Handle("/bio/api/v1/bioage/simple", methodOnly(http.MethodGet, h.GetSimpleBioAge))
	r.Handle("/bio/api/v1/bioage/all", methodOnly(http.MethodGet, h.GetAllBioAges))
}

// RegisterMeasurementRoutes measurement and composite endpoints.
func (r *Router) RegisterMeasurementRoutes(h *MeasurementsHandler) {
	r.Handle("/bio/api/v1/measurements", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.ListMeasurements(w, req)
		case http.MethodPost:
			h.CreateMeasurement(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	r.Handle("/bio/api/v1/uploads/candidates", methodOnly(http.MethodPost, h.IngestCandidates))
	r.Handle("/bio/api/v1/composites", methodOnly(http.MethodGet, h.GetComposites))
	r.Handle("/bio/api/v1/composites/refresh", methodOnly(http.MethodPost, h.RefreshComposites))
}

// RegisterCatalogRoutes biomarker catalog endpoints.
func (r *Router) RegisterCatalogRoutes(h *CatalogHandler) {
	r.Handle("/bio/api/v1/biomarkers", methodOnly(http.MethodGet, h.ListBiomarkers))
	r.Handle("/bio/api/v1/biomarkers/resolve", methodOnly(http.MethodGet, h.ResolveBiomarker))
}

// RegisterWearableRoutes wearable OAuth and sync endpoints.
func (r *Router) RegisterWearableRoutes(h *WearableHandler) {
	r.Handle("/bio/api/v1/wearable/auth-url", methodOnly(http.MethodGet, h.GetAuthURL))
	r.Handle("/bio/api/v1/wearable/connect", methodOnly(http.MethodPost, h.Connect))
	r.Handle("/bio/api/v1/wearable/sync", methodOnly(http.MethodPost, h.Sync))
}

// RegisterExportRoutes export endpoints.
func (r *Router) RegisterExportRoutes(h *ExportHandler) {
	r.Handle("/bio/api/v1/export/wearable", methodOnly(http.MethodGet, h.ExportWearablePanel))
}
