package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires every endpoint with request-ID and access-log middleware
// plus per-route metrics. Numeric path IDs are enforced by route pattern,
// so /domains/abc is a plain 404, never a parse error.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestID, AccessLog(h.Log))

	route := func(label, path string, fn http.HandlerFunc, method string) {
		r.Handle(path, h.Metrics.WrapHandler(label, fn)).Methods(method)
	}

	route("/domains", "/domains", h.CreateDomain, http.MethodPost)
	route("/domains", "/domains", h.ListDomains, http.MethodGet)
	route("/domains/export", "/domains/export", h.ExportDomains, http.MethodGet)
	route("/domains/{id}", "/domains/{id:[0-9]+}", h.GetDomain, http.MethodGet)
	route("/domains/{id}", "/domains/{id:[0-9]+}", h.UpdateDomain, http.MethodPatch)
	route("/domains/{id}", "/domains/{id:[0-9]+}", h.DeleteDomain, http.MethodDelete)

	route("/analytics/summary", "/analytics/summary", h.AnalyticsSummary, http.MethodGet)
	route("/analytics/categories", "/analytics/categories", h.AnalyticsCategories, http.MethodGet)
	route("/analytics/demand", "/analytics/demand", h.AnalyticsDemand, http.MethodGet)

	route("/recommendations/top", "/recommendations/top", h.RecommendationsTop, http.MethodGet)
	route("/recommendations/category/{category}", "/recommendations/category/{category}", h.RecommendationsByCategory, http.MethodGet)
	route("/recommendations/domain/{id}", "/recommendations/domain/{id:[0-9]+}", h.RecommendationForDomain, http.MethodGet)

	route("/health", "/health", h.Health, http.MethodGet)
	r.Handle("/metrics", h.Metrics.Handler()).Methods(http.MethodGet)
	route("/", "/", h.Root, http.MethodGet)

	return r
}
