package api

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"dmars/analytics"
	"dmars/cache"
	"dmars/logging"
	"dmars/models"
	"dmars/observability"
	"dmars/ranking"
	"dmars/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	defaultTopN      = 10
	maxTopN          = 100
)

// Handlers carries the dependencies of every endpoint.
type Handlers struct {
	Log     *logging.Logger
	Store   storage.Store
	Cache   *cache.Cache[any]
	Metrics *observability.Metrics
	Weights ranking.Weights
}

// scoringComponents documents the ranking features in recommendation
// responses.
var scoringComponents = []string{
	"keyword_relevance - keyword score scaled to 0-1",
	"engagement - click-through rate against the category maximum",
	"price_competitiveness - category average price over listing price",
	"conversion_signal - category conversion rate",
}

func (h *Handlers) CreateDomain(w http.ResponseWriter, r *http.Request) {
	var req DomainCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		h.badRequest(w, err.Error())
		return
	}

	d := req.ToDomain()
	if err := h.Store.Create(r.Context(), d); err != nil {
		if errors.Is(err, storage.ErrDuplicateName) {
			h.badRequest(w, "Domain name already exists")
			return
		}
		h.internalError(w, err)
		return
	}

	h.onMutation(r)
	h.Log.Info("created domain", "id", d.ID, "domain_name", d.DomainName)
	writeJSON(w, http.StatusCreated, d)
}

func (h *Handlers) ListDomains(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	skip, err := intQuery(q, "skip", 0)
	if err != nil || skip < 0 {
		h.badRequest(w, "skip must be a non-negative integer")
		return
	}
	limit, err := intQuery(q, "limit", defaultListLimit)
	if err != nil || limit < 1 || limit > maxListLimit {
		h.badRequest(w, fmt.Sprintf("limit must be between 1 and %d", maxListLimit))
		return
	}

	f := storage.Filter{Skip: skip, Limit: limit}
	if raw := q.Get("category"); raw != "" {
		f.Category = &raw
	}
	if raw := q.Get("is_sold"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			h.badRequest(w, "is_sold must be a boolean")
			return
		}
		f.IsSold = &b
	}

	domains, err := h.Store.List(r.Context(), f)
	if err != nil {
		h.internalError(w, err)
		return
	}
	if domains == nil {
		domains = []*models.Domain{}
	}
	writeJSON(w, http.StatusOK, domains)
}

// ExportDomains streams the catalog as a CSV download, honoring the list
// filters but never paginating.
func (h *Handlers) ExportDomains(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f storage.Filter
	if raw := q.Get("category"); raw != "" {
		f.Category = &raw
	}
	if raw := q.Get("is_sold"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			h.badRequest(w, "is_sold must be a boolean")
			return
		}
		f.IsSold = &b
	}

	domains, err := h.Store.List(r.Context(), f)
	if err != nil {
		h.internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="domains.csv"`)
	if err := storage.WriteCSV(w, domains); err != nil {
		h.Log.Error("csv export", "err", err)
	}
}

func (h *Handlers) GetDomain(w http.ResponseWriter, r *http.Request) {
	d, err := h.Store.GetByID(r.Context(), pathID(r))
	if errors.Is(err, storage.ErrNotFound) {
		h.notFound(w)
		return
	}
	if err != nil {
		h.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) UpdateDomain(w http.ResponseWriter, r *http.Request) {
	var req DomainUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		h.badRequest(w, err.Error())
		return
	}

	d, err := h.Store.Update(r.Context(), pathID(r), req.ToPatch())
	switch {
	case errors.Is(err, storage.ErrNotFound):
		h.notFound(w)
		return
	case errors.Is(err, storage.ErrDuplicateName):
		h.badRequest(w, "Domain name already exists")
		return
	case err != nil:
		h.internalError(w, err)
		return
	}

	h.onMutation(r)
	h.Log.Info("updated domain", "id", d.ID)
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) DeleteDomain(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	err := h.Store.Delete(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		h.notFound(w)
		return
	}
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.onMutation(r)
	h.Log.Info("deleted domain", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	key := cacheKey("analytics", "summary")
	if v, ok := h.Cache.Get(key); ok {
		h.Log.Info("cache hit", "endpoint", "summary")
		writeJSON(w, http.StatusOK, v)
		return
	}

	listings, err := h.Store.FetchAll(r.Context())
	if err != nil {
		h.internalError(w, err)
		return
	}

	report := analytics.Summary(listings)
	h.Cache.Set(key, report)
	writeJSON(w, http.StatusOK, report)
}

func (h *Handlers) AnalyticsCategories(w http.ResponseWriter, r *http.Request) {
	key := cacheKey("analytics", "categories")
	if v, ok := h.Cache.Get(key); ok {
		h.Log.Info("cache hit", "endpoint", "categories")
		writeJSON(w, http.StatusOK, v)
		return
	}

	listings, err := h.Store.FetchAll(r.Context())
	if err != nil {
		h.internalError(w, err)
		return
	}

	summaries := analytics.CategorySummaries(listings)
	h.Cache.Set(key, summaries)
	writeJSON(w, http.StatusOK, summaries)
}

func (h *Handlers) AnalyticsDemand(w http.ResponseWriter, r *http.Request) {
	topN, err := intQuery(r.URL.Query(), "top_n", defaultTopN)
	if err != nil || topN < 1 || topN > maxTopN {
		h.badRequest(w, fmt.Sprintf("top_n must be between 1 and %d", maxTopN))
		return
	}

	key := cacheKey("analytics", "demand", strconv.Itoa(topN))
	if v, ok := h.Cache.Get(key); ok {
		h.Log.Info("cache hit", "endpoint", "demand")
		writeJSON(w, http.StatusOK, v)
		return
	}

	listings, err := h.Store.FetchAll(r.Context())
	if err != nil {
		h.internalError(w, err)
		return
	}

	byID := make(map[int64]*models.Domain, len(listings))
	for _, d := range listings {
		byID[d.ID] = d
	}
	high := make([]*models.Domain, 0, topN)
	for _, id := range analytics.DemandIndicators(listings) {
		if len(high) == topN {
			break
		}
		if d := byID[id]; d != nil {
			high = append(high, d)
		}
	}

	payload := map[string]any{
		"high_interest_domains": high,
		"price_engagement":      analytics.PriceEngagement(listings),
	}
	h.Cache.Set(key, payload)
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handlers) RecommendationsTop(w http.ResponseWriter, r *http.Request) {
	h.recommend(w, r, "")
}

func (h *Handlers) RecommendationsByCategory(w http.ResponseWriter, r *http.Request) {
	h.recommend(w, r, mux.Vars(r)["category"])
}

// recommend ranks the full snapshot (baselines never depend on the filter),
// then keeps unsold listings inside the optional price range.
func (h *Handlers) recommend(w http.ResponseWriter, r *http.Request, category string) {
	q := r.URL.Query()

	limit, err := intQuery(q, "limit", defaultTopN)
	if err != nil || limit < 1 || limit > maxTopN {
		h.badRequest(w, fmt.Sprintf("limit must be between 1 and %d", maxTopN))
		return
	}
	priceMin, err := floatQuery(q, "price_min")
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	priceMax, err := floatQuery(q, "price_max")
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}

	key := cacheKey("recommendations", category, strconv.Itoa(limit), floatKey(priceMin), floatKey(priceMax))
	if v, ok := h.Cache.Get(key); ok {
		h.Log.Info("cache hit", "endpoint", "recommendations", "category", category)
		writeJSON(w, http.StatusOK, v)
		return
	}

	listings, err := h.Store.FetchAll(r.Context())
	if err != nil {
		h.internalError(w, err)
		return
	}

	results, err := ranking.Rank(listings, h.Weights, category)
	if err != nil {
		// weights are validated at startup; reaching this means a bug
		h.internalError(w, err)
		return
	}

	recs := filterRecommendations(results, limit, priceMin, priceMax)
	payload := map[string]any{
		"count":               len(recs),
		"limit":               limit,
		"recommendations":     recs,
		"ranking_explanation": h.rankingExplanation(),
	}
	if category != "" {
		payload["category"] = category
	}
	h.Cache.Set(key, payload)
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handlers) RecommendationForDomain(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	key := cacheKey("recommendations", "domain", strconv.FormatInt(id, 10))
	if v, ok := h.Cache.Get(key); ok {
		h.Log.Info("cache hit", "endpoint", "recommendation", "id", id)
		writeJSON(w, http.StatusOK, v)
		return
	}

	d, err := h.Store.GetByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		h.notFound(w)
		return
	}
	if err != nil {
		h.internalError(w, err)
		return
	}

	listings, err := h.Store.FetchAll(r.Context())
	if err != nil {
		h.internalError(w, err)
		return
	}

	result, err := ranking.Explain(d, listings, h.Weights)
	if err != nil {
		h.internalError(w, err)
		return
	}

	payload := map[string]any{
		"recommendation":      result,
		"ranking_explanation": h.rankingExplanation(),
	}
	h.Cache.Set(key, payload)
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "DMARS Backend API",
		"version": "1.0.0",
		"metrics": "/metrics",
	})
}

// onMutation drops every cached derived response and refreshes the catalog
// gauge after a successful write.
func (h *Handlers) onMutation(r *http.Request) {
	h.Cache.Invalidate()
	if n, err := h.Store.Count(r.Context()); err == nil {
		h.Metrics.SetCatalogSize(n)
	}
}

func (h *Handlers) rankingExplanation() map[string]any {
	return map[string]any{
		"version":            h.Weights.Version,
		"weights":            h.Weights.Map(),
		"scoring_components": scoringComponents,
	}
}

// filterRecommendations keeps unsold listings within the optional price
// range, preserving rank order, truncated to limit.
func filterRecommendations(results []models.RankingResult, limit int, priceMin, priceMax *float64) []models.RankingResult {
	out := make([]models.RankingResult, 0, limit)
	for _, res := range results {
		if res.IsSold {
			continue
		}
		if priceMin != nil && res.Price < *priceMin {
			continue
		}
		if priceMax != nil && res.Price > *priceMax {
			continue
		}
		out = append(out, res)
		if len(out) == limit {
			break
		}
	}
	return out
}

// pathID extracts the {id} route variable. Routes constrain it to digits.
func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

// intQuery parses an optional integer query parameter.
func intQuery(q url.Values, name string, def int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

// floatQuery parses an optional non-negative float query parameter,
// returning nil when absent.
func floatQuery(q url.Values, name string) (*float64, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return nil, fmt.Errorf("%s must be a non-negative number", name)
	}
	return &f, nil
}

func floatKey(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func cacheKey(parts ...string) string {
	h := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])
}

func (h *Handlers) badRequest(w http.ResponseWriter, msg string) {
	h.Log.Warn("bad request", "error", msg)
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func (h *Handlers) notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Domain not found"})
}

func (h *Handlers) internalError(w http.ResponseWriter, err error) {
	h.Log.Error("internal error", "err", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
