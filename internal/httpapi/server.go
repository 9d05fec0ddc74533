// Package httpapi exposes the classifier over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"prodclass/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ModelInfo() types.ModelInfo
	Stats() types.ResourceSnapshot
	ListModels(ctx context.Context) ([]types.Model, error)
	ClassifyProduct(ctx context.Context, p types.Product) types.Result
	ClassifyBatch(ctx context.Context, products []types.Product) []types.Result
	Loaded() bool
}

// NewMux builds the router for svc.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if len(corsAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	h := &handlers{svc: svc}
	r.Get("/model", h.model)
	r.Get("/models", h.models)
	r.Get("/stats", h.stats)
	r.Post("/classify", h.classify)
	r.Post("/classify/batch", h.classifyBatch)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Loaded() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)
	return r
}

type handlers struct{ svc Service }

// model godoc
// @Summary      Model descriptor
// @Tags         model
// @Produce      json
// @Success      200  {object}  types.ModelInfo
// @Router       /model [get]
func (h *handlers) model(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ModelInfo())
}

// models godoc
// @Summary      Models registered with the runtime
// @Tags         model
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Failure      502  {object}  types.ErrorResponse
// @Router       /models [get]
func (h *handlers) models(w http.ResponseWriter, r *http.Request) {
	models, err := h.svc.ListModels(r.Context())
	if err != nil {
		l := requestLogger(r)
		l.Error().Err(err).Msg("list models failed")
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}
	if models == nil {
		models = []types.Model{}
	}
	writeJSON(w, http.StatusOK, types.ModelsResponse{Models: models})
}

// stats godoc
// @Summary      Latest resource snapshot
// @Tags         model
// @Produce      json
// @Success      200  {object}  types.ResourceSnapshot
// @Router       /stats [get]
func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats())
}

// classify godoc
// @Summary      Classify one product
// @Description  Classification failures are reported in the error field of a 200 response.
// @Tags         classify
// @Accept       json
// @Produce      json
// @Param        product  body      types.Product  true  "Product"
// @Success      200      {object}  types.Result
// @Failure      400      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Router       /classify [post]
func (h *handlers) classify(w http.ResponseWriter, r *http.Request) {
	var p types.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		writeJSONError(w, http.StatusBadRequest, "product name is required")
		return
	}
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	res := h.svc.ClassifyProduct(ctx, p)
	logResult(r, res)
	writeJSON(w, http.StatusOK, res)
}

// classifyBatch godoc
// @Summary      Classify products with one model invocation
// @Tags         classify
// @Accept       json
// @Produce      json
// @Param        request  body      types.BatchRequest  true  "Products"
// @Success      200      {object}  types.BatchResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Router       /classify/batch [post]
func (h *handlers) classifyBatch(w http.ResponseWriter, r *http.Request) {
	var req types.BatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if maxBatch > 0 && len(req.Products) > maxBatch {
		writeJSONError(w, http.StatusBadRequest, "too many products in batch")
		return
	}
	for _, p := range req.Products {
		if strings.TrimSpace(p.Name) == "" {
			writeJSONError(w, http.StatusBadRequest, "product name is required")
			return
		}
	}
	batchSize.Observe(float64(len(req.Products)))
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	results := h.svc.ClassifyBatch(ctx, req.Products)
	if results == nil {
		results = []types.Result{}
	}
	for _, res := range results {
		logResult(r, res)
	}
	writeJSON(w, http.StatusOK, types.BatchResponse{Results: results})
}

// decodeJSON enforces the content type and body limit. It writes the error
// response and returns false when the body is unusable.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func logResult(r *http.Request, res types.Result) {
	lvl := requestLogLevel(r)
	l := requestLogger(r)
	switch {
	case res.Failed() && lvl >= LevelError:
		l.Warn().Str("error", res.Error).Msg("classification failed")
	case !res.Failed() && lvl >= LevelDebug:
		l.Debug().Str("product", res.ProductName).Str("category", res.PredictedCategory).
			Float64("confidence", res.Confidence).Str("response", res.FullResponse).Msg("classified")
	}
}
