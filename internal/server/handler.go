package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hejijunhao/teller/internal/engine"
	"github.com/hejijunhao/teller/internal/engine/resolver"
	"github.com/hejijunhao/teller/internal/model"
)

// Classifier predicts the category of one complaint. *engine.Engine
// implements it.
type Classifier interface {
	Classify(ds model.Dataset, raw string, v model.Variant) (model.Prediction, error)
}

// ClassifyRequest is the body of POST /v1/classify. Model accepts variant
// ids and display names; empty means the server default.
type ClassifyRequest struct {
	Dataset int     `json:"dataset"`
	Text    *string `json:"text"`
	Model   string  `json:"model"`
}

// Handler serves the classification API.
type Handler struct {
	classifier     Classifier
	resolver       *resolver.Resolver
	metrics        *Metrics
	defaultVariant model.Variant
	loaded         func() int
}

// Classify handles POST /v1/classify.
func (h *Handler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.observeFailure(codeInvalidBody)
		respondError(c, http.StatusBadRequest, codeInvalidBody, err.Error())
		return
	}

	ds := model.Dataset(req.Dataset)
	v := h.defaultVariant
	if req.Model != "" {
		parsed, err := model.ParseVariant(req.Model)
		if err != nil {
			err = &engine.ConfigError{Field: "model variant", Value: strconv.Quote(req.Model)}
			h.metrics.observeFailure(handleError(c, err).Code)
			return
		}
		v = parsed
	}
	var text string
	if req.Text != nil {
		text = *req.Text
	}

	start := time.Now()
	pred, err := h.classifier.Classify(ds, text, v)
	if err != nil {
		if errors.Is(err, engine.ErrEmptyInput) {
			h.metrics.observeEmpty(ds)
		}
		h.metrics.observeFailure(handleError(c, err).Code)
		return
	}
	h.metrics.observePrediction(pred, time.Since(start))

	respondSuccess(c, http.StatusOK, pred.Result("", h.resolver.ResolveFor(ds, pred.Category)))
}

// Datasets handles GET /v1/datasets.
func (h *Handler) Datasets(c *gin.Context) {
	respondSuccess(c, http.StatusOK, h.resolver.Catalog())
}

// DatasetView is the body of GET /v1/datasets/:id.
type DatasetView struct {
	resolver.DatasetInfo
	Icons []resolver.CategoryView `json:"icons"`
}

// Dataset handles GET /v1/datasets/:id.
func (h *Handler) Dataset(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, codeInvalidBody, "invalid dataset id")
		return
	}
	info, ok := h.resolver.Dataset(model.Dataset(id))
	if !ok {
		respondError(c, http.StatusNotFound, codeNotFound, "dataset not found")
		return
	}
	respondSuccess(c, http.StatusOK, DatasetView{
		DatasetInfo: info,
		Icons:       h.resolver.Categories(info.Dataset),
	})
}

// Models handles GET /v1/models.
func (h *Handler) Models(c *gin.Context) {
	type variantView struct {
		ID          model.Variant `json:"id"`
		DisplayName string        `json:"display_name"`
		Default     bool          `json:"default"`
	}
	var out []variantView
	for _, v := range model.Variants() {
		out = append(out, variantView{ID: v, DisplayName: v.DisplayName(), Default: v == h.defaultVariant})
	}
	respondSuccess(c, http.StatusOK, out)
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status          string `json:"status"`
	ArtifactsLoaded int    `json:"artifacts_loaded"`
}

// Health handles GET /health. Artifacts load lazily, so the service is
// healthy before any are loaded.
func (h *Handler) Health(c *gin.Context) {
	status := HealthStatus{Status: "healthy"}
	if h.loaded != nil {
		status.ArtifactsLoaded = h.loaded()
	}
	c.JSON(http.StatusOK, status)
}
