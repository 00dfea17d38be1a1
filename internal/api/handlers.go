package api

import (
	"errors"
	"net/http"
	"path/filepath"

	"cafe-calorie/internal/app"
	"cafe-calorie/internal/logging"
	"cafe-calorie/internal/metrics"
	"cafe-calorie/internal/planner"

	"github.com/gin-gonic/gin"
)

const source = "api"

type handler struct {
	app     *app.App
	dataDir string
}

// PlanRequest is the body of POST /plans.
type PlanRequest struct {
	Goals    planner.Goals `json:"goals"`
	Excluded []string      `json:"excluded_dish_names"`
}

// AlternateRequest is the body of POST /plans/alternate.
type AlternateRequest struct {
	PlanRequest
	Previous planner.MealPlan `json:"previous"`
}

// PlanResponse is returned by both plan endpoints.
type PlanResponse struct {
	RequestID string `json:"request_id"`
	planner.MealPlan
	Excluded []string            `json:"excluded_dish_names"`
	Stats    planner.SearchStats `json:"stats"`
}

func (h *handler) health(c *gin.Context) {
	dir := h.dataDir
	if dir == "" {
		dir = "."
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"system": metrics.GetSysHealth(filepath.Clean(dir)),
	})
}

func (h *handler) dishes(c *gin.Context) {
	dishes, err := h.app.Dishes(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dishes": dishes, "count": len(dishes)})
}

func (h *handler) createPlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rec, err := h.app.Recommend(c.Request.Context(), source, req.Goals, req.Excluded)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, rec)
}

func (h *handler) alternatePlan(c *gin.Context) {
	var req AlternateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rec, err := h.app.Alternate(c.Request.Context(), source, req.Goals, req.Excluded, req.Previous)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, rec)
}

func (h *handler) respond(c *gin.Context, rec app.Recommendation) {
	excluded := rec.Excluded
	if excluded == nil {
		excluded = []string{}
	}
	c.JSON(http.StatusOK, PlanResponse{
		RequestID: c.GetString(requestIDKey),
		MealPlan:  rec.Plan,
		Excluded:  excluded,
		Stats:     rec.Stats,
	})
}

func (h *handler) fail(c *gin.Context, err error) {
	if errors.Is(err, planner.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logging.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
