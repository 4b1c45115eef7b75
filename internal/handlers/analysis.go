package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"voicecheck-go/internal/logger"
	"voicecheck-go/internal/pipeline"
	"voicecheck-go/internal/report"
	"voicecheck-go/internal/store"
	"voicecheck-go/internal/types"
)

// AnalysisHandler exposes the job pipeline over HTTP: submit, poll status,
// fetch results, export a report.
type AnalysisHandler struct {
	store        *store.Store
	orchestrator *pipeline.Orchestrator
	resultWait   time.Duration
}

func NewAnalysisHandler(s *store.Store, o *pipeline.Orchestrator, resultWait time.Duration) *AnalysisHandler {
	return &AnalysisHandler{store: s, orchestrator: o, resultWait: resultWait}
}

// Register wires the handler's routes onto the echo instance.
func (h *AnalysisHandler) Register(e *echo.Echo) {
	e.POST("/api/analyses", h.Submit)
	e.GET("/api/analyses/:id/status", h.Status)
	e.GET("/api/analyses/:id", h.Result)
	e.GET("/api/analyses/:id/report", h.Report)
}

type submitRequest struct {
	URL string `json:"url"`
}

// Submit accepts a video URL and starts its analysis.
// POST /api/analyses
func (h *AnalysisHandler) Submit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	id, err := h.orchestrator.Submit(req.URL)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidSource) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	logger.New().WithRequest(c.Request()).WithField("job_id", id).Info("analysis submitted")
	return c.JSON(http.StatusAccepted, map[string]string{"job_id": id})
}

// Status reports the job's current state without blocking.
// GET /api/analyses/:id/status
func (h *AnalysisHandler) Status(c echo.Context) error {
	job, err := h.store.Get(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	resp := map[string]string{
		"job_id": job.ID,
		"status": job.Status,
	}
	if job.ErrorDetail != "" {
		resp["error"] = job.ErrorDetail
	}
	return c.JSON(http.StatusOK, resp)
}

// Result returns the full job record once terminal. While the job is still
// processing it blocks up to the configured bound (overridable with ?wait=,
// capped at that bound), then reports a timeout distinct from job failure.
// GET /api/analyses/:id
func (h *AnalysisHandler) Result(c echo.Context) error {
	wait := h.resultWait
	if raw := c.QueryParam("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid wait duration"})
		}
		if d < wait {
			wait = d
		}
	}

	job, err := h.store.AwaitTerminal(c.Request().Context(), c.Param("id"), wait)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	case errors.Is(err, store.ErrWaitTimeout):
		return c.JSON(http.StatusGatewayTimeout, map[string]string{
			"error":  "job still processing",
			"status": "processing",
		})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, job)
}

// Report streams a completed job as an xlsx workbook.
// GET /api/analyses/:id/report
func (h *AnalysisHandler) Report(c echo.Context) error {
	job, err := h.store.Get(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if job.Status != types.StatusCompleted {
		return c.JSON(http.StatusConflict, map[string]string{"error": "analysis not completed"})
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="analysis-%s.xlsx"`, job.ID))
	c.Response().WriteHeader(http.StatusOK)
	return report.Write(c.Response(), job)
}
