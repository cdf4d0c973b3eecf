package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"factsheet/internal/domain"
	"factsheet/internal/render"
	"factsheet/internal/service"
	"factsheet/internal/sheets"
)

// FormatMarkdown selects rendered Markdown responses
const FormatMarkdown = "markdown"

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Handler serves the facts API
type Handler struct {
	svc      *service.FactsService
	renderer *render.Renderer
	events   http.Handler
	logger   *log.Logger
}

// New creates a handler. events serves the SSE stream and may be nil.
func New(svc *service.FactsService, renderer *render.Renderer, events http.Handler, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default().WithPrefix("http")
	}
	return &Handler{svc: svc, renderer: renderer, events: events, logger: logger}
}

// Routes builds the gin engine with every API route
func (h *Handler) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger(), cors())

	r.GET("/health", h.health)

	api := r.Group("/api")
	api.GET("/sheets", h.listSheets)
	api.GET("/tenants/:id", h.getTenant)
	api.GET("/components/:names", h.getComponents)
	api.GET("/overview", h.getOverview)
	api.GET("/monitoring", h.getMonitoring)
	api.GET("/url-sets/:name", h.getURLSet)
	api.GET("/graph", h.getGraph)
	api.GET("/snapshot", h.getSnapshot)
	api.GET("/snapshots", h.listSnapshots)
	api.POST("/snapshots", h.exportSnapshot)
	api.GET("/snapshots/stored", h.getStoredSnapshot)
	api.DELETE("/snapshots/stored", h.deleteStoredSnapshot)
	if h.events != nil {
		api.GET("/events", gin.WrapH(h.events))
	}
	return r
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("Request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"sheets":    len(h.svc.Sheets()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) listSheets(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Sheets())
}

func (h *Handler) getTenant(c *gin.Context) {
	view, err := h.svc.Tenant(page(c), c.Param("id"))
	if err != nil {
		h.writeError(c, "Failed to get tenant", err)
		return
	}
	h.respond(c, view, func() string { return h.renderer.Tenant(view) })
}

func (h *Handler) getComponents(c *gin.Context) {
	views, err := h.svc.Components(page(c), c.Param("names"))
	if err != nil {
		h.writeError(c, "Failed to get components", err)
		return
	}
	h.respond(c, views, func() string { return h.renderer.Components(views) })
}

func (h *Handler) getOverview(c *gin.Context) {
	view, err := h.svc.Overview(page(c))
	if err != nil {
		h.writeError(c, "Failed to get overview", err)
		return
	}
	h.respond(c, view, func() string { return h.renderer.Overview(view) })
}

func (h *Handler) getMonitoring(c *gin.Context) {
	views, err := h.svc.Monitoring(page(c))
	if err != nil {
		h.writeError(c, "Failed to get monitoring", err)
		return
	}
	h.respond(c, views, func() string { return h.renderer.Monitoring(views) })
}

func (h *Handler) getURLSet(c *gin.Context) {
	set, err := h.svc.URLSet(page(c), c.Param("name"))
	if err != nil {
		h.writeError(c, "Failed to get url set", err)
		return
	}
	c.JSON(http.StatusOK, set)
}

func (h *Handler) getGraph(c *gin.Context) {
	graph, err := h.svc.Graph(page(c))
	if err != nil {
		h.writeError(c, "Failed to get graph", err)
		return
	}
	c.JSON(http.StatusOK, graph)
}

// getSnapshot streams the snapshot in the format named by ?format=
// (json by default)
func (h *Handler) getSnapshot(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	snap, _, err := h.svc.Snapshot(page(c))
	if err != nil {
		h.writeError(c, "Failed to export snapshot", err)
		return
	}
	switch format {
	case "json":
		c.JSON(http.StatusOK, snap)
	case "yaml":
		c.YAML(http.StatusOK, snap)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unknown format", Details: format})
	}
}

func (h *Handler) exportSnapshot(c *gin.Context) {
	info, err := h.svc.ExportToRepository(c.Request.Context(), page(c))
	if err != nil {
		h.writeError(c, "Failed to store snapshot", err)
		return
	}
	c.JSON(http.StatusCreated, info)
}

func (h *Handler) listSnapshots(c *gin.Context) {
	infos, err := h.svc.ListSnapshots(c.Request.Context())
	if err != nil {
		h.writeError(c, "Failed to list snapshots", err)
		return
	}
	c.JSON(http.StatusOK, infos)
}

// getStoredSnapshot returns the last exported snapshot of the sheet
// matching ?page=
func (h *Handler) getStoredSnapshot(c *gin.Context) {
	snap, err := h.svc.StoredSnapshot(c.Request.Context(), page(c))
	if err != nil {
		h.writeError(c, "Failed to read stored snapshot", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) deleteStoredSnapshot(c *gin.Context) {
	if err := h.svc.DeleteStoredSnapshot(c.Request.Context(), page(c)); err != nil {
		h.writeError(c, "Failed to delete stored snapshot", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// respond writes data as JSON, or the Markdown built by md when the client
// asked for it
func (h *Handler) respond(c *gin.Context, data any, md func() string) {
	if c.Query("format") == FormatMarkdown {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md()))
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) writeError(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, ErrorResponse{Error: msg, Details: err.Error()})
}

// statusFor maps service and domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, sheets.ErrNoSheet):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMissingProperties):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNoRepository):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func page(c *gin.Context) string {
	return sheets.NormalizePage(c.DefaultQuery("page", "/"))
}
