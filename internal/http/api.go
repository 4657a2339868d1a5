package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"randomuser-page/internal/domain"
	"randomuser-page/internal/randomuser"
	"randomuser-page/internal/repository"
	"randomuser-page/internal/service"
)

// Handler wires HTTP routes to the page, history and export services.
type Handler struct {
	pages   service.PageService
	history service.HistoryService
	exports service.ExportService
	logger  *logrus.Logger
}

func NewHandler(pages service.PageService, history service.HistoryService, exports service.ExportService, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		pages:   pages,
		history: history,
		exports: exports,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(pageTemplates)
	router.Use(requestLogger(h.logger), corsMiddleware())

	router.GET("/", h.usersPage)

	api := router.Group("/api")
	{
		api.GET("/users", h.listUsers)
		api.GET("/fetches", h.listFetches)
		api.GET("/fetches/:id", h.getFetch)
		api.POST("/exports", h.createExport)
		api.GET("/exports", h.listExports)
		api.GET("/exports/url", h.exportURL)
		api.DELETE("/exports", h.deleteExport)
		api.DELETE("/exports/day/:date", h.purgeExportDay)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

func (h *Handler) usersPage(c *gin.Context) {
	data, err := h.pages.Load(c.Request.Context())
	if err != nil {
		status := errorStatus(err)
		_ = c.Error(err)
		c.HTML(status, "error.html", gin.H{
			"Status":     status,
			"StatusText": http.StatusText(status),
			"Message":    "Could not load users right now.",
		})
		return
	}

	c.HTML(http.StatusOK, "users.html", data)
}

func (h *Handler) listUsers(c *gin.Context) {
	limit, ok := queryInt(c, "limit", h.pages.PageLimit())
	if !ok {
		return
	}

	users, err := h.pages.Users(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, UsersResponse{Users: users, Count: len(users)})
}

func (h *Handler) listFetches(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}

	records, err := h.history.List(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]FetchResponse, len(records))
	for i := range records {
		resp[i] = fetchToResponse(records[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getFetch(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fetch id"})
		return
	}

	record, err := h.history.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fetchToResponse(*record))
}

func (h *Handler) createExport(c *gin.Context) {
	limit, ok := queryInt(c, "limit", h.pages.PageLimit())
	if !ok {
		return
	}

	export, err := h.exports.Create(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, exportToResponse(*export))
}

func (h *Handler) listExports(c *gin.Context) {
	exports, err := h.exports.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]ExportResponse, len(exports))
	for i := range exports {
		resp[i] = exportToResponse(exports[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) exportURL(c *gin.Context) {
	key := c.Query("key")
	url, err := h.exports.URL(c.Request.Context(), key)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "url": url})
}

func (h *Handler) deleteExport(c *gin.Context) {
	key := c.Query("key")
	if err := h.exports.Delete(c.Request.Context(), key); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": key})
}

func (h *Handler) purgeExportDay(c *gin.Context) {
	day, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	if err := h.exports.PurgeDay(c.Request.Context(), day); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purged": day.Format("2006-01-02")})
}

func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(errorStatus(err), gin.H{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, randomuser.ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrExportsDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrInvalidExportKey):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrFetchNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// queryInt reads an integer query parameter. Missing means fallback; a
// malformed value writes a 400 and reports false.
func queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw, present := c.GetQuery(name)
	if !present || raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

type UsersResponse struct {
	Users []domain.User `json:"users"`
	Count int           `json:"count"`
}

type FetchResponse struct {
	ID             int64  `json:"id"`
	Source         string `json:"source"`
	Limit          int    `json:"limit"`
	Count          int    `json:"count"`
	Seed           string `json:"seed,omitempty"`
	Version        string `json:"version,omitempty"`
	DurationMillis int64  `json:"duration_ms"`
	Error          string `json:"error,omitempty"`
	CreatedAt      string `json:"created_at"`
}

type ExportResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	Count        int     `json:"count,omitempty"`
	LastModified *string `json:"last_modified,omitempty"`
}

func fetchToResponse(record domain.FetchRecord) FetchResponse {
	return FetchResponse{
		ID:             record.ID,
		Source:         string(record.Source),
		Limit:          record.Limit,
		Count:          record.Count,
		Seed:           record.Seed,
		Version:        record.Version,
		DurationMillis: record.DurationMillis,
		Error:          record.ErrorMessage,
		CreatedAt:      record.CreatedAt.Format(time.RFC3339),
	}
}

func exportToResponse(export domain.Export) ExportResponse {
	resp := ExportResponse{
		Key:   export.Key,
		Size:  export.Size,
		Count: export.Count,
	}
	if export.LastModified != nil && !export.LastModified.IsZero() {
		v := export.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
