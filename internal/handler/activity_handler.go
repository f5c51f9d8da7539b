package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "healthtrack/backend/internal/errors"
	"healthtrack/backend/internal/middleware"
	"healthtrack/backend/internal/model"
	"healthtrack/backend/internal/service"
)

type ActivityHandler struct {
	historyService *service.HistoryService
}

func NewActivityHandler(historyService *service.HistoryService) *ActivityHandler {
	return &ActivityHandler{historyService: historyService}
}

func (h *ActivityHandler) List(c *gin.Context) {
	from, apiErr := parseTimeQuery(c, "from")
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	to, apiErr := parseTimeQuery(c, "to")
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	sessions, apiErr := h.historyService.List(c.Request.Context(), middleware.UserID(c), from, to)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *ActivityHandler) Get(c *gin.Context) {
	session, apiErr := h.historyService.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *ActivityHandler) Put(c *gin.Context) {
	var req model.Session
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	session, created, apiErr := h.historyService.Put(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"session": session})
}

func (h *ActivityHandler) Delete(c *gin.Context) {
	if apiErr := h.historyService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ActivityHandler) Stats(c *gin.Context) {
	stats, apiErr := h.historyService.Stats(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func parseTimeQuery(c *gin.Context, name string) (*time.Time, *apperrors.APIError) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperrors.BadRequest("invalid_range", name+" must be an RFC3339 timestamp")
	}
	return &parsed, nil
}
