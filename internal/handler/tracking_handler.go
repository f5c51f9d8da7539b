package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"healthtrack/backend/internal/middleware"
	"healthtrack/backend/internal/model"
	"healthtrack/backend/internal/service"
)

type TrackingHandler struct {
	trackingService *service.TrackingService
}

type startRequest struct {
	ActivityType          string   `json:"activityType"`
	TargetDistanceMeters  *float64 `json:"targetDistanceMeters"`
	TargetDurationSeconds *float64 `json:"targetDurationSeconds"`
}

type tickRequest struct {
	DeltaSeconds float64 `json:"deltaSeconds"`
}

type finishRequest struct {
	Save *bool `json:"save"`
}

func NewTrackingHandler(trackingService *service.TrackingService) *TrackingHandler {
	return &TrackingHandler{trackingService: trackingService}
}

func (h *TrackingHandler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	state, apiErr := h.trackingService.Start(c.Request.Context(), middleware.UserID(c), service.StartInput{
		ActivityType:          model.ActivityType(req.ActivityType),
		TargetDistanceMeters:  req.TargetDistanceMeters,
		TargetDurationSeconds: req.TargetDurationSeconds,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"state": state})
}

func (h *TrackingHandler) Sample(c *gin.Context) {
	var req model.RoutePoint
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	result, apiErr := h.trackingService.Sample(c.Request.Context(), middleware.UserID(c), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TrackingHandler) Tick(c *gin.Context) {
	var req tickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	state, apiErr := h.trackingService.Tick(c.Request.Context(), middleware.UserID(c), req.DeltaSeconds)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TrackingHandler) Pause(c *gin.Context) {
	state, apiErr := h.trackingService.Pause(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TrackingHandler) Resume(c *gin.Context) {
	state, apiErr := h.trackingService.Resume(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

// Finish saves the session unless the body says {"save": false}. An empty
// body saves.
func (h *TrackingHandler) Finish(c *gin.Context) {
	var req finishRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeInvalidJSON(c)
			return
		}
	}
	save := req.Save == nil || *req.Save

	session, apiErr := h.trackingService.Finish(c.Request.Context(), middleware.UserID(c), save)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": save, "session": session})
}

func (h *TrackingHandler) Discard(c *gin.Context) {
	if apiErr := h.trackingService.Discard(c.Request.Context(), middleware.UserID(c)); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TrackingHandler) GetState(c *gin.Context) {
	state, apiErr := h.trackingService.State(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}
