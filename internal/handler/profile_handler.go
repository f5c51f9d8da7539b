package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"healthtrack/backend/internal/middleware"
	"healthtrack/backend/internal/service"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

type bodyWeightRequest struct {
	BodyWeightKg *float64 `json:"bodyWeightKg"`
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	user, apiErr := h.profileService.Get(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *ProfileHandler) SetBodyWeight(c *gin.Context) {
	var req bodyWeightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	user, apiErr := h.profileService.SetBodyWeight(c.Request.Context(), middleware.UserID(c), req.BodyWeightKg)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
