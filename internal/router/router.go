package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"healthtrack/backend/internal/handler"
	"healthtrack/backend/internal/middleware"
	"healthtrack/backend/internal/service"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
	trackingHandler *handler.TrackingHandler,
	activityHandler *handler.ActivityHandler,
	metricsHandler http.Handler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	profile := api.Group("/profile")
	profile.Use(middleware.Auth(authService))
	profile.GET("", profileHandler.Get)
	profile.PUT("/weight", profileHandler.SetBodyWeight)

	trackingGroup := api.Group("/tracking")
	trackingGroup.Use(middleware.Auth(authService))
	trackingGroup.GET("/state", trackingHandler.GetState)
	trackingGroup.POST("/start", trackingHandler.Start)
	trackingGroup.POST("/samples", trackingHandler.Sample)
	trackingGroup.POST("/tick", trackingHandler.Tick)
	trackingGroup.POST("/pause", trackingHandler.Pause)
	trackingGroup.POST("/resume", trackingHandler.Resume)
	trackingGroup.POST("/finish", trackingHandler.Finish)
	trackingGroup.POST("/discard", trackingHandler.Discard)

	activities := api.Group("/activities")
	activities.Use(middleware.Auth(authService))
	activities.GET("", activityHandler.List)
	activities.GET("/stats", activityHandler.Stats)
	activities.GET("/:id", activityHandler.Get)
	activities.PUT("/:id", activityHandler.Put)
	activities.DELETE("/:id", activityHandler.Delete)

	return engine
}
