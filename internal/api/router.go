package api

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter registers every route. limiter guards the prediction endpoints
// and may be nil.
func NewRouter(h *Handler, limiter gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(), cors.Default())
	if err := router.SetTrustedProxies(h.cfg.TrustedProxies); err != nil {
		slog.Warn("Invalid trusted proxies, trusting none", "proxies", h.cfg.TrustedProxies, "error", err)
		router.SetTrustedProxies(nil)
	}
	if h.cfg.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = h.cfg.MaxUploadBytes
	}

	router.GET("/test-data", h.ListTestData)
	router.GET("/download_test/:filename", h.DownloadTestFile)

	api := router.Group("/api")
	api.GET("/health", h.Health)
	api.GET("/predictions", h.History)

	predict := api.Group("")
	if limiter != nil {
		predict.Use(limiter)
	}
	predict.POST("/predict", h.Predict)
	predict.POST("/predict_thingspeak", h.PredictThingSpeak)

	return router
}
