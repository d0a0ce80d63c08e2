package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers the prediction routes. Routes under /api/predict
// require a bearer token when jwtSecret is set.
func SetupRoutes(router *gin.Engine, handler *Handler, jwtSecret string) {
	api := router.Group("/api")
	{
		api.GET("/health", handler.Health)

		predict := api.Group("/predict", Authenticate(jwtSecret))
		predict.POST("", handler.Predict)
		predict.GET("/model-status", handler.ModelStatus)
		predict.POST("/test-model", handler.TestModel)
		predict.GET("/history", handler.History)
		predict.GET("/insights", handler.Insights)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
