package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vbdlis-normalizer/app/controllers"
)

// Controllers các controller cần đăng ký route. History nil khi tắt lịch sử tra cứu.
type Controllers struct {
	Normalize *controllers.NormalizeController
	Record    *controllers.RecordController
	History   *controllers.HistoryController
	Admin     *controllers.AdminController
}

// SetupAPIRoutes thiết lập tất cả API routes
func SetupAPIRoutes(router *gin.Engine, ctrl Controllers) {
	// API v1 group
	v1 := router.Group("/v1")
	{
		// Chuẩn hóa từng trường
		normalize := v1.Group("/normalize")
		{
			normalize.POST("/date", ctrl.Normalize.NormalizeDate)
			normalize.POST("/name", ctrl.Normalize.NormalizeName)
			normalize.POST("/gender", ctrl.Normalize.NormalizeGender)
			normalize.POST("/national-id", ctrl.Normalize.NormalizeNationalID)
			normalize.POST("/issue-number", ctrl.Normalize.NormalizeIssueNumber)
			normalize.POST("/split", ctrl.Normalize.SplitTwoParts)
			normalize.POST("/match", ctrl.Normalize.MatchDocument)
		}

		// Dòng chủ sử dụng
		records := v1.Group("/records")
		{
			records.POST("/normalize", ctrl.Record.NormalizeRecord)
			records.POST("/jobs", ctrl.Record.CreateJob)
			records.GET("/jobs/:jobID/status", ctrl.Record.GetJobStatus)
			records.GET("/jobs/:jobID/results", ctrl.Record.GetJobResults)
		}

		if ctrl.History != nil {
			v1.GET("/history", ctrl.History.List)
			v1.POST("/history", ctrl.History.Record)
			v1.DELETE("/history", ctrl.History.Clear)
		}

		// Admin routes
		if ctrl.Admin != nil {
			admin := v1.Group("/admin")
			{
				admin.POST("/units/seed", ctrl.Admin.SeedUnits)
				admin.GET("/units/search", ctrl.Admin.SearchUnits)
				admin.GET("/units/:code", ctrl.Admin.GetUnit)
				admin.POST("/cache/invalidate", ctrl.Admin.InvalidateCache)
				admin.GET("/stats", ctrl.Admin.GetStats)
				admin.GET("/export/:type", ctrl.Admin.ExportData)
			}
		}

		v1.GET("/health", ctrl.Record.HealthCheck)
	}
}

// SetupHealthRoutes thiết lập health check routes
func SetupHealthRoutes(router *gin.Engine, recordController *controllers.RecordController) {
	router.GET("/health", recordController.HealthCheck)
	router.GET("/ready", recordController.HealthCheck)
	router.GET("/live", recordController.HealthCheck)
}

// SetupMetricsRoutes thiết lập metrics routes (cho Prometheus)
func SetupMetricsRoutes(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// SetupAllRoutes thiết lập tất cả routes
func SetupAllRoutes(router *gin.Engine, ctrl Controllers) {
	SetupWebRoutes(router)
	SetupHealthRoutes(router, ctrl.Record)
	SetupAPIRoutes(router, ctrl)
	SetupMetricsRoutes(router)

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "Route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}

// SetupMiddleware thiết lập middleware cho router
func SetupMiddleware(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
}
