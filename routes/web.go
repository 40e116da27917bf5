package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vbdlis-normalizer/app/controllers"
)

// SetupWebRoutes thiết lập web routes
func SetupWebRoutes(router *gin.Engine) {
	web := router.Group("/")
	{
		web.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": "VBDLIS Normalizer Service",
				"version": controllers.Version,
				"docs":    "/docs",
			})
		})

		web.GET("/docs", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"api": "VBDLIS Normalizer API v1",
				"endpoints": map[string]string{
					"date":         "POST /v1/normalize/date",
					"name":         "POST /v1/normalize/name",
					"gender":       "POST /v1/normalize/gender",
					"national_id":  "POST /v1/normalize/national-id",
					"issue_number": "POST /v1/normalize/issue-number",
					"split":        "POST /v1/normalize/split",
					"match":        "POST /v1/normalize/match",
					"record":       "POST /v1/records/normalize",
					"batch":        "POST /v1/records/jobs",
					"job_status":   "GET /v1/records/jobs/:jobID/status",
					"job_results":  "GET /v1/records/jobs/:jobID/results?format=ndjson&gzip=1",
					"history":      "GET|POST|DELETE /v1/history",
					"seed_units":   "POST /v1/admin/units/seed",
					"search_units": "GET /v1/admin/units/search",
					"invalidate":   "POST /v1/admin/cache/invalidate",
					"admin_stats":  "GET /v1/admin/stats",
					"export":       "GET /v1/admin/export/:type",
					"health":       "GET /v1/health",
					"metrics":      "GET /metrics",
				},
			})
		})
	}
}
