package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/set-night/taskreward/internal/service"
)

// StatsSource provides the aggregate numbers shown on the dashboard.
type StatsSource interface {
	Collect() service.Stats
}

// NewRouter builds the dashboard routes.
func NewRouter(stats StatsSource) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(MetricsMiddleware())

	r.GET("/", func(c *gin.Context) {
		s := stats.Collect()
		c.String(http.StatusOK, "Task reward bot is running\nUsers: %d\nActive tasks: %d\nPending payouts: %d\n",
			s.TotalUsers, s.ActiveAttempts, s.PendingPayouts)
	})

	r.GET("/health", func(c *gin.Context) {
		s := stats.Collect()
		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"users":           s.TotalUsers,
			"active_tasks":    s.ActiveAttempts,
			"payout_requests": s.PendingPayouts + s.ApprovedPayouts + s.RejectedPayouts,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/stats", func(c *gin.Context) {
			c.JSON(http.StatusOK, stats.Collect())
		})
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r
}
