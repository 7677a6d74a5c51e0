package routes

import (
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterMetricsRoutes registers routes for the metrics API
func RegisterMetricsRoutes(r gin.IRouter) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func hostOf(publicURL string) string {
	u, err := url.Parse(publicURL)
	if err != nil {
		return ""
	}
	return u.Host
}
