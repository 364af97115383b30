package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/carlogapp/carlog-api/api"
	"github.com/carlogapp/carlog-api/config"
)

// MetricsHandler returns the aggregated request metrics
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	collector := api.GetMetrics()

	routes := collector.GetRouteMetrics()
	formatted := make([]map[string]interface{}, 0, len(routes))
	for _, route := range routes {
		formatted = append(formatted, map[string]interface{}{
			"method":      route.Method,
			"path":        route.Path,
			"count":       route.Count,
			"errorCount":  route.ErrorCount,
			"avgTimeMs":   route.AvgTime.Milliseconds(),
			"minTimeMs":   route.MinTime.Milliseconds(),
			"maxTimeMs":   route.MaxTime.Milliseconds(),
			"lastRequest": route.LastRequest,
		})
	}

	b, err := json.Marshal(map[string]interface{}{
		"summary": collector.GetSummary(),
		"routes":  formatted,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
