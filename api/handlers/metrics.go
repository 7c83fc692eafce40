package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/firtrack/fir-tracking-api/api"
	"github.com/firtrack/fir-tracking-api/config"
)

// Metrics exposes the in-process request metrics to admins
type Metrics struct{}

// SummaryHandler returns overall request metrics
func (m Metrics) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	summary := api.GetMetrics().GetSummary()

	respB, err := json.Marshal(summary)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(respB)
}

// RoutesHandler returns per-route metrics with durations in milliseconds
func (m Metrics) RoutesHandler(w http.ResponseWriter, r *http.Request) {
	routes := api.GetMetrics().GetRouteMetrics()

	result := make(map[string]interface{}, len(routes))
	for key, route := range routes {
		result[key] = map[string]interface{}{
			"method":      route.Method,
			"path":        route.Path,
			"count":       route.Count,
			"errorCount":  route.ErrorCount,
			"avgTime":     route.AvgTime.Milliseconds(),
			"minTime":     route.MinTime.Milliseconds(),
			"maxTime":     route.MaxTime.Milliseconds(),
			"lastRequest": route.LastRequest,
		}
	}

	respB, err := json.Marshal(result)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(respB)
}
