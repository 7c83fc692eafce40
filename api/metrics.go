package api

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

// RequestTrace tracks timing for a single request
type RequestTrace struct {
	RequestID     string        `json:"requestId"`
	Method        string        `json:"method"`
	Path          string        `json:"path"`
	Status        int           `json:"status"`
	StartTime     time.Time     `json:"startTime"`
	EndTime       time.Time     `json:"endTime"`
	TotalDuration time.Duration `json:"totalDuration"`
	Error         string        `json:"error,omitempty"`
}

// RouteMetrics aggregates metrics for a specific route
type RouteMetrics struct {
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MinTime     time.Duration `json:"minTime"`
	MaxTime     time.Duration `json:"maxTime"`
	LastRequest time.Time     `json:"lastRequest"`
}

// MetricsCollector collects and aggregates request metrics. Collection is
// best-effort and must never block a production request: traces are queued
// through a buffered channel and dropped when the buffer is full.
type MetricsCollector struct {
	mu            sync.RWMutex
	routeMetrics  map[string]*RouteMetrics
	windowStart   time.Time
	totalRequests int64
	totalErrors   int64
	traceChan     chan RequestTrace
	stopChan      chan struct{}
}

var globalMetrics *MetricsCollector

// InitMetrics initializes the global metrics collector
func InitMetrics() {
	globalMetrics = &MetricsCollector{
		routeMetrics: make(map[string]*RouteMetrics),
		windowStart:  time.Now(),
		traceChan:    make(chan RequestTrace, 1000),
		stopChan:     make(chan struct{}),
	}

	go globalMetrics.processTraces()
}

// GetMetrics returns the global metrics collector
func GetMetrics() *MetricsCollector {
	if globalMetrics == nil {
		InitMetrics()
	}
	return globalMetrics
}

// RecordTrace records a request trace asynchronously. If the channel is full
// the trace is dropped immediately.
func (mc *MetricsCollector) RecordTrace(trace RequestTrace) {
	select {
	case mc.traceChan <- trace:
	default:
		// buffer full, drop the trace
	}
}

// Stop shuts down the background trace processor
func (mc *MetricsCollector) Stop() {
	close(mc.stopChan)
}

func (mc *MetricsCollector) processTraces() {
	for {
		select {
		case trace := <-mc.traceChan:
			mc.processTrace(trace)
		case <-mc.stopChan:
			return
		}
	}
}

func (mc *MetricsCollector) processTrace(trace RequestTrace) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	routeKey := trace.Method + " " + normalizeRoutePath(trace.Path)

	metrics, exists := mc.routeMetrics[routeKey]
	if !exists {
		metrics = &RouteMetrics{
			Method:  trace.Method,
			Path:    normalizeRoutePath(trace.Path),
			MinTime: trace.TotalDuration,
		}
		mc.routeMetrics[routeKey] = metrics
	}

	metrics.Count++
	metrics.TotalTime += trace.TotalDuration
	metrics.AvgTime = metrics.TotalTime / time.Duration(metrics.Count)
	metrics.LastRequest = trace.StartTime

	if trace.TotalDuration < metrics.MinTime {
		metrics.MinTime = trace.TotalDuration
	}
	if trace.TotalDuration > metrics.MaxTime {
		metrics.MaxTime = trace.TotalDuration
	}

	if trace.Status >= 400 {
		metrics.ErrorCount++
		mc.totalErrors++
	}

	mc.totalRequests++
}

// GetRouteMetrics returns aggregated metrics for all routes
func (mc *MetricsCollector) GetRouteMetrics() map[string]*RouteMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make(map[string]*RouteMetrics)
	for k, v := range mc.routeMetrics {
		metrics := *v
		result[k] = &metrics
	}
	return result
}

// GetSummary returns overall summary metrics
func (mc *MetricsCollector) GetSummary() map[string]interface{} {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	elapsed := time.Since(mc.windowStart)

	var tps float64
	if elapsed.Seconds() > 0 {
		tps = float64(mc.totalRequests) / elapsed.Seconds()
	}

	var errorRate float64
	if mc.totalRequests > 0 {
		errorRate = float64(mc.totalErrors) / float64(mc.totalRequests)
	}

	return map[string]interface{}{
		"totalRequests": mc.totalRequests,
		"totalErrors":   mc.totalErrors,
		"errorRate":     errorRate,
		"tps":           tps,
		"windowStart":   mc.windowStart,
		"routeCount":    len(mc.routeMetrics),
	}
}

var objectIDPattern = regexp.MustCompile(`/[0-9a-fA-F]{24}(/|$)`)

// normalizeRoutePath replaces dynamic id segments with {id} so similar routes
// aggregate together, e.g. /api/v1/firs/507f1f77bcf86cd799439011 ->
// /api/v1/firs/{id}
func normalizeRoutePath(path string) string {
	path = objectIDPattern.ReplaceAllString(path, "/{id}$1")
	path = strings.ReplaceAll(path, "//", "/")
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return path
}
