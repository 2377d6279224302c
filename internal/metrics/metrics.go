// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

// Package metrics holds the Prometheus instruments for the marker store,
// the live sync layer and the HTTP API. Instruments register with the
// default registry and are exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seedmap_store_operation_duration_seconds",
			Help:    "Duration of marker store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seedmap_store_operation_errors_total",
			Help: "Total number of failed marker store operations",
		},
		[]string{"backend", "operation"},
	)

	MarkersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seedmap_markers_created_total",
			Help: "Total number of markers created",
		},
		[]string{"source"}, // live, http
	)

	MarkersRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seedmap_markers_removed_total",
			Help: "Total number of markers removed",
		},
		[]string{"source"},
	)

	// Live sync metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seedmap_websocket_connections",
			Help: "Number of live WebSocket sessions",
		},
	)

	WSRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seedmap_websocket_rooms",
			Help: "Number of rooms with at least one live session",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seedmap_websocket_messages_sent_total",
			Help: "Total number of frames written to WebSocket clients",
		},
	)

	WSMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seedmap_websocket_messages_received_total",
			Help: "Total number of frames read from WebSocket clients",
		},
		[]string{"op"}, // add, remove, invalid, throttled
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seedmap_websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	BroadcastDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seedmap_broadcast_delivered_total",
			Help: "Total number of events handed to session queues by broadcasts",
		},
	)

	BroadcastDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seedmap_broadcast_dropped_total",
			Help: "Total number of sessions pruned because a broadcast could not reach them",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seedmap_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seedmap_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seedmap_api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "seedmap_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seedmap_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seedmap_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordStoreOperation records the outcome of one store call.
func RecordStoreOperation(backend, operation string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(backend, operation).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordBroadcast records one fan-out.
func RecordBroadcast(delivered, dropped int) {
	BroadcastDelivered.Add(float64(delivered))
	BroadcastDropped.Add(float64(dropped))
}

// UpdateRoomGauges publishes the current registry size.
func UpdateRoomGauges(rooms, sessions int) {
	WSRooms.Set(float64(rooms))
	WSConnections.Set(float64(sessions))
}
