// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

// Package metrics declares the Prometheus collectors exported at /metrics.
//
// Collectors are registered with the default registry through promauto and
// updated through the Record*/Track* helpers so label sets stay consistent.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of storage operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Total number of failed storage operations",
		},
		[]string{"backend", "operation"},
	)

	StoreUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "store_up",
			Help: "Whether the last periodic store ping succeeded (1) or failed (0)",
		},
		[]string{"backend"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSRoomSubscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_room_subscribers",
			Help: "Current number of sessions subscribed to each room",
		},
		[]string{"room"},
	)

	WSEventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_events_received_total",
			Help: "Total number of inbound socket events by type",
		},
		[]string{"event"},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket frames queued for delivery",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"}, // "invalid_event", "rate_limited", "slow_consumer", "read"
	)

	// Chat Metrics
	ChatMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total number of chat messages by persistence result",
		},
		[]string{"result"}, // "ok", "error"
	)

	// Account Metrics
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts by flow and result",
		},
		[]string{"flow", "result"},
	)

	// Mail Metrics
	MailPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_published_total",
			Help: "Total number of emails queued on the outbox",
		},
		[]string{"kind"},
	)

	MailDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_delivered_total",
			Help: "Total number of emails handed to the transport by result",
		},
		[]string{"kind", "result"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordStoreOperation records the latency of a storage call. Lookups that
// miss are not counted as errors.
func RecordStoreOperation(backend, operation string, duration time.Duration, err error, notFound error) {
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil && (notFound == nil || !errors.Is(err, notFound)) {
		StoreOperationErrors.WithLabelValues(backend, operation).Inc()
	}
}

// RecordChatMessage counts a send-message outcome.
func RecordChatMessage(err error) {
	if err != nil {
		ChatMessagesTotal.WithLabelValues("error").Inc()
		return
	}
	ChatMessagesTotal.WithLabelValues("ok").Inc()
}

// RecordAuthAttempt counts an account flow outcome.
func RecordAuthAttempt(flow string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	AuthAttempts.WithLabelValues(flow, result).Inc()
}

// RecordMailDelivery counts a transport send.
func RecordMailDelivery(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	MailDelivered.WithLabelValues(kind, result).Inc()
}

// SetRoomSubscribers publishes the live subscriber count for room.
// Rooms with no subscribers are removed from the vector.
func SetRoomSubscribers(room string, n int) {
	if n == 0 {
		WSRoomSubscribers.DeleteLabelValues(room)
		return
	}
	WSRoomSubscribers.WithLabelValues(room).Set(float64(n))
}

// SetStoreUp publishes the result of a store health probe.
func SetStoreUp(backend string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	StoreUp.WithLabelValues(backend).Set(v)
}
