// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

var errMissing = errors.New("missing")

// TestRecordAPIRequest tests API request metric recording
func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/rooms", "200"))
	RecordAPIRequest("GET", "/api/rooms", "200", 15*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/rooms", "200"))

	if after-before != 1 {
		t.Errorf("api_requests_total delta = %v, want 1", after-before)
	}

	var m dto.Metric
	observer := APIRequestDuration.WithLabelValues("GET", "/api/rooms")
	if err := observer.(prometheus.Metric).Write(&m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if m.GetHistogram().GetSampleCount() == 0 {
		t.Error("api_request_duration_seconds has no samples")
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("after inc = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("after dec = %v, want %v", got, before)
	}
}

func TestRecordStoreOperation(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantDelta float64
	}{
		{"success", nil, 0},
		{"not found is not an error", errMissing, 0},
		{"wrapped not found", errors.Join(errors.New("ctx"), errMissing), 0},
		{"failure", errors.New("connection refused"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := StoreOperationErrors.WithLabelValues("test", tt.name)
			before := testutil.ToFloat64(counter)
			RecordStoreOperation("test", tt.name, time.Millisecond, tt.err, errMissing)
			if delta := testutil.ToFloat64(counter) - before; delta != tt.wantDelta {
				t.Errorf("error delta = %v, want %v", delta, tt.wantDelta)
			}
		})
	}
}

func TestRecordChatMessage(t *testing.T) {
	okBefore := testutil.ToFloat64(ChatMessagesTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(ChatMessagesTotal.WithLabelValues("error"))

	RecordChatMessage(nil)
	RecordChatMessage(errors.New("boom"))
	RecordChatMessage(nil)

	if d := testutil.ToFloat64(ChatMessagesTotal.WithLabelValues("ok")) - okBefore; d != 2 {
		t.Errorf("ok delta = %v, want 2", d)
	}
	if d := testutil.ToFloat64(ChatMessagesTotal.WithLabelValues("error")) - errBefore; d != 1 {
		t.Errorf("error delta = %v, want 1", d)
	}
}

func TestSetRoomSubscribers(t *testing.T) {
	SetRoomSubscribers("metrics-test-room", 3)
	if got := testutil.ToFloat64(WSRoomSubscribers.WithLabelValues("metrics-test-room")); got != 3 {
		t.Errorf("subscribers = %v, want 3", got)
	}

	SetRoomSubscribers("metrics-test-room", 0)
	// WithLabelValues recreates the series at zero after deletion.
	if got := testutil.ToFloat64(WSRoomSubscribers.WithLabelValues("metrics-test-room")); got != 0 {
		t.Errorf("subscribers after reset = %v, want 0", got)
	}
}

func TestRecordAuthAttemptAndMail(t *testing.T) {
	before := testutil.ToFloat64(AuthAttempts.WithLabelValues("login", "failure"))
	RecordAuthAttempt("login", false)
	if d := testutil.ToFloat64(AuthAttempts.WithLabelValues("login", "failure")) - before; d != 1 {
		t.Errorf("auth failure delta = %v, want 1", d)
	}

	before = testutil.ToFloat64(MailDelivered.WithLabelValues("welcome", "error"))
	RecordMailDelivery("welcome", errors.New("smtp down"))
	if d := testutil.ToFloat64(MailDelivered.WithLabelValues("welcome", "error")) - before; d != 1 {
		t.Errorf("mail error delta = %v, want 1", d)
	}
}

func TestSetStoreUp(t *testing.T) {
	SetStoreUp("metrics-test", true)
	if got := testutil.ToFloat64(StoreUp.WithLabelValues("metrics-test")); got != 1 {
		t.Errorf("store_up = %v, want 1", got)
	}
	SetStoreUp("metrics-test", false)
	if got := testutil.ToFloat64(StoreUp.WithLabelValues("metrics-test")); got != 0 {
		t.Errorf("store_up = %v, want 0", got)
	}
}
