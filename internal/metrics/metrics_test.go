// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordAPIRequest tests API request metric recording
func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/health", "200"))

	RecordAPIRequest("GET", "/api/v1/health", "200", 3*time.Millisecond)
	RecordAPIRequest("GET", "/api/v1/health", "200", 5*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/health", "200"))
	if after-before != 2 {
		t.Errorf("api_requests_total delta = %v, want 2", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active requests = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active requests = %v, want %v", got, before)
	}
}

func TestRecordChatSend(t *testing.T) {
	tests := []struct {
		name          string
		stage         string
		wantPersisted float64
		wantFailure   float64
	}{
		{name: "success", stage: "", wantPersisted: 1, wantFailure: 0},
		{name: "storage failure", stage: "storage", wantPersisted: 0, wantFailure: 1},
		{name: "validation failure", stage: "validation", wantPersisted: 0, wantFailure: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			persistedBefore := testutil.ToFloat64(ChatMessagesPersisted)
			var failureBefore float64
			if tt.stage != "" {
				failureBefore = testutil.ToFloat64(ChatPipelineFailures.WithLabelValues(tt.stage))
			}

			RecordChatSend(2*time.Millisecond, 3, tt.stage)

			if got := testutil.ToFloat64(ChatMessagesPersisted) - persistedBefore; got != tt.wantPersisted {
				t.Errorf("persisted delta = %v, want %v", got, tt.wantPersisted)
			}
			if tt.stage != "" {
				if got := testutil.ToFloat64(ChatPipelineFailures.WithLabelValues(tt.stage)) - failureBefore; got != tt.wantFailure {
					t.Errorf("failure delta = %v, want %v", got, tt.wantFailure)
				}
			}
		})
	}
}

func TestRecordEventPublish(t *testing.T) {
	topic := "recruitflow.test.publish"
	RecordEventPublish(topic, nil)
	RecordEventPublish(topic, errors.New("nats: connection closed"))
	RecordEventPublish(topic, nil)

	if got := testutil.ToFloat64(EventBusPublished.WithLabelValues(topic, "success")); got != 2 {
		t.Errorf("success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(EventBusPublished.WithLabelValues(topic, "failure")); got != 1 {
		t.Errorf("failure = %v, want 1", got)
	}
}

func TestRecordInboundEvent(t *testing.T) {
	acceptedBefore := testutil.ToFloat64(WSEventsReceived.WithLabelValues("send-message"))
	rejectedBefore := testutil.ToFloat64(WSEventsRejected.WithLabelValues("decode"))

	RecordInboundEvent("send-message", "")
	RecordInboundEvent("", "decode")

	if got := testutil.ToFloat64(WSEventsReceived.WithLabelValues("send-message")) - acceptedBefore; got != 1 {
		t.Errorf("received delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(WSEventsRejected.WithLabelValues("decode")) - rejectedBefore; got != 1 {
		t.Errorf("rejected delta = %v, want 1", got)
	}
}

func TestRecordCircuitBreakerTransition(t *testing.T) {
	RecordCircuitBreakerTransition("eventbus-test", "closed", "open", 2)

	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("eventbus-test")); got != 2 {
		t.Errorf("state = %v, want 2", got)
	}
	if got := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("eventbus-test", "closed", "open")); got != 1 {
		t.Errorf("transitions = %v, want 1", got)
	}
}

// TestConcurrentMetricRecording tests thread-safety of the helpers
func TestConcurrentMetricRecording(t *testing.T) {
	topic := "recruitflow.test.concurrent"
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordEventConsume(topic, "relayed")
			RecordAPIRequest("POST", "/api/v1/chat/messages", "201", time.Millisecond)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(EventBusConsumed.WithLabelValues(topic, "relayed")); got != 50 {
		t.Errorf("consumed = %v, want 50", got)
	}
}
