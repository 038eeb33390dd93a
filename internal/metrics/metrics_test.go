// ABOUTME: Tests for the playback metrics observer
// ABOUTME: Checks counters, gauge and the HTTP exposition
package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/voxroute/voxroute/internal/playback"
)

func TestObserverUpdatesCollectors(t *testing.T) {
	m := New(5)
	var _ playback.Observer = m

	m.Enqueued(1, 3)
	m.Enqueued(1, 4)
	if got := testutil.ToFloat64(m.enqueued.WithLabelValues("1")); got != 2 {
		t.Errorf("expected 2 requests on channel 1, got %f", got)
	}
	if got := testutil.ToFloat64(m.queueDepth); got != 4 {
		t.Errorf("expected depth 4, got %f", got)
	}

	m.Finished(1, playback.OutcomePlayed, 200*time.Millisecond, 3)
	m.Finished(1, playback.OutcomeTimedOut, 30*time.Second, 2)

	if got := testutil.ToFloat64(m.playbacks.WithLabelValues("played")); got != 1 {
		t.Errorf("expected 1 played, got %f", got)
	}
	if got := testutil.ToFloat64(m.playbacks.WithLabelValues("timed_out")); got != 1 {
		t.Errorf("expected 1 timeout, got %f", got)
	}
	if got := testutil.ToFloat64(m.queueDepth); got != 2 {
		t.Errorf("expected depth 2, got %f", got)
	}
}

func TestOutOfRangeChannelsShareLabel(t *testing.T) {
	m := New(5)

	m.Enqueued(4, 1)
	m.Enqueued(5, 2)
	m.Enqueued(1000, 3)
	m.Enqueued(1<<20, 4)

	if got := testutil.ToFloat64(m.enqueued.WithLabelValues("4")); got != 1 {
		t.Errorf("expected 1 request on channel 4, got %f", got)
	}
	if got := testutil.ToFloat64(m.enqueued.WithLabelValues("other")); got != 3 {
		t.Errorf("expected 3 requests labelled other, got %f", got)
	}
	if got := testutil.CollectAndCount(m.enqueued); got != 2 {
		t.Errorf("expected 2 series, got %d", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(5)
	m.Finished(0, playback.OutcomeDecodeFailed, time.Millisecond, 0)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		`voxroute_playbacks_total{outcome="decode_failed"} 1`,
		"voxroute_playback_seconds_bucket",
		"voxroute_queue_depth",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %q in exposition", want)
		}
	}
}
