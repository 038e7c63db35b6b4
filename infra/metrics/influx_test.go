package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	coremetrics "github.com/kilianp07/mineplan/core/metrics"
)

type lineRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (l *lineRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		l.mu.Lock()
		l.bodies = append(l.bodies, strings.TrimSpace(string(b)))
		l.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (l *lineRecorder) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.bodies...)
}

func TestInfluxSink_RecordScheduleRun(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()

	ev := coremetrics.RunEvent{
		ScheduleID:     "s1",
		GridHours:      24,
		RequestedHours: 10,
		PlacedHours:    7,
		Time:           time.Now(),
	}
	if err := sink.RecordScheduleRun(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	bodies := rec.all()
	if len(bodies) != 1 {
		t.Fatalf("expected 1 write, got %d", len(bodies))
	}
	for _, want := range []string{"schedule_run", "schedule_id=s1", "grid_hours=24i", "dropped_hours=3i"} {
		if !strings.Contains(bodies[0], want) {
			t.Errorf("body %q missing %q", bodies[0], want)
		}
	}
}

func TestInfluxSink_RecordSiteAllocations(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	err := sink.RecordSiteAllocations([]coremetrics.SiteAllocation{
		{ScheduleID: "s1", SiteID: "A", Requested: 4, Placed: 4, Time: now},
		{ScheduleID: "s1", SiteID: "B", Requested: 6, Placed: 1, Time: now},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	bodies := rec.all()
	if len(bodies) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(bodies))
	}
	if !strings.Contains(bodies[1], "site_id=B") || !strings.Contains(bodies[1], "placed_hours=1i") {
		t.Errorf("unexpected body: %s", bodies[1])
	}
}

func TestInfluxSink_RecordRunFailure(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	if err := sink.RecordRunFailure(coremetrics.FailureEvent{Reason: "no_tasks", Time: time.Now()}); err != nil {
		t.Fatalf("record: %v", err)
	}
	bodies := rec.all()
	if len(bodies) != 1 || !strings.Contains(bodies[0], `reason="no_tasks"`) {
		t.Errorf("bodies: %#v", bodies)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
