package admin

import (
	"io"
	"log/slog"
	"testing"
	"time"

	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func newTestSessions(ttl time.Duration) (*Sessions, *int) {
	created := 0
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := func() *Controller {
		created++
		return NewController(&fakeAPI{}, tracenoop.NewTracerProvider().Tracer(""), metricnoop.NewMeterProvider().Meter(""), logger)
	}
	return NewSessions(factory, ttl, logger), &created
}

func TestSessions_GetCreatesOnce(t *testing.T) {
	s, created := newTestSessions(time.Minute)

	c1, id := s.Get("")
	if id == "" {
		t.Fatal("empty session id")
	}
	c2, id2 := s.Get(id)
	if c1 != c2 || id2 != id {
		t.Error("same id returned a different controller")
	}
	if *created != 1 {
		t.Errorf("created = %d, want 1", *created)
	}

	_, other := s.Get("unknown")
	if other == "unknown" || other == id {
		t.Errorf("unknown id was reused: %s", other)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestSessions_ExpireIdle(t *testing.T) {
	s, _ := newTestSessions(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, id := s.Get("")

	now = now.Add(30 * time.Second)
	if _, got := s.Get(id); got != id {
		t.Fatal("session expired early")
	}

	now = now.Add(2 * time.Minute)
	if _, got := s.Get(id); got == id {
		t.Error("idle session was not expired")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}
