package metrics

import (
	"testing"
	"time"

	"github.com/claude-health/deident-engine/internal/span"
)

func TestNew_StartTimeSet(t *testing.T) {
	before := time.Now()
	m := New()
	after := time.Now()

	if m.startTime.Before(before) || m.startTime.After(after) {
		t.Errorf("startTime %v not in expected range [%v, %v]", m.startTime, before, after)
	}
}

func TestZeroValue_SnapshotSafe(t *testing.T) {
	var m Metrics
	s := m.Snapshot()
	if s.Documents.Processed != 0 {
		t.Errorf("expected 0 documents processed, got %d", s.Documents.Processed)
	}
}

func TestDocumentCounters(t *testing.T) {
	m := New()
	m.RecordDocument(map[span.FilterType]int{span.FilterName: 3, span.FilterSSN: 1}, false)
	m.RecordDocument(map[span.FilterType]int{span.FilterName: 2}, true)

	s := m.Snapshot()
	if s.Documents.Processed != 2 {
		t.Errorf("Processed: got %d, want 2", s.Documents.Processed)
	}
	if s.Documents.Degraded != 1 {
		t.Errorf("Degraded: got %d, want 1", s.Documents.Degraded)
	}
	if s.SpansByType[string(span.FilterName)] != 5 {
		t.Errorf("NAME spans: got %d, want 5", s.SpansByType[string(span.FilterName)])
	}
	if s.SpansByType[string(span.FilterSSN)] != 1 {
		t.Errorf("SSN spans: got %d, want 1", s.SpansByType[string(span.FilterSSN)])
	}
}

func TestErrorCounters(t *testing.T) {
	m := New()
	m.DetectorErrors.Add(3)
	m.InternalErrors.Add(2)

	s := m.Snapshot()
	if s.Errors.Detector != 3 {
		t.Errorf("Detector errors: got %d, want 3", s.Errors.Detector)
	}
	if s.Errors.Internal != 2 {
		t.Errorf("Internal errors: got %d, want 2", s.Errors.Internal)
	}
}

func TestRecordRedactLatency_SingleSample(t *testing.T) {
	m := New()
	m.RecordRedactLatency(100 * time.Millisecond)

	s := m.Snapshot()
	if s.Latency.RedactMs.Count != 1 {
		t.Errorf("Count: got %d, want 1", s.Latency.RedactMs.Count)
	}
	if s.Latency.RedactMs.MinMs < 90 || s.Latency.RedactMs.MinMs > 110 {
		t.Errorf("MinMs: got %f, want ~100", s.Latency.RedactMs.MinMs)
	}
}

func TestRecordDetectorLatency_MinMaxMean(t *testing.T) {
	m := New()
	m.RecordDetectorLatency(50 * time.Millisecond)
	m.RecordDetectorLatency(150 * time.Millisecond)
	m.RecordDetectorLatency(100 * time.Millisecond)

	s := m.Snapshot()
	ls := s.Latency.DetectorMs
	if ls.Count != 3 {
		t.Errorf("Count: got %d, want 3", ls.Count)
	}
	if ls.MinMs > 60 {
		t.Errorf("MinMs too high: %f", ls.MinMs)
	}
	if ls.MaxMs < 140 {
		t.Errorf("MaxMs too low: %f", ls.MaxMs)
	}
	if ls.MeanMs < 90 || ls.MeanMs > 110 {
		t.Errorf("MeanMs: got %f, want ~100", ls.MeanMs)
	}
}

func TestSnapshotLatency_EmptyIsZeroValue(t *testing.T) {
	m := New()
	s := m.Snapshot()
	if s.Latency.RedactMs.Count != 0 {
		t.Errorf("empty redact latency count should be 0")
	}
	if s.Latency.DetectorMs.Count != 0 {
		t.Errorf("empty detector latency count should be 0")
	}
}

func TestSnapshot_UptimePositive(t *testing.T) {
	m := New()
	time.Sleep(5 * time.Millisecond)
	s := m.Snapshot()
	if s.UptimeSecs <= 0 {
		t.Errorf("UptimeSecs should be positive, got %f", s.UptimeSecs)
	}
}

func TestRound2(t *testing.T) {
	cases := []struct {
		input float64
		want  float64
	}{
		{1.236, 1.24},
		{1.234, 1.23},
		{100.0, 100.0},
		{0.0, 0.0},
	}
	for _, c := range cases {
		got := round2(c.input)
		if got != c.want {
			t.Errorf("round2(%f) = %f, want %f", c.input, got, c.want)
		}
	}
}

func TestLatencyStats_Record(t *testing.T) {
	var s latencyStats
	s.record(10)
	s.record(20)
	s.record(15)

	snap := s.snapshot()
	if snap.Count != 3 {
		t.Errorf("Count: got %d, want 3", snap.Count)
	}
	if snap.MinMs != 10 {
		t.Errorf("MinMs: got %f, want 10", snap.MinMs)
	}
	if snap.MaxMs != 20 {
		t.Errorf("MaxMs: got %f, want 20", snap.MaxMs)
	}
	if snap.MeanMs != 15 {
		t.Errorf("MeanMs: got %f, want 15", snap.MeanMs)
	}
}

func TestLatencyStats_Empty(t *testing.T) {
	var s latencyStats
	snap := s.snapshot()
	if snap.Count != 0 || snap.MinMs != 0 || snap.MaxMs != 0 || snap.MeanMs != 0 {
		t.Errorf("empty stats snapshot should be zero, got %+v", snap)
	}
}
