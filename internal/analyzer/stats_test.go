package analyzer

import (
	"testing"
	"time"
)

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.RecordLatency(time.Duration(ms) * time.Millisecond)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewStats(10 * time.Millisecond)
	stats.RecordLatency(100 * time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.RecordLatency(200 * time.Millisecond)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 200 {
		t.Fatalf("expected one fresh sample of 200ms, got %+v", snap)
	}
}

func TestStatsOutcomeCounters(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.RecordOutcome(Parsed)
	stats.RecordOutcome(Parsed)
	stats.RecordOutcome(Degraded)
	stats.RecordFailure()
	stats.RecordRetry()

	snap := stats.Snapshot()
	if snap.Parsed != 2 || snap.Degraded != 1 || snap.Failed != 1 || snap.Retries != 1 {
		t.Fatalf("unexpected counters %+v", snap)
	}
	if snap.Count != 0 {
		t.Errorf("expected no latency samples, got %d", snap.Count)
	}
}

func TestStatsClampsNegativeDuration(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.RecordLatency(-5 * time.Millisecond)
	if snap := stats.Snapshot(); snap.MinMs != 0 {
		t.Fatalf("expected clamped 0, got %d", snap.MinMs)
	}
}
