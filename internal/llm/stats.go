package llm

import (
	"sort"
	"sync"
	"time"
)

type call struct {
	at         time.Time
	durationMs int64
	failed     bool
}

// StatsSnapshot aggregates the generation calls seen inside the window.
type StatsSnapshot struct {
	Model    string  `json:"model"`
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

// Stats keeps a rolling window of generation latencies.
type Stats struct {
	mu     sync.Mutex
	calls  []call
	window time.Duration
	now    func() time.Time
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{
		calls:  make([]call, 0, 128),
		window: window,
		now:    time.Now,
	}
}

// Record adds one call. Negative durations count as zero.
func (s *Stats) Record(d time.Duration, failed bool) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.calls = append(s.calls, call{at: now, durationMs: ms, failed: failed})
}

// Snapshot computes latency percentiles over successful calls.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())

	var snap StatsSnapshot
	latencies := make([]int64, 0, len(s.calls))
	var sum int64
	for _, c := range s.calls {
		if c.failed {
			snap.Failures++
			continue
		}
		latencies = append(latencies, c.durationMs)
		sum += c.durationMs
	}
	if len(latencies) == 0 {
		return snap
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	snap.Count = len(latencies)
	snap.MinMs = latencies[0]
	snap.MaxMs = latencies[len(latencies)-1]
	snap.AvgMs = float64(sum) / float64(len(latencies))
	snap.P50Ms = percentile(latencies, 50)
	snap.P95Ms = percentile(latencies, 95)
	snap.P99Ms = percentile(latencies, 99)
	return snap
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	kept := s.calls[:0]
	for _, c := range s.calls {
		if !c.at.Before(cutoff) {
			kept = append(kept, c)
		}
	}
	s.calls = kept
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}

	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	a, b := float64(sorted[lo]), float64(sorted[lo+1])
	return a + (b-a)*frac
}
