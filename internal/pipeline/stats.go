package pipeline

import (
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/jschless/armymarkdown/internal/compiler"
)

type compileSample struct {
	at   time.Time
	ms   int64
	kind compiler.Kind
}

// StatsSnapshot summarizes the compiles seen in the current window. Latency
// figures cover every attempt, failed ones included.
type StatsSnapshot struct {
	Count    int            `json:"count"`
	Failed   int            `json:"failed"`
	ByKind   map[string]int `json:"failures_by_kind,omitempty"`
	MinMs    int64          `json:"min_ms"`
	MaxMs    int64          `json:"max_ms"`
	AvgMs    float64        `json:"avg_ms"`
	P50Ms    float64        `json:"p50_ms"`
	P95Ms    float64        `json:"p95_ms"`
	P99Ms    float64        `json:"p99_ms"`
	WindowMs int64          `json:"window_ms"`
}

// CompileStats keeps compile outcomes for a rolling window. Samples are
// appended in time order, so expiry trims from the front.
type CompileStats struct {
	mu      sync.Mutex
	samples []compileSample
	window  time.Duration
	now     func() time.Time
}

func NewCompileStats(window time.Duration) *CompileStats {
	if window <= 0 {
		window = time.Hour
	}
	return &CompileStats{window: window, now: time.Now}
}

// Record adds one compile. err is the error the compile returned, nil on
// success; its kind is kept for the failure breakdown.
func (s *CompileStats) Record(d time.Duration, err error) {
	ms := max(d.Milliseconds(), 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.expireLocked(now)
	s.samples = append(s.samples, compileSample{at: now, ms: ms, kind: compiler.KindOf(err)})
}

func (s *CompileStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	s.expireLocked(s.now())
	samples := slices.Clone(s.samples)
	s.mu.Unlock()

	snap := StatsSnapshot{WindowMs: s.window.Milliseconds()}
	if len(samples) == 0 {
		return snap
	}

	durations := make([]int64, len(samples))
	var total int64
	for i, sm := range samples {
		durations[i] = sm.ms
		total += sm.ms
		if sm.kind != compiler.KindNone {
			if snap.ByKind == nil {
				snap.ByKind = make(map[string]int)
			}
			snap.Failed++
			snap.ByKind[string(sm.kind)]++
		}
	}
	slices.Sort(durations)

	snap.Count = len(durations)
	snap.MinMs = durations[0]
	snap.MaxMs = durations[len(durations)-1]
	snap.AvgMs = float64(total) / float64(len(durations))
	snap.P50Ms = percentile(durations, 50)
	snap.P95Ms = percentile(durations, 95)
	snap.P99Ms = percentile(durations, 99)
	return snap
}

func (s *CompileStats) expireLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	n := sort.Search(len(s.samples), func(i int) bool {
		return !s.samples[i].at.Before(cutoff)
	})
	if n > 0 {
		s.samples = slices.Delete(s.samples, 0, n)
	}
}

// percentile interpolates linearly between the closest ranks of sorted.
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
	i := int(rank)
	if i+1 >= len(sorted) {
		return float64(sorted[i])
	}
	lo, hi := float64(sorted[i]), float64(sorted[i+1])
	return lo + (hi-lo)*(rank-float64(i))
}
