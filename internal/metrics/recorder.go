// Package metrics records unit wall times and outcome counters for a run.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/wesleyorama2/contend/internal/outcome"
)

// Recorder collects unit metrics using an HDR histogram.
//
// # Thread Safety
//
// Recorder is safe for concurrent use. Counters use atomic operations and
// the histogram and per-cause table are mutex protected, so every waiter
// goroutine of the harness can record into the same Recorder.
type Recorder struct {
	// Unit wall times in microseconds.
	durationHist   *hdrhistogram.Histogram
	durationHistMu sync.Mutex

	causes   map[outcome.Cause]int64
	causesMu sync.Mutex

	started   atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	bytes     atomic.Int64

	active atomic.Int32

	startTime time.Time
	config    Config
}

// Config contains the histogram bounds of a Recorder.
type Config struct {
	// HistogramMin is the minimum recordable value in microseconds (default: 1)
	HistogramMin int64

	// HistogramMax is the maximum recordable value in microseconds (default: 24h)
	HistogramMax int64

	// HistogramSigFigs is the number of significant figures (default: 3)
	HistogramSigFigs int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		HistogramMin:     1,
		HistogramMax:     int64(24 * time.Hour / time.Microsecond),
		HistogramSigFigs: 3,
	}
}

// NewRecorder creates a recorder with the default configuration.
func NewRecorder() *Recorder {
	return NewRecorderWithConfig(DefaultConfig())
}

// NewRecorderWithConfig creates a recorder with custom histogram bounds.
func NewRecorderWithConfig(config Config) *Recorder {
	return &Recorder{
		durationHist: hdrhistogram.New(config.HistogramMin, config.HistogramMax, config.HistogramSigFigs),
		causes:       make(map[outcome.Cause]int64),
		startTime:    time.Now(),
		config:       config,
	}
}

// UnitStarted marks a unit as created and running.
func (r *Recorder) UnitStarted() {
	r.started.Add(1)
	r.active.Add(1)
}

// UnitFinished records the terminal outcome of a unit that was started.
// bytes is the working set or payload size the kernel touched.
func (r *Recorder) UnitFinished(o outcome.Outcome, bytes uint64) {
	r.active.Add(-1)

	micros := o.Duration.Microseconds()
	if micros < r.config.HistogramMin {
		micros = r.config.HistogramMin
	}
	if micros > r.config.HistogramMax {
		micros = r.config.HistogramMax
	}

	r.durationHistMu.Lock()
	r.durationHist.RecordValue(micros)
	r.durationHistMu.Unlock()

	r.bytes.Add(int64(bytes))
	r.count(o.Cause)
}

// SpawnFailed records a unit that never started. No duration is recorded.
func (r *Recorder) SpawnFailed() {
	r.count(outcome.CauseSpawnFailed)
}

func (r *Recorder) count(cause outcome.Cause) {
	if cause == outcome.CauseNone {
		r.succeeded.Add(1)
		return
	}
	r.failed.Add(1)

	r.causesMu.Lock()
	r.causes[cause]++
	r.causesMu.Unlock()
}

// ActiveUnits returns the number of units started but not yet finished.
func (r *Recorder) ActiveUnits() int {
	return int(r.active.Load())
}

// Durations returns the current unit wall time distribution.
func (r *Recorder) Durations() DurationStats {
	r.durationHistMu.Lock()
	defer r.durationHistMu.Unlock()

	return statsOf(r.durationHist)
}

// Snapshot returns a point-in-time view of all metrics.
func (r *Recorder) Snapshot() *Snapshot {
	durations := r.Durations()

	r.causesMu.Lock()
	byCause := make(map[outcome.Cause]int64, len(r.causes))
	for cause, n := range r.causes {
		byCause[cause] = n
	}
	r.causesMu.Unlock()

	return &Snapshot{
		UnitsStarted:   r.started.Load(),
		UnitsSucceeded: r.succeeded.Load(),
		UnitsFailed:    r.failed.Load(),
		ByCause:        byCause,
		TotalBytes:     r.bytes.Load(),
		ActiveUnits:    r.ActiveUnits(),
		Durations:      durations,
		Elapsed:        time.Since(r.startTime),
		StartTime:      r.startTime,
		Timestamp:      time.Now(),
	}
}

// Reset clears all metrics and restarts the elapsed clock.
func (r *Recorder) Reset() {
	r.durationHistMu.Lock()
	r.durationHist.Reset()
	r.durationHistMu.Unlock()

	r.causesMu.Lock()
	r.causes = make(map[outcome.Cause]int64)
	r.causesMu.Unlock()

	r.started.Store(0)
	r.succeeded.Store(0)
	r.failed.Store(0)
	r.bytes.Store(0)
	r.active.Store(0)

	r.startTime = time.Now()
}

func statsOf(h *hdrhistogram.Histogram) DurationStats {
	return DurationStats{
		Min:    time.Duration(h.Min()) * time.Microsecond,
		Max:    time.Duration(h.Max()) * time.Microsecond,
		Mean:   time.Duration(h.Mean()) * time.Microsecond,
		StdDev: time.Duration(h.StdDev()) * time.Microsecond,
		P50:    time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
		P90:    time.Duration(h.ValueAtQuantile(90)) * time.Microsecond,
		P95:    time.Duration(h.ValueAtQuantile(95)) * time.Microsecond,
		P99:    time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
		Count:  h.TotalCount(),
	}
}

// Snapshot contains a point-in-time view of a run's metrics.
type Snapshot struct {
	UnitsStarted   int64                   `json:"unitsStarted"`
	UnitsSucceeded int64                   `json:"unitsSucceeded"`
	UnitsFailed    int64                   `json:"unitsFailed"`
	ByCause        map[outcome.Cause]int64 `json:"byCause,omitempty"`
	TotalBytes     int64                   `json:"totalBytes"`
	ActiveUnits    int                     `json:"activeUnits"`
	Durations      DurationStats           `json:"durations"`
	Elapsed        time.Duration           `json:"elapsed"`
	StartTime      time.Time               `json:"startTime"`
	Timestamp      time.Time               `json:"timestamp"`
}

// FailureRate returns the fraction of accounted units that failed.
func (s *Snapshot) FailureRate() float64 {
	total := s.UnitsSucceeded + s.UnitsFailed
	if total == 0 {
		return 0
	}
	return float64(s.UnitsFailed) / float64(total)
}

// DurationStats contains unit wall time statistics.
type DurationStats struct {
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	Mean   time.Duration `json:"mean"`
	StdDev time.Duration `json:"stdDev"`
	P50    time.Duration `json:"p50"`
	P90    time.Duration `json:"p90"`
	P95    time.Duration `json:"p95"`
	P99    time.Duration `json:"p99"`
	Count  int64         `json:"count"`
}
