package production

import (
	"fmt"
	"runtime"
	"time"

	"github.com/k0kubun/rqg/internal/metrics"
)

// monitorSample is the state needed to compute one monitoring tick,
// per spec.md §4.9 "Monitoring": interval/overall QPS, uniqueness
// rate, resident memory, and the three warning-only alert
// conditions.
type monitorSample struct {
	now              time.Time
	start            time.Time
	lastTick         time.Time
	totalGenerated   int64
	lastTickTotal    int64
	uniqueEmitted    int64
	duplicates       int64
	failed           int64
	priorOverallQPS  float64
	workers          []metrics.WorkerStat
}

type monitorResult struct {
	record metrics.Record
	alerts []string
}

// evaluate computes the JSONL record and fires (warning-only) alerts
// when: duplicate rate exceeds cfg.AlertOnDuplicateRate, error rate
// exceeds cfg.AlertOnErrorRate, or interval QPS drops below
// (1 - cfg.AlertOnQPSDrop) * the prior overall QPS, per spec.md §4.9.
func (s monitorSample) evaluate(cfg Config) monitorResult {
	intervalSeconds := s.now.Sub(s.lastTick).Seconds()
	overallSeconds := s.now.Sub(s.start).Seconds()

	var intervalQPS float64
	if intervalSeconds > 0 {
		intervalQPS = float64(s.totalGenerated-s.lastTickTotal) / intervalSeconds
	}
	var overallQPS float64
	if overallSeconds > 0 {
		overallQPS = float64(s.totalGenerated) / overallSeconds
	}

	var uniquenessRate float64
	if s.totalGenerated > 0 {
		uniquenessRate = float64(s.uniqueEmitted) / float64(s.totalGenerated)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	memoryMB := float64(m.Alloc) / (1024 * 1024)

	record := metrics.Record{
		Timestamp:      s.now.UTC().Format(time.RFC3339),
		TotalGenerated: s.totalGenerated,
		IntervalQPS:    intervalQPS,
		OverallQPS:     overallQPS,
		UniquenessRate: uniquenessRate,
		MemoryMB:       memoryMB,
		Workers:        s.workers,
	}

	var alerts []string
	if s.totalGenerated > 0 {
		if dupRate := float64(s.duplicates) / float64(s.totalGenerated); dupRate > cfg.AlertOnDuplicateRate {
			alerts = append(alerts, fmt.Sprintf("duplicate rate %.4f exceeds threshold %.4f", dupRate, cfg.AlertOnDuplicateRate))
		}
		if errRate := float64(s.failed) / float64(s.totalGenerated); errRate > cfg.AlertOnErrorRate {
			alerts = append(alerts, fmt.Sprintf("error rate %.4f exceeds threshold %.4f", errRate, cfg.AlertOnErrorRate))
		}
	}
	if s.priorOverallQPS > 0 {
		if floor := (1 - cfg.AlertOnQPSDrop) * s.priorOverallQPS; intervalQPS < floor {
			alerts = append(alerts, fmt.Sprintf("interval QPS %.1f dropped below %.1f (%.0f%% of long-run average %.1f)", intervalQPS, floor, cfg.AlertOnQPSDrop*100, s.priorOverallQPS))
		}
	}

	return monitorResult{record: record, alerts: alerts}
}
