package main

import (
	"github.com/pagesim/pagesim/simulator"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Prometheus metrics (gauges)
	promMetrics = struct {
		pageFaults       prometheus.Gauge
		pageHits         prometheus.Gauge
		hitRatio         prometheus.Gauge
		contextSwitches  prometheus.Gauge
		blockedThreads   prometheus.Gauge
		completedThreads prometheus.Gauge
		lockAcquisitions prometheus.Gauge
		deadlocked       prometheus.Gauge
		stepProgress     prometheus.Gauge
	}{
		pageFaults: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pagesim_page_faults_total",
			Help: "Total page faults across all threads",
		}),
		pageHits: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pagesim_page_hits_total",
			Help: "Total page hits across all threads",
		}),
		hitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pagesim_hit_ratio_percent",
			Help: "Global page hit ratio percentage",
		}),
		contextSwitches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pagesim_context_switches_total",
			Help: "Total scheduler context switches",
		}),
		blockedThreads: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pagesim_blocked_threads",
			Help: "Number of threads blocked on locks",
		}),
		completedThreads: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pagesim_completed_threads",
			Help: "Number of threads that finished their reference string",
		}),
		lockAcquisitions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pagesim_lock_acquisitions_total",
			Help: "Total lock acquisitions",
		}),
		deadlocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pagesim_deadlock_detected",
			Help: "Deadlock state (0=no, 1=deadlocked)",
		}),
		stepProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pagesim_step_progress_percent",
			Help: "Completed page references as a percentage of the total",
		}),
	}
)

func initPrometheusMetrics() {
	prometheus.MustRegister(
		promMetrics.pageFaults,
		promMetrics.pageHits,
		promMetrics.hitRatio,
		promMetrics.contextSwitches,
		promMetrics.blockedThreads,
		promMetrics.completedThreads,
		promMetrics.lockAcquisitions,
		promMetrics.deadlocked,
		promMetrics.stepProgress,
	)
}

func updatePrometheusMetrics(metrics *simulator.Metrics) {
	promMetrics.pageFaults.Set(float64(metrics.TotalPageFaults))
	promMetrics.pageHits.Set(float64(metrics.TotalPageHits))
	promMetrics.hitRatio.Set(metrics.GlobalHitRatioPercent)
	promMetrics.contextSwitches.Set(float64(metrics.ContextSwitches))
	promMetrics.blockedThreads.Set(float64(metrics.BlockedThreads))
	promMetrics.completedThreads.Set(float64(metrics.CompletedThreads))
	promMetrics.lockAcquisitions.Set(float64(metrics.LockAcquisitions))

	if metrics.DeadlockDetected {
		promMetrics.deadlocked.Set(1.0)
	} else {
		promMetrics.deadlocked.Set(0.0)
	}

	if metrics.TotalSteps > 0 {
		done := 0
		for _, t := range metrics.Threads {
			done += t.Cursor
		}
		promMetrics.stepProgress.Set(float64(done) / float64(metrics.TotalSteps) * 100.0)
	}
}
