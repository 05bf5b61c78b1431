package metrics

import "github.com/prometheus/client_golang/prometheus"

// RequestDuration is a histogram of admin API request durations with buckets that
// are incrementally 10% larger than the last, with valid
// values ranging from 0.1 to ~62370
var RequestDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "shutdownd_request_duration_milliseconds",
		Help:    "Admin API request duration distribution",
		Buckets: prometheus.ExponentialBuckets(0.1, 1.1, 140),
	})

// ShutdownRequests counts databases shut down, by mode.
var ShutdownRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shutdownd_shutdowns_total",
		Help: "Databases shut down, partitioned by mode.",
	}, []string{"mode"})

// StartupRequests counts databases started up again.
var StartupRequests = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "shutdownd_startups_total",
		Help: "Databases started up after a shutdown.",
	})

// SpawnFailures counts watchers that could not be started. A sustained
// rate means the host is out of processes or memory and should be alerted on.
var SpawnFailures = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "shutdownd_watcher_spawn_failures_total",
		Help: "Watchers that could not be started.",
	})

// WatcherPolls counts session count polls made by in-process watchers.
var WatcherPolls = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "shutdownd_watcher_polls_total",
		Help: "Active session polls made by watchers.",
	})

// WatcherExits counts watcher exits, by final state.
var WatcherExits = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shutdownd_watcher_exits_total",
		Help: "Watcher exits, partitioned by final state.",
	}, []string{"state"})

// MustRegister registers every shutdownd metric with the default registerer.
func MustRegister() {
	prometheus.MustRegister(RequestDuration, ShutdownRequests, StartupRequests, SpawnFailures, WatcherPolls, WatcherExits)
}
