package metrics

import "github.com/prometheus/client_golang/prometheus"

// Counter reports the registry population and live watcher count.
type Counter interface {
	Counts() (records, watchers int, err error)
}

// RegistryCollector exports the shared registry counters as gauges on every scrape.
type RegistryCollector struct {
	Registry Counter

	records  *prometheus.Desc
	watchers *prometheus.Desc
}

// NewRegistryCollector returns a collector reading counters from registry.
func NewRegistryCollector(registry Counter) *RegistryCollector {
	return &RegistryCollector{
		Registry: registry,
		records:  prometheus.NewDesc("shutdownd_registry_records", "Databases currently shut down.", nil, nil),
		watchers: prometheus.NewDesc("shutdownd_registry_watchers", "Watchers currently running.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *RegistryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.records
	ch <- c.watchers
}

// Collect implements prometheus.Collector. A detached registry reports nothing.
func (c *RegistryCollector) Collect(ch chan<- prometheus.Metric) {
	records, watchers, err := c.Registry.Counts()
	if err != nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.records, prometheus.GaugeValue, float64(records))
	ch <- prometheus.MustNewConstMetric(c.watchers, prometheus.GaugeValue, float64(watchers))
}
