// FILE: lixenwraith/logfile/metrics/collector.go
// Package metrics exposes logger counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lixenwraith/logfile"
)

const (
	// MetricsNamespace is the namespace for all logger metrics.
	MetricsNamespace = "logfile"
)

// StatsSource is satisfied by *logfile.Logger
type StatsSource interface {
	Stats() logfile.Stats
}

// Collector reads a fresh Stats snapshot on every scrape
type Collector struct {
	source StatsSource
	labels prometheus.Labels

	processed    *prometheus.Desc
	dropped      *prometheus.Desc
	rotations    *prometheus.Desc
	compressions *prometheus.Desc
	deletions    *prometheus.Desc
	writeErrors  *prometheus.Desc
	fileSize     *prometheus.Desc
	queueLength  *prometheus.Desc
	queueCap     *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector for source. name is attached as the
// "logger" label so several loggers can share a registry.
func NewCollector(source StatsSource, name string) *Collector {
	constLabels := prometheus.Labels{"logger": name}
	desc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(MetricsNamespace, "", metric), help, nil, constLabels)
	}

	return &Collector{
		source:       source,
		labels:       constLabels,
		processed:    desc("records_written_total", "Total number of records written to log files"),
		dropped:      desc("records_dropped_total", "Total number of records lost to overflow, shutdown or write failure"),
		rotations:    desc("rotations_total", "Total number of file rotations"),
		compressions: desc("compressions_total", "Total number of files compressed"),
		deletions:    desc("deletions_total", "Total number of files deleted"),
		writeErrors:  desc("write_errors_total", "Total number of failed file writes"),
		fileSize:     desc("current_file_bytes", "Size of the active log file"),
		queueLength:  desc("queue_length", "Records waiting in the ingestion queue"),
		queueCap:     desc("queue_capacity", "Capacity of the ingestion queue"),
	}
}

// Register creates a collector for source and registers it with reg,
// falling back to the default registerer.
func Register(reg prometheus.Registerer, source StatsSource, name string) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := NewCollector(source, name)
	if err := reg.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.processed
	ch <- c.dropped
	ch <- c.rotations
	ch <- c.compressions
	ch <- c.deletions
	ch <- c.writeErrors
	ch <- c.fileSize
	ch <- c.queueLength
	ch <- c.queueCap
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}

	counter(c.processed, s.Processed)
	counter(c.dropped, s.Dropped)
	counter(c.rotations, s.Rotations)
	counter(c.compressions, s.Compressions)
	counter(c.deletions, s.Deletions)
	counter(c.writeErrors, s.WriteErrors)
	gauge(c.fileSize, float64(s.CurrentSize))
	gauge(c.queueLength, float64(s.QueueLength))
	gauge(c.queueCap, float64(s.QueueCapacity))
}
