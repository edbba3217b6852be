// Package pfmetrics exports pfalloc accounting as Prometheus metrics.
package pfmetrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pavanmanishd/pfalloc"
)

// StatsSource is satisfied by *pfalloc.Allocator and *pfalloc.SafeAllocator.
// A plain Allocator must only be collected from the goroutine that owns it.
type StatsSource interface {
	Statistics() pfalloc.Stats
}

// OpsSource is implemented by *pfalloc.SafeAllocator. When the source
// provides it, operation counters are exported too.
type OpsSource interface {
	Ops() (allocs, releases uint64)
}

// Collector is a prometheus.Collector that reads a fresh snapshot on every
// scrape.
type Collector struct {
	src StatsSource

	live      *prometheus.Desc
	wasted    *prometheus.Desc
	arenaSize *prometheus.Desc
	arenas    *prometheus.Desc
	abandoned *prometheus.Desc
	large     *prometheus.Desc
	util      *prometheus.Desc
	free      *prometheus.Desc
	ops       *prometheus.Desc
}

// NewCollector returns a collector for src with metric names prefixed by
// namespace (for example "pfalloc").
func NewCollector(src StatsSource, namespace string) *Collector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}
	return &Collector{
		src:       src,
		live:      desc("live_bytes", "Quantized bytes handed out and not yet released."),
		wasted:    desc("wasted_bytes", "Quantized bytes idle on free chains."),
		arenaSize: desc("arena_bytes", "Total capacity of all arenas."),
		arenas:    desc("arenas", "Number of arenas acquired."),
		abandoned: desc("abandoned_bytes", "Arena tails too small to reuse."),
		large:     desc("large_blocks", "Live blocks above the fast threshold."),
		util:      desc("arena_utilization_ratio", "Share of arena capacity held by live blocks."),
		free:      desc("free_blocks", "Blocks on the free chain of a size class.", "class_size"),
		ops:       desc("operations_total", "Allocations and releases performed.", "op"),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.live
	ch <- c.wasted
	ch <- c.arenaSize
	ch <- c.arenas
	ch <- c.abandoned
	ch <- c.large
	ch <- c.util
	ch <- c.free
	if _, ok := c.src.(OpsSource); ok {
		ch <- c.ops
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Statistics()
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	gauge(c.live, float64(s.LiveBytes))
	gauge(c.wasted, float64(s.WastedBytes))
	gauge(c.arenaSize, float64(s.ArenaBytes))
	gauge(c.arenas, float64(s.Arenas))
	gauge(c.abandoned, float64(s.AbandonedBytes))
	gauge(c.large, float64(s.LargeBlocks))
	gauge(c.util, s.Utilization)
	for _, cl := range s.Classes {
		gauge(c.free, float64(cl.Free), strconv.Itoa(cl.Size))
	}
	if o, ok := c.src.(OpsSource); ok {
		allocs, releases := o.Ops()
		ch <- prometheus.MustNewConstMetric(c.ops, prometheus.CounterValue, float64(allocs), "alloc")
		ch <- prometheus.MustNewConstMetric(c.ops, prometheus.CounterValue, float64(releases), "release")
	}
}

var _ prometheus.Collector = (*Collector)(nil)
