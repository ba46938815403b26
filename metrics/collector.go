// Package metrics exports the statistics of a graph as prometheus metrics.
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xaionaro-go/mediagraph/filter"
	"github.com/xaionaro-go/mediagraph/worker"
)

const Namespace = "mediagraph"

// Source is what the Collector takes the statistics from;
// *pipeline.Manager implements it.
type Source interface {
	Filters(ctx context.Context) []*filter.Filter
	Workers(ctx context.Context) []*worker.Worker
}

// Collector is a prometheus.Collector reporting the statistics of every
// filter and worker at the moment of collection.
type Collector struct {
	ctx    context.Context
	source Source

	filterCycles       *prometheus.Desc
	filterRetries      *prometheus.Desc
	filterFailures     *prometheus.Desc
	filterResyncs      *prometheus.Desc
	filterFramesIn     *prometheus.Desc
	filterFramesOut    *prometheus.Desc
	filterFrameTime    *prometheus.Desc
	filterFrameTimeMod *prometheus.Desc
	filterDrift        *prometheus.Desc
	workerCycles       *prometheus.Desc
	workerDropped      *prometheus.Desc
	workerRunnables    *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

func NewCollector(ctx context.Context, source Source) *Collector {
	filterLabels := []string{"filter_id", "kernel", "role"}
	workerLabels := []string{"worker_id", "state"}
	filterDesc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(Namespace, "filter", name), help, filterLabels, nil)
	}
	workerDesc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(Namespace, "worker", name), help, workerLabels, nil)
	}
	return &Collector{
		ctx:                ctx,
		source:             source,
		filterCycles:       filterDesc("cycles_total", "Processing cycles executed by the filter."),
		filterRetries:      filterDesc("retries_total", "Cycles which had nothing to process."),
		filterFailures:     filterDesc("transform_failures_total", "Cycles in which the kernel produced nothing."),
		filterResyncs:      filterDesc("resyncs_total", "Hard resynchronizations of the output timestamp with the wall clock."),
		filterFramesIn:     filterDesc("frames_in_total", "New input frames consumed by the filter."),
		filterFramesOut:    filterDesc("frames_out_total", "Frames committed by the filter."),
		filterFrameTime:    filterDesc("frame_time_seconds", "Target period between output frames."),
		filterFrameTimeMod: filterDesc("frame_time_modifier", "Drift correction applied to the frame period."),
		filterDrift:        filterDesc("drift_seconds", "Wall clock minus the output timestamp at the last commit."),
		workerCycles:       workerDesc("cycles_total", "Cycles executed by the worker."),
		workerDropped:      workerDesc("dropped_runnables_total", "Runnables dropped because they were not enabled anymore."),
		workerRunnables:    workerDesc("runnables", "Runnables hosted by the worker."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range []*prometheus.Desc{
		c.filterCycles, c.filterRetries, c.filterFailures, c.filterResyncs,
		c.filterFramesIn, c.filterFramesOut, c.filterFrameTime,
		c.filterFrameTimeMod, c.filterDrift,
		c.workerCycles, c.workerDropped, c.workerRunnables,
	} {
		ch <- desc
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, f := range c.source.Filters(c.ctx) {
		stats := f.Statistics.ToStats()
		labels := []string{strconv.Itoa(int(f.ID())), f.Kernel().String(), f.Role().String()}
		counter := func(desc *prometheus.Desc, v uint64) {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v), labels...)
		}
		gauge := func(desc *prometheus.Desc, v float64) {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, labels...)
		}
		counter(c.filterCycles, stats.Cycles)
		counter(c.filterRetries, stats.Retries)
		counter(c.filterFailures, stats.TransformFailures)
		counter(c.filterResyncs, stats.Resyncs)
		counter(c.filterFramesIn, stats.FramesIn)
		counter(c.filterFramesOut, stats.FramesOut)
		gauge(c.filterFrameTime, stats.FrameTime.Seconds())
		gauge(c.filterFrameTimeMod, stats.FrameTimeMod)
		gauge(c.filterDrift, stats.Drift.Seconds())
	}
	for _, w := range c.source.Workers(c.ctx) {
		labels := []string{strconv.Itoa(w.ID), w.State().String()}
		ch <- prometheus.MustNewConstMetric(c.workerCycles, prometheus.CounterValue, float64(w.Statistics.Cycles.Load()), labels...)
		ch <- prometheus.MustNewConstMetric(c.workerDropped, prometheus.CounterValue, float64(w.Statistics.Dropped.Load()), labels...)
		ch <- prometheus.MustNewConstMetric(c.workerRunnables, prometheus.GaugeValue, float64(w.RunnablesCount(c.ctx)), labels...)
	}
}
