// Package metrics exports the occupancy of spatial indexes and interval sets
// as Prometheus metrics. Values are read from the structures at scrape time.
package metrics

import (
	"net/http"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bmharper/geomkernel/geom"
	"github.com/bmharper/geomkernel/rtree"
)

const namespace = "geomkernel"

// IndexSource is implemented by *rtree.Index.
type IndexSource interface {
	Stats() rtree.Stats
}

// SetSource is implemented by *disjoint.Set.
type SetSource interface {
	Len() int
	Coverage() geom.Coord
}

var (
	indexEntriesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "index", "entries"),
		"Number of entries in the spatial index.", []string{"index"}, nil)
	indexNodesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "index", "nodes"),
		"Number of tree nodes in the spatial index.", []string{"index"}, nil)
	indexHeightDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "index", "height"),
		"Height of the spatial index tree.", []string{"index"}, nil)
	indexSplitsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "index", "splits_total"),
		"Node splits performed by the spatial index.", []string{"index"}, nil)
	indexCondensesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "index", "condenses_total"),
		"Underfull nodes dissolved by the spatial index.", []string{"index"}, nil)
	setEntriesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "intervals", "entries"),
		"Number of intervals in the set.", []string{"set"}, nil)
	setCoverageDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "intervals", "coverage"),
		"Total length covered by the set, in layout units.", []string{"set"}, nil)
)

// Collector is a prometheus.Collector over named indexes and sets.
//
// The kernel structures are not safe for concurrent use. If they are edited
// while a scrape may run, pass the lock that serializes those edits to
// NewCollector; the collector holds it while reading.
type Collector struct {
	mu      sync.Mutex
	lock    sync.Locker
	indexes map[string]IndexSource
	sets    map[string]SetSource
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns an empty collector. lock may be nil.
func NewCollector(lock sync.Locker) *Collector {
	return &Collector{
		lock:    lock,
		indexes: map[string]IndexSource{},
		sets:    map[string]SetSource{},
	}
}

// AddIndex exports src under the label index=name, replacing any earlier
// source of that name.
func (c *Collector) AddIndex(name string, src IndexSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indexes[name] = src
}

// AddSet exports src under the label set=name.
func (c *Collector) AddSet(name string, src SetSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets[name] = src
}

// Remove stops exporting the index and the set called name.
func (c *Collector) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.indexes, name)
	delete(c.sets, name)
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- indexEntriesDesc
	ch <- indexNodesDesc
	ch <- indexHeightDesc
	ch <- indexSplitsDesc
	ch <- indexCondensesDesc
	ch <- setEntriesDesc
	ch <- setCoverageDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lock != nil {
		c.lock.Lock()
		defer c.lock.Unlock()
	}

	for _, name := range sortedKeys(c.indexes) {
		s := c.indexes[name].Stats()
		ch <- prometheus.MustNewConstMetric(indexEntriesDesc, prometheus.GaugeValue, float64(s.Entries), name)
		ch <- prometheus.MustNewConstMetric(indexNodesDesc, prometheus.GaugeValue, float64(s.Nodes), name)
		ch <- prometheus.MustNewConstMetric(indexHeightDesc, prometheus.GaugeValue, float64(s.Height), name)
		ch <- prometheus.MustNewConstMetric(indexSplitsDesc, prometheus.CounterValue, float64(s.Splits), name)
		ch <- prometheus.MustNewConstMetric(indexCondensesDesc, prometheus.CounterValue, float64(s.Condenses), name)
	}
	for _, name := range sortedKeys(c.sets) {
		src := c.sets[name]
		ch <- prometheus.MustNewConstMetric(setEntriesDesc, prometheus.GaugeValue, float64(src.Len()), name)
		ch <- prometheus.MustNewConstMetric(setCoverageDesc, prometheus.GaugeValue, float64(src.Coverage()), name)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Handler returns an http.Handler serving the metrics of a fresh registry
// holding c.
func Handler(c *Collector) (http.Handler, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(c); err != nil {
		return nil, err
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}
