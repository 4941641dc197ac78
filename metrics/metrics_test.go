package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmharper/geomkernel/disjoint"
	"github.com/bmharper/geomkernel/geom"
	"github.com/bmharper/geomkernel/metrics"
	"github.com/bmharper/geomkernel/rtree"
)

func TestCollector_Index(t *testing.T) {
	t.Parallel()

	idx := rtree.New[string]()
	idx.Insert("a", geom.NewBox(0, 0, 10, 10))
	idx.Insert("b", geom.NewBox(10, 0, 20, 10))

	c := metrics.NewCollector(nil)
	c.AddIndex("shapes", idx)

	want := `
# HELP geomkernel_index_entries Number of entries in the spatial index.
# TYPE geomkernel_index_entries gauge
geomkernel_index_entries{index="shapes"} 2
# HELP geomkernel_index_height Height of the spatial index tree.
# TYPE geomkernel_index_height gauge
geomkernel_index_height{index="shapes"} 1
# HELP geomkernel_index_splits_total Node splits performed by the spatial index.
# TYPE geomkernel_index_splits_total counter
geomkernel_index_splits_total{index="shapes"} 0
`
	err := testutil.CollectAndCompare(c, strings.NewReader(want),
		"geomkernel_index_entries", "geomkernel_index_height", "geomkernel_index_splits_total")
	require.NoError(t, err)
}

func TestCollector_Set(t *testing.T) {
	t.Parallel()

	s := disjoint.New[int]()
	require.True(t, s.Add(geom.Interval{Start: 0, Stop: 10}, 1, disjoint.AddOptions{}))
	require.True(t, s.Add(geom.Interval{Start: 20, Stop: 25}, 2, disjoint.AddOptions{}))

	c := metrics.NewCollector(&sync.Mutex{})
	c.AddSet("track0", s)

	want := `
# HELP geomkernel_intervals_coverage Total length covered by the set, in layout units.
# TYPE geomkernel_intervals_coverage gauge
geomkernel_intervals_coverage{set="track0"} 15
# HELP geomkernel_intervals_entries Number of intervals in the set.
# TYPE geomkernel_intervals_entries gauge
geomkernel_intervals_entries{set="track0"} 2
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(want)))

	c.Remove("track0")
	assert.Equal(t, 0, testutil.CollectAndCount(c))
}

func TestCollector_TracksGrowth(t *testing.T) {
	t.Parallel()

	idx := rtree.New[int](rtree.WithMaxEntries(4))
	c := metrics.NewCollector(nil)
	c.AddIndex("vias", idx)
	assert.Equal(t, 5, testutil.CollectAndCount(c))

	for i := 0; i < 50; i++ {
		idx.Insert(i, geom.NewBox(geom.Coord(i), 0, geom.Coord(i)+1, 1))
	}
	assert.Equal(t, 5, testutil.CollectAndCount(c, "geomkernel_index_entries",
		"geomkernel_index_nodes", "geomkernel_index_height",
		"geomkernel_index_splits_total", "geomkernel_index_condenses_total"))
	want := `
# HELP geomkernel_index_entries Number of entries in the spatial index.
# TYPE geomkernel_index_entries gauge
geomkernel_index_entries{index="vias"} 50
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(want), "geomkernel_index_entries"))
	assert.Greater(t, idx.Stats().Splits, uint64(0))
}

func TestHandler_ServesMetrics(t *testing.T) {
	t.Parallel()

	idx := rtree.New[int]()
	idx.Insert(1, geom.NewBox(0, 0, 1, 1))
	c := metrics.NewCollector(nil)
	c.AddIndex("shapes", idx)

	handler, err := metrics.Handler(c)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), `geomkernel_index_entries{index="shapes"} 1`)
}
