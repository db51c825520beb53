package database

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func describeAll(c prometheus.Collector) []string {
	ch := make(chan *prometheus.Desc, 32)
	c.Describe(ch)
	close(ch)

	var out []string
	for d := range ch {
		out = append(out, d.String())
	}
	return out
}

func TestNewPoolStatsCollector_NotNil(t *testing.T) {
	c := NewPoolStatsCollector(nil, "catalog")
	require.NotNil(t, c)
	assert.Equal(t, "catalog", c.service)
}

func TestPoolStatsCollector_Describe(t *testing.T) {
	descs := describeAll(NewPoolStatsCollector(nil, "catalog"))
	assert.Len(t, descs, 10)

	for _, name := range []string{
		"db_pool_acquired_connections",
		"db_pool_idle_connections",
		"db_pool_total_connections",
		"db_pool_acquire_duration_seconds_total",
		"db_pool_new_connections_total",
	} {
		found := false
		for _, d := range descs {
			if strings.Contains(d, `"`+name+`"`) {
				found = true
				break
			}
		}
		assert.True(t, found, "missing descriptor %q", name)
	}
}

func TestPoolStatsCollector_CollectWithoutPool(t *testing.T) {
	c := NewPoolStatsCollector(nil, "catalog")
	ch := make(chan prometheus.Metric, 32)
	c.Collect(ch)
	close(ch)
	assert.Empty(t, ch)
}

func TestRegisterPoolMetrics_CustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterPoolMetrics(reg, nil, "catalog"))

	// Registering the same descriptors twice is rejected.
	assert.Error(t, RegisterPoolMetrics(reg, nil, "catalog"))
}
