package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"katydid-common-idgen/pkg/idgen/core"
	"katydid-common-idgen/pkg/idgen/registry"
	"katydid-common-idgen/pkg/idgen/snowflake"
)

func TestHTTP_Observe(t *testing.T) {
	h := NewHTTP()
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, h.Register(reg))

	h.Observe("POST", "/v1/ids", 200, 3*time.Millisecond, 30)
	h.Observe("POST", "/v1/ids", 200, time.Millisecond, 30)
	h.Observe("GET", "/v1/ids/:id", 400, time.Millisecond, -1)

	assert.Equal(t, 2.0, testutil.ToFloat64(h.RequestsTotal.WithLabelValues("POST", "/v1/ids", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.RequestsTotal.WithLabelValues("GET", "/v1/ids/:id", "400")))
	assert.Equal(t, 2, testutil.CollectAndCount(h.DurationSeconds))

	// 重复注册报错
	assert.Error(t, h.Register(reg))
}

func TestGeneratorCollector(t *testing.T) {
	r := registry.NewRegistry(nil)

	clock := snowflake.NewManualClock(snowflake.DefaultEpoch.Add(time.Hour))
	gen, err := r.Create("orders", core.GeneratorTypeSnowflake, &snowflake.Config{
		DatacenterID:  2,
		WorkerID:      5,
		Clock:         clock,
		EnableMetrics: true,
	})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := gen.NextID()
		require.NoError(t, err)
	}

	// 未启用监控的生成器不导出
	_, err = r.Create("quiet", core.GeneratorTypeSnowflake, &snowflake.Config{DatacenterID: 1, WorkerID: 1, Clock: clock})
	require.NoError(t, err)

	c := NewGeneratorCollector(r.Snapshot)
	assert.Equal(t, 5, testutil.CollectAndCount(c))

	expected := `
# HELP idgen_generator_ids_total Total number of IDs generated
# TYPE idgen_generator_ids_total counter
idgen_generator_ids_total{datacenter_id="2",generator="orders",worker_id="5"} 3
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "idgen_generator_ids_total"))

	expected = `
# HELP idgen_generator_clock_backward_total Clock regressions observed
# TYPE idgen_generator_clock_backward_total counter
idgen_generator_clock_backward_total{datacenter_id="2",generator="orders",worker_id="5"} 0
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "idgen_generator_clock_backward_total"))
}

func TestGeneratorCollector_Lint(t *testing.T) {
	c := NewGeneratorCollector(func() map[string]core.IGenerator { return nil })
	problems, err := testutil.CollectAndLint(c)
	require.NoError(t, err)
	assert.Empty(t, problems)
	assert.Equal(t, 0, testutil.CollectAndCount(c))
}
