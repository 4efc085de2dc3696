package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/squareup/colload/conf"
	"github.com/stretchr/testify/require"
)

func TestCountersAreSharedByName(t *testing.T) {
	f := NewFactory(*conf.NewTestConfig("foo"))
	c1, err := f.CreateCounter("colload_test_total", "test counter")
	require.NoError(t, err)
	c2, err := f.CreateCounter("colload_test_total", "test counter")
	require.NoError(t, err)
	c1.Inc()
	c2.Add(2)
	require.Equal(t, float64(3), testutil.ToFloat64(c1.(*Counter).pCounter))

	families, err := f.Registry().Gather()
	require.NoError(t, err)
	require.Equal(t, 1, len(families))
	require.Equal(t, "colload_test_total", families[0].GetName())
}

func TestStartStop(t *testing.T) {
	f := NewFactory(*conf.NewTestConfig("foo"))
	require.NoError(t, f.Start())
	require.Error(t, f.Start())
	require.NoError(t, f.Stop())
	require.Error(t, f.Stop())
}
