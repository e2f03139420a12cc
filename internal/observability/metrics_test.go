package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.GeocodeRequests.WithLabelValues("nominatim", "hit").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.GeocodeRequests.WithLabelValues("nominatim", "hit")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.GeocodeRequests.WithLabelValues("nominatim", "hit")))
}

func TestDiscardLogger(t *testing.T) {
	entry := DiscardLogger()
	entry.Info("nothing to see")
	assert.NotNil(t, entry.Logger)
}
