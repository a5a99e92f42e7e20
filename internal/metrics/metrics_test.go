package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()
	m.Mutations.WithLabelValues("add_item", "ok").Inc()
	m.Mutations.WithLabelValues("add_item", "ok").Inc()
	m.StaleRetries.Inc()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `receiptsplit_mutations_total{kind="add_item",outcome="ok"} 2`)
	assert.Contains(t, string(body), "receiptsplit_stale_write_retries_total 1")
}

func TestNew_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
