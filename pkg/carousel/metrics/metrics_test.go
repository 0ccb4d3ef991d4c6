package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-carousel/pkg/carousel"
	"github.com/tendant/simple-carousel/pkg/carousel/metrics"
)

var _ carousel.Recorder = (*metrics.Collector)(nil)

func TestCollector_Recorder(t *testing.T) {
	c := metrics.New()

	c.ItemsAdded(2)
	c.UploadFailed()
	c.ItemsDeleted(3)
	c.FieldsUpdated(4)
	c.ItemMoved(carousel.DirectionDown)
	c.ItemMoved(carousel.DirectionDown)
	c.PositionsRefreshed(5)

	expected := `
# HELP carousel_item_moves_total Number of single item moves
# TYPE carousel_item_moves_total counter
carousel_item_moves_total{direction="down"} 2
`
	require.NoError(t, testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "carousel_item_moves_total"))

	count, err := testutil.GatherAndCount(c.Registry(),
		"carousel_items_added_total",
		"carousel_upload_failures_total",
		"carousel_items_deleted_total",
		"carousel_fields_updated_total",
		"carousel_positions_renumbered_total")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestCollector_Handler(t *testing.T) {
	c := metrics.New()
	c.ItemsAdded(1)
	c.RecordRequest(http.MethodGet, "/move-item/{id}", http.StatusOK, 20*time.Millisecond, 128)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "carousel_items_added_total 1")
	assert.Contains(t, string(body), `carousel_http_requests_total{method="GET",route="/move-item/{id}",status="200"} 1`)
}
