package monitor

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveBeforeInitIsNoop(t *testing.T) {
	saved := Tx
	Tx = nil
	defer func() { Tx = saved }()

	assert.NotPanics(t, func() {
		ObserveEncode("eip1559", true)
		ObserveDecode("legacy", false)
		ObserveDecodeFailure("malformed")
		ObserveFill(time.Now(), []string{"gas"}, nil)
		ObserveBroadcast("sent")
		ObserveRebroadcast(2)
	})
}

func TestTxMetrics(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(Tx.EncodedTotal.WithLabelValues("eip2930", "true"))
	ObserveEncode("eip2930", true)
	assert.Equal(t, before+1, testutil.ToFloat64(Tx.EncodedTotal.WithLabelValues("eip2930", "true")))

	failed := testutil.ToFloat64(Tx.FillFailedTotal)
	fetched := testutil.ToFloat64(Tx.FillFetchedTotal.WithLabelValues("nonce"))
	ObserveFill(time.Now(), nil, errors.New("timeout"))
	ObserveFill(time.Now(), []string{"nonce"}, nil)
	assert.Equal(t, failed+1, testutil.ToFloat64(Tx.FillFailedTotal))
	assert.Equal(t, fetched+1, testutil.ToFloat64(Tx.FillFetchedTotal.WithLabelValues("nonce")))
}

func TestPrometheusMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(PrometheusMiddleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/health", "200"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/health", "200")))
	assert.Zero(t, testutil.ToFloat64(HTTPInFlight))

	// 未匹配的路由不记录
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/health", "200")))
}
