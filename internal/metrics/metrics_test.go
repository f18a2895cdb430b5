package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin(LoginFailure)
	c.RecordLogin(LoginFailure)
	c.RecordLogin(LoginRateLimited)
	c.RecordNotification("visit", OutcomeSent)
	c.RecordSMS("confirmation", OutcomeSkipped)
	c.RecordBreakerState("geojs", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.logins.WithLabelValues(LoginFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.logins.WithLabelValues(LoginRateLimited)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.notifications.WithLabelValues("visit", OutcomeSent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sms.WithLabelValues("confirmation", OutcomeSkipped)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.breakerState.WithLabelValues("geojs")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPRequest("GET", "/api/blog", 200, 15*time.Millisecond)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `spadoc_http_requests_total{method="GET",route="/api/blog",status="200"} 1`)
	assert.Contains(t, string(body), "spadoc_http_request_duration_seconds_bucket")
}

func TestNopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordLogin(LoginSuccess)
	r.RecordHTTPRequest("GET", "/", 200, time.Second)
}
