package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_ObserveRequest(t *testing.T) {
	r := New()

	r.ObserveRequest(KindQuery, nil, 10*time.Millisecond)
	r.ObserveRequest(KindQuery, errors.New("boom"), time.Millisecond)
	r.ObserveRequest(KindUpload, nil, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues(KindQuery, OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues(KindQuery, OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues(KindUpload, OutcomeSuccess)))
}

func TestRecorder_ObserveSettled(t *testing.T) {
	r := New()
	r.ObserveSettled(KindQuery, OutcomeDiscarded)
	r.ObserveSettled(KindQuery, OutcomeDiscarded)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.settled.WithLabelValues(KindQuery, OutcomeDiscarded)))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveRequest(KindQuery, nil, time.Second)
		r.ObserveSettled(KindUpload, OutcomeSuccess)
		r.RegisterGauge("x", "y", func() float64 { return 1 })
	})
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.RegisterGauge("pdfinsight_sessions_active", "Active sessions.", func() float64 { return 3 })
	r.ObserveRequest(KindUpload, nil, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "pdfinsight_sessions_active 3")
	assert.Contains(t, body, `pdfinsight_remote_requests_total{kind="upload",outcome="success"} 1`)
}
