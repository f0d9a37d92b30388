package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventify/internal/reservation"
)

func TestObserverCounters(t *testing.T) {
	m := New()
	var obs reservation.Observer = m

	obs.SeatRejected(reservation.Rejection{SessionID: "s1", Op: "select", SeatID: "A-1", Reason: reservation.ReasonNotAvailable})
	obs.SeatRejected(reservation.Rejection{SessionID: "s1", Op: "select", SeatID: "A-1", Reason: reservation.ReasonNotAvailable})
	obs.ResultDiscarded("s1", reservation.OpSeatMap)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SeatRejections.WithLabelValues("select", "not_available")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DiscardedResults.WithLabelValues("seat_map")))
}

func TestGaugesAndBookings(t *testing.T) {
	m := New()
	m.SetActiveSessions(3)
	m.BookingTransition("pending")

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActiveSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Bookings.WithLabelValues("pending")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/ping/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping/1", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/ping/:id", "GET", "204")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "eventify_http_requests_total")
}
