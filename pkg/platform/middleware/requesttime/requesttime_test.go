package requesttime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMiddlewareSetsTimeInContext(t *testing.T) {
	var first, second time.Time
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = Now(r.Context())
		time.Sleep(time.Millisecond)
		second = Now(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	before := time.Now()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/requests", nil))

	assert.False(t, first.IsZero())
	assert.Equal(t, first, second, "every read within a request sees the same instant")
	assert.False(t, first.Before(before))
}

func TestNowFallsBackToWallClock(t *testing.T) {
	before := time.Now()
	now := Now(context.Background())
	assert.False(t, now.Before(before))
}

func TestWithTime(t *testing.T) {
	fixed := time.Date(2024, 5, 23, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, fixed, Now(WithTime(context.Background(), fixed)))
}
