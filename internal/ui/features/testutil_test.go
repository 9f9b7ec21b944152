package features

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestWithTimeout_CancelledWhenTestEnds(t *testing.T) {
	var req *http.Request
	t.Run("request", func(t *testing.T) {
		req = RequestWithTimeout(t, httptest.NewRequest(http.MethodGet, "/products", nil), time.Hour)
		assert.NoError(t, req.Context().Err())
	})
	assert.ErrorIs(t, req.Context().Err(), context.Canceled)
}
