package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	ok := PingChecker{Target: pingFunc(func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})}
	down := PingChecker{Target: pingFunc(func(context.Context) error { return errors.New("connection refused") })}

	rec := httptest.NewRecorder()
	HealthHandler("1.0.0", map[string]HealthChecker{"sessions": ok})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	HealthHandler("1.0.0", map[string]HealthChecker{"sessions": ok, "database": down})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "1.0.0", body.Version)
	assert.Equal(t, "healthy", body.Checks["sessions"].Status)
	assert.Equal(t, "connection refused", body.Checks["database"].Message)
}
