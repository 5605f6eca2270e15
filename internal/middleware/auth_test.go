package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func echoClient(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(GetClientFromContext(r.Context())))
}

func TestAPIKeyAuth(t *testing.T) {
	h := APIKeyAuth([]string{"alpha", "beta"})(http.HandlerFunc(echoClient))

	cases := []struct {
		name   string
		path   string
		header map[string]string
		status int
		client string
	}{
		{name: "health skips auth", path: "/health", status: http.StatusOK},
		{name: "missing key", path: "/analyze", status: http.StatusUnauthorized},
		{name: "bearer", path: "/analyze", header: map[string]string{"Authorization": "Bearer beta"}, status: http.StatusOK, client: "key-1"},
		{name: "raw authorization", path: "/analyze", header: map[string]string{"Authorization": "alpha"}, status: http.StatusOK, client: "key-0"},
		{name: "x-api-key", path: "/analyze", header: map[string]string{"X-API-Key": "alpha"}, status: http.StatusOK, client: "key-0"},
		{name: "wrong key", path: "/analyze", header: map[string]string{"X-API-Key": "gamma"}, status: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tc.path, nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, tc.client, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"detail"`)
			}
		})
	}
}

func TestAPIKeyAuthDisabled(t *testing.T) {
	h := APIKeyAuth(nil)(http.HandlerFunc(echoClient))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
