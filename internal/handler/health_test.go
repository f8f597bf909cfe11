package handler

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

func TestHealthHandler(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name           string
		checks         map[string]Pinger
		expectedStatus int
		expected       map[string]string
	}{
		{
			name:           "all up",
			checks:         map[string]Pinger{"postgres": up, "cart_store": up},
			expectedStatus: http.StatusOK,
			expected:       map[string]string{"postgres": "up", "cart_store": "up"},
		},
		{
			name:           "one down",
			checks:         map[string]Pinger{"postgres": up, "cart_store": down},
			expectedStatus: http.StatusServiceUnavailable,
			expected:       map[string]string{"postgres": "up", "cart_store": "down"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tt.checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)

			var resp healthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.expected, resp.Checks)
		})
	}
}
