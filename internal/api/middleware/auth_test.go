package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tablesync/internal/services/auth"
	"github.com/mcoot/tablesync/internal/testutil"
)

func TestRequireHost(t *testing.T) {
	gate, err := auth.NewGate("dragon-hoard")
	require.NoError(t, err)

	reached := 0
	h := RequireHost(gate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached++
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name     string
		header   string
		status   int
		reachedN int
	}{
		{"missing header", "", http.StatusUnauthorized, 0},
		{"wrong password", "goblin", http.StatusUnauthorized, 0},
		{"correct password", "dragon-hoard", http.StatusNoContent, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = 0
			req := httptest.NewRequest(http.MethodGet, "/api/players", nil)
			if tt.header != "" {
				req.Header.Set(HostPasswordHeader, tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.reachedN, reached)
		})
	}
}

func TestRecoveryWritesEnvelope(t *testing.T) {
	h := Recovery(testutil.NopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nat 1")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal server error","code":"INTERNAL_ERROR"}`, rr.Body.String())
}
