package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/middleware"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	tests := []struct {
		name   string
		status int
		level  logrus.Level
	}{
		{"ok", http.StatusOK, logrus.DebugLevel},
		{"client error", http.StatusNotFound, logrus.WarnLevel},
		{"server error", http.StatusServiceUnavailable, logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook.Reset()
			h := middleware.Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/contests/7", nil))

			require.Len(t, hook.Entries, 1)
			entry := hook.LastEntry()
			assert.Equal(t, tt.level, entry.Level)
			assert.Equal(t, tt.status, entry.Data["status"])
			assert.Equal(t, "/api/v1/contests/7", entry.Data["path"])
		})
	}
}
