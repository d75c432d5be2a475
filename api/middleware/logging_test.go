package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"reminderd/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogging(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	router := gin.New()
	router.Use(RequestLogging(log))
	router.GET("/api/v1/reminders/:id", func(c *gin.Context) {
		_, ok := c.Get("logger")
		assert.True(t, ok)
		c.Status(http.StatusNoContent)
	})

	t.Run("generates request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reminders/4", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
		assert.NoError(t, err)
	})

	t.Run("keeps caller request id", func(t *testing.T) {
		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reminders/4", nil)
		req.Header.Set(RequestIDHeader, id)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, id, w.Header().Get(RequestIDHeader))
	})

	completed := logs.FilterMessage("Request completed").All()
	require.Len(t, completed, 2)
	fields := completed[0].ContextMap()
	assert.Equal(t, "/api/v1/reminders/:id", fields["route"])
	assert.EqualValues(t, http.StatusNoContent, fields["status_code"])
	assert.Contains(t, fields, "request_id")
}
