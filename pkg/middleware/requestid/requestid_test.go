package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newRequestIDRouter(seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) {
		*seen = Value(c)
		c.Status(http.StatusOK)
	})
	return r
}

func TestGeneratesIDWhenHeaderAbsent(t *testing.T) {
	var seen string
	r := newRequestIDRouter(&seen)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.NotEmpty(t, seen)
	require.Equal(t, seen, w.Header().Get(Header))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
}

func TestEchoesCallerSuppliedID(t *testing.T) {
	var seen string
	r := newRequestIDRouter(&seen)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(Header, "proxy-abc-123")
	r.ServeHTTP(w, req)

	require.Equal(t, "proxy-abc-123", seen)
	require.Equal(t, "proxy-abc-123", w.Header().Get(Header))
}
