package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/liliang-cn/pdfinsight/internal/repository"
	"github.com/liliang-cn/pdfinsight/internal/service"
)

func newSessionRouter(repo *repository.SessionRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session(repo, service.NewChatService(nil, nil, nil), SessionConfig{CookieName: "sid", MaxAge: time.Hour}, zap.NewNop()))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, Controller(c).ID())
	})
	return r
}

func TestSession_IssuesCookie(t *testing.T) {
	repo := repository.NewSessionRepository(time.Hour, time.Minute)
	r := newSessionRouter(repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Equal(t, w.Body.String(), cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	_, ok := repo.Get(cookies[0].Value)
	assert.True(t, ok)
}

func TestSession_ReusesKnownCookie(t *testing.T) {
	repo := repository.NewSessionRepository(time.Hour, time.Minute)
	r := newSessionRouter(repo)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	id := first.Body.String()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: id})
	second := httptest.NewRecorder()
	r.ServeHTTP(second, req)

	assert.Equal(t, id, second.Body.String())
	assert.Equal(t, 1, repo.Count())
}

func TestSession_UnknownCookieStartsFresh(t *testing.T) {
	repo := repository.NewSessionRepository(time.Hour, time.Minute)
	r := newSessionRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "expired"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.NotEqual(t, "expired", w.Body.String())
	assert.Equal(t, 1, repo.Count())
}
