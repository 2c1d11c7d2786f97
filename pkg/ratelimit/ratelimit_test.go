package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestDefaultActivationConfig(t *testing.T) {
	cfg := DefaultActivationConfig()
	assert.Equal(t, float64(5), cfg.Rate)
	assert.Equal(t, 10, cfg.Burst)
	assert.Equal(t, time.Minute, cfg.CleanupInterval)
	assert.Equal(t, 5*time.Minute, cfg.MaxAge)
}

func TestNew(t *testing.T) {
	t.Run("creates limiter with config", func(t *testing.T) {
		rl := New(Config{Rate: 10, Burst: 20, CleanupInterval: time.Second, MaxAge: time.Minute})
		defer rl.Stop()

		assert.Equal(t, float64(10), rl.Config().Rate)
		assert.Equal(t, 20, rl.Config().Burst)
	})

	t.Run("fills defaults", func(t *testing.T) {
		rl := New(Config{Rate: 10})
		defer rl.Stop()

		assert.Equal(t, time.Minute, rl.Config().CleanupInterval)
		assert.Equal(t, 5*time.Minute, rl.Config().MaxAge)
		assert.Equal(t, 1, rl.Config().Burst)
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		rl := New(Config{Rate: 1})
		rl.Stop()
		rl.Stop()
	})
}

func TestAllow(t *testing.T) {
	t.Run("allows requests within burst limit then blocks", func(t *testing.T) {
		rl := New(Config{Rate: 1, Burst: 5, CleanupInterval: time.Hour, MaxAge: time.Hour})
		defer rl.Stop()

		for i := 0; i < 5; i++ {
			assert.True(t, rl.Allow("local"), "request %d should be allowed", i)
		}
		assert.False(t, rl.Allow("local"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		rl := New(Config{Rate: 1, Burst: 1, CleanupInterval: time.Hour, MaxAge: time.Hour})
		defer rl.Stop()

		assert.True(t, rl.Allow("a"))
		assert.False(t, rl.Allow("a"))
		assert.True(t, rl.Allow("b"))
		assert.Equal(t, 2, rl.Len())
	})

	t.Run("zero rate disables limiting", func(t *testing.T) {
		rl := New(Config{Rate: 0, Burst: 1})
		defer rl.Stop()

		for i := 0; i < 100; i++ {
			require.True(t, rl.Allow("local"))
		}
		assert.Equal(t, 0, rl.Len())
	})

	t.Run("concurrent access", func(t *testing.T) {
		rl := New(Config{Rate: 1000, Burst: 1000, CleanupInterval: time.Hour, MaxAge: time.Hour})
		defer rl.Stop()

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = rl.Allow("local")
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, rl.Len())
	})
}

func TestCleanupStaleEntries(t *testing.T) {
	rl := New(Config{Rate: 1, Burst: 1, CleanupInterval: time.Hour, MaxAge: time.Millisecond})
	defer rl.Stop()

	rl.Allow("a")
	time.Sleep(5 * time.Millisecond)
	rl.cleanupStaleEntries()
	assert.Equal(t, 0, rl.Len())
}

func TestMiddleware(t *testing.T) {
	rl := New(Config{Rate: 1, Burst: 2, CleanupInterval: time.Hour, MaxAge: time.Hour})
	defer rl.Stop()

	engine := gin.New()
	engine.Use(rl.Middleware(func(*gin.Context) string { return "fixed" }))
	engine.POST("/v1/activations", func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/activations", nil)
		engine.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusAccepted, http.StatusAccepted, http.StatusTooManyRequests}, codes)
}

func TestPeerKey(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = ""
	assert.Equal(t, "local", PeerKey(c))

	c.Request.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1", PeerKey(c))
}
