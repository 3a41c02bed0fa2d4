package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRequestIDEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return engine
}

func TestRequestIDGenerated(t *testing.T) {
	engine := newRequestIDEngine()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	engine.ServeHTTP(w, req)

	if id := w.Header().Get(RequestIDKey); id == "" {
		t.Error("未携带请求 ID 时应自动生成")
	}
}

func TestRequestIDPreservesClientValue(t *testing.T) {
	engine := newRequestIDEngine()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDKey, "client-supplied-id")
	engine.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDKey); got != "client-supplied-id" {
		t.Errorf("请求 ID = %q, 应沿用客户端传入值", got)
	}
}

// 并发请求下生成的 ID 必须唯一且不触发数据竞争（配合 -race 运行）。
func TestRequestIDConcurrent(t *testing.T) {
	engine := newRequestIDEngine()

	const goroutines = 16
	const requestsPerGoroutine = 200

	var mu sync.Mutex
	seen := make(map[string]struct{}, goroutines*requestsPerGoroutine)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < requestsPerGoroutine; i++ {
				w := httptest.NewRecorder()
				req := httptest.NewRequest(http.MethodGet, "/ping", nil)
				engine.ServeHTTP(w, req)

				id := w.Header().Get(RequestIDKey)
				if id == "" {
					t.Error("并发请求不应生成空 ID")
					return
				}
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if got := len(seen); got != goroutines*requestsPerGoroutine {
		t.Errorf("唯一 ID 数量 = %d, want %d", got, goroutines*requestsPerGoroutine)
	}
}
