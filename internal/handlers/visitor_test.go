package handlers

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"socialguard/internal/visitors"
)

type notifierStub struct {
	mu     sync.Mutex
	visits []visitors.Visit
}

func (n *notifierStub) Notify(v visitors.Visit) {
	n.mu.Lock()
	n.visits = append(n.visits, v)
	n.mu.Unlock()
}

func TestRootHandlerRecordsVisit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	notifier := &notifierStub{}
	router := gin.New()
	router.GET("/", NewRootHandler(notifier).Handle)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK || resp.Body.String() != "Server is running" {
		t.Fatalf("unexpected response %d %q", resp.Code, resp.Body.String())
	}
	if len(notifier.visits) != 1 {
		t.Fatalf("expected one visit, got %d", len(notifier.visits))
	}
	v := notifier.visits[0]
	if v.IP != "203.0.113.7" || v.UserAgent != "Mozilla/5.0" || v.Timestamp.IsZero() {
		t.Fatalf("unexpected visit %+v", v)
	}
}

func TestRootHandlerWithoutNotifier(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", NewRootHandler(nil).Handle)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
