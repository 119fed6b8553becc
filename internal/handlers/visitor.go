package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"socialguard/internal/visitors"
	"socialguard/pkg/middleware"
)

type RootHandler struct {
	notifier VisitorNotifier
}

func NewRootHandler(notifier VisitorNotifier) *RootHandler {
	return &RootHandler{notifier: notifier}
}

// Handle answers the liveness page and records the visit in the background.
func (h *RootHandler) Handle(c *gin.Context) {
	if h.notifier != nil {
		h.notifier.Notify(visitors.Visit{
			IP:        middleware.ClientIP(c),
			UserAgent: c.Request.UserAgent(),
			Timestamp: time.Now().UTC(),
		})
	}

	c.String(http.StatusOK, "Server is running")
}
