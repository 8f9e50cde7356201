package handlers

import (
	"net/http"
	"time"

	"clinicfront/services/queue"
	"clinicfront/services/runtimeconfig"
	"clinicfront/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the monitor's last snapshot plus live feed state.
type HealthHandler struct {
	loader *runtimeconfig.Loader
	feed   *queue.Feed
}

func NewHealthHandler(loader *runtimeconfig.Loader, feed *queue.Feed) *HealthHandler {
	return &HealthHandler{loader: loader, feed: feed}
}

type healthResponse struct {
	utils.HealthStatus
	RuntimeLoaded   bool       `json:"runtimeLoaded"`
	APIBase         string     `json:"apiBase,omitempty"`
	LastFeedPoll    *time.Time `json:"lastFeedPoll,omitempty"`
	FeedRunning     bool       `json:"feedRunning"`
	FeedSubscribers int        `json:"feedSubscribers"`
}

func (h *HealthHandler) Check(c *gin.Context) {
	resp := healthResponse{HealthStatus: utils.GetHealthStatus()}
	if rt, ok := h.loader.Cached(); ok {
		resp.RuntimeLoaded = true
		resp.APIBase = rt.APIBase()
	}
	if h.feed != nil {
		if last := h.feed.LastPoll(); !last.IsZero() {
			resp.LastFeedPoll = &last
		}
		resp.FeedRunning = h.feed.Running()
		resp.FeedSubscribers = h.feed.Subscribers()
	}

	status := http.StatusOK
	if !resp.Healthy || !resp.RuntimeLoaded {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
