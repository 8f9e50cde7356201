package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"clinicfront/middleware"
	"clinicfront/models"
	"clinicfront/services/clinicapi"
	"clinicfront/services/queue"
	"clinicfront/utils"

	"github.com/gin-gonic/gin"
	"github.com/igm/sockjs-go/sockjs"
	"go.uber.org/zap"
)

// FeedAuth supplies the token the background queue feed polls with: the
// configured service token, otherwise the last unexpired staff token that
// opened a display.
type FeedAuth struct {
	static string
	last   atomic.Value
	warned atomic.Bool
	now    func() time.Time
	logger *zap.Logger
}

func NewFeedAuth(static string, logger *zap.Logger) *FeedAuth {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedAuth{static: static, now: time.Now, logger: logger}
}

func (a *FeedAuth) Remember(token string) {
	if token == "" || utils.TokenExpired(token, a.now()) {
		return
	}
	a.last.Store(token)
	a.warned.Store(false)
}

// Decorate keeps a token already on ctx and otherwise attaches the feed token.
// A remembered token that has expired since is not used.
func (a *FeedAuth) Decorate(ctx context.Context) context.Context {
	if clinicapi.TokenFromContext(ctx) != "" {
		return ctx
	}
	token := a.static
	if token == "" {
		last, _ := a.last.Load().(string)
		if last != "" && !utils.TokenExpired(last, a.now()) {
			token = last
		}
	}
	if token == "" {
		if !a.warned.Swap(true) {
			a.logger.Warn("queue feed has no usable token; set QUEUE_FEED_TOKEN or reopen a display")
		}
		return ctx
	}
	return clinicapi.WithToken(ctx, token)
}

// DisplayMessage is what both transports deliver to the display page.
type DisplayMessage struct {
	Snapshot models.QueueSnapshot `json:"snapshot"`
	Announce *queue.Announcement  `json:"announce"`
}

// DisplayHandler serves the live display and its two transports.
type DisplayHandler struct {
	base
	feed   *queue.Feed
	auth   *FeedAuth
	sockjs http.Handler
}

func NewDisplayHandler(b base, feed *queue.Feed, auth *FeedAuth) *DisplayHandler {
	h := &DisplayHandler{base: b, feed: feed, auth: auth}
	h.sockjs = sockjs.NewHandler("/realtime/queue", sockjs.DefaultOptions, h.serveSession)
	return h
}

func (h *DisplayHandler) announcer(last string) *queue.Announcer {
	return queue.NewAnnouncer(last, h.cfg.AnnounceDuration(), h.cfg.SoundPath)
}

// Page renders the fullscreen display with whatever the feed last saw.
func (h *DisplayHandler) Page(c *gin.Context) {
	h.auth.Remember(middleware.CurrentSession(c).Access)
	snap, _ := h.feed.Latest()
	c.HTML(http.StatusOK, "queue_display", h.view(c, "Live display", gin.H{
		"Snapshot": snap,
		"PollMS":   h.cfg.PollInterval().Milliseconds(),
		"Sound":    h.cfg.SoundPath,
	}))
}

// Snapshot is the polling fallback. last is the number the page announced
// most recently, so the announcement decision stays with the server.
func (h *DisplayHandler) Snapshot(c *gin.Context) {
	snap, err := h.feed.Current(c.Request.Context())
	if err != nil {
		getLogger(c).Warn("display snapshot failed", zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "Queue unavailable", clinicapi.ErrorMessage(err))
		return
	}
	msg := DisplayMessage{Snapshot: snap}
	if a, ok := h.announcer(c.Query("last")).Observe(snap); ok {
		msg.Announce = &a
	}
	c.JSON(http.StatusOK, msg)
}

// Realtime mounts the SockJS endpoint.
func (h *DisplayHandler) Realtime(c *gin.Context) {
	h.sockjs.ServeHTTP(c.Writer, c.Request)
}

// serveSession pushes every applied snapshot to one display until it goes away.
func (h *DisplayHandler) serveSession(session sockjs.Session) {
	logger := utils.GetLogger().With(zap.String("sockjs_session", session.ID()))
	// the handshake request may already be finished
	ctx, cancelLoad := context.WithTimeout(context.Background(), 3*time.Second)
	sess := h.sessions.Load(ctx, session.Request())
	cancelLoad()
	if sess.Access == "" || utils.TokenExpired(sess.Access, time.Now()) {
		_ = session.Close(4001, "sign in required")
		return
	}
	h.auth.Remember(sess.Access)

	updates, cancel := h.feed.Subscribe()
	defer cancel()
	logger.Info("display connected", zap.String("username", sess.Username))
	defer logger.Info("display disconnected")

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, err := session.Recv(); err != nil {
				return
			}
		}
	}()

	// seeded like the polling path so a reconnect does not replay the current call
	announcer := h.announcer(session.Request().URL.Query().Get("last"))
	for {
		select {
		case <-closed:
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			msg := DisplayMessage{Snapshot: snap}
			if a, ok := announcer.Observe(snap); ok {
				msg.Announce = &a
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Error("encode display message", zap.Error(err))
				continue
			}
			if err := session.Send(string(payload)); err != nil {
				return
			}
		}
	}
}
