package handlers

import (
	"net/http"
	"time"

	"clinicfront/middleware"
	"clinicfront/services/clinicapi"
	"clinicfront/services/queue"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JoinHandler serves the public join flow and the patient tracker.
type JoinHandler struct {
	base
	queue *queue.Service
	feed  *queue.Feed
}

func NewJoinHandler(b base, svc *queue.Service, feed *queue.Feed) *JoinHandler {
	return &JoinHandler{base: b, queue: svc, feed: feed}
}

// JoinPage submits itself once to obtain a number.
func (h *JoinHandler) JoinPage(c *gin.Context) {
	c.HTML(http.StatusOK, "queue_join", h.view(c, "Join the queue", nil))
}

// Join creates one entry under the default participant name and redirects to
// the ticket, so reloading the ticket never creates a second entry.
func (h *JoinHandler) Join(c *gin.Context) {
	logger := getLogger(c)
	entry, err := h.queue.Join(c.Request.Context(), h.cfg.QueueJoinName)
	if err != nil {
		logger.Error("queue join failed", zap.Error(err))
		c.HTML(http.StatusBadGateway, "queue_join", h.view(c, "Join the queue", gin.H{
			"Error": "We could not get you a number: " + clinicapi.ErrorMessage(err),
		}))
		return
	}

	sess := middleware.CurrentSession(c)
	sess.QueueNumber = entry.QueueNumber.String()
	h.save(c, sess)
	logger.Info("patient joined queue", zap.String("queue_number", sess.QueueNumber))
	seeOther(c, "/queue-join/ticket")
}

func (h *JoinHandler) Ticket(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	if sess.QueueNumber == "" {
		seeOther(c, "/queue-join")
		return
	}
	c.HTML(http.StatusOK, "queue_ticket", h.view(c, "Your number", gin.H{"Number": sess.QueueNumber}))
}

// PatientsCorner compares the serving number with the patient's own.
func (h *JoinHandler) PatientsCorner(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	refresh := int(h.cfg.PollInterval() / time.Second)
	if refresh < 1 {
		refresh = 1
	}
	data := gin.H{"Mine": sess.QueueNumber, "RefreshSeconds": refresh}

	snap, err := h.feed.Current(c.Request.Context())
	if err != nil {
		getLogger(c).Warn("patients corner queue fetch failed", zap.Error(err))
		data["Error"] = clinicapi.ErrorMessage(err)
	} else {
		serving := snap.ServingNumber()
		data["Serving"] = serving
		data["Stale"] = snap.Stale
		data["FetchedAt"] = snap.FetchedAt
		data["YourTurn"] = sess.QueueNumber != "" && serving == sess.QueueNumber
		for i, e := range snap.Waiting {
			if e.QueueNumber.String() == sess.QueueNumber {
				data["Position"] = i + 1
				break
			}
		}
	}
	c.HTML(http.StatusOK, "patients_corner", h.view(c, "Patients corner", data))
}
