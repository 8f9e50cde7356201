package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"clinicfront/middleware"
	"clinicfront/models"
	"clinicfront/services/clinicapi"
	"clinicfront/services/queue"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// ServiceLister feeds the service picker of the add form.
type ServiceLister interface {
	ListServices(ctx context.Context) ([]models.Service, error)
}

// ServiceGroup is one optgroup of the service picker.
type ServiceGroup struct {
	Category string
	Services []models.Service
}

// GroupServices groups by category label, keeping first-seen order.
func GroupServices(services []models.Service) []ServiceGroup {
	var groups []ServiceGroup
	index := map[string]int{}
	for _, s := range services {
		label := s.CategoryLabel()
		if label == "" {
			label = "Other"
		}
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, ServiceGroup{Category: label})
		}
		groups[i].Services = append(groups[i].Services, s)
	}
	return groups
}

// QueueHandler is the admin queue board.
type QueueHandler struct {
	base
	queue    *queue.Service
	services ServiceLister
}

func NewQueueHandler(b base, svc *queue.Service, services ServiceLister) *QueueHandler {
	return &QueueHandler{base: b, queue: svc, services: services}
}

const queueBoardPath = "/admin-panel/queue"

func (h *QueueHandler) Dashboard(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	if !sess.QueueStarted {
		c.HTML(http.StatusOK, "queue_gate", h.view(c, "Queue", nil))
		return
	}

	logger := getLogger(c)
	data := gin.H{"PollMS": h.cfg.PollInterval().Milliseconds(), "Form": map[string]string{}}

	entries, err := h.queue.List(c.Request.Context())
	if err != nil {
		logger.Warn("queue list failed", zap.Error(err))
		data["Error"] = clinicapi.ErrorMessage(err)
	}
	data["Entries"] = entries

	if services, err := h.services.ListServices(c.Request.Context()); err != nil {
		logger.Warn("service list failed", zap.Error(err))
	} else {
		data["ServiceGroups"] = GroupServices(services)
	}
	c.HTML(http.StatusOK, "queue_dashboard", h.view(c, "Queue", data))
}

// Start opens the board for this session.
func (h *QueueHandler) Start(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	sess.QueueStarted = true
	h.save(c, sess)
	seeOther(c, queueBoardPath)
}

// Rows is the table body the board script polls.
func (h *QueueHandler) Rows(c *gin.Context) {
	entries, err := h.queue.List(c.Request.Context())
	if err != nil {
		getLogger(c).Warn("queue rows refresh failed", zap.Error(err))
		c.Status(http.StatusBadGateway)
		return
	}
	c.HTML(http.StatusOK, "queue_rows", gin.H{
		"Entries": entries,
		"CSRF":    csrf.TemplateField(c.Request),
	})
}

func (h *QueueHandler) Add(c *gin.Context) {
	logger := getLogger(c)
	in := models.QueueEntryInput{
		Name:            c.PostForm("name"),
		Notes:           strings.TrimSpace(c.PostForm("notes")),
		Priority:        models.Priority(c.PostForm("priority")),
		SelectedService: strings.TrimSpace(c.PostForm("selected_service")),
	}
	if raw := strings.TrimSpace(c.PostForm("age")); raw != "" {
		age, err := strconv.Atoi(raw)
		if err != nil || age < 0 {
			h.flash(c, "Age must be a whole number.")
			seeOther(c, queueBoardPath)
			return
		}
		in.Age = &age
	}

	entry, err := h.queue.Add(c.Request.Context(), in)
	switch {
	case errors.Is(err, queue.ErrNameRequired):
		h.flash(c, "Name is required.")
	case err != nil:
		logger.Error("queue add failed", zap.Error(err))
		h.flash(c, "Could not add the patient: "+clinicapi.ErrorMessage(err))
	default:
		h.flash(c, "Added "+entry.Name+" as "+entry.QueueNumber.String()+".")
	}
	seeOther(c, queueBoardPath)
}

var actionLabels = map[string]string{
	queue.ActionServe:  "serve",
	queue.ActionDone:   "complete",
	queue.ActionNoShow: "mark as no-show",
	queue.ActionDelete: "delete",
}

// Action runs serve / done / no_show / delete on one entry. Delete asks for
// confirmation first.
func (h *QueueHandler) Action(c *gin.Context) {
	action := c.Param("action")
	id := models.ID(c.Param("id"))
	from := models.QueueStatus(c.PostForm("from"))
	if !queue.KnownAction(action) {
		h.NotFound(c)
		return
	}

	if action == queue.ActionDelete && c.PostForm("confirm") != "yes" {
		c.HTML(http.StatusOK, "confirm", h.view(c, "Delete entry", gin.H{
			"Question": "Delete this queue entry? This cannot be undone.",
			"Action":   c.Request.URL.Path,
			"Hidden":   map[string]string{"from": string(from)},
			"Back":     queueBoardPath,
		}))
		return
	}

	if err := h.queue.Apply(c.Request.Context(), action, id, from); err != nil {
		getLogger(c).Warn("queue action failed",
			zap.String("action", action), zap.String("id", id.String()), zap.Error(err))
		h.flash(c, "Could not "+actionLabels[action]+" the entry: "+clinicapi.ErrorMessage(err))
	}
	seeOther(c, queueBoardPath)
}

func (h *QueueHandler) Clear(c *gin.Context) {
	if c.PostForm("confirm") != "yes" {
		c.HTML(http.StatusOK, "confirm", h.view(c, "Clear queue", gin.H{
			"Question": "Remove every entry from the queue, whatever its status?",
			"Action":   c.Request.URL.Path,
			"Back":     queueBoardPath,
		}))
		return
	}
	if err := h.queue.Clear(c.Request.Context()); err != nil {
		getLogger(c).Error("queue clear failed", zap.Error(err))
		h.flash(c, "Could not clear the queue: "+clinicapi.ErrorMessage(err))
	} else {
		h.flash(c, "Queue cleared.")
	}
	seeOther(c, queueBoardPath)
}
