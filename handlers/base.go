package handlers

import (
	"context"
	"net/http"

	"clinicfront/config"
	"clinicfront/middleware"
	"clinicfront/models"
	"clinicfront/services/runtimeconfig"
	"clinicfront/services/session"
	"clinicfront/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// base is shared by every page handler.
type base struct {
	cfg      config.Config
	sessions *session.Manager
	runtime  runtimeconfig.Source
	logger   *zap.Logger
}

func newBase(cfg config.Config, sessions *session.Manager, runtime runtimeconfig.Source, logger *zap.Logger) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{cfg: cfg, sessions: sessions, runtime: runtime, logger: logger}
}

// NavItem is one admin menu entry; empty Roles means every staff member.
type NavItem struct {
	Label string
	Href  string
	Roles []string
}

var adminNav = []NavItem{
	{Label: "Dashboard", Href: "/admin-panel"},
	{Label: "Queue", Href: "/admin-panel/queue"},
	{Label: "Live display", Href: "/admin-panel/queue-display"},
	{Label: "Queue reports", Href: "/admin-panel/queue-reports"},
	{Label: "Queue QR", Href: "/admin-panel/queue-qr"},
	{Label: "Hero", Href: "/admin-panel/manage/hero"},
	{Label: "Banners", Href: "/admin-panel/manage/banners"},
	{Label: "About page", Href: "/admin-panel/about"},
	{Label: "Services", Href: "/admin-panel/manage/services"},
	{Label: "Categories", Href: "/admin-panel/manage/categories"},
	{Label: "Locations", Href: "/admin-panel/manage/locations"},
	{Label: "Promos", Href: "/admin-panel/manage/promos"},
	{Label: "Blog", Href: "/admin-panel/manage/blog"},
	{Label: "Users", Href: "/admin-panel/manage/users", Roles: []string{models.RoleSuperuser, models.RoleOwner, models.RoleSupervisor}},
	{Label: "Profile", Href: "/admin-panel/profile"},
}

// NavFor filters the admin menu by role.
func NavFor(role string) []NavItem {
	out := make([]NavItem, 0, len(adminNav))
	for _, item := range adminNav {
		if len(item.Roles) == 0 {
			out = append(out, item)
			continue
		}
		for _, r := range item.Roles {
			if r == role {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// view assembles the data every layout expects, then merges data on top.
func (b *base) view(c *gin.Context, title string, data gin.H) gin.H {
	sess := middleware.CurrentSession(c)
	v := gin.H{
		"Title":     title,
		"Session":   sess,
		"Nav":       NavFor(sess.Role),
		"Path":      c.Request.URL.Path,
		"CSRF":      csrf.TemplateField(c.Request),
		"MediaBase": b.mediaBase(c.Request.Context()),
		"Flash":     b.popFlash(c, sess),
	}
	for k, val := range data {
		v[k] = val
	}
	return v
}

func (b *base) mediaBase(ctx context.Context) string {
	if b.runtime == nil {
		return ""
	}
	rt, err := b.runtime.Load(ctx)
	if err != nil {
		return ""
	}
	return rt.MediaBase()
}

func (b *base) popFlash(c *gin.Context, sess *models.Session) string {
	if sess.Flash == "" {
		return ""
	}
	msg := sess.PopFlash()
	b.save(c, sess)
	return msg
}

// flash stores a one-shot message shown on the next page.
func (b *base) flash(c *gin.Context, msg string) {
	sess := middleware.CurrentSession(c)
	sess.Flash = msg
	b.save(c, sess)
}

func (b *base) save(c *gin.Context, sess *models.Session) {
	if sess.ID == "" {
		return
	}
	if err := b.sessions.Save(c.Request.Context(), c.Writer, sess); err != nil {
		getLogger(c).Warn("session save failed", zap.Error(err))
	}
}

// seeOther is the redirect after every successful form post.
func seeOther(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

// AccessDenied renders in place for the route guard.
func (b *base) AccessDenied(c *gin.Context) {
	c.HTML(http.StatusForbidden, "access_denied", b.view(c, "Access Denied", nil))
}

// NotFound renders the 404 page, or a JSON error on the /api surface.
func (b *base) NotFound(c *gin.Context) {
	if utils.WantsJSON(c) {
		utils.JSONError(c, http.StatusNotFound, "Not found", c.Request.URL.Path)
		return
	}
	c.HTML(http.StatusNotFound, "not_found", b.view(c, "Not found", nil))
}

// RequireRuntime blocks with a "service unavailable" page until the runtime
// config can be loaded. The loader retries and caches, so this costs one
// lookup per request once it succeeded.
func (b *base) RequireRuntime() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := b.runtime.Load(c.Request.Context()); err != nil {
			getLogger(c).Error("runtime config unavailable", zap.Error(err))
			if utils.WantsJSON(c) {
				utils.JSONError(c, http.StatusServiceUnavailable, "Service unavailable", "runtime configuration could not be loaded")
				return
			}
			c.HTML(http.StatusServiceUnavailable, "unavailable", b.view(c, "Service unavailable", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}
