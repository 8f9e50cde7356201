package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"clinicfront/services/session"
	"clinicfront/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	StaffLoginPath   = "/admin-panel/login"
	PatientLoginPath = "/patient-login"
)

// Guard gates pages on the stored session. The clinic API still authorizes
// every call; this only keeps signed-out users away from pages that would fail.
type Guard struct {
	sessions *session.Manager
	denied   gin.HandlerFunc
	now      func() time.Time
	logger   *zap.Logger
}

// NewGuard wires a guard. denied renders the Access Denied page; it is called
// after the status has been set to 403.
func NewGuard(sessions *session.Manager, denied gin.HandlerFunc, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if denied == nil {
		denied = func(c *gin.Context) { c.String(http.StatusForbidden, "Access Denied") }
	}
	return &Guard{sessions: sessions, denied: denied, now: time.Now, logger: logger}
}

// SetClock replaces the time source used for expiry checks.
func (g *Guard) SetClock(now func() time.Time) { g.now = now }

// RequireStaff admits a signed-in staff member with a live token whose role
// is in roles. An empty role list admits any staff member.
func (g *Guard) RequireStaff(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)

		if sess.Access == "" {
			g.reject(c, StaffLoginPath, "Sign in required")
			return
		}

		if utils.TokenExpired(sess.Access, g.now()) {
			g.logger.Info("staff token expired, clearing session", zap.String("username", sess.Username))
			if err := g.sessions.Clear(c.Request.Context(), c.Writer, sess); err != nil {
				g.logger.Warn("session clear failed", zap.Error(err))
			}
			g.reject(c, StaffLoginPath, "Session expired")
			return
		}

		if len(roles) > 0 && !hasRole(roles, sess.Role) {
			g.logger.Info("role denied",
				zap.String("username", sess.Username),
				zap.String("role", sess.Role),
				zap.String("path", c.Request.URL.Path))
			if utils.WantsJSON(c) {
				utils.JSONError(c, http.StatusForbidden, "Access Denied", "role not permitted")
				return
			}
			c.Status(http.StatusForbidden)
			g.denied(c)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequirePatient admits a signed-in patient with a live token.
func (g *Guard) RequirePatient() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if sess.PatientAccess == "" {
			g.reject(c, PatientLoginPath, "Sign in required")
			return
		}
		if utils.TokenExpired(sess.PatientAccess, g.now()) {
			g.logger.Info("patient token expired, clearing session")
			if err := g.sessions.Clear(c.Request.Context(), c.Writer, sess); err != nil {
				g.logger.Warn("session clear failed", zap.Error(err))
			}
			g.reject(c, PatientLoginPath, "Session expired")
			return
		}
		UsePatientToken(c)
		c.Next()
	}
}

func (g *Guard) reject(c *gin.Context, loginPath, reason string) {
	if utils.WantsJSON(c) {
		utils.JSONError(c, http.StatusUnauthorized, reason, "")
		return
	}
	c.Redirect(http.StatusSeeOther, LoginRedirect(loginPath, c.Request.URL.RequestURI()))
	c.Abort()
}

// LoginRedirect builds the login URL carrying the page to return to.
func LoginRedirect(loginPath, next string) string {
	if next == "" || next == loginPath {
		return loginPath
	}
	return loginPath + "?next=" + url.QueryEscape(next)
}

// SafeNext keeps post-login redirects on this site.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
