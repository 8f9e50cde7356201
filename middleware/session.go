package middleware

import (
	"time"

	"clinicfront/models"
	"clinicfront/services/clinicapi"
	"clinicfront/services/session"
	"clinicfront/utils"

	"github.com/gin-gonic/gin"
)

const sessionContextKey = "session"

// SessionMiddleware loads the caller's session into the gin context and
// exposes its token to the API client through the request context. Expired
// tokens are not forwarded; public pages keep working and the guard deals
// with the expiry on protected ones.
func SessionMiddleware(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Load(c.Request.Context(), c.Request)
		c.Set(sessionContextKey, sess)

		now := time.Now()
		for _, token := range []string{sess.Access, sess.PatientAccess} {
			if token != "" && !utils.TokenExpired(token, now) {
				c.Request = c.Request.WithContext(clinicapi.WithToken(c.Request.Context(), token))
				break
			}
		}
		c.Next()
	}
}

// CurrentSession returns the session loaded by SessionMiddleware.
func CurrentSession(c *gin.Context) *models.Session {
	if v, ok := c.Get(sessionContextKey); ok {
		if sess, ok := v.(*models.Session); ok {
			return sess
		}
	}
	return &models.Session{}
}

// UsePatientToken switches the request's API token to the patient token.
func UsePatientToken(c *gin.Context) {
	sess := CurrentSession(c)
	if sess.PatientAccess != "" {
		c.Request = c.Request.WithContext(clinicapi.WithToken(c.Request.Context(), sess.PatientAccess))
	}
}
