package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"clinicfront/middleware"
	"clinicfront/models"
	"clinicfront/services/clinicapi"
	"clinicfront/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthAPI is the login endpoint of the clinic API.
type AuthAPI interface {
	Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error)
}

// AuthHandler signs staff and patients in and out.
type AuthHandler struct {
	base
	api AuthAPI
}

func NewAuthHandler(b base, api AuthAPI) *AuthHandler {
	return &AuthHandler{base: b, api: api}
}

func (h *AuthHandler) StaffLoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "staff_login", h.view(c, "Staff login", gin.H{
		"Next": middleware.SafeNext(c.Query("next"), "/admin-panel"),
	}))
}

// StaffLogin stores the login result; bad credentials leave any existing
// session untouched.
func (h *AuthHandler) StaffLogin(c *gin.Context) {
	logger := getLogger(c)
	creds := models.Credentials{
		Username: strings.TrimSpace(c.PostForm("username")),
		Password: c.PostForm("password"),
	}
	next := middleware.SafeNext(c.PostForm("next"), "/admin-panel")

	res, err := h.login(c, creds)
	if err != nil {
		logger.Info("staff login failed", zap.String("username", creds.Username), zap.Error(err))
		c.HTML(http.StatusUnauthorized, "staff_login", h.view(c, "Staff login", gin.H{
			"Error":    loginErrorMessage(err),
			"Username": creds.Username,
			"Next":     next,
		}))
		return
	}

	sess := middleware.CurrentSession(c)
	if err := h.sessions.Login(c.Request.Context(), c.Writer, sess, res); err != nil {
		logger.Error("session save failed", zap.Error(err))
		c.HTML(http.StatusInternalServerError, "staff_login", h.view(c, "Staff login", gin.H{
			"Error": "Could not start your session. Please try again.",
			"Next":  next,
		}))
		return
	}
	logger.Info("staff signed in", zap.String("username", res.Username), zap.String("role", res.Role))
	seeOther(c, next)
}

func (h *AuthHandler) StaffLogout(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	if err := h.sessions.Logout(c.Request.Context(), c.Writer, sess); err != nil {
		getLogger(c).Warn("logout failed", zap.Error(err))
	}
	seeOther(c, middleware.StaffLoginPath)
}

func (h *AuthHandler) PatientLoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "patient_login", h.view(c, "Patient login", gin.H{
		"Next": middleware.SafeNext(c.Query("next"), "/patients-corner"),
	}))
}

func (h *AuthHandler) PatientLogin(c *gin.Context) {
	logger := getLogger(c)
	creds := models.Credentials{
		Username: strings.TrimSpace(c.PostForm("username")),
		Password: c.PostForm("password"),
	}
	next := middleware.SafeNext(c.PostForm("next"), "/patients-corner")

	res, err := h.login(c, creds)
	if err != nil {
		logger.Info("patient login failed", zap.Error(err))
		c.HTML(http.StatusUnauthorized, "patient_login", h.view(c, "Patient login", gin.H{
			"Error":    loginErrorMessage(err),
			"Username": creds.Username,
			"Next":     next,
		}))
		return
	}

	sess := middleware.CurrentSession(c)
	if err := h.sessions.PatientLogin(c.Request.Context(), c.Writer, sess, res, creds.Username); err != nil {
		logger.Error("session save failed", zap.Error(err))
		c.HTML(http.StatusInternalServerError, "patient_login", h.view(c, "Patient login", gin.H{
			"Error": "Could not start your session. Please try again.",
			"Next":  next,
		}))
		return
	}
	seeOther(c, next)
}

func (h *AuthHandler) PatientLogout(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	sess.PatientAccess, sess.PatientName, sess.QueueNumber = "", "", ""
	h.save(c, sess)
	seeOther(c, "/")
}

// login calls the API and fills role/username from the token when the
// response omits them.
func (h *AuthHandler) login(c *gin.Context, creds models.Credentials) (models.LoginResult, error) {
	if creds.Username == "" || creds.Password == "" {
		return models.LoginResult{}, errMissingCredentials
	}
	// no bearer token on the login call itself
	res, err := h.api.Login(clinicapi.WithToken(c.Request.Context(), ""), creds)
	if err != nil {
		return models.LoginResult{}, err
	}
	if res.Role == "" {
		res.Role = utils.TokenClaim(res.Access, "role")
	}
	if res.Username == "" {
		res.Username = utils.TokenClaim(res.Access, "username")
	}
	if res.Username == "" {
		res.Username = creds.Username
	}
	return res, nil
}

var errMissingCredentials = errors.New("username and password are required")

func loginErrorMessage(err error) string {
	switch {
	case errors.Is(err, errMissingCredentials):
		return "Enter your username and password."
	case errors.Is(err, clinicapi.ErrUnauthorized):
		return "Invalid username or password."
	default:
		return "Login is unavailable right now. Please try again."
	}
}
