package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"clinicfront/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager is the single owner of session state. Handlers never touch the
// cookie or the store directly.
type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
	secure     bool
	logger     *zap.Logger
}

type ManagerConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
	Logger     *zap.Logger
}

func NewManager(store Store, cfg ManagerConfig) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "clinic_session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Manager{
		store:      store,
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
		logger:     cfg.Logger,
	}
}

func (m *Manager) Store() Store { return m.store }

// Load returns the caller's session, or a fresh unsaved one.
func (m *Manager) Load(ctx context.Context, r *http.Request) *models.Session {
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		sess, err := m.store.Get(ctx, cookie.Value)
		if err == nil {
			return sess
		}
		if !errors.Is(err, ErrNotFound) {
			m.logger.Warn("session load failed", zap.Error(err))
		}
	}
	return &models.Session{ID: uuid.NewString()}
}

// Save persists sess and (re)issues the cookie.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, sess *models.Session) error {
	sess.UpdatedAt = time.Now()
	if err := m.store.Save(ctx, sess, m.ttl); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Login stores a staff login result.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, sess *models.Session, res models.LoginResult) error {
	sess.Access = res.Access
	sess.Refresh = res.Refresh
	sess.Role = res.Role
	sess.Username = res.Username
	return m.Save(ctx, w, sess)
}

// PatientLogin stores a patient login result under the patient keys.
func (m *Manager) PatientLogin(ctx context.Context, w http.ResponseWriter, sess *models.Session, res models.LoginResult, name string) error {
	sess.PatientAccess = res.Access
	sess.PatientName = name
	if res.Username != "" {
		sess.PatientName = res.Username
	}
	return m.Save(ctx, w, sess)
}

// Logout drops the staff keys and keeps patient state.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, sess *models.Session) error {
	sess.ClearStaff()
	return m.Save(ctx, w, sess)
}

// Clear wipes every key, deletes the stored session and expires the cookie.
func (m *Manager) Clear(ctx context.Context, w http.ResponseWriter, sess *models.Session) error {
	sess.ClearAll()
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return m.store.Delete(ctx, sess.ID)
}
