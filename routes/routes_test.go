package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"clinicfront/config"
	"clinicfront/handlers"
	"clinicfront/middleware"
	"clinicfront/services/clinicapi"
	"clinicfront/services/content"
	"clinicfront/services/queue"
	"clinicfront/services/runtimeconfig"
	"clinicfront/services/session"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClinic stands in for the clinic API and serves the runtime config. Its
// queue is stateful so dashboard actions show up on the display and reports.
type fakeClinic struct {
	srv *httptest.Server

	mu          sync.Mutex
	joins       int
	posts       []string
	reportQuery url.Values
	role        string
	queue       []map[string]any
	served      []map[string]any
	lastNumber  int
	lastID      int
}

func newFakeClinic(t *testing.T) *fakeClinic {
	t.Helper()
	f := &fakeClinic{
		role: "supervisor",
		queue: []map[string]any{
			{"id": 1, "queue_number": "A001", "name": "Guest", "status": "serving", "priority": "regular"},
			{"id": 2, "queue_number": "A002", "name": "Guest", "status": "waiting", "priority": "regular"},
		},
		lastNumber: 2,
		lastID:     2,
	}
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
				return
			}
			next(w, r)
		}
	}
	// mutate records the call and runs fn under the lock.
	mutate := func(fn func(w http.ResponseWriter, r *http.Request)) http.HandlerFunc {
		return authed(func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.posts = append(f.posts, r.Method+" "+r.URL.Path)
			fn(w, r)
		})
	}

	mux.HandleFunc("GET /config.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"backend_url": f.srv.URL})
	})
	mux.HandleFunc("POST /api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		var creds struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
			return
		}
		f.mu.Lock()
		role := f.role
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{
			"access": liveToken(t), "refresh": "r", "role": role, "username": creds.Username,
		})
	})
	mux.HandleFunc("POST /api/queue-join/", func(w http.ResponseWriter, r *http.Request) {
		var in struct{ Name string }
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		f.joins++
		entry := f.enqueueLocked(in.Name, "regular")
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, entry)
	})
	mux.HandleFunc("GET /api/queue/{$}", authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.queue)
	}))
	mux.HandleFunc("POST /api/queue/{$}", mutate(func(w http.ResponseWriter, r *http.Request) {
		var in struct{ Name, Priority string }
		_ = json.NewDecoder(r.Body).Decode(&in)
		writeJSON(w, http.StatusCreated, f.enqueueLocked(in.Name, in.Priority))
	}))
	mux.HandleFunc("PATCH /api/queue/{id}/{$}", mutate(func(w http.ResponseWriter, r *http.Request) {
		var in struct{ Status string }
		_ = json.NewDecoder(r.Body).Decode(&in)
		i := f.findLocked(r.PathValue("id"))
		if i < 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		f.queue[i]["status"] = in.Status
		f.posts[len(f.posts)-1] += " " + in.Status
		writeJSON(w, http.StatusOK, f.queue[i])
	}))
	mux.HandleFunc("POST /api/queue/serve/{id}/{$}", mutate(func(w http.ResponseWriter, r *http.Request) {
		i := f.findLocked(r.PathValue("id"))
		if i < 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		if f.queue[i]["status"] != "serving" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Entry is not being served."})
			return
		}
		entry := f.queue[i]
		entry["status"] = "done"
		entry["served_at"] = time.Now().Format(time.RFC3339)
		f.queue = append(f.queue[:i], f.queue[i+1:]...)
		f.served = append(f.served, entry)
		writeJSON(w, http.StatusOK, entry)
	}))
	mux.HandleFunc("DELETE /api/queue/clear/{$}", mutate(func(w http.ResponseWriter, r *http.Request) {
		f.queue = nil
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("DELETE /api/queue/{id}/{$}", mutate(func(w http.ResponseWriter, r *http.Request) {
		if i := f.findLocked(r.PathValue("id")); i >= 0 {
			f.queue = append(f.queue[:i], f.queue[i+1:]...)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("GET /api/queue/reports/", authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.reportQuery = r.URL.Query()
		rows := []map[string]any{
			{"id": 9, "queue_number": "B001", "name": "Wanjiru, M", "age": 34, "priority": "priority",
				"selected_service": "Scan", "notes": `said "hi"`, "served_at": "2026-10-16T09:30:00"},
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": append(rows, f.served...)})
	}))
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			f.mu.Lock()
			f.posts = append(f.posts, r.Method+" "+r.URL.Path)
			f.mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{})
			return
		}
		writeJSON(w, http.StatusOK, []any{})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeClinic) enqueueLocked(name, priority string) map[string]any {
	f.lastNumber++
	f.lastID++
	entry := map[string]any{
		"id": f.lastID, "queue_number": fmt.Sprintf("A%03d", f.lastNumber),
		"name": name, "status": "waiting", "priority": priority,
	}
	f.queue = append(f.queue, entry)
	return entry
}

func (f *fakeClinic) findLocked(id string) int {
	for i, e := range f.queue {
		if fmt.Sprint(e["id"]) == id {
			return i
		}
	}
	return -1
}

// calls returns the recorded mutations and forgets them.
func (f *fakeClinic) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.posts
	f.posts = nil
	return out
}

func liveToken(t *testing.T) string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

// stack is the full router behind a real listener with a cookie-keeping client.
type stack struct {
	clinic *fakeClinic
	srv    *httptest.Server
	client *http.Client
}

func newStack(t *testing.T, configURL string) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Config{
		SessionCookie:     "clinic_session",
		QueueJoinName:     "Guest",
		QueuePollMS:       3000,
		QueueAnnounceMS:   4000,
		SoundPath:         "/callnext.mp3",
		CORSOrigins:       "*",
		MaxRequestsPerMin: 1000,
	}

	loader := runtimeconfig.NewLoader(runtimeconfig.Options{URL: configURL, MaxTries: 1})
	api := clinicapi.New(loader, clinicapi.WithTimeout(2*time.Second))
	sessions := session.NewManager(session.NewMemoryStore(), session.ManagerConfig{CookieName: cfg.SessionCookie})
	feedAuth := handlers.NewFeedAuth("", nil)
	feed := queue.NewFeed(api, queue.FeedConfig{Interval: cfg.PollInterval(), Decorate: feedAuth.Decorate})

	hb := handlers.NewHandlerBundle(handlers.Deps{
		Config:   cfg,
		Sessions: sessions,
		Loader:   loader,
		API:      api,
		Queue:    queue.NewService(api, feed, nil),
		Feed:     feed,
		FeedAuth: feedAuth,
		Content:  content.NewManager(api, nil, nil),
	})
	tmpl, err := handlers.LoadTemplates()
	require.NoError(t, err)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(middleware.SessionMiddleware(sessions))
	RegisterRoutes(r, hb, cfg, middleware.NewRateLimiter(cfg.MaxRequestsPerMin).Middleware())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &stack{
		srv: srv,
		client: &http.Client{
			Jar:           jar,
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	}
}

func newClinicStack(t *testing.T) *stack {
	clinic := newFakeClinic(t)
	s := newStack(t, clinic.srv.URL+"/config.json")
	s.clinic = clinic
	return s
}

func (s *stack) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	res, err := s.client.Get(s.srv.URL + path)
	require.NoError(t, err)
	return res, readBody(t, res)
}

func (s *stack) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	res, err := s.client.PostForm(s.srv.URL+path, form)
	require.NoError(t, err)
	return res, readBody(t, res)
}

func (s *stack) login(t *testing.T) {
	t.Helper()
	res, _ := s.post(t, "/admin-panel/login", url.Values{"username": {"amina"}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(data)
}

func TestGuardedPageRedirectsToLogin(t *testing.T) {
	s := newClinicStack(t)
	res, _ := s.get(t, "/admin-panel/queue")
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/admin-panel/login?next=%2Fadmin-panel%2Fqueue", res.Header.Get("Location"))
}

func TestLoginRedirectsToNext(t *testing.T) {
	s := newClinicStack(t)
	res, _ := s.post(t, "/admin-panel/login", url.Values{
		"username": {"amina"}, "password": {"secret"}, "next": {"/admin-panel/queue"},
	})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/admin-panel/queue", res.Header.Get("Location"))

	res, body := s.get(t, "/admin-panel/queue")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Start the day")
}

func TestLoginRejectsOffsiteNext(t *testing.T) {
	s := newClinicStack(t)
	res, _ := s.post(t, "/admin-panel/login", url.Values{
		"username": {"amina"}, "password": {"secret"}, "next": {"//evil.example.com"},
	})
	assert.Equal(t, "/admin-panel", res.Header.Get("Location"))
}

func TestBadCredentialsRerenderLogin(t *testing.T) {
	s := newClinicStack(t)
	res, body := s.post(t, "/admin-panel/login", url.Values{"username": {"amina"}, "password": {"nope"}})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, body, `role="alert"`)
	assert.Contains(t, body, `value="amina"`)

	res, _ = s.get(t, "/admin-panel")
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
}

func TestJoinCreatesOneEntryPerSubmit(t *testing.T) {
	s := newClinicStack(t)
	res, _ := s.post(t, "/queue-join", nil)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/queue-join/ticket", res.Header.Get("Location"))

	for i := 0; i < 3; i++ {
		res, body := s.get(t, "/queue-join/ticket")
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, "A003")
	}
	s.clinic.mu.Lock()
	defer s.clinic.mu.Unlock()
	assert.Equal(t, 1, s.clinic.joins)
}

func TestStaffRoleDeniedUserManager(t *testing.T) {
	s := newClinicStack(t)
	s.clinic.role = "staff"
	s.login(t)

	res, body := s.get(t, "/admin-panel/manage/users")
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Empty(t, res.Header.Get("Location"))
	assert.Contains(t, body, "Access Denied")

	res, _ = s.get(t, "/admin-panel/manage/banners")
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestReportExportIsQuotedCSV(t *testing.T) {
	s := newClinicStack(t)
	s.login(t)

	res, body := s.get(t, "/admin-panel/queue-reports/export.csv?date=yesterday&q=nomatch")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, res.Header.Get("Content-Disposition"), "attachment")

	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Queue Number,Name,Age,Priority,Service,Notes,Served At", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], `"Wanjiru, M"`)
	assert.Contains(t, lines[1], `"said ""hi"""`)

	s.clinic.mu.Lock()
	defer s.clinic.mu.Unlock()
	assert.Equal(t, "yesterday", s.clinic.reportQuery.Get("date"))
}

func TestContentFormErrorsRerenderWithoutCallingAPI(t *testing.T) {
	s := newClinicStack(t)
	s.login(t)

	res, body := s.post(t, "/admin-panel/manage/services", url.Values{"price": {"abc"}, "description": {"kept"}})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, body, "Name is required")
	assert.Contains(t, body, "Price must be a number")
	assert.Contains(t, body, "kept")

	s.clinic.mu.Lock()
	defer s.clinic.mu.Unlock()
	assert.Empty(t, s.clinic.posts)
}

func TestContentSaveRedirectsToList(t *testing.T) {
	s := newClinicStack(t)
	s.login(t)

	res, _ := s.post(t, "/admin-panel/manage/locations", url.Values{"name": {"Westlands"}, "address": {"Ring Rd"}})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/admin-panel/manage/locations", res.Header.Get("Location"))

	s.clinic.mu.Lock()
	defer s.clinic.mu.Unlock()
	assert.Equal(t, []string{"POST /api/locations/"}, s.clinic.posts)
}

func TestDisplayFallbackNeedsStaffToken(t *testing.T) {
	s := newClinicStack(t)
	res, body := s.get(t, "/api/queue/display")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, body, `"message"`)

	s.login(t)
	res, body = s.get(t, "/api/queue/display")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var msg handlers.DisplayMessage
	require.NoError(t, json.Unmarshal([]byte(body), &msg))
	require.NotNil(t, msg.Snapshot.Serving)
	assert.Equal(t, "A001", msg.Snapshot.Serving.QueueNumber.String())
}

func TestPublicPagesRenderEmptyStates(t *testing.T) {
	s := newClinicStack(t)
	for _, path := range []string{"/", "/about", "/services", "/services/maternity", "/blog", "/locations", "/promos"} {
		res, _ := s.get(t, path)
		assert.Equal(t, http.StatusOK, res.StatusCode, path)
	}
}

func TestUnknownPathsAndAdminAlias(t *testing.T) {
	s := newClinicStack(t)
	res, _ := s.get(t, "/nowhere")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = s.get(t, "/blog/missing-post")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = s.get(t, "/admin")
	assert.Equal(t, http.StatusMovedPermanently, res.StatusCode)
	assert.Equal(t, "/admin-panel", res.Header.Get("Location"))
}

func TestRuntimeConfigUnavailable(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	s := newStack(t, dead.URL+"/config.json")

	res, body := s.get(t, "/")
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	assert.NotEmpty(t, body)

	res, _ = s.get(t, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}

// visitor is a second browser against the same server.
func (s *stack) visitor(t *testing.T) *stack {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &stack{clinic: s.clinic, srv: s.srv, client: &http.Client{
		Jar:           jar,
		CheckRedirect: s.client.CheckRedirect,
	}}
}

func (s *stack) startDay(t *testing.T) {
	t.Helper()
	res, _ := s.post(t, "/admin-panel/queue/start", nil)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	require.Equal(t, "/admin-panel/queue", res.Header.Get("Location"))
}

func (s *stack) display(t *testing.T, last string) handlers.DisplayMessage {
	t.Helper()
	res, body := s.get(t, "/api/queue/display?last="+url.QueryEscape(last))
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var msg handlers.DisplayMessage
	require.NoError(t, json.Unmarshal([]byte(body), &msg))
	return msg
}

func TestQueueBoardOpensAfterStartingTheDay(t *testing.T) {
	s := newClinicStack(t)
	s.login(t)

	res, body := s.get(t, "/admin-panel/queue")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Start the day")
	assert.NotContains(t, body, "Add patient")

	s.startDay(t)
	res, body = s.get(t, "/admin-panel/queue")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Add patient")
	assert.Contains(t, body, "A001")
	assert.Contains(t, body, "A002")
}

func TestQueueAddValidatesBeforeCallingAPI(t *testing.T) {
	s := newClinicStack(t)
	s.login(t)
	s.startDay(t)

	res, _ := s.post(t, "/admin-panel/queue/add", url.Values{"name": {"   "}})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	_, body := s.get(t, "/admin-panel/queue")
	assert.Contains(t, body, "Name is required.")

	s.post(t, "/admin-panel/queue/add", url.Values{"name": {"Jane"}, "age": {"forty"}})
	_, body = s.get(t, "/admin-panel/queue")
	assert.Contains(t, body, "Age must be a whole number.")
	assert.Empty(t, s.clinic.calls())

	s.post(t, "/admin-panel/queue/add", url.Values{"name": {"Jane"}, "age": {"40"}, "priority": {"priority"}})
	assert.Equal(t, []string{"POST /api/queue/"}, s.clinic.calls())
	_, body = s.get(t, "/admin-panel/queue")
	assert.Contains(t, body, "Added Jane as A003.")
	assert.Contains(t, body, `class="waiting priority"`)
}

func TestQueueActionsMapToClinicEndpoints(t *testing.T) {
	s := newClinicStack(t)
	s.login(t)
	s.startDay(t)

	act := func(path, from string) {
		t.Helper()
		res, _ := s.post(t, path, url.Values{"from": {from}})
		require.Equal(t, http.StatusSeeOther, res.StatusCode, path)
		assert.Equal(t, "/admin-panel/queue", res.Header.Get("Location"))
	}

	act("/admin-panel/queue/2/serve", "waiting")
	assert.Equal(t, []string{"PATCH /api/queue/2/ serving"}, s.clinic.calls())

	act("/admin-panel/queue/2/no_show", "serving")
	assert.Equal(t, []string{"PATCH /api/queue/2/ no_show"}, s.clinic.calls())

	act("/admin-panel/queue/1/done", "serving")
	assert.Equal(t, []string{"POST /api/queue/serve/1/"}, s.clinic.calls())

	// done outside the workflow is still forwarded; the API's refusal is shown
	act("/admin-panel/queue/2/done", "no_show")
	assert.Equal(t, []string{"POST /api/queue/serve/2/"}, s.clinic.calls())
	res, body := s.get(t, "/admin-panel/queue")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Could not complete the entry: Entry is not being served.")

	res, _ = s.post(t, "/admin-panel/queue/2/launch", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Empty(t, s.clinic.calls())
}

func TestQueueDeleteAndClearNeedConfirmation(t *testing.T) {
	s := newClinicStack(t)
	s.login(t)

	res, body := s.post(t, "/admin-panel/queue/2/delete", url.Values{"from": {"waiting"}})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Delete this queue entry?")
	assert.Contains(t, body, `name="confirm" value="yes"`)
	assert.Empty(t, s.clinic.calls())

	res, _ = s.post(t, "/admin-panel/queue/2/delete", url.Values{"from": {"waiting"}, "confirm": {"yes"}})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, []string{"DELETE /api/queue/2/"}, s.clinic.calls())

	res, body = s.post(t, "/admin-panel/queue/clear", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Remove every entry")
	assert.Empty(t, s.clinic.calls())

	res, _ = s.post(t, "/admin-panel/queue/clear", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, []string{"DELETE /api/queue/clear/"}, s.clinic.calls())

	_, body = s.get(t, "/admin-panel/queue/rows")
	assert.Contains(t, body, "Nobody is waiting.")
}

func TestQueueRowsIsATableFragment(t *testing.T) {
	s := newClinicStack(t)
	s.login(t)

	res, body := s.get(t, "/admin-panel/queue/rows")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotContains(t, body, "<html")
	assert.Contains(t, body, "A002")
	assert.Contains(t, body, `action="/admin-panel/queue/2/serve"`)
	assert.Contains(t, body, `action="/admin-panel/queue/1/done"`)
	assert.NotContains(t, body, `action="/admin-panel/queue/1/serve"`)
}

func TestDisplaySnapshotAnnouncesOnlyANewNumber(t *testing.T) {
	s := newClinicStack(t)
	s.login(t)

	msg := s.display(t, "")
	require.NotNil(t, msg.Announce)
	assert.Equal(t, "A001", msg.Announce.QueueNumber)
	assert.Equal(t, "/callnext.mp3", msg.Announce.Sound)
	assert.NotEmpty(t, msg.Snapshot.Epoch)

	msg = s.display(t, "A001")
	assert.Nil(t, msg.Announce)
	assert.Equal(t, "A001", msg.Snapshot.Serving.QueueNumber.String())
}

func TestWalkInIsServedAndReported(t *testing.T) {
	s := newClinicStack(t)
	s.login(t)
	s.startDay(t)

	guest := s.visitor(t)
	res, _ := guest.post(t, "/queue-join", nil)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	_, body := guest.get(t, "/queue-join/ticket")
	assert.Contains(t, body, "A003")

	_, body = s.get(t, "/admin-panel/queue/rows")
	assert.Contains(t, body, "A003")
	assert.Contains(t, body, `action="/admin-panel/queue/3/serve"`)

	msg := s.display(t, "")
	require.NotNil(t, msg.Announce)
	last := msg.Announce.QueueNumber

	s.post(t, "/admin-panel/queue/1/done", url.Values{"from": {"serving"}})
	s.post(t, "/admin-panel/queue/3/serve", url.Values{"from": {"waiting"}})
	_, body = s.get(t, "/admin-panel/queue/rows")
	assert.Contains(t, body, `action="/admin-panel/queue/3/done"`)

	msg = s.display(t, last)
	require.NotNil(t, msg.Snapshot.Serving)
	assert.Equal(t, "A003", msg.Snapshot.Serving.QueueNumber.String())
	require.NotNil(t, msg.Announce)
	assert.Equal(t, "A003", msg.Announce.QueueNumber)

	// the next poll sees the same number and stays quiet
	msg = s.display(t, msg.Announce.QueueNumber)
	assert.Nil(t, msg.Announce)

	s.post(t, "/admin-panel/queue/3/done", url.Values{"from": {"serving"}})
	_, body = s.get(t, "/admin-panel/queue/rows")
	assert.NotContains(t, body, "A003")

	res, body = s.get(t, "/admin-panel/queue-reports")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "A003")

	_, csvBody := s.get(t, "/admin-panel/queue-reports/export.csv")
	var row string
	for _, line := range strings.Split(csvBody, "\n") {
		if strings.HasPrefix(line, "A003,") {
			row = strings.TrimSpace(line)
		}
	}
	require.NotEmpty(t, row)
	fields := strings.Split(row, ",")
	assert.NotEmpty(t, fields[len(fields)-1], "served at")
}

// sockjsPoll posts one xhr-polling request and returns the frame body.
func sockjsPoll(t *testing.T, client *http.Client, base, session, last string) string {
	t.Helper()
	u := base + "/realtime/queue/000/" + session + "/xhr"
	if last != "" {
		u += "?last=" + url.QueryEscape(last)
	}
	res, err := client.Post(u, "text/plain", nil)
	require.NoError(t, err)
	return strings.TrimSpace(readBody(t, res))
}

func sockjsMessage(t *testing.T, frame string) handlers.DisplayMessage {
	t.Helper()
	require.True(t, strings.HasPrefix(frame, "a"), frame)
	var payloads []string
	require.NoError(t, json.Unmarshal([]byte(frame[1:]), &payloads))
	require.NotEmpty(t, payloads)
	var msg handlers.DisplayMessage
	require.NoError(t, json.Unmarshal([]byte(payloads[0]), &msg))
	return msg
}

func TestDisplayPushOverSockJS(t *testing.T) {
	s := newClinicStack(t)
	client := &http.Client{Jar: s.client.Jar, Timeout: 5 * time.Second}

	// anonymous sessions are closed straight after opening
	anon := s.visitor(t)
	assert.Equal(t, "o", sockjsPoll(t, anon.client, s.srv.URL, "anon", ""))
	assert.Contains(t, sockjsPoll(t, anon.client, s.srv.URL, "anon", ""), "sign in required")

	s.login(t)
	res, _ := s.get(t, "/admin-panel/queue-display")
	require.Equal(t, http.StatusOK, res.StatusCode)

	require.Equal(t, "o", sockjsPoll(t, client, s.srv.URL, "seeded", "A001"))
	msg := sockjsMessage(t, sockjsPoll(t, client, s.srv.URL, "seeded", "A001"))
	require.NotNil(t, msg.Snapshot.Serving)
	assert.Equal(t, "A001", msg.Snapshot.Serving.QueueNumber.String())
	assert.Nil(t, msg.Announce)

	require.Equal(t, "o", sockjsPoll(t, client, s.srv.URL, "fresh", ""))
	msg = sockjsMessage(t, sockjsPoll(t, client, s.srv.URL, "fresh", ""))
	require.NotNil(t, msg.Announce)
	assert.Equal(t, "A001", msg.Announce.QueueNumber)
}

func TestQueueQRPosterServesPNG(t *testing.T) {
	s := newClinicStack(t)
	s.login(t)

	res, body := s.get(t, "/admin-panel/queue-qr")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `src="/admin-panel/queue-qr.png"`)
	assert.Contains(t, body, "/queue-join")

	res, body = s.get(t, "/admin-panel/queue-qr.png")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "image/png", res.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix([]byte(body), []byte("\x89PNG\r\n\x1a\n")))
}
