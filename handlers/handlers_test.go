package handlers

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"clinicfront/config"
	"clinicfront/models"
	"clinicfront/services/clinicapi"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTemplatesDefinesEveryPage(t *testing.T) {
	tmpl, err := LoadTemplates()
	require.NoError(t, err)
	for _, name := range []string{
		"home", "about", "services", "blog", "blog_post", "locations", "promos",
		"not_found", "unavailable", "patient_login", "patients_corner",
		"queue_join", "queue_ticket", "queue_gate", "queue_dashboard", "queue_rows",
		"queue_display", "queue_reports", "queue_qr", "confirm",
		"staff_login", "access_denied", "admin_home", "content_list", "content_form",
		"about_manager", "profile",
	} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestRenderMarkdownDropsRawHTML(t *testing.T) {
	out := string(renderMarkdown("# Hello\nline one\nline two <script>alert(1)</script>"))
	assert.Contains(t, out, "<h1>Hello</h1>")
	assert.Contains(t, out, "<br")
	assert.NotContains(t, out, "<script>")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "maternity-care", Slugify("  Maternity Care "))
	assert.Equal(t, "x-ray", Slugify("X-Ray"))
	assert.Equal(t, "ent-clinic", Slugify("E.N.T Clinic"))
}

func TestGroupServicesKeepsFirstSeenOrder(t *testing.T) {
	groups := GroupServices([]models.Service{
		{Name: "Scan", Category: &models.Category{Name: "Imaging"}},
		{Name: "Consult"},
		{Name: "X-Ray", CategoryName: "Imaging"},
	})
	require.Len(t, groups, 2)
	assert.Equal(t, "Imaging", groups[0].Category)
	assert.Len(t, groups[0].Services, 2)
	assert.Equal(t, "Other", groups[1].Category)
}

func TestNavForHidesUsersFromStaff(t *testing.T) {
	has := func(items []NavItem, label string) bool {
		for _, it := range items {
			if it.Label == label {
				return true
			}
		}
		return false
	}
	assert.False(t, has(NavFor(models.RoleStaff), "Users"))
	assert.True(t, has(NavFor(models.RoleOwner), "Users"))
	assert.True(t, has(NavFor(models.RoleStaff), "Queue"))
}

func TestPickHeroPrefersActive(t *testing.T) {
	hero, ok := pickHero([]models.Hero{{ID: "1"}, {ID: "2", Active: true}})
	require.True(t, ok)
	assert.Equal(t, models.ID("2"), hero.ID)

	hero, ok = pickHero([]models.Hero{{ID: "1"}})
	require.True(t, ok)
	assert.Equal(t, models.ID("1"), hero.ID)

	_, ok = pickHero(nil)
	assert.False(t, ok)
}

func TestPublishedPostsNewestFirst(t *testing.T) {
	day := func(d int) models.Timestamp {
		return models.Timestamp{Time: time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC)}
	}
	posts := publishedPosts([]models.BlogPost{
		{Title: "old", Published: true, CreatedAt: day(1)},
		{Title: "draft", CreatedAt: day(9)},
		{Title: "new", Published: true, CreatedAt: day(5)},
	})
	require.Len(t, posts, 2)
	assert.Equal(t, "new", posts[0].Title)
	assert.Equal(t, "new", postSlug(posts[0]))
	assert.Equal(t, "given", postSlug(models.BlogPost{Title: "x", Slug: "given"}))
}

func TestFilterByCategorySlug(t *testing.T) {
	got := filterByCategory([]models.Service{
		{Name: "a", CategoryName: "Maternity Care"},
		{Name: "b", CategoryName: "Imaging"},
	}, "maternity-care")
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Name)
}

func TestSplitProfile(t *testing.T) {
	editable, values, readOnly := splitProfile(models.Profile{
		"id":         float64(3),
		"username":   "amina",
		"first_name": "Amina",
		"phone":      nil,
		"role":       "owner",
		"is_active":  true,
	})
	assert.Equal(t, []string{"first_name", "phone"}, editable)
	assert.Equal(t, "Amina", values["first_name"])
	assert.Equal(t, "", values["phone"])
	assert.Equal(t, "amina", readOnly["username"])
	assert.Equal(t, "true", readOnly["is_active"])
}

func tokenExpiring(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(), "role": "owner",
	}).SignedString([]byte("test"))
	require.NoError(t, err)
	return tok
}

func TestFeedAuthPrefersRequestThenStaticThenLast(t *testing.T) {
	staff := tokenExpiring(t, time.Now().Add(time.Hour))

	auth := NewFeedAuth("", nil)
	assert.Empty(t, clinicapi.TokenFromContext(auth.Decorate(context.Background())))

	auth.Remember(staff)
	assert.Equal(t, staff, clinicapi.TokenFromContext(auth.Decorate(context.Background())))

	own := clinicapi.WithToken(context.Background(), "own")
	assert.Equal(t, "own", clinicapi.TokenFromContext(auth.Decorate(own)))

	static := NewFeedAuth("service-token", nil)
	static.Remember(staff)
	assert.Equal(t, "service-token", clinicapi.TokenFromContext(static.Decorate(context.Background())))
}

func TestFeedAuthSkipsExpiredTokens(t *testing.T) {
	now := time.Now()
	auth := NewFeedAuth("", nil)
	auth.now = func() time.Time { return now }

	auth.Remember(tokenExpiring(t, now.Add(-time.Minute)))
	assert.Empty(t, clinicapi.TokenFromContext(auth.Decorate(context.Background())))

	fresh := tokenExpiring(t, now.Add(10*time.Minute))
	auth.Remember(fresh)
	assert.Equal(t, fresh, clinicapi.TokenFromContext(auth.Decorate(context.Background())))

	// the remembered token runs out while the feed keeps polling
	auth.now = func() time.Time { return now.Add(11 * time.Minute) }
	assert.Empty(t, clinicapi.TokenFromContext(auth.Decorate(context.Background())))
	assert.True(t, auth.warned.Load())

	later := tokenExpiring(t, now.Add(time.Hour))
	auth.Remember(later)
	assert.False(t, auth.warned.Load())
	assert.Equal(t, later, clinicapi.TokenFromContext(auth.Decorate(context.Background())))
}

func TestJoinURL(t *testing.T) {
	gin.SetMode(gin.TestMode)
	newCtx := func(host string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/admin-panel/queue-qr", nil)
		c.Request.Host = host
		return c
	}

	h := NewAdminHandler(newBase(config.Config{}, nil, nil, nil))
	assert.Equal(t, "http://clinic.local:8080/queue-join", h.JoinURL(newCtx("clinic.local:8080")))

	h = NewAdminHandler(newBase(config.Config{PublicOrigin: "https://clinic.example.com/"}, nil, nil, nil))
	assert.Equal(t, "https://clinic.example.com/queue-join", h.JoinURL(newCtx("internal:8080")))
}
