package handlers

import (
	"context"
	"net/http"
	"sort"

	"clinicfront/models"
	"clinicfront/services/clinicapi"
	"clinicfront/services/content"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PublicAPI is the read side of the clinic API used by the public site.
type PublicAPI interface {
	ListHeroes(ctx context.Context) ([]models.Hero, error)
	ListBanners(ctx context.Context) ([]models.Banner, error)
	ListServices(ctx context.Context) ([]models.Service, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetAbout(ctx context.Context) (models.About, bool, error)
	ListSections(ctx context.Context) ([]models.Section, error)
	ListBlogs(ctx context.Context) ([]models.BlogPost, error)
	ListLocations(ctx context.Context) ([]models.Location, error)
	ListPromos(ctx context.Context) ([]models.Promo, error)
}

const homeServiceCount = 4

// PagesHandler renders the public marketing pages. A failing API call leaves
// its block empty and logs; the page itself still renders.
type PagesHandler struct {
	base
	api PublicAPI
}

func NewPagesHandler(b base, api PublicAPI) *PagesHandler {
	return &PagesHandler{base: b, api: api}
}

func (h *PagesHandler) warn(c *gin.Context, what string, err error) {
	getLogger(c).Warn("public content unavailable", zap.String("block", what), zap.Error(err))
}

func (h *PagesHandler) Home(c *gin.Context) {
	ctx := c.Request.Context()
	data := gin.H{}

	heroes, err := h.api.ListHeroes(ctx)
	if err != nil {
		h.warn(c, "hero", err)
	}
	if hero, ok := pickHero(heroes); ok {
		data["Hero"] = hero
	}

	banners, err := h.api.ListBanners(ctx)
	if err != nil {
		h.warn(c, "banners", err)
	}
	sort.SliceStable(banners, func(i, j int) bool { return banners[i].Order < banners[j].Order })
	data["Banners"] = banners

	services, err := h.api.ListServices(ctx)
	if err != nil {
		h.warn(c, "services", err)
	}
	if len(services) > homeServiceCount {
		services = services[:homeServiceCount]
	}
	data["Services"] = services

	c.HTML(http.StatusOK, "home", h.view(c, "Welcome", data))
}

// pickHero prefers the first active hero and falls back to the first one.
func pickHero(heroes []models.Hero) (models.Hero, bool) {
	for _, hr := range heroes {
		if hr.Active {
			return hr, true
		}
	}
	if len(heroes) > 0 {
		return heroes[0], true
	}
	return models.Hero{}, false
}

func (h *PagesHandler) About(c *gin.Context) {
	ctx := c.Request.Context()
	data := gin.H{}
	about, ok, err := h.api.GetAbout(ctx)
	if err != nil {
		h.warn(c, "about", err)
	}
	if ok {
		data["About"] = about
	}
	sections := about.Sections
	if len(sections) == 0 {
		if sections, err = h.api.ListSections(ctx); err != nil {
			h.warn(c, "sections", err)
		}
	}
	data["Sections"] = content.ActiveSections(sections)
	c.HTML(http.StatusOK, "about", h.view(c, "About us", data))
}

// Services lists every service, or those of one category slug.
func (h *PagesHandler) Services(c *gin.Context) {
	ctx := c.Request.Context()
	category := c.Param("category")

	services, err := h.api.ListServices(ctx)
	if err != nil {
		h.warn(c, "services", err)
	}
	categories, err := h.api.ListCategories(ctx)
	if err != nil {
		h.warn(c, "categories", err)
	}

	title := "Our services"
	if category != "" {
		services = filterByCategory(services, category)
		for _, cat := range categories {
			if Slugify(cat.Name) == category {
				title = cat.Name
			}
		}
	}
	c.HTML(http.StatusOK, "services", h.view(c, title, gin.H{
		"Services":   services,
		"Categories": categories,
		"Category":   category,
	}))
}

func filterByCategory(services []models.Service, slug string) []models.Service {
	var out []models.Service
	for _, s := range services {
		if Slugify(s.CategoryLabel()) == slug {
			out = append(out, s)
		}
	}
	return out
}

func postSlug(p models.BlogPost) string {
	if p.Slug != "" {
		return p.Slug
	}
	return Slugify(p.Title)
}

func publishedPosts(posts []models.BlogPost) []models.BlogPost {
	var out []models.BlogPost
	for _, p := range posts {
		if p.Published {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Time.After(out[j].CreatedAt.Time) })
	return out
}

func (h *PagesHandler) Blog(c *gin.Context) {
	posts, err := h.api.ListBlogs(c.Request.Context())
	if err != nil {
		h.warn(c, "blog", err)
	}
	c.HTML(http.StatusOK, "blog", h.view(c, "Blog", gin.H{"Posts": publishedPosts(posts)}))
}

func (h *PagesHandler) BlogPost(c *gin.Context) {
	slug := c.Param("slug")
	posts, err := h.api.ListBlogs(c.Request.Context())
	if err != nil {
		h.warn(c, "blog", err)
		c.HTML(http.StatusBadGateway, "blog_post", h.view(c, "Blog", gin.H{
			"Error": "The blog is unavailable right now: " + clinicapi.ErrorMessage(err),
		}))
		return
	}
	for _, p := range publishedPosts(posts) {
		if postSlug(p) == slug {
			c.HTML(http.StatusOK, "blog_post", h.view(c, p.Title, gin.H{"Post": p}))
			return
		}
	}
	h.NotFound(c)
}

func (h *PagesHandler) Locations(c *gin.Context) {
	locs, err := h.api.ListLocations(c.Request.Context())
	if err != nil {
		h.warn(c, "locations", err)
	}
	c.HTML(http.StatusOK, "locations", h.view(c, "Locations", gin.H{"Locations": locs}))
}

func (h *PagesHandler) Promos(c *gin.Context) {
	promos, err := h.api.ListPromos(c.Request.Context())
	if err != nil {
		h.warn(c, "promos", err)
	}
	c.HTML(http.StatusOK, "promos", h.view(c, "Promos", gin.H{"Promos": promos}))
}
