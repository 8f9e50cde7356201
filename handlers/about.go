package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"clinicfront/models"
	"clinicfront/services/clinicapi"
	"clinicfront/services/content"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const aboutPath = "/admin-panel/about"

// SectionLister reads the typed section list.
type SectionLister interface {
	ListSections(ctx context.Context) ([]models.Section, error)
}

// AboutHandler edits the About page and its ordered sections.
type AboutHandler struct {
	base
	content  *content.Manager
	sections SectionLister
}

func NewAboutHandler(b base, mgr *content.Manager, sections SectionLister) *AboutHandler {
	return &AboutHandler{base: b, content: mgr, sections: sections}
}

func sectionsPath(id models.ID) string {
	return aboutPath + "/sections/" + id.String()
}

// Page shows the About form and the section table.
func (h *AboutHandler) Page(c *gin.Context) {
	ctx := c.Request.Context()
	data := gin.H{
		"AboutFields": content.AboutResource.Fields,
		"AboutValues": map[string]string{},
		"FieldErrors": content.FieldErrors{},
		"Options":     map[string][]content.Option{},
	}
	var problems []string

	rec, ok, err := h.content.First(ctx, content.AboutResource)
	if err != nil {
		problems = append(problems, "page: "+clinicapi.ErrorMessage(err))
	} else if ok {
		data["AboutValues"] = content.FormValues(content.AboutResource, rec)
	}

	secs, err := h.sections.ListSections(ctx)
	if err != nil {
		problems = append(problems, "sections: "+clinicapi.ErrorMessage(err))
	}
	data["Sections"] = content.SortSections(secs)

	if len(problems) > 0 {
		getLogger(c).Warn("about manager load failed", zap.Strings("problems", problems))
		data["Error"] = "Could not load " + strings.Join(problems, "; ")
	}
	c.HTML(http.StatusOK, "about_manager", h.view(c, "About page", data))
}

// Save creates the About record on first use and updates it afterwards.
func (h *AboutHandler) Save(c *gin.Context) {
	rec, ok, err := h.content.First(c.Request.Context(), content.AboutResource)
	if err != nil {
		h.flash(c, "Could not load the page: "+clinicapi.ErrorMessage(err))
		seeOther(c, aboutPath)
		return
	}
	var id models.ID
	if ok {
		id = content.RecordID(rec)
	}
	st := formState{Resource: content.AboutResource, Creating: !ok, Action: aboutPath, Back: aboutPath}
	if submit(c, &h.base, h.content, content.AboutResource, id, st, nil) {
		h.flash(c, "About page saved.")
		seeOther(c, aboutPath)
	}
}

func (h *AboutHandler) NewSection(c *gin.Context) {
	renderRecordForm(c, &h.base, h.content, http.StatusOK, formState{
		Resource: content.SectionResource, Creating: true,
		Action: aboutPath + "/sections", Back: aboutPath,
	})
}

// CreateSection appends a section to the existing About page.
func (h *AboutHandler) CreateSection(c *gin.Context) {
	ctx := c.Request.Context()
	rec, ok, err := h.content.First(ctx, content.AboutResource)
	if err != nil || !ok {
		msg := "Save the About page before adding sections."
		if err != nil {
			msg = "Could not load the page: " + clinicapi.ErrorMessage(err)
		}
		h.flash(c, msg)
		seeOther(c, aboutPath)
		return
	}
	st := formState{Resource: content.SectionResource, Creating: true, Action: aboutPath + "/sections", Back: aboutPath}
	if submit(c, &h.base, h.content, content.SectionResource, "", st, map[string]string{
		"about_page": content.RecordID(rec).String(),
	}) {
		h.flash(c, "Section added.")
		seeOther(c, aboutPath)
	}
}

func (h *AboutHandler) EditSection(c *gin.Context) {
	id := models.ID(c.Param("id"))
	rec, err := h.content.Get(c.Request.Context(), content.SectionResource, id)
	if err != nil {
		if clinicapi.IsStatus(err, http.StatusNotFound) {
			h.NotFound(c)
			return
		}
		h.flash(c, "Could not load the section: "+clinicapi.ErrorMessage(err))
		seeOther(c, aboutPath)
		return
	}
	renderRecordForm(c, &h.base, h.content, http.StatusOK, formState{
		Resource: content.SectionResource,
		Action:   sectionsPath(id),
		Back:     aboutPath,
		Values:   content.FormValues(content.SectionResource, rec),
	})
}

func (h *AboutHandler) UpdateSection(c *gin.Context) {
	id := models.ID(c.Param("id"))
	st := formState{Resource: content.SectionResource, Action: sectionsPath(id), Back: aboutPath}
	if submit(c, &h.base, h.content, content.SectionResource, id, st, nil) {
		h.flash(c, "Section saved.")
		seeOther(c, aboutPath)
	}
}

func (h *AboutHandler) DeleteSection(c *gin.Context) {
	id := models.ID(c.Param("id"))
	if c.PostForm("confirm") != "yes" {
		c.HTML(http.StatusOK, "confirm", h.view(c, "Delete section", gin.H{
			"Question": "Delete this section? This cannot be undone.",
			"Action":   c.Request.URL.Path,
			"Back":     aboutPath,
		}))
		return
	}
	if err := h.content.Delete(c.Request.Context(), content.SectionResource, id); err != nil {
		h.flash(c, "Could not delete: "+clinicapi.ErrorMessage(err))
	} else {
		h.flash(c, "Section deleted.")
	}
	seeOther(c, aboutPath)
}

// MoveSection swaps a section with its neighbour and persists the new order.
func (h *AboutHandler) MoveSection(c *gin.Context) {
	ctx := c.Request.Context()
	id := models.ID(c.Param("id"))
	delta := 1
	if c.PostForm("dir") == "up" {
		delta = -1
	}

	before, err := h.sections.ListSections(ctx)
	if err != nil {
		h.flash(c, "Could not load sections: "+clinicapi.ErrorMessage(err))
		seeOther(c, aboutPath)
		return
	}
	after, err := content.MoveSection(before, id, delta)
	if errors.Is(err, content.ErrSectionNotFound) {
		h.NotFound(c)
		return
	}
	if _, err := h.content.PersistOrder(ctx, before, after); err != nil {
		getLogger(c).Warn("section reorder failed", zap.String("section", id.String()), zap.Error(err))
		h.flash(c, "Could not reorder: "+clinicapi.ErrorMessage(err))
	}
	seeOther(c, aboutPath)
}
