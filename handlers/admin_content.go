package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"clinicfront/models"
	"clinicfront/services/clinicapi"
	"clinicfront/services/content"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxUploadBytes = 32 << 20

// ContentHandler is the generic manager behind every registry resource.
type ContentHandler struct {
	base
	content *content.Manager
}

func NewContentHandler(b base, mgr *content.Manager) *ContentHandler {
	return &ContentHandler{base: b, content: mgr}
}

// ManagePath is where a resource's manager lives.
func ManagePath(res content.Resource) string {
	return "/admin-panel/manage/" + res.Key
}

// formState is what the record form template needs.
type formState struct {
	Resource    content.Resource
	Creating    bool
	Action      string
	Back        string
	Values      map[string]string
	FieldErrors content.FieldErrors
	Error       string
}

func (h *ContentHandler) renderForm(c *gin.Context, status int, st formState) {
	renderRecordForm(c, &h.base, h.content, status, st)
}

// renderRecordForm is shared with the About manager.
func renderRecordForm(c *gin.Context, b *base, mgr *content.Manager, status int, st formState) {
	if st.Values == nil {
		st.Values = map[string]string{}
	}
	if st.FieldErrors == nil {
		st.FieldErrors = content.FieldErrors{}
	}
	title := "Edit " + st.Resource.Title
	if st.Creating {
		title = "New " + st.Resource.Title
	}
	c.HTML(status, "content_form", b.view(c, title, gin.H{
		"Resource":    st.Resource,
		"Fields":      st.Resource.Fields,
		"Creating":    st.Creating,
		"Action":      st.Action,
		"Back":        st.Back,
		"Values":      st.Values,
		"FieldErrors": st.FieldErrors,
		"Options":     selectOptions(c, mgr, st.Resource.Fields),
		"Error":       st.Error,
	}))
}

func selectOptions(c *gin.Context, mgr *content.Manager, fields []content.Field) map[string][]content.Option {
	out := map[string][]content.Option{}
	for _, f := range fields {
		if f.Kind != content.KindSelect {
			continue
		}
		opts, err := mgr.Options(c.Request.Context(), f)
		if err != nil {
			getLogger(c).Warn("select options failed", zap.String("field", f.Name), zap.Error(err))
		}
		out[f.Name] = opts
	}
	return out
}

// readForm collects posted values and files for res. The returned func
// closes the opened uploads.
func readForm(c *gin.Context, fields []content.Field) (url.Values, map[string]content.FileInput, func(), error) {
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, nil, func() {}, err
	}
	files := map[string]content.FileInput{}
	var closers []func() error
	for _, f := range fields {
		if f.Kind != content.KindFile {
			continue
		}
		fh, err := c.FormFile(f.Name)
		if err != nil || fh.Size == 0 {
			continue
		}
		file, err := fh.Open()
		if err != nil {
			return nil, nil, func() {}, err
		}
		closers = append(closers, file.Close)
		files[f.Name] = content.FileInput{Filename: fh.Filename, Reader: file}
	}
	done := func() {
		for _, cl := range closers {
			_ = cl()
		}
	}
	return c.Request.PostForm, files, done, nil
}

// submit binds and saves one record, re-rendering the form on failure.
// It reports whether the record was saved.
func submit(c *gin.Context, b *base, mgr *content.Manager, res content.Resource, id models.ID, st formState, extra map[string]string) bool {
	values, files, done, err := readForm(c, res.Fields)
	defer done()
	if err != nil {
		st.Error = "The upload could not be read: " + err.Error()
		renderRecordForm(c, b, mgr, http.StatusBadRequest, st)
		return false
	}

	sub, err := content.Bind(res, values, files, st.Creating)
	if err != nil {
		var fieldErrs content.FieldErrors
		if errors.As(err, &fieldErrs) {
			st.FieldErrors = fieldErrs
		}
		st.Error = "Please fix the highlighted fields."
		st.Values = content.SubmittedValues(res, values)
		renderRecordForm(c, b, mgr, http.StatusUnprocessableEntity, st)
		return false
	}
	for k, v := range extra {
		sub.Payload[k] = v
		sub.Values.Set(k, v)
	}

	if err := mgr.Save(c.Request.Context(), res, id, sub); err != nil {
		getLogger(c).Warn("content save failed", zap.String("resource", res.Key), zap.Error(err))
		st.Error = "Could not save: " + clinicapi.ErrorMessage(err)
		st.Values = content.SubmittedValues(res, values)
		renderRecordForm(c, b, mgr, http.StatusBadGateway, st)
		return false
	}
	return true
}

// List shows every record, or the edit form for singleton resources.
func (h *ContentHandler) List(res content.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if res.Singleton {
			h.singleton(c, res)
			return
		}
		data := gin.H{"Resource": res, "Base": ManagePath(res)}
		recs, err := h.content.List(c.Request.Context(), res)
		if err != nil {
			getLogger(c).Warn("content list failed", zap.String("resource", res.Key), zap.Error(err))
			data["Error"] = "Could not load " + res.Title + ": " + clinicapi.ErrorMessage(err)
		}
		data["Records"] = recs
		c.HTML(http.StatusOK, "content_list", h.view(c, res.Title, data))
	}
}

func (h *ContentHandler) singleton(c *gin.Context, res content.Resource) {
	st := formState{Resource: res, Back: "/admin-panel"}
	rec, ok, err := h.content.First(c.Request.Context(), res)
	switch {
	case err != nil:
		st.Error = "Could not load " + res.Title + ": " + clinicapi.ErrorMessage(err)
		st.Creating = true
		st.Action = ManagePath(res)
	case ok:
		st.Values = content.FormValues(res, rec)
		st.Action = ManagePath(res) + "/" + content.RecordID(rec).String()
	default:
		st.Creating = true
		st.Action = ManagePath(res)
	}
	h.renderForm(c, http.StatusOK, st)
}

func (h *ContentHandler) New(res content.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.renderForm(c, http.StatusOK, formState{
			Resource: res, Creating: true, Action: ManagePath(res), Back: ManagePath(res),
		})
	}
}

func (h *ContentHandler) Edit(res content.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := models.ID(c.Param("id"))
		rec, err := h.content.Get(c.Request.Context(), res, id)
		if err != nil {
			if clinicapi.IsStatus(err, http.StatusNotFound) {
				h.NotFound(c)
				return
			}
			h.flash(c, "Could not load the record: "+clinicapi.ErrorMessage(err))
			seeOther(c, ManagePath(res))
			return
		}
		h.renderForm(c, http.StatusOK, formState{
			Resource: res,
			Action:   ManagePath(res) + "/" + id.String(),
			Back:     ManagePath(res),
			Values:   content.FormValues(res, rec),
		})
	}
}

func (h *ContentHandler) Create(res content.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := formState{Resource: res, Creating: true, Action: ManagePath(res), Back: ManagePath(res)}
		if submit(c, &h.base, h.content, res, "", st, nil) {
			h.flash(c, res.Title+" saved.")
			seeOther(c, ManagePath(res))
		}
	}
}

func (h *ContentHandler) Update(res content.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := models.ID(c.Param("id"))
		st := formState{Resource: res, Action: ManagePath(res) + "/" + id.String(), Back: ManagePath(res)}
		if submit(c, &h.base, h.content, res, id, st, nil) {
			h.flash(c, res.Title+" saved.")
			seeOther(c, ManagePath(res))
		}
	}
}

func (h *ContentHandler) Delete(res content.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := models.ID(c.Param("id"))
		if c.PostForm("confirm") != "yes" {
			c.HTML(http.StatusOK, "confirm", h.view(c, "Delete "+res.Title, gin.H{
				"Question": "Delete this record from " + res.Title + "? This cannot be undone.",
				"Action":   c.Request.URL.Path,
				"Back":     ManagePath(res),
			}))
			return
		}
		if err := h.content.Delete(c.Request.Context(), res, id); err != nil {
			getLogger(c).Warn("content delete failed", zap.String("resource", res.Key), zap.Error(err))
			h.flash(c, "Could not delete: "+clinicapi.ErrorMessage(err))
		} else {
			h.flash(c, "Deleted.")
		}
		seeOther(c, ManagePath(res))
	}
}
