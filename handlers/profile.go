package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"clinicfront/models"
	"clinicfront/services/clinicapi"
	"clinicfront/services/content"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProfileAPI is the signed-in user's profile endpoint.
type ProfileAPI interface {
	GetProfile(ctx context.Context) (models.Profile, error)
	UpdateProfile(ctx context.Context, changes map[string]any) (models.Profile, error)
}

// readOnlyProfileKeys are never offered for editing.
var readOnlyProfileKeys = map[string]bool{
	"id": true, "role": true, "username": true, "is_active": true,
	"is_staff": true, "is_superuser": true, "date_joined": true, "last_login": true,
}

type ProfileHandler struct {
	base
	api ProfileAPI
}

func NewProfileHandler(b base, api ProfileAPI) *ProfileHandler {
	return &ProfileHandler{base: b, api: api}
}

// splitProfile separates plain text fields the user may change from the rest.
func splitProfile(p models.Profile) (editable []string, values map[string]string, readOnly map[string]string) {
	values = map[string]string{}
	readOnly = map[string]string{}
	for k, v := range p {
		_, isText := v.(string)
		if (isText || v == nil) && !readOnlyProfileKeys[k] {
			editable = append(editable, k)
			values[k] = content.Display(v)
			continue
		}
		readOnly[k] = content.Display(v)
	}
	sort.Strings(editable)
	return editable, values, readOnly
}

func (h *ProfileHandler) render(c *gin.Context, status int, p models.Profile, errMsg string) {
	editable, values, readOnly := splitProfile(p)
	c.HTML(status, "profile", h.view(c, "Profile", gin.H{
		"Editable": editable,
		"Values":   values,
		"ReadOnly": readOnly,
		"Error":    errMsg,
	}))
}

func (h *ProfileHandler) Page(c *gin.Context) {
	p, err := h.api.GetProfile(c.Request.Context())
	if err != nil {
		getLogger(c).Warn("profile load failed", zap.Error(err))
		h.render(c, http.StatusOK, models.Profile{}, "Could not load your profile: "+clinicapi.ErrorMessage(err))
		return
	}
	h.render(c, http.StatusOK, p, "")
}

// Update sends only the editable fields whose value changed.
func (h *ProfileHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	current, err := h.api.GetProfile(ctx)
	if err != nil {
		h.flash(c, "Could not load your profile: "+clinicapi.ErrorMessage(err))
		seeOther(c, "/admin-panel/profile")
		return
	}
	editable, values, _ := splitProfile(current)
	changes := map[string]any{}
	for _, k := range editable {
		v, posted := c.GetPostForm(k)
		if posted && v != values[k] {
			changes[k] = v
		}
	}
	if len(changes) == 0 {
		h.flash(c, "Nothing to update.")
		seeOther(c, "/admin-panel/profile")
		return
	}
	if _, err := h.api.UpdateProfile(ctx, changes); err != nil {
		getLogger(c).Warn("profile update failed", zap.Error(err))
		for k, v := range changes {
			current[k] = v
		}
		h.render(c, http.StatusBadGateway, current, "Could not save: "+clinicapi.ErrorMessage(err))
		return
	}
	h.flash(c, fmt.Sprintf("Profile updated (%d field(s)).", len(changes)))
	seeOther(c, "/admin-panel/profile")
}
