package clinicapi

import (
	"context"
	"net/http"
	"net/url"

	"clinicfront/models"
)

// Record is an untyped API object, used by the generic content managers.
type Record map[string]any

func itemPath(collection string, id models.ID) string {
	return collection + url.PathEscape(id.String()) + "/"
}

// ListRecords lists any collection, e.g. "promos/".
func (c *Client) ListRecords(ctx context.Context, collection string) ([]Record, error) {
	return getList[Record](ctx, c, collection, nil)
}

func (c *Client) GetRecord(ctx context.Context, collection string, id models.ID) (Record, error) {
	var rec Record
	err := c.Get(ctx, itemPath(collection, id), nil, &rec)
	return rec, err
}

// SaveRecord creates (empty id) or replaces a record. A form with files goes
// out as multipart, anything else as JSON.
func (c *Client) SaveRecord(ctx context.Context, collection string, id models.ID, payload map[string]any, form *Form) error {
	method, path := http.MethodPost, collection
	if id != "" {
		method, path = http.MethodPut, itemPath(collection, id)
	}
	if form != nil {
		return c.DoMultipart(ctx, method, path, form, nil)
	}
	return c.Do(ctx, method, path, payload, nil)
}

// PatchRecord sends a partial JSON update.
func (c *Client) PatchRecord(ctx context.Context, collection string, id models.ID, payload map[string]any) error {
	return c.Do(ctx, http.MethodPatch, itemPath(collection, id), payload, nil)
}

func (c *Client) DeleteRecord(ctx context.Context, collection string, id models.ID) error {
	return c.Do(ctx, http.MethodDelete, itemPath(collection, id), nil, nil)
}

func (c *Client) ListServices(ctx context.Context) ([]models.Service, error) {
	return getList[models.Service](ctx, c, "services/", nil)
}

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	return getList[models.Category](ctx, c, "service-categories/", nil)
}

func (c *Client) ListHeroes(ctx context.Context) ([]models.Hero, error) {
	return getList[models.Hero](ctx, c, "hero/", nil)
}

func (c *Client) ListBanners(ctx context.Context) ([]models.Banner, error) {
	return getList[models.Banner](ctx, c, "banners/", nil)
}

// GetAbout returns the first About page; ok is false when none exists.
func (c *Client) GetAbout(ctx context.Context) (about models.About, ok bool, err error) {
	pages, err := getList[models.About](ctx, c, "about/", nil)
	if err != nil || len(pages) == 0 {
		return models.About{}, false, err
	}
	return pages[0], true, nil
}

func (c *Client) ListSections(ctx context.Context) ([]models.Section, error) {
	return getList[models.Section](ctx, c, "sections/", nil)
}

func (c *Client) ListBlogs(ctx context.Context) ([]models.BlogPost, error) {
	return getList[models.BlogPost](ctx, c, "blogs/", nil)
}

func (c *Client) ListLocations(ctx context.Context) ([]models.Location, error) {
	return getList[models.Location](ctx, c, "locations/", nil)
}

func (c *Client) ListPromos(ctx context.Context) ([]models.Promo, error) {
	return getList[models.Promo](ctx, c, "promos/", nil)
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	return getList[models.User](ctx, c, "users/", nil)
}

func (c *Client) GetProfile(ctx context.Context) (models.Profile, error) {
	profile := models.Profile{}
	err := c.Get(ctx, "profile/", nil, &profile)
	return profile, err
}

func (c *Client) UpdateProfile(ctx context.Context, changes map[string]any) (models.Profile, error) {
	profile := models.Profile{}
	err := c.Do(ctx, http.MethodPut, "profile/", changes, &profile)
	return profile, err
}

// Login exchanges credentials for tokens. A 400/401 maps to ErrUnauthorized.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error) {
	var res models.LoginResult
	if err := c.Do(ctx, http.MethodPost, "auth/login/", creds, &res); err != nil {
		if IsStatus(err, http.StatusBadRequest) || IsStatus(err, http.StatusUnauthorized) {
			return models.LoginResult{}, ErrUnauthorized
		}
		return models.LoginResult{}, err
	}
	if res.Access == "" {
		return models.LoginResult{}, ErrUnauthorized
	}
	return res, nil
}
