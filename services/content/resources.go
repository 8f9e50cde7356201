package content

import "clinicfront/models"

type FieldKind string

const (
	KindText     FieldKind = "text"
	KindTextarea FieldKind = "textarea"
	KindNumber   FieldKind = "number"
	KindCheckbox FieldKind = "checkbox"
	KindSelect   FieldKind = "select"
	KindFile     FieldKind = "file"
	KindDate     FieldKind = "date"
	KindEmail    FieldKind = "email"
	KindPassword FieldKind = "password"
	KindURL      FieldKind = "url"
)

// Option is one choice of a select field.
type Option struct {
	Value string
	Label string
}

// Field describes one form input and how it maps onto the API payload.
type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	Options  []Option
	// OptionsFrom fills Options from another collection (id -> name).
	OptionsFrom string
	// CreateOnly fields are sent on create and hidden on edit.
	CreateOnly bool
	// Column shows the field in the list table.
	Column bool
}

// Resource is one admin-managed collection.
type Resource struct {
	Key   string
	Title string
	// Path is the API collection, with trailing slash.
	Path   string
	Fields []Field
	// Multipart resources always submit multipart/form-data.
	Multipart bool
	// Singleton resources edit the first record only.
	Singleton bool
	// Roles restricts the manager; empty means any staff member.
	Roles []string
	// Ordered collections are listed by their "order" field.
	Ordered bool
}

func (r Resource) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// HasFiles reports whether the resource carries a file input.
func (r Resource) HasFiles() bool {
	for _, f := range r.Fields {
		if f.Kind == KindFile {
			return true
		}
	}
	return false
}

// Columns are the fields shown in list tables.
func (r Resource) Columns() []Field {
	var cols []Field
	for _, f := range r.Fields {
		if f.Column {
			cols = append(cols, f)
		}
	}
	return cols
}

var roleOptions = []Option{
	{Value: models.RoleStaff, Label: "Staff"},
	{Value: models.RoleSupervisor, Label: "Supervisor"},
	{Value: models.RoleOwner, Label: "Owner"},
	{Value: models.RoleSuperuser, Label: "Superuser"},
}

// UserAdminRoles may manage staff accounts.
var UserAdminRoles = []string{models.RoleSuperuser, models.RoleOwner, models.RoleSupervisor}

var registry = []Resource{
	{
		Key: "hero", Title: "Hero", Path: "hero/", Multipart: true, Singleton: true,
		Fields: []Field{
			{Name: "title", Label: "Title", Kind: KindText, Required: true, Column: true},
			{Name: "subtitle", Label: "Subtitle", Kind: KindTextarea},
			{Name: "button_text", Label: "Button text", Kind: KindText},
			{Name: "active", Label: "Active", Kind: KindCheckbox, Column: true},
			{Name: "image", Label: "Image", Kind: KindFile},
		},
	},
	{
		Key: "banners", Title: "Banners", Path: "banners/", Multipart: true, Ordered: true,
		Fields: []Field{
			{Name: "title", Label: "Title", Kind: KindText, Required: true, Column: true},
			{Name: "subtitle", Label: "Subtitle", Kind: KindText},
			{Name: "order", Label: "Order", Kind: KindNumber, Column: true},
			{Name: "active", Label: "Active", Kind: KindCheckbox, Column: true},
			{Name: "image", Label: "Image", Kind: KindFile},
		},
	},
	{
		Key: "services", Title: "Services", Path: "services/",
		Fields: []Field{
			{Name: "name", Label: "Name", Kind: KindText, Required: true, Column: true},
			{Name: "description", Label: "Description", Kind: KindTextarea},
			{Name: "price", Label: "Price", Kind: KindNumber, Required: true, Column: true},
			{Name: "category_id", Label: "Category", Kind: KindSelect, Required: true, OptionsFrom: "service-categories/"},
			{Name: "active", Label: "Active", Kind: KindCheckbox, Column: true},
		},
	},
	{
		Key: "categories", Title: "Service categories", Path: "service-categories/",
		Fields: []Field{
			{Name: "name", Label: "Name", Kind: KindText, Required: true, Column: true},
			{Name: "description", Label: "Description", Kind: KindTextarea, Column: true},
		},
	},
	{
		Key: "locations", Title: "Locations", Path: "locations/",
		Fields: []Field{
			{Name: "name", Label: "Name", Kind: KindText, Required: true, Column: true},
			{Name: "address", Label: "Address", Kind: KindTextarea, Column: true},
			{Name: "contact", Label: "Contact", Kind: KindText, Column: true},
			{Name: "hours", Label: "Opening hours", Kind: KindText},
		},
	},
	{
		Key: "promos", Title: "Promos", Path: "promos/",
		Fields: []Field{
			{Name: "title", Label: "Title", Kind: KindText, Required: true, Column: true},
			{Name: "discount", Label: "Discount", Kind: KindText, Column: true},
			{Name: "start_date", Label: "Starts", Kind: KindDate, Column: true},
			{Name: "end_date", Label: "Ends", Kind: KindDate, Column: true},
		},
	},
	{
		Key: "blog", Title: "Blog", Path: "blogs/", Multipart: true,
		Fields: []Field{
			{Name: "title", Label: "Title", Kind: KindText, Required: true, Column: true},
			{Name: "content", Label: "Content (markdown)", Kind: KindTextarea, Required: true},
			{Name: "video_url", Label: "Video URL", Kind: KindURL},
			{Name: "published", Label: "Published", Kind: KindCheckbox, Column: true},
			{Name: "cover_image", Label: "Cover image", Kind: KindFile},
		},
	},
	{
		Key: "users", Title: "Users", Path: "users/", Roles: UserAdminRoles,
		Fields: []Field{
			{Name: "username", Label: "Username", Kind: KindText, Required: true, Column: true},
			{Name: "email", Label: "Email", Kind: KindEmail, Column: true},
			{Name: "role", Label: "Role", Kind: KindSelect, Required: true, Options: roleOptions, Column: true},
			{Name: "password", Label: "Password", Kind: KindPassword, Required: true, CreateOnly: true},
		},
	},
}

// Resources lists every managed collection in menu order.
func Resources() []Resource {
	out := make([]Resource, len(registry))
	copy(out, registry)
	return out
}

// Lookup finds a resource by its URL key.
func Lookup(key string) (Resource, bool) {
	for _, r := range registry {
		if r.Key == key {
			return r, true
		}
	}
	return Resource{}, false
}

// AboutResource and SectionResource back the About manager.
var AboutResource = Resource{
	Key: "about", Title: "About page", Path: "about/", Multipart: true, Singleton: true,
	Fields: []Field{
		{Name: "title", Label: "Title", Kind: KindText, Required: true},
		{Name: "content", Label: "Content (markdown)", Kind: KindTextarea},
		{Name: "image", Label: "Image", Kind: KindFile},
	},
}

var SectionResource = Resource{
	Key: "sections", Title: "Sections", Path: "sections/", Multipart: true, Ordered: true,
	Fields: []Field{
		{Name: "title", Label: "Title", Kind: KindText, Required: true, Column: true},
		{Name: "content", Label: "Content (markdown)", Kind: KindTextarea},
		{Name: "active", Label: "Active", Kind: KindCheckbox, Column: true},
		{Name: "image", Label: "Image", Kind: KindFile},
	},
}
