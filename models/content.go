package models

// Category is a service category (service-categories/).
type Category struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Service is a clinic service (services/).
type Service struct {
	ID           ID        `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        Text      `json:"price"`
	Active       bool      `json:"active"`
	CategoryID   ID        `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Category     *Category `json:"category"`
}

// CategoryLabel prefers the nested category name.
func (s Service) CategoryLabel() string {
	if s.Category != nil && s.Category.Name != "" {
		return s.Category.Name
	}
	return s.CategoryName
}

type Hero struct {
	ID         ID     `json:"id"`
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	ButtonText string `json:"button_text"`
	Image      string `json:"image"`
	Active     bool   `json:"active"`
}

type Banner struct {
	ID       ID     `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Image    string `json:"image"`
	Order    int    `json:"order"`
	Active   bool   `json:"active"`
}

// Section is an ordered block of the About page.
type Section struct {
	ID        ID     `json:"id"`
	AboutPage ID     `json:"about_page"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Image     string `json:"image"`
	Active    bool   `json:"active"`
	Order     int    `json:"order"`
}

type About struct {
	ID       ID        `json:"id"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Image    string    `json:"image"`
	Sections []Section `json:"sections"`
}

type BlogPost struct {
	ID         ID        `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Content    string    `json:"content"`
	CoverImage string    `json:"cover_image"`
	VideoURL   string    `json:"video_url"`
	Published  bool      `json:"published"`
	CreatedAt  Timestamp `json:"created_at"`
}

type Location struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact"`
	Hours   string `json:"hours"`
}

type Promo struct {
	ID        ID        `json:"id"`
	Title     string    `json:"title"`
	Discount  Text      `json:"discount"`
	StartDate Timestamp `json:"start_date"`
	EndDate   Timestamp `json:"end_date"`
}
