package handlers

import (
	"clinicfront/config"
	"clinicfront/middleware"
	"clinicfront/services/clinicapi"
	"clinicfront/services/content"
	"clinicfront/services/queue"
	"clinicfront/services/runtimeconfig"
	"clinicfront/services/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the services every handler is built from.
type Deps struct {
	Config   config.Config
	Sessions *session.Manager
	Loader   *runtimeconfig.Loader
	API      *clinicapi.Client
	Queue    *queue.Service
	Feed     *queue.Feed
	FeedAuth *FeedAuth
	Content  *content.Manager
	Logger   *zap.Logger
}

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	Guard *middleware.Guard

	Auth    *AuthHandler
	Admin   *AdminHandler
	Join    *JoinHandler
	Queue   *QueueHandler
	Display *DisplayHandler
	Reports *ReportsHandler
	Content *ContentHandler
	About   *AboutHandler
	Profile *ProfileHandler
	Pages   *PagesHandler
	Health  *HealthHandler

	// RequireRuntime answers 503 until the runtime config is loaded.
	RequireRuntime gin.HandlerFunc
	NotFound       gin.HandlerFunc
}

func NewHandlerBundle(d Deps) *HandlerBundle {
	b := newBase(d.Config, d.Sessions, d.Loader, d.Logger)
	return &HandlerBundle{
		Guard:          middleware.NewGuard(d.Sessions, b.AccessDenied, d.Logger),
		Auth:           NewAuthHandler(b, d.API),
		Admin:          NewAdminHandler(b),
		Join:           NewJoinHandler(b, d.Queue, d.Feed),
		Queue:          NewQueueHandler(b, d.Queue, d.API),
		Display:        NewDisplayHandler(b, d.Feed, d.FeedAuth),
		Reports:        NewReportsHandler(b, d.Queue),
		Content:        NewContentHandler(b, d.Content),
		About:          NewAboutHandler(b, d.Content, d.API),
		Profile:        NewProfileHandler(b, d.API),
		Pages:          NewPagesHandler(b, d.API),
		Health:         NewHealthHandler(d.Loader, d.Feed),
		RequireRuntime: b.RequireRuntime(),
		NotFound:       b.NotFound,
	}
}
