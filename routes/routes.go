package routes

import (
	"net/http"
	"os"
	"time"

	"clinicfront/config"
	"clinicfront/handlers"
	"clinicfront/services/content"
	"clinicfront/templates"
	"clinicfront/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterPublicRoutes registers the marketing pages, the join flow and the
// patient corner.
func RegisterPublicRoutes(r *gin.Engine, hb *handlers.HandlerBundle, limit gin.HandlerFunc) {
	public := r.Group("", hb.RequireRuntime)
	{
		public.GET("/", hb.Pages.Home)
		public.GET("/about", hb.Pages.About)
		public.GET("/services", hb.Pages.Services)
		public.GET("/services/:category", hb.Pages.Services)
		public.GET("/blog", hb.Pages.Blog)
		public.GET("/blog/:slug", hb.Pages.BlogPost)
		public.GET("/locations", hb.Pages.Locations)
		public.GET("/promos", hb.Pages.Promos)

		public.GET("/queue-join", hb.Join.JoinPage)
		public.POST("/queue-join", limit, hb.Join.Join)
		public.GET("/queue-join/ticket", hb.Join.Ticket)

		public.GET("/patient-login", hb.Auth.PatientLoginPage)
		public.POST("/patient-login", limit, hb.Auth.PatientLogin)
		public.POST("/patient-logout", hb.Auth.PatientLogout)
		public.GET("/patients-corner", hb.Guard.RequirePatient(), hb.Join.PatientsCorner)
	}
}

// RegisterAdminRoutes registers the staff login and every guarded admin page.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle, limit gin.HandlerFunc) {
	r.GET("/admin", func(c *gin.Context) { c.Redirect(http.StatusMovedPermanently, "/admin-panel") })

	auth := r.Group("/admin-panel", hb.RequireRuntime)
	{
		auth.GET("/login", hb.Auth.StaffLoginPage)
		auth.POST("/login", limit, hb.Auth.StaffLogin)
		auth.POST("/logout", hb.Auth.StaffLogout)
	}

	staff := r.Group("/admin-panel", hb.RequireRuntime, hb.Guard.RequireStaff())
	{
		staff.GET("", hb.Admin.Home)
		staff.GET("/profile", hb.Profile.Page)
		staff.POST("/profile", hb.Profile.Update)
	}
	registerQueueRoutes(staff, hb)
	registerContentRoutes(staff, hb)
}

func registerQueueRoutes(staff *gin.RouterGroup, hb *handlers.HandlerBundle) {
	staff.GET("/queue", hb.Queue.Dashboard)
	staff.POST("/queue/start", hb.Queue.Start)
	staff.GET("/queue/rows", hb.Queue.Rows)
	staff.POST("/queue/add", hb.Queue.Add)
	staff.POST("/queue/clear", hb.Queue.Clear)
	staff.POST("/queue/:id/:action", hb.Queue.Action)

	staff.GET("/queue-display", hb.Display.Page)
	staff.GET("/queue-reports", hb.Reports.Page)
	staff.GET("/queue-reports/export.csv", hb.Reports.Export)
	staff.GET("/queue-qr", hb.Admin.QueueQR)
	staff.GET("/queue-qr.png", hb.Admin.QueueQRImage)
}

// registerContentRoutes mounts one manager per registry resource, each behind
// its own role check, plus the About manager.
func registerContentRoutes(staff *gin.RouterGroup, hb *handlers.HandlerBundle) {
	for _, res := range content.Resources() {
		g := staff.Group("/manage/"+res.Key, hb.Guard.RequireStaff(res.Roles...))
		g.GET("", hb.Content.List(res))
		g.GET("/new", hb.Content.New(res))
		g.POST("", hb.Content.Create(res))
		g.GET("/:id/edit", hb.Content.Edit(res))
		g.POST("/:id", hb.Content.Update(res))
		g.POST("/:id/delete", hb.Content.Delete(res))
	}

	about := staff.Group("/about")
	{
		about.GET("", hb.About.Page)
		about.POST("", hb.About.Save)
		about.GET("/sections/new", hb.About.NewSection)
		about.POST("/sections", hb.About.CreateSection)
		about.GET("/sections/:id/edit", hb.About.EditSection)
		about.POST("/sections/:id", hb.About.UpdateSection)
		about.POST("/sections/:id/delete", hb.About.DeleteSection)
		about.POST("/sections/:id/move", hb.About.MoveSection)
	}
}

// RegisterRealtimeRoutes registers the display feed: the SockJS endpoint and
// the JSON polling fallback, both open to the configured origins.
func RegisterRealtimeRoutes(r *gin.Engine, hb *handlers.HandlerBundle, cfg config.Config) {
	corsMW := cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})

	api := r.Group("/api", corsMW, hb.RequireRuntime)
	{
		api.GET("/queue/display", hb.Guard.RequireStaff(), hb.Display.Snapshot)
	}

	rt := r.Group("/realtime", corsMW, hb.RequireRuntime)
	{
		rt.Any("/queue/*any", hb.Display.Realtime)
	}
}

// RegisterHealthRoute registers the health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/healthz", hb.Health.Check)
}

// RegisterStaticRoutes serves the embedded assets and, when configured, the
// call chime.
func RegisterStaticRoutes(r *gin.Engine, cfg config.Config) {
	r.StaticFS("/static", http.FS(templates.Static()))

	if cfg.SoundFile == "" {
		return
	}
	if _, err := os.Stat(cfg.SoundFile); err != nil {
		utils.GetLogger().Warn("routes: sound file not served", zap.String("file", cfg.SoundFile), zap.Error(err))
		return
	}
	r.StaticFile(cfg.SoundPath, cfg.SoundFile)
}

// RegisterRoutes centralizes registration of all endpoints.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, cfg config.Config, limit gin.HandlerFunc) {
	RegisterStaticRoutes(r, cfg)
	RegisterHealthRoute(r, hb)
	RegisterRealtimeRoutes(r, hb, cfg)
	RegisterPublicRoutes(r, hb, limit)
	RegisterAdminRoutes(r, hb, limit)
	r.NoRoute(hb.NotFound)
}
