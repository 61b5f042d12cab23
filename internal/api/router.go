// Package api wires the HTTP surface: routing, form handling and rendering.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk-ce/internal/auth"
	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
	"github.com/helpdesk-io/helpdesk-ce/internal/service"
	"github.com/helpdesk-io/helpdesk-ce/internal/session"
	"github.com/helpdesk-io/helpdesk-ce/internal/shared"
)

// Router owns the gin engine and the handler dependencies.
type Router struct {
	engine   *gin.Engine
	renderer *shared.TemplateRenderer
	gate     *middleware.Gate
	sessions session.Store
	authSvc  *auth.AuthService
	tickets  *service.TicketService
	jwt      *auth.JWTManager
	cfg      *config.Config
	log      *zap.Logger
}

// NewRouter creates the application router.
func NewRouter(
	renderer *shared.TemplateRenderer,
	gate *middleware.Gate,
	sessions session.Store,
	authSvc *auth.AuthService,
	tickets *service.TicketService,
	jwtManager *auth.JWTManager,
	cfg *config.Config,
	log *zap.Logger,
) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		engine:   gin.New(),
		renderer: renderer,
		gate:     gate,
		sessions: sessions,
		authSvc:  authSvc,
		tickets:  tickets,
		jwt:      jwtManager,
		cfg:      cfg,
		log:      log,
	}
}

// Engine returns the underlying gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// SetupRoutes registers middleware and every route of the HTTP surface.
func (r *Router) SetupRoutes() {
	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.Metrics())
	r.engine.Use(r.gate.Resolve())

	if r.cfg != nil && r.cfg.Metrics.Enabled {
		path := r.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, gin.WrapH(promhttp.Handler()))
	}

	// Public surface
	r.engine.GET("/", r.handleIndex)
	r.engine.GET("/register", r.handleRegisterForm)
	r.engine.POST("/register", r.handleRegister)
	r.engine.GET("/login", r.handleLoginForm)
	r.engine.POST("/login", r.handleLogin)
	r.engine.GET("/logout", r.handleLogout)

	// Authenticated surface
	user := r.engine.Group("/user", r.gate.RequireAuth())
	{
		user.GET("/dashboard", r.handleUserDashboard)
		user.GET("/create-ticket", r.handleCreateTicketForm)
		user.POST("/create-ticket", r.handleCreateTicket)
	}

	// Administrator surface
	admin := r.engine.Group("/admin", r.gate.RequireAdmin())
	{
		admin.GET("/dashboard", r.handleAdminDashboard)
		admin.GET("/respond-ticket/:id", r.handleRespondTicketForm)
		admin.POST("/respond-ticket/:id", r.handleRespondTicket)
		admin.GET("/tickets/:id/attachment", r.handleDownloadAttachment)
	}
}

// render executes a template with the pending flash messages merged in.
func (r *Router) render(c *gin.Context, code int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["flash"]; !ok {
		data["flash"] = r.gate.ConsumeFlash(c)
	}
	if account, ok := middleware.CurrentAccount(c); ok {
		data["account"] = account
	}
	r.renderer.HTML(c, code, name, data)
}
