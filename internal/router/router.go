package router

import (
	"github.com/labstack/echo/v4"

	"github.com/moimlab/moim-server/internal/handler"
	"github.com/moimlab/moim-server/internal/middleware"
)

// RegisterRoutes registers routes that carry no authentication at all.
// Currently that is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Register, login and
// refresh live under /v1/auth without a session; logout and /v1/me require a
// valid access token. The rate limiter guards the credential endpoints
// against brute forcing and may be nil in tests.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	if limiter != nil {
		g.Use(limiter)
	}
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.POST("/auth/logout", a.Logout)
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated invite endpoints. Anyone
// holding an invite code can preview the event and join it as a guest.
// The cache middleware is applied to the preview only and may be nil.
func RegisterPublic(e *echo.Echo, inv *handler.InviteHandler, cache echo.MiddlewareFunc) {
	if cache != nil {
		e.GET("/v1/invites/:code", inv.Get, cache)
	} else {
		e.GET("/v1/invites/:code", inv.Get)
	}
	e.POST("/v1/invites/:code/join", inv.Join)
}

// RegisterEvents registers event CRUD plus the member, settlement and notice
// routes that hang off an event. All of them require a valid access token.
func RegisterEvents(e *echo.Echo, ev *handler.EventHandler, m *handler.MemberHandler, s *handler.SettlementHandler, n *handler.NoticeHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	g.POST("/events", ev.Create)
	g.GET("/events", ev.List)
	g.GET("/events/:id", ev.Get)
	g.PATCH("/events/:id", ev.Update)
	g.PATCH("/events/:id/status", ev.UpdateStatus)
	g.DELETE("/events/:id", ev.Delete)

	g.POST("/events/:id/members", m.Join)
	g.GET("/events/:id/members", m.List)
	g.GET("/events/:id/members/:memberID", m.Get)
	g.PATCH("/events/:id/members/:memberID/status", m.UpdateStatus)
	g.DELETE("/events/:id/members/:memberID", m.Remove)

	g.GET("/events/:id/settlement", s.Summary)
	g.GET("/events/:id/settlement/stats", s.Stats)
	g.GET("/events/:id/settlement/unpaid", s.Unpaid)
	g.PUT("/events/:id/members/:memberID/payment", s.SetPaid)
	g.PUT("/events/:id/settlement/payments", s.SetPaidBulk)

	g.POST("/events/:id/notices", n.Create)
	g.GET("/events/:id/notices", n.List)
	g.GET("/events/:id/notices/recent", n.Recent)
	g.GET("/notices/:noticeID", n.Get)
	g.PATCH("/notices/:noticeID", n.Update)
	g.DELETE("/notices/:noticeID", n.Delete)
}

// RegisterCarpools registers carpool offers and ride requests. Joining and
// deciding requests run inside a row lock so seat counts stay consistent.
func RegisterCarpools(e *echo.Echo, h *handler.CarpoolHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	g.POST("/events/:id/carpools", h.Create)
	g.GET("/events/:id/carpools", h.List)
	g.GET("/carpools/mine", h.Mine)
	g.GET("/carpools/:carpoolID", h.Get)
	g.DELETE("/carpools/:carpoolID", h.Delete)
	g.GET("/carpools/:carpoolID/requests", h.Requests)
	g.PATCH("/carpools/:carpoolID/requests/:requestID", h.Decide)
	g.POST("/carpools/:carpoolID/join", h.Join)
	g.DELETE("/carpools/:carpoolID/join", h.Leave)
}

// RegisterAdmin registers the operator dashboard endpoints behind the ADMIN
// role check.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin", middleware.JWTAuth(jwtSecret), middleware.RequireRole("ADMIN"))

	g.GET("/stats", h.Stats)
	g.GET("/events", h.ListEvents)
}
