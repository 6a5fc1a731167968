package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parkgate/internal/handler/api"
	"parkgate/internal/handler/middleware"
	"parkgate/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	registry *prometheus.Registry,
	reservationHandler *api.ReservationHandler,
	gateHandler *api.GateHandler,
	feeHandler *api.FeeHandler,
	longStayHandler *api.LongStayHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, registry, reservationHandler, gateHandler, feeHandler, longStayHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	registry *prometheus.Registry,
	reservationHandler *api.ReservationHandler,
	gateHandler *api.GateHandler,
	feeHandler *api.FeeHandler,
	longStayHandler *api.LongStayHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	engine.GET("/health", healthCheck)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	apiGroup := engine.Group("/api")
	apiGroup.Use(authMiddleware.RequireAuth())
	{
		reservations := apiGroup.Group("/reservations")
		{
			addRoutes(reservations, []route{
				{Method: http.MethodPost, Path: "", Handler: reservationHandler.Create},
				{Method: http.MethodGet, Path: "", Handler: reservationHandler.List},
				{Method: http.MethodGet, Path: "/:id", Handler: reservationHandler.Get},
				{Method: http.MethodDelete, Path: "/:id", Handler: reservationHandler.Cancel},
				{Method: http.MethodPost, Path: "/:id/extend", Handler: reservationHandler.Extend},
				{Method: http.MethodPost, Path: "/:id/early-check-in", Handler: reservationHandler.EarlyCheckIn},
				{Method: http.MethodPost, Path: "/:id/check-in", Handler: reservationHandler.CheckIn},
				{Method: http.MethodPost, Path: "/:id/checkout-request", Handler: reservationHandler.RequestCheckout},
				{Method: http.MethodPost, Path: "/:id/checkout", Handler: reservationHandler.Checkout},
				{Method: http.MethodPost, Path: "/:id/direct-check-in", Handler: reservationHandler.DirectCheckIn},
				{Method: http.MethodPost, Path: "/:id/direct-check-out", Handler: reservationHandler.DirectCheckOut},
			})

			staff := reservations.Group("")
			staff.Use(authMiddleware.RequireStaff())
			addRoutes(staff, []route{
				{Method: http.MethodPost, Path: "/:id/gate-verify", Handler: gateHandler.Verify},
				{Method: http.MethodPost, Path: "/:id/gate-checkout-verify", Handler: gateHandler.CheckoutVerify},
			})
		}

		addRoutes(apiGroup, []route{
			{Method: http.MethodPost, Path: "/fees/quote", Handler: feeHandler.Quote},
		})

		staffGroup := apiGroup.Group("")
		staffGroup.Use(authMiddleware.RequireStaff())
		addRoutes(staffGroup, []route{
			{Method: http.MethodGet, Path: "/long-stays", Handler: longStayHandler.List},
		})
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
