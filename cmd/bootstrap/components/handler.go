package components

import (
	"parkgate/internal/handler"
	"parkgate/internal/handler/api"
	"parkgate/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewReservationHandler,
		api.NewGateHandler,
		api.NewFeeHandler,
		api.NewLongStayHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
