package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Orders         *HTTPHandler
	Cart           *CartHandler
	Sessions       SessionResolver
	Logger         *zap.Logger
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", cfg.Orders.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionAuth(cfg.Sessions, cfg.Logger))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", cfg.Orders.PlaceOrder)
			r.Get("/", cfg.Orders.ListOrders)
			r.Patch("/{order_id}/status", cfg.Orders.UpdateStatus)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cfg.Cart.GetCart)
			r.Post("/items", cfg.Cart.AddItem)
			r.Put("/items/{product_id}", cfg.Cart.UpdateItem)
			r.Delete("/items/{product_id}", cfg.Cart.RemoveItem)
		})
	})

	return otelhttp.NewHandler(r, "distributrack-http")
}
