package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter собирает HTTP API каталога и заказов.
// idem может быть nil — тогда POST-запросы обрабатываются без кэширования.
func NewRouter(products *ProductHandler, orders *OrderHandler, idem *IdempotencyMiddleware) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", products.List)
		r.Post("/", products.Create)
		r.Get("/{id}", products.Get)
		r.Put("/{id}", products.Update)
		r.Delete("/{id}", products.Delete)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", orders.List)
		if idem != nil {
			r.With(idem.Handler).Post("/", orders.Create)
		} else {
			r.Post("/", orders.Create)
		}
		r.Get("/{id}", orders.Get)
		r.Put("/{id}", orders.Update)
		r.Delete("/{id}", orders.Delete)
	})

	return r
}
