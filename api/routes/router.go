package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lokapasar/checkout/api/controllers"
	"github.com/lokapasar/checkout/api/middleware"
	checkoutsvc "github.com/lokapasar/checkout/internal/checkout"
	"github.com/lokapasar/checkout/internal/payment"
	"github.com/lokapasar/checkout/pkg/commerce"
	"github.com/lokapasar/checkout/pkg/config"
	"github.com/lokapasar/checkout/pkg/logger"
)

type storePinger interface {
	Ping(ctx context.Context) error
}

// RouterParams carry everything the HTTP surface needs.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	Checkout *checkoutsvc.Service
	Payments *payment.Manager
	Bridge   *payment.Bridge
	Commerce *commerce.Client
	Registry *prometheus.Registry

	// RedisPinger is nil when the in-memory session store is in use.
	RedisPinger storePinger
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.RedisPinger))
	})

	if params.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/addresses", controllers.AddressList(params.Commerce, logg))

		r.Route("/checkout/sessions", func(r chi.Router) {
			r.Post("/", controllers.SessionCreate(params.Checkout, logg))
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", controllers.SessionFetch(params.Checkout, logg))
				r.Delete("/", controllers.SessionTeardown(params.Checkout, logg))
				r.Post("/submit", controllers.SessionSubmit(params.Checkout, logg))
				r.Route("/groups/{sellerID}", func(r chi.Router) {
					r.Put("/address", controllers.SessionSelectAddress(params.Checkout, logg))
					r.Put("/shipping", controllers.SessionSelectShipping(params.Checkout, logg))
					r.Put("/notes", controllers.SessionSetNotes(params.Checkout, logg))
					r.Post("/quote", controllers.SessionRequestQuote(params.Checkout, logg))
				})
			})
		})

		r.Route("/payments/{invoiceCode}", func(r chi.Router) {
			r.Get("/", controllers.PaymentFetch(params.Commerce, params.Payments, logg))
			r.Post("/watch", controllers.PaymentWatch(params.Payments, logg))
			r.Post("/snap", controllers.PaymentSnap(params.Bridge, logg))
			r.Post("/widget-outcome", controllers.PaymentWidgetOutcome(params.Bridge, params.Payments, logg))
		})
	})

	return r
}
