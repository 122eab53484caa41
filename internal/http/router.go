package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cartpage"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/http/handlers"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/tracing"
)

type Deps struct {
	Logger zerolog.Logger
	Cfg    config.Config

	Catalog handlers.Catalog
	Events  events.CartPublisher

	HealthProbes []clients.HealthProbe
}

func NewRouter(d Deps) http.Handler {
	cookie := cart.CookieOptions{Secure: d.Cfg.CookieSecure}
	asm := cartpage.NewAssembler(d.Catalog,
		cartpage.WithConcurrency(d.Cfg.MaxHydrationConcurrency),
		cartpage.WithLogger(d.Logger),
	)

	r := chi.NewRouter()

	// Middlewares (outer -> inner)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(d.Logger))
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Recover)
	r.Use(middleware.CORS(d.Cfg.CORSAllowOrigins))
	r.Use(tracing.Middleware)

	// Health
	health := &handlers.HealthHandler{Probes: d.HealthProbes}
	r.Get("/health", health.Self)
	r.Get("/health/upstreams", health.Upstreams)

	r.Route("/api", func(r chi.Router) {
		cat := handlers.NewCatalogHandler(d.Catalog, cookie, d.Cfg.PageSize)
		r.Get("/products", cat.ListProducts)
		r.Get("/products/{id}", cat.GetProduct)

		c := handlers.NewCartHandler(d.Catalog, asm, d.Events, cookie)
		r.Get("/cart", c.GetCart)
		r.Get("/cart/count", c.Count)
		r.Post("/cart/items/{id}", c.AddItem)
		r.Patch("/cart/items/{id}", c.ChangeQuantity)
		r.Put("/cart/items/{id}", c.SetQuantity)
		r.Patch("/cart/lines/{id}", c.ChangeLine)
		r.Post("/checkout", c.Checkout)
	})

	return r
}
