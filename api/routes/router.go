package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/pharmacy-backend/api/controllers"
	"github.com/angelmondragon/pharmacy-backend/api/middleware"
	"github.com/angelmondragon/pharmacy-backend/internal/address"
	"github.com/angelmondragon/pharmacy-backend/internal/auth"
	"github.com/angelmondragon/pharmacy-backend/internal/cart"
	"github.com/angelmondragon/pharmacy-backend/internal/categories"
	"github.com/angelmondragon/pharmacy-backend/internal/checkout"
	"github.com/angelmondragon/pharmacy-backend/internal/orders"
	product "github.com/angelmondragon/pharmacy-backend/internal/products"
	"github.com/angelmondragon/pharmacy-backend/pkg/auth/session"
	"github.com/angelmondragon/pharmacy-backend/pkg/config"
	"github.com/angelmondragon/pharmacy-backend/pkg/db"
	"github.com/angelmondragon/pharmacy-backend/pkg/logger"
	"github.com/angelmondragon/pharmacy-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/pharmacy-backend/pkg/redis"
)

// Cache is the redis surface the HTTP layer needs: health, idempotency and rate limits.
type Cache interface {
	pkgredis.Pinger
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Services bundles the domain services exposed over HTTP.
type Services struct {
	Auth          auth.Service
	Register      auth.RegisterService
	PasswordReset auth.PasswordResetService
	Categories    categories.Service
	Products      product.Service
	Cart          cart.Service
	Addresses     address.Service
	Orders        orders.Service
	Checkout      checkout.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	cache Cache,
	sessions session.AccessSessionChecker,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	svc Services,
) http.Handler {
	r := chi.NewRouter()

	var httpMetrics *metrics.HTTPMetrics
	if m != nil {
		httpMetrics = m.HTTP
	}
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.Email.FrontendURL),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	resetPolicy := middleware.NewAuthRateLimitPolicy(
		"password_reset",
		cfg.AuthRateLimit.ResetWindow,
		cfg.AuthRateLimit.ResetIPLimit,
		cfg.AuthRateLimit.ResetEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cache))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	authenticated := middleware.Auth(cfg.JWT, sessions, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, cache, logg)).Post("/register", controllers.AuthRegister(svc.Register, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, cache, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
			r.With(authenticated).Post("/logout", controllers.AuthLogout(svc.Auth, logg))
			r.With(middleware.AuthRateLimit(resetPolicy, cache, logg)).Post("/password-reset", controllers.AuthPasswordReset(svc.PasswordReset, logg))
			r.Post("/password-reset/confirm", controllers.AuthPasswordResetConfirm(svc.PasswordReset, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoryList(svc.Categories, logg))
			r.Get("/{categoryId}", controllers.CategoryDetail(svc.Categories, logg))
			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Post("/", controllers.CategoryCreate(svc.Categories, logg))
				r.Put("/{categoryId}", controllers.CategoryUpdate(svc.Categories, logg))
				r.Delete("/{categoryId}", controllers.CategoryDelete(svc.Categories, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svc.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(svc.Products, logg))
			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Post("/", controllers.ProductCreate(svc.Products, logg))
				r.Put("/{productId}", controllers.ProductUpdate(svc.Products, logg))
				r.Delete("/{productId}", controllers.ProductDelete(svc.Products, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Get("/me", controllers.MeGet(svc.Auth, logg))
			r.Patch("/me", controllers.MeUpdate(svc.Auth, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(svc.Cart, logg))
				r.Post("/add_item", controllers.CartAddItem(svc.Cart, logg))
				r.Post("/update_item", controllers.CartUpdateItem(svc.Cart, logg))
				r.Post("/remove_item", controllers.CartRemoveItem(svc.Cart, logg))
				r.Post("/clear", controllers.CartClear(svc.Cart, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(svc.Addresses, logg))
				r.Post("/", controllers.AddressCreate(svc.Addresses, logg))
				r.Get("/{addressId}", controllers.AddressDetail(svc.Addresses, logg))
				r.Put("/{addressId}", controllers.AddressUpdate(svc.Addresses, logg))
				r.Delete("/{addressId}", controllers.AddressDelete(svc.Addresses, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(svc.Orders, logg))
				r.With(middleware.Idempotency(cache, cfg.Checkout.IdempotencyTTL, logg)).Post("/", controllers.OrderCreate(svc.Checkout, logg))
				r.Get("/{orderId}", controllers.OrderDetail(svc.Orders, logg))
				r.Post("/{orderId}/update_status", controllers.OrderUpdateStatus(svc.Orders, logg))
			})
		})
	})

	return r
}
