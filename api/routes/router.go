package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tindahanph/storefront-backend/api/controllers"
	"github.com/tindahanph/storefront-backend/api/middleware"
	cartsvc "github.com/tindahanph/storefront-backend/internal/cart"
	checkoutsvc "github.com/tindahanph/storefront-backend/internal/checkout"
	"github.com/tindahanph/storefront-backend/internal/customers"
	orderssvc "github.com/tindahanph/storefront-backend/internal/orders"
	"github.com/tindahanph/storefront-backend/internal/products"
	"github.com/tindahanph/storefront-backend/internal/qrcodes"
	returnssvc "github.com/tindahanph/storefront-backend/internal/returns"
	"github.com/tindahanph/storefront-backend/pkg/config"
	"github.com/tindahanph/storefront-backend/pkg/logger"
)

// Deps bundles everything the router needs wired.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	Registry  *prometheus.Registry
	DB        controllers.Pinger
	Redis     controllers.Pinger
	Customers customers.Service
	Products  products.Repository
	Cart      cartsvc.Service
	GuestCart *cartsvc.GuestStore
	Checkout  checkoutsvc.Service
	Orders    orderssvc.Service
	Returns   returnssvc.Service
	QRCodes   qrcodes.Service
}

// NewRouter assembles the full HTTP surface.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", controllers.Register(deps.Customers, logg))
		r.Post("/auth/login", controllers.Login(deps.Customers, deps.GuestCart, deps.Cart, logg))

		r.Get("/products", controllers.ProductsList(deps.Products, logg))
		r.Get("/products/{slug}", controllers.ProductDetail(deps.Products, logg))

		r.Route("/guest-cart", func(r chi.Router) {
			r.Use(middleware.GuestSession(cfg.Checkout.GuestCartTTL))
			r.Get("/", controllers.GuestCartFetch(deps.GuestCart, logg))
			r.Post("/", controllers.GuestCartAdd(deps.GuestCart, logg))
			r.Put("/select-all", controllers.GuestCartSelectAll(deps.GuestCart, logg))
			r.Put("/{productID}/quantity", controllers.GuestCartSetQuantity(deps.GuestCart, logg))
			r.Put("/{productID}/selected", controllers.GuestCartSetSelected(deps.GuestCart, logg))
			r.Put("/{productID}/variant", controllers.GuestCartSetVariant(deps.GuestCart, logg))
			r.Post("/remove", controllers.GuestCartRemove(deps.GuestCart, logg))
			r.Delete("/", controllers.GuestCartClear(deps.GuestCart, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartList(deps.Cart, logg))
				r.Post("/", controllers.CartAdd(deps.Cart, logg))
				r.Put("/select-all", controllers.CartSelectAll(deps.Cart, logg))
				r.Delete("/", controllers.CartClear(deps.Cart, logg))
				r.Put("/{itemID}/quantity", controllers.CartSetQuantity(deps.Cart, logg))
				r.Put("/{itemID}/selected", controllers.CartSetSelected(deps.Cart, logg))
				r.Put("/{itemID}/variant", controllers.CartSetVariant(deps.Cart, logg))
				r.Delete("/{itemID}", controllers.CartRemove(deps.Cart, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(deps.Customers, logg))
				r.Post("/", controllers.AddressCreate(deps.Customers, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", controllers.CheckoutReview(deps.Checkout, logg))
				r.Post("/pay", controllers.CheckoutPay(deps.Checkout, logg))
				r.Get("/qr", controllers.CheckoutQR(deps.Checkout, logg))
				r.Get("/success", controllers.CheckoutSuccess(deps.Checkout, logg))
				r.Post("/cod", controllers.CheckoutCOD(deps.Checkout, logg))
			})

			r.Post("/payment/confirm", controllers.PaymentConfirm(deps.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersList(deps.Orders, logg))
				r.Get("/{reference}", controllers.OrderDetail(deps.Orders, logg))
			})

			r.Route("/returns", func(r chi.Router) {
				r.Post("/{reference}", controllers.ReturnSubmit(deps.Returns, logg))
				r.Post("/{reference}/cancel", controllers.ReturnCancel(deps.Returns, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg), middleware.RequireAdmin(logg))

			r.Put("/orders/{reference}/status", controllers.AdminOrderUpdateStatus(deps.Orders, logg))
			r.Delete("/orders/{reference}", controllers.AdminOrderDelete(deps.Orders, logg))

			r.Post("/products", controllers.AdminProductCreate(deps.Products, logg))

			r.Route("/qrcodes", func(r chi.Router) {
				r.Get("/", controllers.AdminQRCodesList(deps.QRCodes, logg))
				r.Post("/", controllers.AdminQRCodeCreate(deps.QRCodes, logg))
			})

			r.Route("/returns", func(r chi.Router) {
				r.Get("/", controllers.AdminReturnsList(deps.Returns, logg))
				r.Put("/{orderID}/approve-return", controllers.AdminApproveReturn(deps.Returns, logg))
				r.Put("/{orderID}/approve-refund", controllers.AdminApproveRefund(deps.Returns, logg))
				r.Put("/{orderID}/reject", controllers.AdminRejectReturn(deps.Returns, logg))
				r.Delete("/{orderID}", controllers.AdminDestroyReturn(deps.Returns, logg))
			})
		})
	})

	return r
}
