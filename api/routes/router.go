package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/localmarkethq/localmarket-backend/api/controllers"
	"github.com/localmarkethq/localmarket-backend/api/middleware"
	"github.com/localmarkethq/localmarket-backend/internal/auth"
	"github.com/localmarkethq/localmarket-backend/internal/chat"
	"github.com/localmarkethq/localmarket-backend/internal/inquiries"
	"github.com/localmarkethq/localmarket-backend/internal/invoices"
	"github.com/localmarkethq/localmarket-backend/internal/notifications"
	"github.com/localmarkethq/localmarket-backend/internal/orders"
	"github.com/localmarkethq/localmarket-backend/internal/products"
	"github.com/localmarkethq/localmarket-backend/internal/reports"
	"github.com/localmarkethq/localmarket-backend/internal/reviews"
	"github.com/localmarkethq/localmarket-backend/internal/users"
	"github.com/localmarkethq/localmarket-backend/internal/wishlist"
	"github.com/localmarkethq/localmarket-backend/pkg/config"
	"github.com/localmarkethq/localmarket-backend/pkg/db"
	"github.com/localmarkethq/localmarket-backend/pkg/logger"
	"github.com/localmarkethq/localmarket-backend/pkg/metrics"
	"github.com/localmarkethq/localmarket-backend/pkg/realtime"
	"github.com/localmarkethq/localmarket-backend/pkg/redis"
)

// Services bundles everything the router wires behind HTTP handlers.
type Services struct {
	Auth          auth.Service
	Users         users.Service
	Products      products.Service
	Wishlist      wishlist.Service
	Orders        orders.Service
	Invoices      invoices.Service
	Chat          chat.Service
	Notifications notifications.Service
	Reviews       reviews.Service
	Reports       reports.Service
	Inquiries     inquiries.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	hub *realtime.Hub,
	socketHandler realtime.EventHandler,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.HTTP),
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

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	r.Method(http.MethodGet, "/metrics", httpMetrics.Handler())

	r.Get("/ws", controllers.WebSocket(cfg, hub, socketHandler, logg))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
	})

	// Public catalog and contact surface.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(svcs.Products, logg))
		r.Get("/{productId}", controllers.ProductDetail(svcs.Products, logg))
		r.Get("/{productId}/reviews", controllers.ProductReviews(svcs.Reviews, logg))
	})
	r.Post("/api/v1/inquiries", controllers.InquiryCreate(svcs.Inquiries, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/account", func(r chi.Router) {
			r.Get("/", controllers.AccountProfile(svcs.Users, logg))
			r.Put("/", controllers.AccountUpdate(svcs.Users, logg))
			r.Delete("/", controllers.AccountDelete(svcs.Users, logg))
		})
		r.Get("/users/{userId}", controllers.UserProfile(svcs.Users, logg))

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistList(svcs.Wishlist, logg))
			r.Get("/ids", controllers.WishlistIDs(svcs.Wishlist, logg))
			r.Post("/{productId}", controllers.WishlistAdd(svcs.Wishlist, logg))
			r.Delete("/{productId}", controllers.WishlistRemove(svcs.Wishlist, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.ProductCreate(svcs.Products, logg))
			r.Get("/mine", controllers.ProductListMine(svcs.Products, logg))
			r.Put("/{productId}", controllers.ProductUpdate(svcs.Products, logg))
			r.Delete("/{productId}", controllers.ProductDelete(svcs.Products, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(svcs.Orders, logg))
			r.Get("/", controllers.OrderListMine(svcs.Orders, logg))
			r.Get("/selling", controllers.OrderListSelling(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
			r.Put("/{orderId}/status", controllers.OrderUpdateStatus(svcs.Orders, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.InvoiceListMine(svcs.Invoices, logg))
			r.Get("/order/{orderId}", controllers.InvoiceByOrder(svcs.Invoices, logg))
			r.Post("/generate/{orderId}", controllers.InvoiceGenerate(svcs.Invoices, logg))
			r.Put("/cancel/{orderId}", controllers.InvoiceCancel(svcs.Invoices, logg))
			r.Get("/{invoiceId}/download", controllers.InvoiceDownload(svcs.Invoices, logg))
		})

		r.Route("/chats", func(r chi.Router) {
			r.Get("/", controllers.ChatList(svcs.Chat, logg))
			r.Post("/", controllers.ChatCreate(svcs.Chat, logg))
			r.Get("/{chatId}", controllers.ChatDetail(svcs.Chat, logg))
			r.Delete("/{chatId}", controllers.ChatDelete(svcs.Chat, logg))
			r.Get("/{chatId}/messages", controllers.ChatMessages(svcs.Chat, logg))
			r.Post("/{chatId}/read", controllers.ChatMarkRead(svcs.Chat, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationList(svcs.Notifications, logg))
			r.Get("/unread-count", controllers.NotificationUnreadCount(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.NotificationMarkRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.NotificationMarkAllRead(svcs.Notifications, logg))
			r.Delete("/{notificationId}", controllers.NotificationDelete(svcs.Notifications, logg))
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", controllers.ReviewCreate(svcs.Reviews, logg))
			r.Put("/{reviewId}", controllers.ReviewUpdate(svcs.Reviews, logg))
			r.Delete("/{reviewId}", controllers.ReviewDelete(svcs.Reviews, logg))
			r.Post("/{reviewId}/react", controllers.ReviewReact(svcs.Reviews, logg))
		})

		r.Post("/reports", controllers.ReportCreate(svcs.Reports, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminUserList(svcs.Users, logg))
			r.Post("/", controllers.AdminCreate(svcs.Users, logg))
			r.Put("/{userId}/active", controllers.AdminSetUserActive(svcs.Users, logg))
			r.Delete("/{userId}", controllers.AdminDeleteUser(svcs.Users, logg))
		})
		r.Delete("/products/{productId}", controllers.ProductDelete(svcs.Products, logg))
		r.Get("/orders", controllers.AdminOrderList(svcs.Orders, logg))
		r.Route("/reports", func(r chi.Router) {
			r.Get("/", controllers.AdminReportList(svcs.Reports, logg))
			r.Put("/{reportId}/status", controllers.AdminReportUpdateStatus(svcs.Reports, logg))
		})
		r.Route("/inquiries", func(r chi.Router) {
			r.Get("/", controllers.AdminInquiryList(svcs.Inquiries, logg))
			r.Get("/{inquiryId}", controllers.AdminInquiryDetail(svcs.Inquiries, logg))
			r.Put("/{inquiryId}/respond", controllers.AdminInquiryRespond(svcs.Inquiries, logg))
		})
	})

	return r
}
