package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/api"
	"github.com/localmarkethq/localmarket-backend/api/routes"
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
	"github.com/localmarkethq/localmarket-backend/pkg/migrate"
	"github.com/localmarkethq/localmarket-backend/pkg/realtime"
	"github.com/localmarkethq/localmarket-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

// chatUserDirectory adapts the users repository to the chat service's
// partner lookup.
type chatUserDirectory struct {
	repo *users.Repository
}

func (d chatUserDirectory) Exists(ctx context.Context, userID uuid.UUID) (string, bool, error) {
	user, err := d.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return user.Name, user.IsActive, nil
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := multierr.Append(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	productRepo := products.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)
	invoiceRepo := invoices.NewRepository(gormDB)
	notificationRepo := notifications.NewRepository(gormDB)
	chatRepo := chat.NewRepository(gormDB)
	wishlistRepo := wishlist.NewRepository(gormDB)
	reviewRepo := reviews.NewRepository(gormDB)
	reportRepo := reports.NewRepository(gormDB)
	inquiryRepo := inquiries.NewRepository(gormDB)

	hub := realtime.NewHub(logg)

	authService, err := auth.NewService(userRepo, cfg.JWT, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	userService, err := users.NewService(userRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}
	productService, err := products.NewService(productRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}
	wishlistService, err := wishlist.NewService(wishlistRepo, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}
	notificationService, err := notifications.NewService(notificationRepo, hub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}
	pdfRenderer, err := invoices.NewPDFRenderer(cfg.Invoices.Dir)
	if err != nil {
		logg.Error(context.Background(), "failed to create pdf renderer", err)
		os.Exit(1)
	}
	invoiceService, err := invoices.NewService(invoiceRepo, orderRepo, pdfRenderer, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoices service", err)
		os.Exit(1)
	}
	orderService, err := orders.NewService(orderRepo, productRepo, dbClient, invoiceService, notificationService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	chatService, err := chat.NewService(chatRepo, chatUserDirectory{repo: userRepo}, notificationService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create chat service", err)
		os.Exit(1)
	}
	reviewService, err := reviews.NewService(reviewRepo, productRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reviews service", err)
		os.Exit(1)
	}
	reportService, err := reports.NewService(reportRepo, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}
	inquiryService, err := inquiries.NewService(inquiryRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create inquiries service", err)
		os.Exit(1)
	}

	socketHandler := chat.NewSocketHandler(hub, chatService, logg)
	httpMetrics := metrics.NewHTTPMetrics()

	handler := routes.NewRouter(cfg, logg, dbClient, redisClient, httpMetrics, hub, socketHandler, routes.Services{
		Auth:          authService,
		Users:         userService,
		Products:      productService,
		Wishlist:      wishlistService,
		Orders:        orderService,
		Invoices:      invoiceService,
		Chat:          chatService,
		Notifications: notificationService,
		Reviews:       *reviewService,
		Reports:       *reportService,
		Inquiries:     *inquiryService,
	})

	server := api.NewServer(cfg, handler)

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": server.Addr,
	})
	logg.Info(ctx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
