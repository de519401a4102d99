package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/tollsetu/fastag-portal/app/controllers"
	"github.com/tollsetu/fastag-portal/internal/pkg/cache"
	"github.com/tollsetu/fastag-portal/internal/pkg/constants"
	"github.com/tollsetu/fastag-portal/internal/pkg/env"
	"github.com/tollsetu/fastag-portal/internal/pkg/middleware"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// The webhook route lives outside the rate-limited group: the payment
	// provider retries aggressively and must never be throttled away.
	app.Post(constants.PaymentWebhookRoute, controllers.HandlePaymentWebhook)

	api := app.Group(constants.APIRoute, limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Storage:    newLimiterStorage(),
		KeyGenerator: func(c *fiber.Ctx) string {
			return controllers.GetClientIP(c)
		},
	}))

	v1 := api.Group(constants.APIv1Route)

	auth := v1.Group("/auth")
	auth.Post("/register", controllers.HandleRegister)
	auth.Get("/activate", controllers.HandleActivate)
	auth.Post("/login", controllers.HandleLogin)

	// Reviewer document access via short-lived token. Registered before the
	// authenticated group so the token is the only credential required.
	v1.Get("/admin/documents/file", controllers.HandleAdminGetDocumentFile)

	// Authenticated user routes
	user := v1.Group("", middleware.JWTAuthMiddleware())
	user.Get("/me", controllers.HandleGetMe)
	user.Patch("/me", controllers.HandleUpdateMe)

	user.Post("/applications", controllers.HandleCreateApplication)
	user.Get("/applications", controllers.HandleListApplications)
	user.Get("/applications/:uuid", controllers.HandleGetApplication)
	user.Delete("/applications/:uuid", controllers.HandleCancelApplication)

	user.Post("/applications/:uuid/documents", controllers.HandleUploadDocument)
	user.Get("/applications/:uuid/documents", controllers.HandleListDocuments)
	user.Get("/documents/:uuid/file", controllers.HandleGetDocumentFile)

	user.Post("/applications/:uuid/payment", controllers.HandleInitiatePayment)
	user.Get("/payments", controllers.HandleListPayments)
	user.Get("/payments/:uuid", controllers.HandleGetPayment)

	user.Get("/deliveries", controllers.HandleListDeliveries)
	user.Get("/deliveries/:uuid", controllers.HandleGetDelivery)

	user.Get("/notifications", controllers.HandleListNotifications)
	user.Patch("/notifications/:id/read", controllers.HandleMarkNotificationRead)
	user.Patch("/notifications/read-all", controllers.HandleMarkAllNotificationsRead)

	// Admin routes, bearer auth inherited from the authenticated group
	admin := user.Group("/admin", middleware.RequireAdmin)
	admin.Get("/stats", controllers.HandleAdminStats)
	admin.Get("/users", controllers.HandleAdminListUsers)
	admin.Get("/applications", controllers.HandleAdminListApplications)
	admin.Get("/applications/:uuid", controllers.HandleAdminGetApplication)
	admin.Patch("/applications/:uuid/review", controllers.HandleAdminReviewApplication)
	admin.Get("/payments", controllers.HandleAdminListPayments)
	admin.Get("/webhook-events", controllers.HandleAdminListWebhookEvents)
	admin.Get("/deliveries", controllers.HandleAdminListDeliveries)
	admin.Patch("/deliveries/:uuid", controllers.HandleAdminUpdateDelivery)
	admin.Get("/queue/keys", controllers.HandleAdminQueueKeys)
}

// newLimiterStorage backs the rate limiter with Redis so counters survive
// restarts and are shared between instances. Database 1 keeps limiter keys
// away from the cache/queue keys in database 0.
func newLimiterStorage() *redisstorage.Storage {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")

	if client := cache.GetClient(); client != nil {
		if h, p, err := net.SplitHostPort(client.Options().Addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := client.Options().Password; p != "" {
			password = p
		}
	}

	return redisstorage.New(redisstorage.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}
