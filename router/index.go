package router

import (
	"alumni_events/handler"
	"alumni_events/middleware"
	"alumni_events/validate"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(app *fiber.App) {
	api := app.Group("/api", logger.New())
	v1 := api.Group("/v1", logger.New())

	auth := v1.Group("/auth")
	auth.Post("/login", handler.Login)
	auth.Post("/refresh-token", handler.RefreshToken)
	auth.Post("/logout", handler.Logout)

	// Staff accounts
	account := v1.Group("/account", logger.New())
	account.Get("/", middleware.Protected(), middleware.AdminOnly(), handler.GetAccounts)
	account.Post("/", middleware.Protected(), middleware.AdminOnly(), validate.CreateAccount(), handler.CreateAccount)
	account.Patch("/:id/active", middleware.Protected(), middleware.AdminOnly(), validate.GetById("id"), handler.ToggleAccountActive)

	// Member auth and profile
	alumni := v1.Group("/alumni")
	alumni.Post("/register", validate.RegisterAlumnus(), handler.RegisterAlumnus)
	alumni.Post("/login", handler.AlumnusLogin)
	alumni.Post("/forgot-password", handler.ForgotPassword)
	alumni.Post("/reset-password", handler.ResetPassword)
	alumni.Get("/me", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.GetMyProfile)
	alumni.Put("/me", middleware.OptionalJWT(), middleware.OptionalAuth(), validate.UpdateProfile(), handler.UpdateProfile)
	alumni.Get("/directory", middleware.OptionalJWT(), middleware.OptionalAuth(), validate.FilterAlumni(), handler.GetAlumniDirectory)
	alumni.Post("/upload-signature", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.GenerateUploadSignature)
	alumni.Post("/me/photo", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.UploadProfilePhoto)

	// Events
	event := v1.Group("/event", logger.New())
	event.Get("/", middleware.OptionalJWT(), validate.FilterEvents(), handler.GetEvents)
	event.Get("/:slug", middleware.OptionalJWT(), handler.GetEventBySlug)
	event.Get("/:id/capacity", validate.GetById("id"), handler.GetEventCapacity)
	event.Get("/:id/checkin-stats", middleware.Protected(), middleware.StaffOnly(), validate.GetById("id"), handler.GetCheckinStats)
	event.Get("/:id/waitlist", middleware.Protected(), middleware.StaffOnly(), validate.GetById("id"), handler.GetEventWaitlist)
	event.Post("/", middleware.Protected(), middleware.StaffOnly(), validate.CreateEvent(), handler.CreateEvent)
	event.Put("/:id", middleware.Protected(), middleware.StaffOnly(), validate.GetById("id"), validate.EditEvent(), handler.EditEvent)
	event.Patch("/:id/publish", middleware.Protected(), middleware.StaffOnly(), validate.GetById("id"), handler.PublishEvent)
	event.Patch("/:id/cancel", middleware.Protected(), middleware.AdminOnly(), validate.GetById("id"), handler.CancelEvent)
	event.Patch("/:id/capacity", middleware.Protected(), middleware.AdminOnly(), validate.GetById("id"), validate.RaiseCapacity(), handler.RaiseEventCapacity)

	// Registrations
	registration := v1.Group("/registration", logger.New())
	registration.Post("/", middleware.OptionalJWT(), middleware.OptionalAuth(), validate.CreateRegistration(), handler.CreateRegistration)
	registration.Get("/mine", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.GetMyRegistrations)
	registration.Delete("/:code", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.CancelMyRegistration)
	registration.Post("/:code/resend", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.ResendConfirmation)
	registration.Get("/admin", middleware.Protected(), middleware.StaffOnly(), validate.FilterRegistrations(), handler.GetRegistrationsAdmin)

	// Badges
	badge := v1.Group("/badge", logger.New())
	badge.Get("/registration/:registrationCode", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.GetMyBadge)
	badge.Get("/:badgeCode/qr", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.BadgeQRImage)

	// Payments
	payment := v1.Group("/payment", logger.New())
	payment.Post("/", middleware.OptionalJWT(), middleware.OptionalAuth(), validate.CreatePayment(), handler.CreatePayment)
	payment.Get("/admin", middleware.Protected(), middleware.StaffOnly(), validate.FilterPayments(), handler.GetPaymentsAdmin)
	payment.Post("/admin/:reference/verify", middleware.Protected(), middleware.AdminOnly(), handler.AdminVerifyPayment)

	// Check-in
	checkin := v1.Group("/checkin", logger.New())
	checkin.Post("/scan", middleware.Protected(), middleware.StaffOnly(), validate.ScanBadge(), handler.ScanBadge)
	checkin.Get("/feed/:id", middleware.Protected(), websocket.New(handler.CheckinFeed))

	statistic := v1.Group("/statistic", logger.New())
	statistic.Get("/", middleware.Protected(), middleware.StaffOnly(), handler.GetAdminStats)

	// Gateway callback. Server-to-server, authenticated by signature.
	app.Post("/payments/webhook", handler.PaystackWebhook)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
