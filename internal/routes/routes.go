package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/mukofot/internal/cache"
	"github.com/example/mukofot/internal/config"
	"github.com/example/mukofot/internal/handlers"
	"github.com/example/mukofot/internal/middleware"
	"github.com/example/mukofot/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, store cache.Store, cfg *config.Config) {
	smsService := services.NewSMSService(cfg.EskizBaseURL, cfg.EskizEmail, cfg.EskizPassword, cfg.EskizFrom)
	notificationService := services.NewNotificationService(db)
	draftStore := services.NewDraftStore(store)

	authHandler := handlers.NewAuthHandler(db, cfg, store, smsService)
	passwordResetHandler := handlers.NewPasswordResetHandler(db, smsService)
	userHandler := handlers.NewUserHandler(db)
	rewardHandler := handlers.NewRewardHandler(db)
	wizardHandler := handlers.NewWizardHandler(db, cfg, draftStore, notificationService)
	applicationHandler := handlers.NewApplicationHandler(db, notificationService)
	notificationHandler := handlers.NewNotificationHandler(db)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup/step1", authHandler.SignupStep1)
	auth.Post("/signup/step2", authHandler.SignupStep2)
	auth.Post("/signup/resend", authHandler.ResendSMS)
	auth.Post("/signin", authHandler.Signin)
	auth.Post("/send-reset-code", passwordResetHandler.SendResetCode)
	auth.Post("/reset-password", passwordResetHandler.ResetPassword)

	// Public reward catalog
	api.Get("/rewards", rewardHandler.ListRewards)
	api.Get("/rewards/:id", rewardHandler.GetReward)

	// Protected routes. Staff-only endpoints carry RequireStaff per route so the
	// gate never sits in front of routes regular users may reach.
	protected := api.Group("", middleware.AuthMiddleware(cfg))
	requireStaff := middleware.RequireStaff(db)

	protected.Get("/users/me", userHandler.Me)
	protected.Put("/users/me", userHandler.UpdateMe)
	protected.Delete("/users/me", userHandler.DeleteMe)
	protected.Get("/users", requireStaff, userHandler.ListUsers)
	protected.Get("/users/:id", userHandler.GetUser)

	protected.Post("/rewards", requireStaff, rewardHandler.CreateReward)
	protected.Put("/rewards/:id", requireStaff, rewardHandler.UpdateReward)
	protected.Delete("/rewards/:id", requireStaff, rewardHandler.DeleteReward)
	protected.Get("/rewards/:id/stats", requireStaff, rewardHandler.RewardStats)
	protected.Get("/rewards/:id/applications", requireStaff, applicationHandler.ListByReward)

	// Application wizard
	wizard := protected.Group("/applications/wizard")
	wizard.Get("/step1", wizardHandler.GetStep1)
	wizard.Post("/step1", wizardHandler.PostStep1)
	wizard.Get("/step2", wizardHandler.GetStep2)
	wizard.Post("/step2", wizardHandler.PostStep2)
	wizard.Get("/step3", wizardHandler.GetStep3)
	wizard.Post("/step3", wizardHandler.PostStep3)
	wizard.Get("/review", wizardHandler.Review)
	wizard.Post("/submit", wizardHandler.Submit)
	wizard.Get("/progress", wizardHandler.Progress)
	wizard.Delete("/draft", wizardHandler.ClearDraft)

	// The static /applications/stats route is registered before
	// /applications/:id so it wins the match.
	protected.Get("/applications", applicationHandler.ListApplications)
	protected.Get("/applications/stats", requireStaff, applicationHandler.Stats)
	protected.Get("/applications/:id", applicationHandler.GetApplication)
	protected.Patch("/applications/:id/status", requireStaff, applicationHandler.UpdateStatus)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationHandler.ListNotifications)
	notifications.Get("/stats", notificationHandler.Stats)
	notifications.Post("/mark-all-as-read", notificationHandler.MarkAllAsRead)
	notifications.Get("/:id", notificationHandler.GetNotification)
	notifications.Patch("/:id/mark-as-read", notificationHandler.MarkAsRead)
}
