package routes

import (
	"log"
	"os"

	controller "planvite/controllers"
	"planvite/importer"
	"planvite/middleware"
	"planvite/models"
	"planvite/permissions"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"
)

// SetupRoutes wires every route group onto the app.
func SetupRoutes(app *fiber.App, db *gorm.DB, engine *permissions.Engine, tracker *importer.ProgressTracker) {
	SetupAuthRoutes(app, db)
	SetupAPIRoutes(app, db, engine, tracker)
}

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	authLogger := log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Auth routes group with logging middleware
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/refresh", controller.RefreshToken)

	// Google OAuth routes
	auth.Get("/google", controller.GoogleOAuth)
	auth.Get("/google/callback", controller.GoogleOAuthCallback)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Post("/logout", controller.Logout)
	protectedAuth.Post("/change-password", controller.ChangePassword)
	protectedAuth.Get("/me", controller.GetCurrentUser)

	authLogger.Println("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, engine *permissions.Engine, tracker *importer.ProgressTracker) {
	orgController := controller.NewOrganizationController(db, engine, log.New(os.Stdout, "ORG: ", log.LstdFlags))
	eventController := controller.NewEventController(db, log.New(os.Stdout, "EVENT: ", log.LstdFlags))
	guestController := controller.NewGuestController(db, tracker, log.New(os.Stdout, "IMPORT: ", log.LstdFlags))
	rsvpController := controller.NewRSVPController(db, log.New(os.Stdout, "RSVP: ", log.LstdFlags))
	supplierController := controller.NewSupplierController(db, log.New(os.Stdout, "SUPPLIER: ", log.LstdFlags))
	budgetController := controller.NewBudgetController(db, log.New(os.Stdout, "BUDGET: ", log.LstdFlags))
	logisticsController := controller.NewLogisticsController(db, log.New(os.Stdout, "LOGISTICS: ", log.LstdFlags))
	invitationController := controller.NewInvitationController(db, log.New(os.Stdout, "INVITE: ", log.LstdFlags))

	// Public endpoints: guests respond to invitations without an account
	app.Post("/rsvp/:token", rsvpController.RespondByToken)
	app.Get("/plans", controller.GetPlans)

	// Stripe calls this; signature verification replaces JWT auth here
	app.Post("/payment/webhook", controller.HandlePaymentWebhook)

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Organization lifecycle
	orgs := api.Group("/organizations")
	orgs.Post("/", orgController.CreateOrganization)
	orgs.Get("/", orgController.GetOrganizations)
	orgs.Post("/invites/accept", orgController.AcceptInvite)

	org := orgs.Group("/:orgID")
	org.Get("/", middleware.RequireMembership(engine), orgController.GetOrganization)
	org.Put("/", middleware.RequireSystemPermission(engine, models.TokenOrgSettings), orgController.UpdateOrganization)

	// Member management (system-scoped token, not event permissions)
	members := org.Group("/members", middleware.RequireSystemPermission(engine, models.TokenMemberManagement))
	members.Get("/", orgController.GetMembers)
	members.Post("/invite", orgController.InviteMember)
	members.Put("/:memberID/role", orgController.UpdateMemberRole)
	members.Put("/:memberID/status", orgController.UpdateMemberStatus)
	members.Delete("/:memberID", orgController.RemoveMember)

	// Billing
	billing := org.Group("/billing", middleware.RequireSystemPermission(engine, models.TokenBillingManagement))
	billing.Post("/create-intent", controller.CreatePaymentIntent)

	// Invitation templates are organization-wide
	templates := org.Group("/templates", middleware.RequireEventPermission(engine, models.PermSendInvitations))
	templates.Post("/", invitationController.CreateTemplate)
	templates.Get("/", invitationController.GetTemplates)
	templates.Put("/:templateID", invitationController.UpdateTemplate)
	templates.Delete("/:templateID", invitationController.DeleteTemplate)

	// Events
	events := org.Group("/events")
	events.Post("/", middleware.RequireEventPermission(engine, models.PermEdit), eventController.CreateEvent)
	events.Get("/", middleware.RequireMembership(engine), eventController.GetEvents)
	events.Get("/:id", middleware.RequireMembership(engine), eventController.GetEvent)
	events.Put("/:id", middleware.RequireEventPermission(engine, models.PermEdit), eventController.UpdateEvent)
	events.Delete("/:id", middleware.RequireEventPermission(engine, models.PermDelete), eventController.DeleteEvent)
	events.Get("/:id/stats", middleware.RequireEventPermission(engine, models.PermViewReports), eventController.GetEventStats)

	// Guests
	events.Post("/:id/guests", middleware.RequireEventPermission(engine, models.PermManageGuests), guestController.CreateGuest)
	events.Get("/:id/guests", middleware.RequireMembership(engine), guestController.GetGuests)
	events.Put("/:id/guests/:guestID", middleware.RequireEventPermission(engine, models.PermManageGuests), guestController.UpdateGuest)
	events.Delete("/:id/guests/:guestID", middleware.RequireEventPermission(engine, models.PermManageGuests), guestController.DeleteGuest)
	events.Get("/:id/guests/export", middleware.RequireMembership(engine), guestController.ExportGuestsCSV)

	// Bulk import with rate limiting
	events.Post("/:id/guests/import",
		middleware.RequireEventPermission(engine, models.PermManageGuests),
		middleware.ImportRateLimiter(),
		guestController.ImportGuests)
	events.Post("/:id/guests/import/preview",
		middleware.RequireEventPermission(engine, models.PermManageGuests),
		guestController.PreviewImport)
	events.Get("/:id/guests/imports", middleware.RequireMembership(engine), guestController.GetImportHistory)

	// RSVPs
	events.Get("/:id/rsvps", middleware.RequireMembership(engine), rsvpController.GetRSVPs)
	events.Put("/:id/rsvps/:rsvpID", middleware.RequireEventPermission(engine, models.PermManageGuests), rsvpController.UpdateRSVP)

	// Suppliers and logistics
	events.Post("/:id/suppliers", middleware.RequireEventPermission(engine, models.PermManageLogistics), supplierController.CreateSupplier)
	events.Get("/:id/suppliers", middleware.RequireMembership(engine), supplierController.GetSuppliers)
	events.Put("/:id/suppliers/:supplierID", middleware.RequireEventPermission(engine, models.PermManageLogistics), supplierController.UpdateSupplier)
	events.Delete("/:id/suppliers/:supplierID", middleware.RequireEventPermission(engine, models.PermManageLogistics), supplierController.DeleteSupplier)

	events.Post("/:id/logistics", middleware.RequireEventPermission(engine, models.PermManageLogistics), logisticsController.CreateLogisticsItem)
	events.Get("/:id/logistics", middleware.RequireMembership(engine), logisticsController.GetLogistics)
	events.Put("/:id/logistics/:itemID", middleware.RequireEventPermission(engine, models.PermManageLogistics), logisticsController.UpdateLogisticsItem)
	events.Delete("/:id/logistics/:itemID", middleware.RequireEventPermission(engine, models.PermManageLogistics), logisticsController.DeleteLogisticsItem)

	// Budget
	events.Post("/:id/budget", middleware.RequireEventPermission(engine, models.PermManageBudget), budgetController.CreateBudgetItem)
	events.Get("/:id/budget", middleware.RequireMembership(engine), budgetController.GetBudget)
	events.Put("/:id/budget/:itemID", middleware.RequireEventPermission(engine, models.PermManageBudget), budgetController.UpdateBudgetItem)
	events.Delete("/:id/budget/:itemID", middleware.RequireEventPermission(engine, models.PermManageBudget), budgetController.DeleteBudgetItem)

	// Invitations
	events.Post("/:id/invitations/send", middleware.RequireEventPermission(engine, models.PermSendInvitations), invitationController.SendInvitations)
	events.Get("/:id/invitations", middleware.RequireMembership(engine), invitationController.GetInvitations)

	// WebSocket route for import progress
	app.Get("/api/v1/imports/progress", websocket.New(controller.HandleImportProgressWS(tracker)))
}
