package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/activity-desk/internal/access"
	"github.com/spec-kit/activity-desk/internal/api/http/handlers"
	"github.com/spec-kit/activity-desk/internal/auth"
	"github.com/spec-kit/activity-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Users         *handlers.UsersHandler
	Profiles      *handlers.ProfilesHandler
	Activities    *handlers.ActivitiesHandler
	Dashboards    *handlers.DashboardHandler
	Tickets       *handlers.TicketsHandler
	Chat          *handlers.ChatHandler
	Authenticator *auth.Authenticator
	Gatekeeper    *auth.Gatekeeper
}

var (
	superAdminRole = access.RoleAllowed(domain.RoleSuperAdmin)
	managerRole    = access.RoleAllowed(domain.RoleManager)
	employeeRole   = access.RoleAllowed(domain.RoleEmployee)
)

// RegisterRoutes wires HTTP routes. Every protected route declares its own
// guard chain; the chain runs before the handler and stops at the first
// failing rule.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)
	app.Get("/health/version", cfg.Health.Version)

	app.Use(cfg.Authenticator.Handle)

	g := cfg.Gatekeeper
	loggedIn := g.Require("", access.Authenticated)

	app.Get("/login", cfg.Auth.LoginForm)
	app.Post("/login", cfg.Auth.Login)
	app.Post("/logout", loggedIn, cfg.Auth.Logout)
	app.Get("/me", loggedIn, cfg.Auth.Me)

	registerSuperAdminRoutes(app.Group("/super-admin"), g, cfg)
	registerManagerRoutes(app.Group("/manager"), g, cfg)
	registerEmployeeRoutes(app.Group("/employee"), g, cfg)

	chats := app.Group("/chats")
	chats.Get("/unseen-count", loggedIn, cfg.Chat.UnseenCount)

	participant := g.Require("id", access.Authenticated, access.ConversationParticipantOrAdmin)
	chats.Get("/:id", participant, cfg.Chat.Show)
	chats.Get("/:id/updates", participant, cfg.Chat.Updates)
	chats.Get("/:id/older", participant, cfg.Chat.Older)
	chats.Post("/:id/add", participant, cfg.Chat.Send)

	author := g.Require("id", access.Authenticated, access.MessageAuthorOrAdmin)
	chats.Post("/message/:id/edit", author, cfg.Chat.Edit)
	chats.Post("/message/:id/delete", author, cfg.Chat.Delete)
}

func registerSuperAdminRoutes(r fiber.Router, g *auth.Gatekeeper, cfg RouteConfig) {
	admin := g.Require("", access.Authenticated, superAdminRole)
	adminOn := g.Require("id", access.Authenticated, superAdminRole)

	r.Get("/dashboard", admin, cfg.Dashboards.Admin)

	r.Get("/users", admin, cfg.Users.List)
	r.Post("/users", admin, cfg.Users.Create)
	r.Get("/users/:id", adminOn, cfg.Users.Get)
	r.Put("/users/:id", adminOn, cfg.Users.Update)
	r.Delete("/users/:id", adminOn, cfg.Users.Delete)
	r.Get("/users/:id/select-manager", adminOn, cfg.Users.Managers)
	r.Post("/users/:id/select-manager", adminOn, cfg.Users.SelectManager)

	r.Get("/profiles", admin, cfg.Profiles.List)
	r.Get("/profiles/:id", adminOn, cfg.Profiles.Get)
	r.Put("/profiles/:id", adminOn, cfg.Profiles.AdminUpdate)

	r.Get("/activities", admin, cfg.Activities.List)
	r.Post("/activities", admin, cfg.Activities.Create)
	r.Get("/activities/export", admin, cfg.Activities.Export)
	r.Get("/activities/:id", adminOn, cfg.Activities.Get)
	r.Put("/activities/:id", adminOn, cfg.Activities.Update)
	r.Delete("/activities/:id", adminOn, cfg.Activities.Delete)

	r.Get("/tickets", admin, cfg.Tickets.List)
	r.Post("/tickets", admin, cfg.Tickets.Create)
}

func registerManagerRoutes(r fiber.Router, g *auth.Gatekeeper, cfg RouteConfig) {
	manager := g.Require("", access.Authenticated, managerRole)

	r.Get("/dashboard", manager, cfg.Dashboards.Manager)

	r.Get("/users", manager, cfg.Users.ListEmployees)
	r.Get("/users/:id", g.Require("id",
		access.Authenticated, managerRole, access.IsEmployeeManager, access.TargetUserProfileApproved,
	), cfg.Users.GetEmployee)

	r.Get("/activities/my", manager, cfg.Activities.ListManagerOwn)
	r.Get("/activities/my/:id", g.Require("id",
		access.Authenticated, managerRole, access.IsActivityOwner, access.ActivityVisible,
	), cfg.Activities.Get)
	r.Post("/activities/my/:id/is-completed", g.Require("id",
		access.Authenticated, managerRole, access.IsActivityOwner, access.ActivityVisible, access.WithinActiveTimeWindow,
	), cfg.Activities.Complete)

	r.Get("/activities/employee", manager, cfg.Activities.ListManagerAssigned)
	r.Post("/activities/employee", manager, cfg.Activities.Create)
	r.Get("/activities/employee/hidden", manager, cfg.Activities.ListManagerHidden)
	r.Get("/activities/employee/:id", g.Require("id",
		access.Authenticated, managerRole, access.IsManagerOfActivityAssignee,
	), cfg.Activities.Get)
	r.Post("/activities/employee/:id/is-completed", g.Require("id",
		access.Authenticated, managerRole, access.IsManagerOfActivityAssignee, access.WithinActiveTimeWindow,
	), cfg.Activities.Complete)

	r.Get("/tickets", manager, cfg.Tickets.List)
	r.Post("/tickets", manager, cfg.Tickets.Create)
}

func registerEmployeeRoutes(r fiber.Router, g *auth.Gatekeeper, cfg RouteConfig) {
	employee := g.Require("", access.Authenticated, employeeRole)

	r.Get("/dashboard", employee, cfg.Dashboards.Employee)

	r.Post("/profiles", employee, cfg.Profiles.Create)
	r.Get("/profiles/:id", g.Require("id",
		access.Authenticated, employeeRole, access.IsProfileOwner,
	), cfg.Profiles.Get)
	r.Put("/profiles/:id", g.Require("id",
		access.Authenticated, employeeRole, access.IsProfileOwner, access.ProfileRejected,
	), cfg.Profiles.UpdateOwn)

	r.Get("/activities", g.Require("",
		access.Authenticated, employeeRole, access.ProfileApproved,
	), cfg.Activities.ListEmployeeOwn)
	r.Get("/activities/:id", g.Require("id",
		access.Authenticated, employeeRole, access.IsActivityOwner, access.ActivityVisible, access.ProfileApproved,
	), cfg.Activities.Get)
	r.Post("/activities/:id/is-completed", g.Require("id",
		access.Authenticated, employeeRole, access.IsActivityOwner, access.ActivityVisible, access.ProfileApproved,
		access.WithinActiveTimeWindow,
	), cfg.Activities.Complete)

	r.Get("/tickets", employee, cfg.Tickets.List)
	r.Post("/tickets", employee, cfg.Tickets.Create)
}
