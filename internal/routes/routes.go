package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/svargasl/finpanel/internal/auth"
	"github.com/svargasl/finpanel/internal/middleware"
	"github.com/svargasl/finpanel/internal/models"
	"github.com/svargasl/finpanel/internal/screens"
)

// RegisterRoutes wires every screen behind its role gate.
func RegisterRoutes(
	router chi.Router,
	gate *auth.Gate,
	authHandler *screens.AuthHandler,
	users *screens.UsersScreen,
	requests *screens.RequestsScreen,
	profile *screens.ProfileScreen,
	mutations *screens.MutationHandler,
	loginLimit middleware.RateLimitConfig,
) {
	// Public.
	router.With(middleware.RateLimitByIP(loginLimit)).Post("/auth/login", authHandler.Login)
	router.Post("/auth/logout", authHandler.Logout)

	anyRole := models.AllRoles
	reviewers := []models.Role{models.RoleAdminGeneral, models.RoleAprobador}

	router.Route("/dashboard", func(r chi.Router) {
		// Self-service, open to every signed-in role.
		r.Group(func(r chi.Router) {
			r.Use(gate.Require(anyRole...))
			r.Get("/me", profile.Me)
			r.Put("/profile", profile.Update)
			r.Put("/profile/password", profile.ChangePassword)

			r.Post("/mutations/{token}/confirm", mutations.Confirm)
			r.Post("/mutations/{token}/cancel", mutations.Cancel)
		})

		// User administration.
		r.Route("/usuarios", func(r chi.Router) {
			r.Use(gate.Require(models.RoleAdminGeneral))
			r.Get("/", users.List)
			r.Get("/export.csv", users.ExportCSV)
			r.Post("/", users.Create)
			r.Get("/{id}", users.Get)
			r.Put("/{id}", users.Update)
			r.Post("/{id}/delete", users.BeginDelete)
			r.Post("/{id}/access", users.BeginAccessChange)
		})

		// Payment requests.
		r.Route("/solicitudes", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(gate.Require(reviewers...))
				r.Get("/", requests.List)
				r.Get("/export.csv", requests.ExportCSV)
				r.Get("/{id}", requests.Get)
				r.Put("/{id}", requests.Update)
				r.Post("/{id}/delete", requests.BeginDelete)
				r.Post("/{id}/state", requests.BeginStateChange)
			})

			r.Group(func(r chi.Router) {
				r.Use(gate.Require(models.RoleSolicitante))
				r.Post("/", requests.Create)
			})
		})
	})
}
