package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"mindcare/internal/audit"
	"mindcare/internal/auth"
	"mindcare/internal/httpserver/handlers"
	"mindcare/internal/store"
)

// NewRouter wires the /api/v1 surface. The access guard wraps every
// identity-scoped route; signup, login, and the password-reset pair are open.
func NewRouter(st store.Store, tokens *auth.TokenService, hasher auth.Hasher, rec *audit.Recorder, lg *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Post("/signup", handlers.Signup(st, hasher, rec, lg))
		v1.Post("/login", handlers.Login(st, tokens, hasher, rec, lg))
		v1.Post("/forgot-password", handlers.ForgotPassword(st, lg))
		v1.Post("/reset-password", handlers.ResetPassword(st, hasher, rec, lg))

		v1.Group(func(protected chi.Router) {
			protected.Use(auth.Guard(tokens, st))
			protected.Post("/logout", handlers.Logout(st, rec, lg))
			protected.Get("/refresh-token", handlers.RefreshToken(tokens, lg))

			protected.Get("/me/", handlers.Me())
			protected.Put("/me/", handlers.UpdateMe(st, rec, lg))
			protected.Delete("/me/", handlers.DeleteMe(st, rec, lg))

			protected.Get("/patients/", handlers.ListPatients(st, lg))
			protected.Post("/patients/", handlers.CreatePatient(st, rec, lg))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
