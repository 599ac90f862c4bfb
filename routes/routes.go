// routes/routes.go
package routes

import (
	"net/http"

	"alumni-portal/controllers"
	"alumni-portal/middleware"

	"github.com/gorilla/mux"
)

// Handlers groups what the router dispatches to. OAuth is nil when no
// provider is configured.
type Handlers struct {
	Users     *controllers.UserController
	OAuth     *controllers.OAuthController
	Payments  *controllers.PaymentController
	Sessions  middleware.SessionParser
	StaticDir string
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, h Handlers) {
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestLogger)

	api := router.PathPrefix("/api").Subrouter()
	requireSession := middleware.RequireSession(h.Sessions)

	// Auth routes
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", h.Users.Register).Methods("POST")
	auth.HandleFunc("/login", h.Users.Login).Methods("POST")
	auth.HandleFunc("/logout", h.Users.Logout).Methods("POST")
	auth.HandleFunc("/forgot-password", h.Users.ForgotPassword).Methods("POST")
	auth.HandleFunc("/reset-password", h.Users.ResetPassword).Methods("POST")
	if h.OAuth != nil {
		auth.HandleFunc("/oauth/google", h.OAuth.Start).Methods("GET")
		auth.HandleFunc("/callback/google", h.OAuth.Callback).Methods("GET")
	}
	auth.Handle("/me", requireSession(http.HandlerFunc(h.Users.GetProfile))).Methods("GET")

	// Payment routes
	payments := api.PathPrefix("/payments").Subrouter()
	payments.HandleFunc("/initialize", h.Payments.Initialize).Methods("POST")
	payments.HandleFunc("/verify", h.Payments.Verify).Methods("GET")
	payments.HandleFunc("/webhook", h.Payments.Webhook).Methods("POST")

	// Session routes
	payments.Handle("/record", requireSession(http.HandlerFunc(h.Payments.Record))).Methods("POST")
	payments.Handle("/history", requireSession(http.HandlerFunc(h.Payments.History))).Methods("GET")

	// Pages
	if h.StaticDir != "" {
		pages := middleware.PageGate(h.Sessions, "/payment", "/auth/login")(http.FileServer(http.Dir(h.StaticDir)))
		router.PathPrefix("/").Handler(pages)
	}
}
