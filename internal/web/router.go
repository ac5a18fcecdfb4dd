package web

import (
	"net/http"

	"github.com/gorilla/mux"
)

// APIRoutes holds the JSON endpoints mounted under /api. Protect wraps the
// handlers that need a bearer token.
type APIRoutes struct {
	Token   http.HandlerFunc
	Movies  http.HandlerFunc
	Protect func(http.Handler) http.Handler
	CORS    func(http.Handler) http.Handler
}

// SetupRoutes builds the router. limitLogin wraps credential POSTs.
func (h *WebHandler) SetupRoutes(limitLogin func(http.Handler) http.Handler, api *APIRoutes) *mux.Router {
	r := mux.NewRouter()
	h.router = r

	// Web pages
	r.HandleFunc("/", h.Index).Methods("GET").Name("index")
	r.HandleFunc("/", h.CreateMovie).Methods("POST")
	r.HandleFunc("/movie/edit/{id:[0-9]+}", h.RequireLogin(h.EditMovie)).Methods("GET").Name("movie.edit")
	r.HandleFunc("/movie/edit/{id:[0-9]+}", h.RequireLogin(h.UpdateMovie)).Methods("POST")
	r.HandleFunc("/movie/delete/{id:[0-9]+}", h.RequireLogin(h.DeleteMovie)).Methods("POST").Name("movie.delete")
	r.HandleFunc("/login", h.LoginPage).Methods("GET").Name("login")
	r.Handle("/login", limitLogin(http.HandlerFunc(h.Login))).Methods("POST")
	r.HandleFunc("/logout", h.RequireLogin(h.Logout)).Methods("GET").Name("logout")
	r.HandleFunc("/settings", h.RequireLogin(h.SettingsPage)).Methods("GET").Name("settings")
	r.HandleFunc("/settings", h.RequireLogin(h.UpdateSettings)).Methods("POST")

	// Demo pages
	r.HandleFunc("/home", h.Home).Methods("GET").Name("home")
	r.HandleFunc("/user/{name}", h.UserPage).Methods("GET").Name("user")
	r.HandleFunc("/test", h.TestURLs).Methods("GET").Name("test")

	// JSON API
	if api != nil {
		sub := r.PathPrefix("/api").Subrouter()
		if api.CORS != nil {
			sub.Use(mux.MiddlewareFunc(api.CORS))
		}
		sub.Handle("/token", limitLogin(api.Token)).Methods("POST", "OPTIONS").Name("api.token")
		sub.Handle("/movies", api.Protect(api.Movies)).Methods("GET", "OPTIONS").Name("api.movies")
	}

	// 404 handler
	r.NotFoundHandler = http.HandlerFunc(h.NotFound)

	return r
}
