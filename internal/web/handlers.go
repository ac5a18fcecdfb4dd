package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	"watchlist/db"
	"watchlist/internal/config"
	"watchlist/internal/movie"
	"watchlist/internal/user"
	"watchlist/models"
)

const (
	sessionName   = "watchlist-session"
	sessionUserID = "user_id"
)

// Flash messages shown to the user
const (
	MsgInvalidInput       = "Invalid input."
	MsgItemCreated        = "Item created."
	MsgItemUpdated        = "Item updated."
	MsgItemDeleted        = "Item deleted."
	MsgLoginSuccess       = "Login success."
	MsgInvalidCredentials = "Invalid username or password."
	MsgGoodbye            = "Goodbye."
	MsgSettingsUpdated    = "Settings updated."
	MsgLoginRequired      = "Please log in to access this page."
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"index.html", "edit.html", "login.html", "settings.html", "404.html"}

type WebHandler struct {
	movieService *movie.MovieService
	userService  *user.UserService
	templates    map[string]*template.Template
	sessionStore sessions.Store
	router       *mux.Router
	logger       zerolog.Logger
}

type PageData struct {
	Page     string
	User     *models.User // owner of the watchlist, nil before one exists
	LoggedIn bool
	Flashes  []string
	Movies   []*models.Movie
	Movie    *models.Movie
}

func NewWebHandler(
	movieService *movie.MovieService,
	userService *user.UserService,
	cfg *config.Config,
	logger zerolog.Logger,
) (*WebHandler, error) {
	h := &WebHandler{
		movieService: movieService,
		userService:  userService,
		templates:    make(map[string]*template.Template, len(pages)),
		logger:       logger,
	}

	funcMap := template.FuncMap{
		"urlFor": h.urlFor,
	}

	// Each page gets its own set so the "content" blocks do not collide
	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(funcMap).ParseFS(templateFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		h.templates[page] = tmpl
	}

	store := sessions.NewCookieStore(cfg.SecretKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30, // 30 days
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	h.sessionStore = store

	return h, nil
}

// urlFor builds the path of a named route, e.g. urlFor "movie.edit" "id" "3"
func (h *WebHandler) urlFor(name string, pairs ...string) (string, error) {
	route := h.router.Get(name)
	if route == nil {
		return "", fmt.Errorf("no route named %q", name)
	}
	u, err := route.URL(pairs...)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (h *WebHandler) mustURL(name string, pairs ...string) string {
	u, err := h.urlFor(name, pairs...)
	if err != nil {
		h.logger.Error().Err(err).Str("route", name).Msg("Failed to build URL")
		return "/"
	}
	return u
}

// session returns the request's session. A cookie that fails to decode, for
// example after the secret changed, yields a fresh empty session.
func (h *WebHandler) session(r *http.Request) *sessions.Session {
	session, err := h.sessionStore.Get(r, sessionName)
	if err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Discarding unreadable session")
	}
	return session
}

// currentUser returns the logged in user, or nil for anonymous requests
func (h *WebHandler) currentUser(ctx context.Context, session *sessions.Session) *models.User {
	id, ok := session.Values[sessionUserID].(uint)
	if !ok {
		return nil
	}
	u, err := h.userService.FindByID(ctx, id)
	if err != nil {
		return nil
	}
	return u
}

func (h *WebHandler) flash(w http.ResponseWriter, r *http.Request, session *sessions.Session, message string) {
	session.AddFlash(message)
	if err := session.Save(r, w); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to save session")
	}
}

func (h *WebHandler) redirect(w http.ResponseWriter, r *http.Request, name string, pairs ...string) {
	http.Redirect(w, r, h.mustURL(name, pairs...), http.StatusSeeOther)
}

// render executes page into a buffer first so a template error never leaves
// a half written response. Pending flashes are consumed.
func (h *WebHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data PageData) {
	ctx := r.Context()
	session := h.session(r)

	owner, err := h.userService.Owner(ctx)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		h.serverError(w, r, err)
		return
	}
	data.User = owner
	data.LoggedIn = h.currentUser(ctx, session) != nil

	for _, f := range session.Flashes() {
		if msg, ok := f.(string); ok {
			data.Flashes = append(data.Flashes, msg)
		}
	}

	tmpl, ok := h.templates[page]
	if !ok {
		h.serverError(w, r, fmt.Errorf("unknown page %s", page))
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		h.serverError(w, r, err)
		return
	}

	if err := session.Save(r, w); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to save session")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *WebHandler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// RequireLogin sends anonymous visitors to the login page
func (h *WebHandler) RequireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := h.session(r)
		if h.currentUser(r.Context(), session) == nil {
			h.flash(w, r, session, MsgLoginRequired)
			h.redirect(w, r, "login")
			return
		}
		next(w, r)
	}
}

// movieID reads the {id} route variable; ok is false for ids that cannot exist
func movieID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Page Handlers

func (h *WebHandler) Index(w http.ResponseWriter, r *http.Request) {
	movies, err := h.movieService.FindAll(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "index.html", PageData{Page: "index", Movies: movies})
}

func (h *WebHandler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	if h.currentUser(r.Context(), session) == nil {
		h.redirect(w, r, "index")
		return
	}

	_, err := h.movieService.Create(r.Context(), r.FormValue("title"), r.FormValue("year"))
	switch {
	case errors.Is(err, movie.ErrInvalidInput):
		h.flash(w, r, session, MsgInvalidInput)
	case err != nil:
		h.serverError(w, r, err)
		return
	default:
		h.flash(w, r, session, MsgItemCreated)
	}
	h.redirect(w, r, "index")
}

func (h *WebHandler) EditMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}

	m, err := h.movieService.FindByID(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		h.NotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "edit.html", PageData{Page: "edit", Movie: m})
}

func (h *WebHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}

	session := h.session(r)
	_, err := h.movieService.Update(r.Context(), id, r.FormValue("title"), r.FormValue("year"))
	switch {
	case errors.Is(err, db.ErrNotFound):
		h.NotFound(w, r)
	case errors.Is(err, movie.ErrInvalidInput):
		h.flash(w, r, session, MsgInvalidInput)
		h.redirect(w, r, "movie.edit", "id", strconv.FormatUint(uint64(id), 10))
	case err != nil:
		h.serverError(w, r, err)
	default:
		h.flash(w, r, session, MsgItemUpdated)
		h.redirect(w, r, "index")
	}
}

func (h *WebHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}

	err := h.movieService.Delete(r.Context(), id)
	switch {
	case errors.Is(err, db.ErrNotFound):
		h.NotFound(w, r)
	case err != nil:
		h.serverError(w, r, err)
	default:
		h.flash(w, r, h.session(r), MsgItemDeleted)
		h.redirect(w, r, "index")
	}
}

func (h *WebHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login.html", PageData{Page: "login"})
}

func (h *WebHandler) Login(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)

	u, err := h.userService.Authenticate(r.Context(), r.FormValue("username"), r.FormValue("password"))
	switch {
	case errors.Is(err, user.ErrInvalidInput):
		h.flash(w, r, session, MsgInvalidInput)
		h.redirect(w, r, "login")
	case errors.Is(err, user.ErrInvalidCredentials):
		h.flash(w, r, session, MsgInvalidCredentials)
		h.redirect(w, r, "login")
	case err != nil:
		h.serverError(w, r, err)
	default:
		session.Values[sessionUserID] = u.ID
		h.flash(w, r, session, MsgLoginSuccess)
		h.redirect(w, r, "index")
	}
}

func (h *WebHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	session.Values = make(map[interface{}]interface{})
	h.flash(w, r, session, MsgGoodbye)
	h.redirect(w, r, "index")
}

func (h *WebHandler) SettingsPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "settings.html", PageData{Page: "settings"})
}

func (h *WebHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	current := h.currentUser(r.Context(), session)
	if current == nil {
		h.redirect(w, r, "login")
		return
	}

	_, err := h.userService.UpdateName(r.Context(), current.ID, r.FormValue("name"))
	switch {
	case errors.Is(err, user.ErrInvalidInput):
		h.flash(w, r, session, MsgInvalidInput)
		h.redirect(w, r, "settings")
	case err != nil:
		h.serverError(w, r, err)
	default:
		h.flash(w, r, session, MsgSettingsUpdated)
		h.redirect(w, r, "index")
	}
}

// Demo handlers

func (h *WebHandler) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte("Hello"))
}

func (h *WebHandler) UserPage(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte("User: " + template.HTMLEscapeString(name)))
}

// TestURLs logs URLs reversed from route names
func (h *WebHandler) TestURLs(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	withQuery := h.mustURL("test") + "?" + url.Values{"num": {"2"}}.Encode()
	for _, u := range []string{
		h.mustURL("home"),
		h.mustURL("user", "name", "staick"),
		h.mustURL("user", "name", "greyli"),
		h.mustURL("test"),
		withQuery,
	} {
		logger.Info().Str("url", u).Msg("url_for")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte("Test page"))
}

func (h *WebHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "404.html", PageData{Page: "404"})
}
