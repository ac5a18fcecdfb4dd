package app_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchlist/internal/app"
	"watchlist/internal/config"
	"watchlist/internal/testutils"
	"watchlist/internal/user"
)

const createForm = `<form method="post">`

type fixture struct {
	*testutils.TestServer
	app *app.App
}

func setup(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()

	if cfg == nil {
		cfg = testutils.GetTestConfig()
	}
	application, err := app.New(testutils.SetupTestRepositoryFactory(t), cfg, zerolog.Nop())
	require.NoError(t, err)

	testutils.CreateTestUser(t, application.Factory, "Test", "test", "123")
	testutils.CreateTestMovie(t, application.Factory, "Test Movie Title", "2019")

	return &fixture{
		TestServer: testutils.NewTestServer(t, application.Handler),
		app:        application,
	}
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	resp, body := f.POSTForm("/login", url.Values{"username": {"test"}, "password": {"123"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, testutils.PageText(t, body), "Login success.")
}

func TestNotFoundPage(t *testing.T) {
	f := setup(t, nil)

	resp, body := f.GET("/nothing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	text := testutils.PageText(t, body)
	assert.Contains(t, text, "Page Not Found - 404")
	assert.Contains(t, text, "Go Back")

	// Unknown movie ids are 404 too once logged in
	f.login(t)
	resp, _ = f.GET("/movie/edit/999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIndexPage(t *testing.T) {
	f := setup(t, nil)

	resp, body := f.GET("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	text := testutils.PageText(t, body)
	assert.Contains(t, text, "Test's Watchlist")
	assert.Contains(t, text, "Test Movie Title")
	assert.Contains(t, text, "1 Titles")
}

func TestIndexPage_AnonymousView(t *testing.T) {
	f := setup(t, nil)

	_, body := f.GET("/")
	text := testutils.PageText(t, body)
	assert.Contains(t, text, "Login")
	assert.NotContains(t, text, "Logout")
	assert.NotContains(t, text, "Settings")
	assert.NotContains(t, text, "Delete")
	assert.NotContains(t, text, "Edit")
	assert.NotContains(t, body, createForm)
}

func TestIndexPage_LoggedInView(t *testing.T) {
	f := setup(t, nil)
	f.login(t)

	_, body := f.GET("/")
	text := testutils.PageText(t, body)
	assert.Contains(t, text, "Logout")
	assert.Contains(t, text, "Settings")
	assert.Contains(t, body, "Delete")
	assert.Contains(t, text, "Edit")
	assert.Contains(t, body, createForm)
	assert.Contains(t, testutils.Links(t, body), "/movie/edit/1")
}

func TestCreateItem(t *testing.T) {
	f := setup(t, nil)
	f.login(t)

	_, body := f.POSTForm("/", url.Values{"title": {"New Movie"}, "year": {"2019"}})
	text := testutils.PageText(t, body)
	assert.Contains(t, text, "Item created.")
	assert.Contains(t, text, "New Movie")

	tests := []struct {
		name string
		form url.Values
	}{
		{"empty title", url.Values{"title": {""}, "year": {"2019"}}},
		{"empty year", url.Values{"title": {"Another Movie"}, "year": {""}}},
		{"long title", url.Values{"title": {strings.Repeat("x", 61)}, "year": {"2019"}}},
		{"short year", url.Values{"title": {"Another Movie"}, "year": {"19"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, body := f.POSTForm("/", tt.form)
			text := testutils.PageText(t, body)
			assert.Contains(t, text, "Invalid input.")
			assert.NotContains(t, text, "Item created.")
			assert.NotContains(t, text, "Another Movie")
		})
	}

	count, err := f.app.MovieService.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCreateItem_Anonymous(t *testing.T) {
	f := setup(t, nil)

	resp, body := f.POSTForm("/", url.Values{"title": {"New Movie"}, "year": {"2019"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, testutils.PageText(t, body), "New Movie")

	count, err := f.app.MovieService.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUpdateItem(t *testing.T) {
	f := setup(t, nil)
	f.login(t)

	_, body := f.GET("/movie/edit/1")
	text := testutils.PageText(t, body)
	assert.Contains(t, text, "Edit item")
	assert.Contains(t, body, "Test Movie Title")
	assert.Contains(t, body, "2019")

	_, body = f.POSTForm("/movie/edit/1", url.Values{"title": {"New Movie Edited"}, "year": {"2019"}})
	text = testutils.PageText(t, body)
	assert.Contains(t, text, "Item updated.")
	assert.Contains(t, text, "New Movie Edited")

	_, body = f.POSTForm("/movie/edit/1", url.Values{"title": {""}, "year": {"2019"}})
	text = testutils.PageText(t, body)
	assert.Contains(t, text, "Invalid input.")
	assert.Contains(t, text, "Edit item")
	assert.NotContains(t, text, "Item updated.")

	_, body = f.POSTForm("/movie/edit/1", url.Values{"title": {"New Movie Edited Again"}, "year": {""}})
	text = testutils.PageText(t, body)
	assert.Contains(t, text, "Invalid input.")
	assert.NotContains(t, text, "Item updated.")
	assert.NotContains(t, body, "New Movie Edited Again")
}

func TestDeleteItem(t *testing.T) {
	f := setup(t, nil)
	f.login(t)

	_, body := f.POSTForm("/movie/delete/1", nil)
	text := testutils.PageText(t, body)
	assert.Contains(t, text, "Item deleted.")
	assert.NotContains(t, text, "Test Movie Title")
	assert.Contains(t, text, "0 Titles")

	resp, _ := f.POSTForm("/movie/delete/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLoginProtect(t *testing.T) {
	f := setup(t, nil)

	for _, path := range []string{"/movie/edit/1", "/settings", "/logout"} {
		t.Run("GET "+path, func(t *testing.T) {
			resp, body := f.GET(path)
			assert.Equal(t, "/login", resp.Request.URL.Path)
			assert.Contains(t, testutils.PageText(t, body), "Please log in to access this page.")
		})
	}

	_, body := f.POSTForm("/movie/delete/1", nil)
	assert.Contains(t, testutils.PageText(t, body), "Please log in to access this page.")

	_, body = f.POSTForm("/movie/edit/1", url.Values{"title": {"Hijacked"}, "year": {"2019"}})
	assert.NotContains(t, body, "Hijacked")

	_, body = f.GET("/")
	assert.Contains(t, testutils.PageText(t, body), "Test Movie Title")
}

func TestLogin(t *testing.T) {
	f := setup(t, nil)

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"wrong username", url.Values{"username": {"wrong"}, "password": {"123"}}, "Invalid username or password."},
		{"wrong password", url.Values{"username": {"test"}, "password": {"456"}}, "Invalid username or password."},
		{"empty username", url.Values{"username": {""}, "password": {"123"}}, "Invalid input."},
		{"empty password", url.Values{"username": {"test"}, "password": {""}}, "Invalid input."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.POSTForm("/login", tt.form)
			assert.Equal(t, "/login", resp.Request.URL.Path)
			text := testutils.PageText(t, body)
			assert.Contains(t, text, tt.want)
			assert.NotContains(t, text, "Login success.")
		})
	}

	f.login(t)
	_, body := f.GET("/")
	text := testutils.PageText(t, body)
	assert.Contains(t, text, "Logout")
	assert.NotContains(t, text, "Login success.")
}

func TestLogout(t *testing.T) {
	f := setup(t, nil)
	f.login(t)

	resp, body := f.GET("/logout")
	assert.Equal(t, "/", resp.Request.URL.Path)
	text := testutils.PageText(t, body)
	assert.Contains(t, text, "Goodbye.")
	assert.NotContains(t, text, "Logout")
	assert.NotContains(t, text, "Settings")
	assert.NotContains(t, body, createForm)
}

func TestSettings(t *testing.T) {
	f := setup(t, nil)
	f.login(t)

	_, body := f.GET("/settings")
	text := testutils.PageText(t, body)
	assert.Contains(t, text, "Settings")
	assert.Contains(t, text, "Your Name")

	_, body = f.POSTForm("/settings", url.Values{"name": {"Grey Li"}})
	text = testutils.PageText(t, body)
	assert.Contains(t, text, "Settings updated.")
	assert.Contains(t, text, "Grey Li's Watchlist")

	for _, name := range []string{"", strings.Repeat("n", 21)} {
		_, body = f.POSTForm("/settings", url.Values{"name": {name}})
		text = testutils.PageText(t, body)
		assert.Contains(t, text, "Invalid input.")
		assert.NotContains(t, text, "Settings updated.")
		assert.Contains(t, text, "Grey Li's Watchlist")
	}
}

func TestRedirectsUseSeeOther(t *testing.T) {
	f := setup(t, nil)

	client := f.WithoutRedirects()
	resp, err := client.PostForm(f.URL+"/login", url.Values{"username": {"test"}, "password": {"123"}})
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestDemoRoutes(t *testing.T) {
	f := setup(t, nil)

	_, body := f.GET("/home")
	assert.Equal(t, "Hello", body)

	_, body = f.GET("/user/greyli")
	assert.Equal(t, "User: greyli", body)

	_, body = f.GET("/user/" + url.PathEscape("<b>x"))
	assert.Equal(t, "User: &lt;b&gt;x", body)

	_, body = f.GET("/test")
	assert.Equal(t, "Test page", body)
}

func TestAPI_TokenAndMovies(t *testing.T) {
	f := setup(t, nil)

	resp, _ := f.GET("/api/movies")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.POSTForm("/api/token", url.Values{"username": {"test"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := f.POSTForm("/api/token", url.Values{"username": {"test"}, "password": {"123"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var token user.TokenResponse
	require.NoError(t, json.Unmarshal([]byte(body), &token))
	require.NotEmpty(t, token.Token)

	req, err := http.NewRequest(http.MethodGet, f.URL+"/api/movies", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token.Token)
	resp, body = f.Do(req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var movies []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &movies))
	require.Len(t, movies, 1)
	assert.Equal(t, "Test Movie Title", movies[0]["title"])
	assert.Equal(t, "2019", movies[0]["year"])
}

func TestAPI_Preflight(t *testing.T) {
	f := setup(t, nil)

	req, err := http.NewRequest(http.MethodOptions, f.URL+"/api/movies", nil)
	require.NoError(t, err)
	resp, _ := f.Do(req)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestLoginRateLimit(t *testing.T) {
	cfg := testutils.GetTestConfig()
	cfg.LoginRateLimit = 0.001
	cfg.LoginRateBurst = 2
	f := setup(t, cfg)

	client := f.WithoutRedirects()
	form := url.Values{"username": {"test"}, "password": {"wrong"}}

	for i := 0; i < 2; i++ {
		resp, err := client.PostForm(f.URL+"/login", form)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	}

	resp, err := client.PostForm(f.URL+"/login", form)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// Viewing the form is never limited
	resp, _ = f.GET("/login")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
