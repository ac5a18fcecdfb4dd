package app

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"watchlist/db"
	"watchlist/internal/auth"
	"watchlist/internal/config"
	"watchlist/internal/movie"
	"watchlist/internal/user"
	"watchlist/internal/web"
	"watchlist/middleware"
)

// App wires repositories, services and HTTP handlers around one repository
// factory. The caller owns the factory and closes it.
type App struct {
	Factory      *db.RepositoryFactory
	MovieService *movie.MovieService
	UserService  *user.UserService
	Tokens       *auth.TokenService
	Handler      http.Handler
}

func New(factory *db.RepositoryFactory, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	movieService := movie.NewMovieService(factory.NewMovieRepository(), logger)
	userService := user.NewUserService(factory.NewUserRepository(), logger)
	tokens := auth.NewTokenService(cfg.JwtKey, time.Duration(cfg.JwtTTL)*time.Hour)

	webHandler, err := web.NewWebHandler(movieService, userService, cfg, logger)
	if err != nil {
		return nil, err
	}

	loginLimiter := middleware.NewRateLimiter(rate.Limit(cfg.LoginRateLimit), cfg.LoginRateBurst)
	authMiddleware := middleware.NewMiddleware(tokens)

	router := webHandler.SetupRoutes(loginLimiter.LimitMiddleware, &web.APIRoutes{
		Token:   user.NewUserHandlers(userService, tokens).TokenHandler,
		Movies:  movie.NewMovieHandlers(movieService).GetAllMovies,
		Protect: authMiddleware.AuthMiddleware,
		CORS:    middleware.SetupCORS(),
	})

	return &App{
		Factory:      factory,
		MovieService: movieService,
		UserService:  userService,
		Tokens:       tokens,
		Handler:      middleware.LoggingMiddleware(logger)(router),
	}, nil
}
