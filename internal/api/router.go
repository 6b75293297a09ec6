package api

import (
	"net/http"
	"time"

	"fintech_index/internal/api/handler"
	"fintech_index/internal/app/service"
	"fintech_index/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	userService *service.UserService,
	dataService *service.CountryDataService,
	startupService *service.StartupService,
	geoService *service.GeoService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies the bearer token when present, puts claims in context.
	// Authorization is enforced per route group.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(authService)
		v1.Route("/auth", authHandler.RegisterRoutes)

		userHandler := handler.NewUserHandler(userService)
		v1.Route("/users", userHandler.RegisterRoutes)

		dataHandler := handler.NewCountryDataHandler(dataService)
		v1.Route("/country-data", dataHandler.RegisterRoutes)

		startupHandler := handler.NewStartupHandler(startupService)
		v1.Route("/startups", startupHandler.RegisterRoutes)

		geoHandler := handler.NewGeoHandler(geoService)
		v1.Route("/geo", geoHandler.RegisterRoutes)
	})

	return r
}
