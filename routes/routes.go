package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ppissanetzky/forty-two/handlers"
	"github.com/ppissanetzky/forty-two/middleware"
	"github.com/ppissanetzky/forty-two/models"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tournamentHandler *handlers.TournamentHandler,
	roomHandler *handlers.RoomHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(jwtSecret))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/users/{id}", userHandler.Get)
		r.With(middleware.Authorize(models.RoleAdmin)).Delete("/users/{id}", userHandler.Delete)
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/{id}", tournamentHandler.Get)
		r.Get("/{id}/bracket", tournamentHandler.Bracket)
		r.Get("/{id}/result", tournamentHandler.Result)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{id}/signup", tournamentHandler.SignUp)
			r.Delete("/{id}/signup", tournamentHandler.DropOut)
			r.Post("/{id}/start", tournamentHandler.Start)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", tournamentHandler.Create)
		})
	})

	router.Route("/rooms", func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/{roomID}/result", roomHandler.Result)
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
