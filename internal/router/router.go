// Package router wires handlers and middleware onto Echo instances, one
// registration function per service.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/aminjonov/taskhub/internal/handler"
	"github.com/aminjonov/taskhub/internal/middleware"
)

// RegisterAuthRoutes registers the authentication service's routes.
// Register and login are unauthenticated but pass through the rate
// limiter; /users/me requires a bearer token; the user listing and health
// check are open.
func RegisterAuthRoutes(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)

	e.POST("/register", a.Register, limiter)
	e.POST("/login", a.Login, limiter)

	e.GET("/users", a.ListUsers)
	e.GET("/users/me", a.Me, middleware.JWTAuth(a.Cfg.JWTSecret))
}

// RegisterTaskRoutes registers the task service's routes. Everything under
// /tasks requires a bearer token signed with the same secret the auth
// service uses.
func RegisterTaskRoutes(e *echo.Echo, t *handler.TaskHandler, jwtSecret string) {
	e.GET("/healthz", handler.Health)

	g := e.Group("/tasks")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.POST("/", t.Create)
	g.GET("/", t.List)
	g.GET("/filter", t.Filter)
	g.PATCH("/:id", t.Update)
	g.PATCH("/:id/complete", t.Complete)
	g.DELETE("/:id", t.Delete)
}
