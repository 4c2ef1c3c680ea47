package telegram

import (
	"github.com/prostogovorite/helpbot/core/telegram/middleware"
)

// DefaultMiddlewares builds the shared middleware chain: panic recovery
// outermost, then the update logger that seeds the request context.
func DefaultMiddlewares() []Middleware {
	return []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
	}
}
