package http

import "github.com/labstack/echo/v4"

// Handler registers its routes on the shared Echo instance. The server
// accepts any number of them; this app wires the alerts API handler.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
