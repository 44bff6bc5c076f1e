package handlers

import "github.com/keeperpay/keeperpay/internal/provider"

// Handler is the API handler entry point.
type Handler struct {
	*provider.Container
}

// New creates the API handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
