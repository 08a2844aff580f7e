package sim

// A Middleware is one stage of the per-cycle behavior of a component.
type Middleware interface {
	// Tick runs the stage once and tells if it did anything.
	Tick() bool
}

// MiddlewareHolder runs its middlewares in the order they were added.
type MiddlewareHolder struct {
	middlewares []Middleware
}

// AddMiddleware appends a middleware.
func (h *MiddlewareHolder) AddMiddleware(m Middleware) {
	h.middlewares = append(h.middlewares, m)
}

// Middlewares returns the middlewares in running order.
func (h *MiddlewareHolder) Middlewares() []Middleware {
	return h.middlewares
}

// Tick runs every middleware once. It returns true if any of them made
// progress.
func (h *MiddlewareHolder) Tick() bool {
	progress := false

	for _, m := range h.middlewares {
		if m.Tick() {
			progress = true
		}
	}

	return progress
}
