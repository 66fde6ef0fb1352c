package api

// Handlers bundles the HTTP handlers with their dependencies
type Handlers struct {
	deps *Dependencies
}

// NewHandlers creates the handler set from initialized dependencies
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{deps: deps}
}
