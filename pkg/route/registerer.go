package route

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Registerer registers named API routes. The name is used as the route label
// of the request metrics.
type Registerer interface {
	RegisterRoute(name, path string, handler http.Handler, methods ...string)
}

// MuxRegisterer wraps around a mux router.
type MuxRegisterer struct {
	router *mux.Router
}

func NewMuxRegisterer(router *mux.Router) *MuxRegisterer {
	return &MuxRegisterer{router: router}
}

func (r *MuxRegisterer) RegisterRoute(name, path string, handler http.Handler, methods ...string) {
	route := r.router.Path(path).Handler(handler).Name(name)
	if len(methods) > 0 {
		route.Methods(methods...)
	}
}

// FuncRegisterer allows a registerer to be defined by passing in a function.
type FuncRegisterer func(name, path string, handler http.Handler, methods ...string)

func (f FuncRegisterer) RegisterRoute(name, path string, handler http.Handler, methods ...string) {
	f(name, path, handler, methods...)
}
