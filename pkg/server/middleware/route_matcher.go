package middleware

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gorilla/mux"

	"github.com/grafana/escapers/pkg/util/bytereplacer"
)

// RouteMatcher matches routes
type RouteMatcher interface {
	Match(*http.Request, *mux.RouteMatch) bool
}

// getRouteName returns the route label of r: the route name when it has one,
// otherwise its path template as a label value. Empty means no route matched.
func getRouteName(routeMatcher RouteMatcher, r *http.Request) string {
	var routeMatch mux.RouteMatch
	if routeMatcher == nil || !routeMatcher.Match(r, &routeMatch) {
		return ""
	}

	switch {
	case errors.Is(routeMatch.MatchErr, mux.ErrNotFound):
		return "notfound"
	case errors.Is(routeMatch.MatchErr, mux.ErrMethodMismatch):
		return "method_not_allowed"
	case routeMatch.Route == nil:
		return ""
	}

	if name := routeMatch.Route.GetName(); name != "" {
		return name
	}
	if tmpl, err := routeMatch.Route.GetPathTemplate(); err == nil {
		return MakeLabelValue(tmpl)
	}
	return ""
}

var invalidCharsReplacer = bytereplacer.New(regexp.MustCompile(`[^a-zA-Z0-9]`), '_')

// MakeLabelValue converts a Gorilla mux path template to a string suitable
// for use as a Prometheus label value: every code point other than an ASCII
// letter or digit becomes '_', the result is trimmed of '_' and lowercased,
// and an empty result is reported as "root".
func MakeLabelValue(path string) string {
	result := strings.ToLower(strings.Trim(invalidCharsReplacer.Replace(path), "_"))
	if result == "" {
		return "root"
	}
	return result
}
