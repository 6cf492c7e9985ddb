// Package escapehttp exposes the escapers over HTTP.
package escapehttp

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/grafana/escapers/pkg/ctxlog"
	"github.com/grafana/escapers/pkg/errorx"
	"github.com/grafana/escapers/pkg/escape"
	"github.com/grafana/escapers/pkg/route"
	"github.com/grafana/escapers/pkg/urlescape"
)

const (
	EscapePath   = "/escape/{escaper}"
	EscapersPath = "/escapers"

	// InputParam is the query parameter holding the string to escape on GET
	// requests.
	InputParam = "s"

	contentType = "text/plain; charset=utf-8"
)

type API struct {
	escapers    map[string]escape.Escaper
	names       []string
	logProvider ctxlog.Provider
}

// NewAPI serves the URL escapers plus the extra ones provided, which take
// precedence on name clashes. Every escaper is measured with recorder.
func NewAPI(extra map[string]escape.Escaper, recorder escape.Recorder, logProvider ctxlog.Provider, timeNow func() time.Time) *API {
	all := make(map[string]escape.Escaper, len(extra)+len(urlescape.Names()))
	for _, name := range urlescape.Names() {
		e, err := urlescape.Lookup(name)
		if err != nil {
			panic(errorx.Internal{Msg: fmt.Sprintf("listed escaper %q can't be looked up", name), Err: err})
		}
		all[name] = e
	}
	for name, e := range extra {
		all[name] = e
	}

	api := &API{
		escapers:    make(map[string]escape.Escaper, len(all)),
		names:       make([]string, 0, len(all)),
		logProvider: logProvider,
	}
	for name, e := range all {
		api.escapers[name] = escape.NewMeasuredEscaper(name, e, recorder, timeNow)
		api.names = append(api.names, name)
	}
	sort.Strings(api.names)
	return api
}

// Register adds the API routes to r.
func (a *API) Register(r route.Registerer) {
	r.RegisterRoute("escape", EscapePath, http.HandlerFunc(a.escapeHandler), http.MethodGet, http.MethodPost)
	r.RegisterRoute("escapers", EscapersPath, http.HandlerFunc(a.escapersHandler), http.MethodGet)
}

func (a *API) lookup(name string) (escape.Escaper, error) {
	e, ok := a.escapers[name]
	if !ok {
		return nil, errorx.NotFound{Msg: fmt.Sprintf("unknown escaper %q", name)}
	}
	return e, nil
}

func (a *API) escapeHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["escaper"]
	ctx := a.logProvider.ContextWith(a.logProvider.ContextWithRequest(r), "escaper", name)
	logger := a.logProvider.For(ctx)

	escaper, err := a.lookup(name)
	if err != nil {
		errorx.LogAndSetHTTPError(ctx, w, logger, err)
		return
	}

	input, err := readInput(r)
	if err != nil {
		errorx.LogAndSetHTTPError(ctx, w, logger, err)
		return
	}

	escaped, err := escaper.Escape(input)
	if err != nil {
		errorx.LogAndSetHTTPError(ctx, w, logger, err)
		return
	}

	logger.Debug("msg", "escaped", "input_bytes", len(input), "output_bytes", len(escaped))
	w.Header().Set("Content-Type", contentType)
	if _, err := io.WriteString(w, escaped); err != nil {
		logger.Warn("msg", "can't write response", "err", err)
	}
}

func readInput(r *http.Request) (string, error) {
	if r.Method == http.MethodPost {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			if r.Context().Err() != nil {
				return "", r.Context().Err()
			}
			return "", errorx.BadRequest{Msg: "can't read request body", Err: err}
		}
		return string(body), nil
	}

	values, ok := r.URL.Query()[InputParam]
	if !ok {
		return "", errorx.BadRequest{Msg: fmt.Sprintf("missing query parameter %q", InputParam)}
	}
	return values[0], nil
}

func (a *API) escapersHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", contentType)
	if _, err := io.WriteString(w, strings.Join(a.names, "\n")+"\n"); err != nil {
		a.logProvider.For(a.logProvider.ContextWithRequest(r)).Warn("msg", "can't write response", "err", err)
	}
}
