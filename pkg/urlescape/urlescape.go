// Package urlescape provides the percent escapers for the different parts of
// a URL.
package urlescape

import (
	"fmt"
	"sort"

	"github.com/grafana/escapers/pkg/errorx"
	"github.com/grafana/escapers/pkg/escape"
	"github.com/grafana/escapers/pkg/percent"
)

const (
	FormParameterName = "form"
	PathSegmentName   = "path-segment"
	FragmentName      = "fragment"

	formParameterOtherSafeChars = "-_.*"

	pathOtherSafeCharsLackingPlus = "-._~" + // Unreserved characters.
		"!$'()*,;&=" + // The subdelim characters (excluding '+').
		"@:" // The gendelim characters permitted in paths.
)

var (
	formParameterEscaper = percent.MustNew(formParameterOtherSafeChars, true)
	pathSegmentEscaper   = percent.MustNew(pathOtherSafeCharsLackingPlus+"+", false)
	fragmentEscaper      = percent.MustNew(pathOtherSafeCharsLackingPlus+"+/?", false)

	byName = map[string]*percent.Escaper{
		FormParameterName: formParameterEscaper,
		PathSegmentName:   pathSegmentEscaper,
		FragmentName:      fragmentEscaper,
	}
)

// FormParameter escapes strings for use as names or values of
// application/x-www-form-urlencoded parameters: space becomes '+'.
func FormParameter() *percent.Escaper {
	return formParameterEscaper
}

// PathSegment escapes strings for use as a single URL path segment, so '/'
// is escaped but the sub-delimiters, '+', ':' and '@' are not.
func PathSegment() *percent.Escaper {
	return pathSegmentEscaper
}

// Fragment escapes strings for use as a URL fragment. It is PathSegment with
// '/' and '?' left alone.
func Fragment() *percent.Escaper {
	return fragmentEscaper
}

// Lookup returns the escaper registered under name.
func Lookup(name string) (escape.Escaper, error) {
	e, ok := byName[name]
	if !ok {
		return nil, errorx.NotFound{Msg: fmt.Sprintf("unknown escaper %q", name)}
	}
	return e, nil
}

// Names returns the names accepted by Lookup, sorted.
func Names() []string {
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
