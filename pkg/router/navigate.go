package router

import (
	"net/url"
	"strings"

	"github.com/vango-dev/nestroute/pkg/routepath"
)

// Route is a navigation target: either a literal Path, or a Name with
// Params and Query.
type Route struct {
	Path   string
	Name   string
	Params Params
	Query  url.Values
}

// Path returns a literal route.
func Path(path string) Route {
	return Route{Path: path}
}

// Named returns a route resolved by full name.
func Named(name string, params Params) Route {
	return Route{Name: name, Params: params}
}

// NavigateOptions configures navigation behavior.
type NavigateOptions struct {
	// Replace replaces the current entry instead of pushing.
	Replace bool

	// Query is merged into the route's query.
	Query url.Values

	// Callback runs right after the location has been updated.
	Callback func()
}

// NavigateOption is a functional option for Navigate.
type NavigateOption func(*NavigateOptions)

// WithReplace replaces the current entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Replace = true
	}
}

// WithQuery adds query parameters to the navigation path.
func WithQuery(query url.Values) NavigateOption {
	return func(o *NavigateOptions) {
		if o.Query == nil {
			o.Query = make(url.Values)
		}
		for k, vs := range query {
			o.Query[k] = append(o.Query[k], vs...)
		}
	}
}

// WithCallback runs fn once the location has committed the new segment.
func WithCallback(fn func()) NavigateOption {
	return func(o *NavigateOptions) {
		o.Callback = fn
	}
}

// resolvePath turns a route into the segment to navigate to.
func (r *Router) resolvePath(route Route, opts NavigateOptions) (string, error) {
	query := make(url.Values)
	for k, vs := range route.Query {
		query[k] = append(query[k], vs...)
	}
	for k, vs := range opts.Query {
		query[k] = append(query[k], vs...)
	}

	if route.Name != "" {
		r.currentMatcher()
		target := r.Find(route.Name)
		if target == nil {
			return "", &RouteError{Name: route.Name, Err: ErrUnknownRoute}
		}
		path, err := target.Reverse(route.Params)
		if err != nil {
			return "", &RouteError{Name: route.Name, Err: err}
		}
		return routepath.EnsureLeadingSlash(routepath.WithQuery(path, query.Encode())), nil
	}

	path := "/" + routepath.TrimLeadingSlash(route.Path)
	if len(query) == 0 {
		return path, nil
	}
	if strings.Contains(path, "?") {
		return path + "&" + query.Encode(), nil
	}
	return routepath.WithQuery(path, query.Encode()), nil
}

// RouteError reports a named route that could not be resolved.
type RouteError struct {
	Name string
	Err  error
}

func (e *RouteError) Error() string {
	return "router: route " + e.Name + ": " + e.Err.Error()
}

func (e *RouteError) Unwrap() error { return e.Err }
