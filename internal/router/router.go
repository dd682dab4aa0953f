// Package router resolves application paths to named views.
package router

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

const (
	AppName      = "ProdAnswer"
	defaultTitle = "Product Capability Matching System"
	maxRedirects = 10

	Dashboard         = "Dashboard"
	ProductList       = "ProductList"
	ProductCreate     = "ProductCreate"
	ProductDetail     = "ProductDetail"
	ProductEdit       = "ProductEdit"
	RequirementList   = "RequirementList"
	RequirementCreate = "RequirementCreate"
	MatchingAnalysis  = "MatchingAnalysis"
	MatchResultDetail = "MatchResultDetail"
	EmbeddingSettings = "EmbeddingSettings"
	Login             = "Login"

	LoginPath = "/login"
)

var (
	ErrNotFound     = errors.New("route not found")
	ErrRedirectLoop = errors.New("too many redirects")
	ErrMissingParam = errors.New("missing route parameter")
	ErrUnknownRoute = errors.New("unknown route name")
)

type Route struct {
	Path     string
	Name     string
	Title    string
	Redirect string
}

// Match is a resolved route with its path parameters.
type Match struct {
	Route  Route
	Path   string
	Params map[string]string
	Query  url.Values
}

type Router struct {
	routes []Route
}

// Routes of the application in declaration order.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/", Redirect: "/dashboard"},
		{Path: "/dashboard", Name: Dashboard, Title: "Dashboard"},
		{Path: "/products", Name: ProductList, Title: "Product Management"},
		{Path: "/products/create", Name: ProductCreate, Title: "Create Product"},
		{Path: "/products/:id", Name: ProductDetail, Title: "Product Detail"},
		{Path: "/products/:id/edit", Name: ProductEdit, Title: "Edit Product"},
		{Path: "/requirements", Name: RequirementList, Title: "Requirement List"},
		{Path: "/requirements/create", Name: RequirementCreate, Title: "Create Requirement"},
		{Path: "/matching", Name: MatchingAnalysis, Title: "Matching Analysis"},
		{Path: "/matching/results/:id", Name: MatchResultDetail, Title: "Match Results"},
		{Path: "/settings/embeddings", Name: EmbeddingSettings, Title: "Embedding Settings"},
		{Path: LoginPath, Name: Login, Title: "Login"},
	}
}

func New(routes []Route) *Router {
	return &Router{routes: append([]Route(nil), routes...)}
}

func Default() *Router {
	return New(DefaultRoutes())
}

func (r *Router) Routes() []Route {
	return append([]Route(nil), r.routes...)
}

// Resolve follows redirects and returns the route matching path.
// Static segments win over parameters.
func (r *Router) Resolve(path string) (*Match, error) {
	current := path
	for i := 0; i <= maxRedirects; i++ {
		clean, query, err := normalize(current)
		if err != nil {
			return nil, err
		}

		route, params, ok := r.match(clean)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, clean)
		}

		if route.Redirect == "" {
			return &Match{Route: route, Path: clean, Params: params, Query: query}, nil
		}
		current = route.Redirect
	}

	return nil, fmt.Errorf("%w: %s", ErrRedirectLoop, path)
}

// Lookup returns the route registered under name.
func (r *Router) Lookup(name string) (Route, bool) {
	for _, route := range r.routes {
		if route.Name != "" && route.Name == name {
			return route, true
		}
	}
	return Route{}, false
}

// Href builds the path of the named route.
func (r *Router) Href(name string, params map[string]string) (string, error) {
	route, ok := r.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRoute, name)
	}

	segments := split(route.Path)
	for i, segment := range segments {
		if !strings.HasPrefix(segment, ":") {
			continue
		}
		value := params[segment[1:]]
		if value == "" {
			return "", fmt.Errorf("%w: %s in %s", ErrMissingParam, segment[1:], route.Path)
		}
		segments[i] = url.PathEscape(value)
	}

	return "/" + strings.Join(segments, "/"), nil
}

// Title renders the window title of the match.
func (m *Match) Title() string {
	return Title(m.Route.Title)
}

func Title(title string) string {
	if title == "" {
		title = defaultTitle
	}
	return fmt.Sprintf("%s - %s", title, AppName)
}

func (r *Router) match(path string) (Route, map[string]string, bool) {
	segments := split(path)

	var (
		best       Route
		bestParams map[string]string
		bestStatic []bool
		found      bool
	)

	for _, route := range r.routes {
		pattern := split(route.Path)
		if len(pattern) != len(segments) {
			continue
		}

		params := make(map[string]string)
		static := make([]bool, len(pattern))
		ok := true
		for i, p := range pattern {
			if strings.HasPrefix(p, ":") {
				value, err := url.PathUnescape(segments[i])
				if err != nil || value == "" {
					ok = false
					break
				}
				params[p[1:]] = value
				continue
			}
			if p != segments[i] {
				ok = false
				break
			}
			static[i] = true
		}
		if !ok {
			continue
		}

		if !found || moreSpecific(static, bestStatic) {
			best, bestParams, bestStatic, found = route, params, static, true
		}
	}

	return best, bestParams, found
}

// moreSpecific reports whether a has a static segment where b first has a parameter.
func moreSpecific(a, b []bool) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i]
		}
	}
	return false
}

func normalize(raw string) (string, url.Values, error) {
	if strings.TrimSpace(raw) == "" {
		return "/", url.Values{}, nil
	}

	// A leading "//" would be parsed as a host.
	trimmed := "/" + strings.TrimLeft(strings.TrimSpace(raw), "/")

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", nil, fmt.Errorf("parse path %q: %w", raw, err)
	}

	return path.Clean(u.EscapedPath()), u.Query(), nil
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return []string{}
	}
	return strings.Split(path, "/")
}
