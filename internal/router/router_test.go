package router

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	r := Default()

	tests := []struct {
		path   string
		name   string
		params map[string]string
	}{
		{path: "/", name: Dashboard},
		{path: "", name: Dashboard},
		{path: "/dashboard/", name: Dashboard},
		{path: "/products", name: ProductList},
		{path: "/products/create", name: ProductCreate},
		{path: "/products/42", name: ProductDetail, params: map[string]string{"id": "42"}},
		{path: "/products/42/edit", name: ProductEdit, params: map[string]string{"id": "42"}},
		{path: "/matching/results/r%201?tab=matched", name: MatchResultDetail, params: map[string]string{"id": "r 1"}},
		{path: "/settings/embeddings", name: EmbeddingSettings},
		{path: "/login", name: Login},
		{path: "//products", name: ProductList},
		{path: "///products//42/edit/", name: ProductEdit, params: map[string]string{"id": "42"}},
		{path: "products/7", name: ProductDetail, params: map[string]string{"id": "7"}},
		{path: "  /login  ", name: Login},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			match, err := r.Resolve(tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if match.Route.Name != tt.name {
				t.Fatalf("expected %s, got %s", tt.name, match.Route.Name)
			}
			for key, want := range tt.params {
				if match.Params[key] != want {
					t.Fatalf("expected param %s=%q, got %q", key, want, match.Params[key])
				}
			}
		})
	}
}

func TestResolveQuery(t *testing.T) {
	match, err := Default().Resolve("/matching/results/r1?tab=matched")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Query.Get("tab") != "matched" {
		t.Fatalf("expected query to be kept, got %v", match.Query)
	}
}

func TestResolveNotFound(t *testing.T) {
	for _, path := range []string{"/unknown", "/products/1/edit/extra", "/matching/results"} {
		if _, err := Default().Resolve(path); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for %s, got %v", path, err)
		}
	}
}

func TestStaticBeatsParamRegardlessOfOrder(t *testing.T) {
	r := New([]Route{
		{Path: "/items/:id", Name: "detail"},
		{Path: "/items/new", Name: "create"},
	})

	match, err := r.Resolve("/items/new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Route.Name != "create" {
		t.Fatalf("expected static route, got %s", match.Route.Name)
	}
}

func TestRedirectLoop(t *testing.T) {
	r := New([]Route{
		{Path: "/a", Redirect: "/b"},
		{Path: "/b", Redirect: "/a"},
	})

	if _, err := r.Resolve("/a"); !errors.Is(err, ErrRedirectLoop) {
		t.Fatalf("expected ErrRedirectLoop, got %v", err)
	}
}

func TestTitle(t *testing.T) {
	match, _ := Default().Resolve("/products")
	if got := match.Title(); got != "Product Management - ProdAnswer" {
		t.Fatalf("unexpected title %q", got)
	}
	if got := Title(""); got != "Product Capability Matching System - ProdAnswer" {
		t.Fatalf("unexpected fallback title %q", got)
	}
}

func TestHref(t *testing.T) {
	r := Default()

	path, err := r.Href(ProductEdit, map[string]string{"id": "a/b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/products/a%2Fb/edit" {
		t.Fatalf("unexpected path %q", path)
	}

	match, err := r.Resolve(path)
	if err != nil || match.Params["id"] != "a/b" {
		t.Fatalf("expected href to resolve back, got %v %v", match, err)
	}

	if _, err := r.Href(ProductDetail, nil); !errors.Is(err, ErrMissingParam) {
		t.Fatalf("expected ErrMissingParam, got %v", err)
	}
	if _, err := r.Href("Nope", nil); !errors.Is(err, ErrUnknownRoute) {
		t.Fatalf("expected ErrUnknownRoute, got %v", err)
	}
}
