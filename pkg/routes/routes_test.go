package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/verity/pkg/openapi"
	"github.com/JaimeStill/verity/pkg/routes"
)

func TestRegisterHandlers(t *testing.T) {
	mux := http.NewServeMux()

	routes.Register(mux, routes.Group{
		Prefix: "/items",
		Routes: []routes.Route{
			{
				Method:  "GET",
				Pattern: "",
				Handler: func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
				},
			},
			{
				Method:  "GET",
				Pattern: "/{id}",
				Handler: func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
				},
			},
		},
	})

	tests := []struct {
		name   string
		method string
		path   string
		wantOK bool
	}{
		{"list items", "GET", "/items", true},
		{"get item", "GET", "/items/123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			mux.ServeHTTP(rec, req)

			if tt.wantOK && rec.Code != http.StatusOK {
				t.Errorf("status: got %d, want 200", rec.Code)
			}
		})
	}
}

func TestNestedGroups(t *testing.T) {
	mux := http.NewServeMux()

	routes.Register(mux, routes.Group{
		Prefix: "/api",
		Children: []routes.Group{
			{
				Prefix: "/v1",
				Routes: []routes.Route{
					{
						Method:  "GET",
						Pattern: "/items",
						Handler: func(w http.ResponseWriter, r *http.Request) {
							w.WriteHeader(http.StatusOK)
						},
					},
				},
			},
		},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/items", nil)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("nested route: got %d, want 200", rec.Code)
	}
}

func TestDocument(t *testing.T) {
	spec := openapi.NewSpec("Test", "1.0.0")
	noop := func(w http.ResponseWriter, r *http.Request) {}

	routes.Document(spec, "/api", routes.Group{
		Prefix: "/rules",
		Tags:   []string{"Rules"},
		Schemas: map[string]*openapi.Schema{
			"Rule": {Type: "object"},
		},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: noop, OpenAPI: &openapi.Operation{Summary: "List rules"}},
			{Method: "POST", Pattern: "", Handler: noop, OpenAPI: &openapi.Operation{Summary: "Create rule"}},
			{Method: "DELETE", Pattern: "/{id}", Handler: noop, OpenAPI: &openapi.Operation{Summary: "Delete rule"}},
			{Method: "GET", Pattern: "/internal", Handler: noop},
		},
		Children: []routes.Group{
			{
				Prefix: "/files",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "/{key...}", Handler: noop, OpenAPI: &openapi.Operation{Summary: "Download"}},
				},
			},
		},
	})

	item, ok := spec.Paths["/api/rules"]
	if !ok {
		t.Fatal("missing /api/rules path")
	}
	if item.Get == nil || item.Post == nil {
		t.Fatal("expected GET and POST on /api/rules")
	}
	if len(item.Get.Tags) != 1 || item.Get.Tags[0] != "Rules" {
		t.Errorf("tags: got %v, want [Rules]", item.Get.Tags)
	}

	if spec.Paths["/api/rules/{id}"].Delete == nil {
		t.Error("expected DELETE on /api/rules/{id}")
	}
	if _, ok := spec.Paths["/api/rules/internal"]; ok {
		t.Error("undocumented route should not appear in spec")
	}

	child, ok := spec.Paths["/api/rules/files/{key}"]
	if !ok || child.Get == nil {
		t.Fatal("wildcard path should be normalized to /api/rules/files/{key}")
	}
	if len(child.Get.Tags) != 1 || child.Get.Tags[0] != "Rules" {
		t.Errorf("child tags should inherit parent: got %v", child.Get.Tags)
	}

	if _, ok := spec.Components.Schemas["Rule"]; !ok {
		t.Error("group schema should be added to components")
	}
}
