package prender

import "testing"

func TestRouteRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRouteRegistry()

	err := reg.Register(RouteDescriptor{Method: "GET", Path: "/about", Component: "about"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	d, ok := reg.Lookup("GET", "/about")
	if !ok {
		t.Fatal("registered route not found")
	}
	if d.Component != "about" {
		t.Errorf("Component = %q", d.Component)
	}

	if _, ok := reg.Lookup("POST", "/about"); ok {
		t.Error("lookup matched the wrong method")
	}
	if _, ok := reg.Lookup("GET", "/missing"); ok {
		t.Error("lookup matched an unregistered path")
	}
}

func TestRouteRegistry_RejectsDuplicates(t *testing.T) {
	reg := NewRouteRegistry()

	d := RouteDescriptor{Method: "GET", Path: "/", Component: "index"}
	if err := reg.Register(d); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(d); err == nil {
		t.Fatal("duplicate registration should fail")
	}
	// Same path, different method is fine.
	if err := reg.Register(RouteDescriptor{Method: "POST", Path: "/", Component: "index"}); err != nil {
		t.Errorf("Register with different method: %v", err)
	}
}

func TestRouteRegistry_RejectsIncomplete(t *testing.T) {
	reg := NewRouteRegistry()

	for _, d := range []RouteDescriptor{
		{Path: "/", Component: "index"},
		{Method: "GET", Component: "index"},
		{Method: "GET", Path: "/"},
	} {
		if err := reg.Register(d); err == nil {
			t.Errorf("Register(%+v) should fail", d)
		}
	}
}

func TestRouteRegistry_RoutesSorted(t *testing.T) {
	reg := NewRouteRegistry()

	for _, d := range []RouteDescriptor{
		{Method: "GET", Path: "/z", Component: "z"},
		{Method: "POST", Path: "/a", Component: "a"},
		{Method: "GET", Path: "/a", Component: "a"},
	} {
		if err := reg.Register(d); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	routes := reg.Routes()
	if len(routes) != 3 {
		t.Fatalf("Routes returned %d entries", len(routes))
	}
	want := []struct{ method, path string }{
		{"GET", "/a"}, {"POST", "/a"}, {"GET", "/z"},
	}
	for i, w := range want {
		if routes[i].Method != w.method || routes[i].Path != w.path {
			t.Errorf("routes[%d] = %s %s, want %s %s",
				i, routes[i].Method, routes[i].Path, w.method, w.path)
		}
	}
}
