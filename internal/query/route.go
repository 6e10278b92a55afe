package query

import (
	"fmt"
	"strings"
)

// Route selects a domain area of the query service.
type Route string

const (
	RouteProfiles      Route = "profiles"
	RouteRelationships Route = "relationships"
	RouteSubspaces     Route = "subspaces"
	RoutePosts         Route = "posts"
)

// Routes lists every known route in a stable order.
func Routes() []Route {
	return []Route{RouteProfiles, RouteRelationships, RouteSubspaces, RoutePosts}
}

// Shape is the wire convention of an envelope.
type Shape string

const (
	// ShapeAuto lets the router pick each route's native shape.
	ShapeAuto Shape = "auto"

	// ShapeAdjacent carries the operation directly under query_data.
	ShapeAdjacent Shape = "adjacent"

	// ShapeWrapped nests the operation under a key named after the route.
	ShapeWrapped Shape = "wrapped"
)

// ParseShape parses a shape name. The empty string is ShapeAuto.
func ParseShape(s string) (Shape, error) {
	switch Shape(strings.ToLower(strings.TrimSpace(s))) {
	case "", ShapeAuto:
		return ShapeAuto, nil
	case ShapeAdjacent:
		return ShapeAdjacent, nil
	case ShapeWrapped:
		return ShapeWrapped, nil
	default:
		return "", fmt.Errorf("unknown query shape %q (want auto, adjacent or wrapped)", s)
	}
}

// NativeShape returns the shape each route uses on the wire when no shape
// is forced. The identity routes wrap their operations; subspaces and posts
// use the adjacent form.
func NativeShape(r Route) Shape {
	switch r {
	case RouteProfiles, RouteRelationships:
		return ShapeWrapped
	default:
		return ShapeAdjacent
	}
}

// resolve maps ShapeAuto to the route's native shape.
func (s Shape) resolve(r Route) Shape {
	if s == "" || s == ShapeAuto {
		return NativeShape(r)
	}
	return s
}
