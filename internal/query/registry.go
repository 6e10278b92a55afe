package query

import (
	"reflect"
	"sort"
	"strings"
)

// OpSchema describes one registered (route, operation) pair.
type OpSchema struct {
	Route  Route    `json:"route"`
	Op     string   `json:"op"`
	Params []string `json:"params"`

	typ reflect.Type
}

// New returns a zero request of this operation.
func (s OpSchema) New() Request {
	return reflect.New(s.typ).Elem().Interface().(Request)
}

type registry struct {
	ordered []OpSchema
	byRoute map[Route]map[string]OpSchema
}

var defaultRegistry = newRegistry(
	ProfileRequest{},
	IncomingDtagTransferRequestsRequest{},
	ChainLinksRequest{},
	UserChainLinkRequest{},
	AppLinksRequest{},
	UserAppLinksRequest{},
	ApplicationLinkByClientIDRequest{},
	RelationshipsRequest{},
	BlocksRequest{},
	SubspacesRequest{},
	SubspaceRequest{},
	UserGroupsRequest{},
	UserGroupRequest{},
	UserGroupMembersRequest{},
	UserPermissionsRequest{},
	PostsRequest{},
	ReportsRequest{},
	ReactionsRequest{},
)

func newRegistry(protos ...Request) *registry {
	r := &registry{byRoute: make(map[Route]map[string]OpSchema)}
	for _, p := range protos {
		typ := reflect.TypeOf(p)
		s := OpSchema{Route: p.Route(), Op: p.Op(), Params: paramNames(typ), typ: typ}
		if r.byRoute[s.Route] == nil {
			r.byRoute[s.Route] = make(map[string]OpSchema)
		}
		if _, dup := r.byRoute[s.Route][s.Op]; dup {
			panic("query: duplicate operation " + string(s.Route) + "/" + s.Op)
		}
		r.byRoute[s.Route][s.Op] = s
		r.ordered = append(r.ordered, s)
	}
	return r
}

// paramNames lists the JSON field names of a request struct.
func paramNames(typ reflect.Type) []string {
	var names []string
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *registry) lookup(route Route, op string) (OpSchema, bool) {
	s, ok := r.byRoute[route][op]
	return s, ok
}

func (r *registry) knownRoute(route Route) bool {
	_, ok := r.byRoute[route]
	return ok
}

// Schema lists every registered (route, operation) pair in registration order.
func Schema() []OpSchema {
	out := make([]OpSchema, len(defaultRegistry.ordered))
	copy(out, defaultRegistry.ordered)
	return out
}

// Lookup returns the schema of a (route, operation) pair.
func Lookup(route Route, op string) (OpSchema, bool) {
	return defaultRegistry.lookup(route, op)
}

// Ops lists the operations of a route in registration order.
func Ops(route Route) []string {
	var ops []string
	for _, s := range defaultRegistry.ordered {
		if s.Route == route {
			ops = append(ops, s.Op)
		}
	}
	return ops
}
