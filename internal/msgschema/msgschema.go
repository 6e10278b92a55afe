// Package msgschema validates component messages against CUE schemas
// before they reach a component.
//
// Schemas are closed definitions: unknown fields and messages carrying
// zero or several variants are rejected, matching what the components'
// strict decoders accept.
package msgschema

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/mintgate/internal/chain"
)

//go:embed schema.cue
var schemaSource []byte

// Kind names one message schema as "<component>.<entry point>".
type Kind string

const (
	ManagerInstantiate    Kind = "manager.instantiate"
	ManagerExecute        Kind = "manager.execute"
	ManagerQuery          Kind = "manager.query"
	PoapInstantiate       Kind = "poap.instantiate"
	PoapExecute           Kind = "poap.execute"
	PoapQuery             Kind = "poap.query"
	CollectionInstantiate Kind = "collection.instantiate"
	CollectionExecute     Kind = "collection.execute"
	CollectionQuery       Kind = "collection.query"
)

var definitions = map[Kind]string{
	ManagerInstantiate:    "#ManagerInstantiate",
	ManagerExecute:        "#ManagerExecute",
	ManagerQuery:          "#ManagerQuery",
	PoapInstantiate:       "#PoapInstantiate",
	PoapExecute:           "#PoapExecute",
	PoapQuery:             "#PoapQuery",
	CollectionInstantiate: "#CollectionInstantiate",
	CollectionExecute:     "#CollectionExecute",
	CollectionQuery:       "#CollectionQuery",
}

// Kinds lists every schema kind in sorted order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(definitions))
	for k := range definitions {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseKind parses a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := definitions[k]; !ok {
		return "", fmt.Errorf("unknown message kind %q", s)
	}
	return k, nil
}

// KindFor returns the schema kind of a component entry point.
func KindFor(component, entry string) (Kind, error) {
	return ParseKind(component + "." + entry)
}

// Validator checks messages against the compiled schemas.
// A Validator is safe for concurrent use.
type Validator struct {
	mu   sync.Mutex
	ctx  *cue.Context
	defs map[Kind]cue.Value
}

// New compiles the embedded schemas.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile message schemas: %w", err)
	}
	v := &Validator{ctx: ctx, defs: make(map[Kind]cue.Value, len(definitions))}
	for kind, name := range definitions {
		def := root.LookupPath(cue.ParsePath(name))
		if !def.Exists() {
			return nil, fmt.Errorf("message schema %s: missing definition %s", kind, name)
		}
		v.defs[kind] = def
	}
	return v, nil
}

// MustNew is New for package-level initialisation.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks a JSON message. Failures are VALIDATION errors whose
// details name the offending path.
func (v *Validator) Validate(kind Kind, msg []byte) error {
	def, ok := v.defs[kind]
	if !ok {
		return chain.ValidationError("unknown message kind %q", kind)
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	expr, err := cuejson.Extract(string(kind), msg)
	if err != nil {
		return chain.ValidationError("%s: invalid JSON: %v", kind, err)
	}
	data := v.ctx.BuildExpr(expr)
	if err := data.Err(); err != nil {
		return chain.ValidationError("%s: %v", kind, err)
	}
	if err := def.Unify(data).Validate(cue.Concrete(true)); err != nil {
		return schemaError(kind, err)
	}
	return nil
}

func schemaError(kind Kind, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return chain.ValidationError("%s: %v", kind, err)
	}
	first := errs[0]
	ce := chain.ValidationError("%s: %s", kind, strings.TrimSpace(first.Error()))
	if path := first.Path(); len(path) > 0 {
		ce = ce.With("path", strings.Join(path, "."))
	}
	if len(errs) > 1 {
		ce = ce.With("errors", fmt.Sprintf("%d", len(errs)))
	}
	return ce
}
