// Package schemagen derives JSON Schema documents from the component
// message types, one per message kind.
package schemagen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/roach88/mintgate/internal/chain"
	"github.com/roach88/mintgate/internal/contracts/collection"
	"github.com/roach88/mintgate/internal/contracts/manager"
	"github.com/roach88/mintgate/internal/contracts/poap"
	"github.com/roach88/mintgate/internal/msgschema"
)

// Document is the generated schema of one message kind.
type Document struct {
	Kind   msgschema.Kind
	Schema *jsonschema.Schema
}

type source struct {
	kind  msgschema.Kind
	typ   reflect.Type
	union bool
}

var sources = []source{
	{msgschema.CollectionInstantiate, reflect.TypeFor[collection.InstantiateMsg](), false},
	{msgschema.CollectionExecute, reflect.TypeFor[collection.ExecuteMsg](), true},
	{msgschema.CollectionQuery, reflect.TypeFor[collection.QueryMsg](), true},
	{msgschema.ManagerInstantiate, reflect.TypeFor[manager.InstantiateMsg](), false},
	{msgschema.ManagerExecute, reflect.TypeFor[manager.ExecuteMsg](), true},
	{msgschema.ManagerQuery, reflect.TypeFor[manager.QueryMsg](), true},
	{msgschema.PoapInstantiate, reflect.TypeFor[poap.InstantiateMsg](), false},
	{msgschema.PoapExecute, reflect.TypeFor[poap.ExecuteMsg](), true},
	{msgschema.PoapQuery, reflect.TypeFor[poap.QueryMsg](), true},
}

// Chain scalars travel as decimal strings.
func options() *jsonschema.ForOptions {
	decimal := func(desc string) *jsonschema.Schema {
		return &jsonschema.Schema{Type: "string", Pattern: "^[0-9]+$", Description: desc}
	}
	return &jsonschema.ForOptions{
		TypeSchemas: map[reflect.Type]*jsonschema.Schema{
			reflect.TypeFor[chain.Uint64]():    decimal("unsigned 64-bit integer"),
			reflect.TypeFor[chain.Timestamp](): decimal("nanoseconds since the Unix epoch"),
			reflect.TypeFor[chain.Addr]():      {Type: "string", Description: "account or contract address"},
		},
	}
}

// Generate builds every document in kind order.
func Generate() ([]Document, error) {
	opts := options()
	docs := make([]Document, 0, len(sources))
	for _, src := range sources {
		s, err := jsonschema.ForType(src.typ, opts)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", src.kind, err)
		}
		s.Title = string(src.kind)
		if src.union {
			// Tagged unions carry exactly one variant.
			one := 1
			s.MinProperties = &one
			s.MaxProperties = &one
		}
		docs = append(docs, Document{Kind: src.kind, Schema: s})
	}
	return docs, nil
}

// Write generates every document into dir as <kind>.json and returns the
// paths written.
func Write(dir string) ([]string, error) {
	docs, err := Generate()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	paths := make([]string, 0, len(docs))
	for _, doc := range docs {
		data, err := json.MarshalIndent(doc.Schema, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", doc.Kind, err)
		}
		path := filepath.Join(dir, string(doc.Kind)+".json")
		if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
