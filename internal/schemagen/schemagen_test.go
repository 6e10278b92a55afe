package schemagen

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mintgate/internal/msgschema"
)

func byKind(t *testing.T) map[msgschema.Kind]Document {
	t.Helper()
	docs, err := Generate()
	require.NoError(t, err)
	out := make(map[msgschema.Kind]Document, len(docs))
	for _, d := range docs {
		out[d.Kind] = d
	}
	return out
}

func TestGenerate_CoversEveryKind(t *testing.T) {
	docs := byKind(t)
	assert.Len(t, docs, len(msgschema.Kinds()))
	for _, k := range msgschema.Kinds() {
		assert.Contains(t, docs, k)
	}
}

func TestGenerate_UnionsCarryOneVariant(t *testing.T) {
	s := byKind(t)[msgschema.ManagerExecute].Schema
	require.NotNil(t, s.MinProperties)
	require.NotNil(t, s.MaxProperties)
	assert.Equal(t, 1, *s.MinProperties)
	assert.Equal(t, 1, *s.MaxProperties)
	assert.ElementsMatch(t, []string{"claim", "mint_to", "update_admin"}, keys(s.Properties))
	assert.Empty(t, s.Required)
}

func TestGenerate_InstantiateFields(t *testing.T) {
	s := byKind(t)[msgschema.PoapInstantiate].Schema
	assert.Nil(t, s.MaxProperties)
	assert.Equal(t, "poap.instantiate", s.Title)
	assert.ElementsMatch(t,
		[]string{"admin", "minter", "collection_code_id", "collection_instantiate_msg", "event_info"},
		s.Required)

	code := s.Properties["collection_code_id"]
	require.NotNil(t, code)
	assert.Equal(t, "string", code.Type)
	assert.Equal(t, "^[0-9]+$", code.Pattern)

	start := s.Properties["event_info"].Properties["start_time"]
	require.NotNil(t, start)
	assert.Equal(t, "string", start.Type)
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "schemas")
	paths, err := Write(dir)
	require.NoError(t, err)
	require.Len(t, paths, len(msgschema.Kinds()))

	data, err := os.ReadFile(filepath.Join(dir, "collection.execute.json"))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "collection.execute", doc["title"])
	assert.Equal(t, "object", doc["type"])
	assert.Contains(t, doc["properties"], "mint")
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
