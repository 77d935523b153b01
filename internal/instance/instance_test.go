package instance

import (
	"testing"

	ferrors "github.com/arkilian/formstore/internal/errors"
	"github.com/arkilian/formstore/internal/schema"
	"github.com/arkilian/formstore/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModel(t *testing.T) *schema.Model {
	t.Helper()
	m, err := schema.Build([]types.Property{
		{Name: "visit", Definition: &types.Definition{
			Type: "object", ElementKey: "visit",
			Properties: []types.Property{
				{Name: "date", Definition: &types.Definition{Type: "object", ElementType: "dateTime", ElementKey: "k2"}},
				{Name: "notes", Definition: &types.Definition{Type: "string", ElementKey: "visit_notes"}},
			},
		}},
		{Name: "tags", Definition: &types.Definition{
			Type: "array", ElementKey: "tags",
			Items: &types.Definition{Type: "string", ElementKey: "tags_items"},
		}},
	}, schema.WithInstanceMetadata())
	require.NoError(t, err)
	return m
}

func TestReconstruct_NestedPath(t *testing.T) {
	m := testModel(t)
	inst := New()

	err := Reconstruct(m, inst, map[string]Update{
		"k2": {ElementPath: "visit.date", Value: "2024-01-01T00:00:00.000000000"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"visit": map[string]any{"date": "2024-01-01T00:00:00.000000000"},
	}, inst.Data)
	assert.Empty(t, inst.Metadata)
}

func TestReconstruct_SkipsFoldedNodes(t *testing.T) {
	m := testModel(t)
	inst := New()

	err := Reconstruct(m, inst, map[string]Update{
		"visit":       {Value: map[string]any{"date": "ignored"}},
		"tags_items":  {Value: "ignored"},
		"tags":        {Value: []any{"a", "b"}},
		"visit_notes": {Value: "fine"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"visit": map[string]any{"notes": "fine"},
		"tags":  []any{"a", "b"},
	}, inst.Data)
}

func TestReconstruct_Metadata(t *testing.T) {
	m := testModel(t)
	inst := &Instance{}

	err := Reconstruct(m, inst, map[string]Update{
		"_id":             {Value: "uuid:1"},
		"_savepoint_type": {Value: "COMPLETE"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "uuid:1", "savepoint_type": "COMPLETE"}, inst.Metadata)
	assert.Empty(t, inst.Data)
}

func TestReconstruct_UnknownKey(t *testing.T) {
	err := Reconstruct(testModel(t), New(), map[string]Update{"nope": {Value: 1}})
	require.Error(t, err)
	assert.Equal(t, ferrors.CodeUnknownElementKey, ferrors.GetCode(err))
}

func TestSetElementPathValue(t *testing.T) {
	tree := map[string]any{}
	require.NoError(t, SetElementPathValue(tree, "a.b.c", 1))
	require.NoError(t, SetElementPathValue(tree, "a.b.d", 2))
	assert.Equal(t, map[string]any{"a": map[string]any{"b": map[string]any{"c": 1, "d": 2}}}, tree)

	for _, path := range []string{"", "a..b", ".a", "a."} {
		err := SetElementPathValue(map[string]any{}, path, 1)
		assert.Equal(t, ferrors.CodeEmptyPathSegment, ferrors.GetCode(err), path)
	}

	err := SetElementPathValue(map[string]any{"a": "scalar"}, "a.b", 1)
	assert.True(t, ferrors.IsValueError(err))
}

func TestElementPathValue(t *testing.T) {
	tree := map[string]any{"visit": map[string]any{"date": "d", "n": nil}}
	assert.Equal(t, "d", ElementPathValue(tree, "visit.date"))
	assert.Nil(t, ElementPathValue(tree, "visit.n"))
	assert.Nil(t, ElementPathValue(tree, "visit.date.deeper"))
	assert.Nil(t, ElementPathValue(tree, "missing.x"))
}

func TestResolvePair(t *testing.T) {
	values := map[string]any{
		"geo":         map[string]any{"lat": 1.5, "lon": 2.5},
		"person_name": "underscore form",
		"person.name": "dot form",
		"person":      map[string]any{"name": "composite"},
	}

	v, name, ok := ResolvePair(values, "geo.lat")
	require.True(t, ok)
	assert.Equal(t, "geo", name)
	assert.Equal(t, 1.5, v)

	// dot form wins over underscore form at the same depth
	v, name, ok = ResolvePair(values, "person.name")
	require.True(t, ok)
	assert.Equal(t, "person.name", name)
	assert.Equal(t, "dot form", v)

	delete(values, "person.name")
	v, name, _ = ResolvePair(values, "person.name")
	assert.Equal(t, "person_name", name)
	assert.Equal(t, "underscore form", v)

	v, name, ok = ResolvePair(values, "geo.alt")
	assert.True(t, ok)
	assert.Equal(t, "geo", name)
	assert.Nil(t, v)

	_, _, ok = ResolvePair(values, "absent.path")
	assert.False(t, ok)
}
