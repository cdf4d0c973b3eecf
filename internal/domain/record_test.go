package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOrder(t *testing.T) {
	r := rec("b", 1, "a", 2, "c", 3)
	assert.Equal(t, []string{"b", "a", "c"}, r.Keys())

	r.Set("a", 4)
	assert.Equal(t, []string{"b", "a", "c"}, r.Keys())

	v, ok := r.Pop("a")
	require.True(t, ok)
	assert.Equal(t, 4, v)
	assert.Equal(t, []string{"b", "c"}, r.Keys())
	assert.False(t, r.Has("a"))

	_, ok = r.Pop("a")
	assert.False(t, ok)
}

func TestRecordNested(t *testing.T) {
	r := rec("meta", rec("name", "x"), "empty", nil, "list", list(1))

	meta, ok := r.Record("meta")
	require.True(t, ok)
	assert.Equal(t, 1, meta.Len())

	missing, ok := r.Record("missing")
	assert.True(t, ok)
	assert.Nil(t, missing)

	empty, ok := r.Record("empty")
	assert.True(t, ok)
	assert.Nil(t, empty)

	_, ok = r.Record("list")
	assert.False(t, ok)
}

func TestRecordClone(t *testing.T) {
	orig := rec("meta", rec("from", "parent"), "tags", list(rec("k", "v")))
	clone := orig.Clone()

	meta, _ := clone.Record("meta")
	meta.Delete("from")
	tags, _ := clone.Get("tags")
	tags.([]any)[0].(*Record).Set("k", "changed")

	origMeta, _ := orig.Record("meta")
	assert.True(t, origMeta.Has("from"))
	origTags, _ := orig.Get("tags")
	v, _ := origTags.([]any)[0].(*Record).Get("k")
	assert.Equal(t, "v", v)
}

func TestRecordFromMap(t *testing.T) {
	r := RecordFromMap(map[string]any{
		"z": map[string]any{"inner": 1},
		"a": []any{map[string]any{"k": "v"}},
	})
	assert.Equal(t, []string{"a", "z"}, r.Keys())

	z, ok := r.Record("z")
	require.True(t, ok)
	assert.True(t, z.Has("inner"))

	a, _ := r.Get("a")
	_, isRecord := a.([]any)[0].(*Record)
	assert.True(t, isRecord)

	assert.Equal(t, map[string]any{
		"z": map[string]any{"inner": 1},
		"a": []any{map[string]any{"k": "v"}},
	}, r.ToMap())
}

func TestRecordMarshalJSONKeepsOrder(t *testing.T) {
	b, err := rec("b", 1, "a", rec("y", true, "x", nil)).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":{"y":true,"x":null}}`, string(b))
}

func TestPopFrom(t *testing.T) {
	target, ok, err := popFrom(rec("from", "base", "name", "x"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "base", target)

	_, ok, err = popFrom(rec("name", "x"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = popFrom(rec("from", 3))
	assert.ErrorIs(t, err, ErrInvalidRecord)
}
