package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject_SetPreservesInsertionOrder(t *testing.T) {
	o := NewObject()
	o.Set("z", 1)
	o.Set("a", 2)
	o.Set("m", 3)
	assert.Equal(t, []string{"z", "a", "m"}, o.Keys())

	o.Set("a", 20)
	assert.Equal(t, []string{"z", "a", "m"}, o.Keys(), "replacing a key must not move it")
}

func TestObject_Delete(t *testing.T) {
	o := NewObject()
	o.Set("a", 1)
	o.Set("b", 2)
	require.True(t, o.Delete("a"))
	assert.Equal(t, []string{"b"}, o.Keys())
	assert.False(t, o.Delete("a"))
}

func TestDecodeCanonical_PreservesKeyOrder(t *testing.T) {
	v, err := DecodeCanonical([]byte(`{"z":1,"a":2,"nested":{"y":1,"x":2}}`))
	require.NoError(t, err)
	obj, ok := v.(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"z", "a", "nested"}, obj.Keys())

	nested, ok := obj.Get("nested")
	require.True(t, ok)
	nestedObj, ok := nested.(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"y", "x"}, nestedObj.Keys())
}

func TestEncodeCanonical_RoundTripsOrder(t *testing.T) {
	src := []byte(`{"z":1,"a":"two","list":[1,2,3],"obj":{"b":1,"a":2}}`)
	v, err := DecodeCanonical(src)
	require.NoError(t, err)
	obj := v.(*Object)

	out, err := EncodeCanonical(obj, nil)
	require.NoError(t, err)

	roundTripped, err := DecodeCanonical(out)
	require.NoError(t, err)
	assert.Equal(t, obj.Keys(), roundTripped.(*Object).Keys())
}

func TestGetSetDeletePath(t *testing.T) {
	o := NewObject()
	SetPath(o, "attributes.title", "hello")
	v, ok := GetPath(o, "attributes.title")
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	assert.True(t, DeletePath(o, "attributes.title"))
	_, ok = GetPath(o, "attributes.title")
	assert.False(t, ok)
}

func TestEncodeCanonical_EmptyObjectAndArray(t *testing.T) {
	o := NewObject()
	o.Set("empty_obj", NewObject())
	o.Set("empty_arr", []interface{}{})

	out, err := EncodeCanonical(o, nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"empty_obj": {}`)
	assert.Contains(t, string(out), `"empty_arr": []`)
}

func TestClone_IsDeep(t *testing.T) {
	o := NewObject()
	inner := NewObject()
	inner.Set("x", 1)
	o.Set("inner", inner)

	clone := o.Clone()
	clonedInner, _ := clone.Get("inner")
	clonedInner.(*Object).Set("x", 999)

	original, _ := o.Get("inner")
	v, _ := original.(*Object).Get("x")
	assert.EqualValues(t, 1, v, "mutating the clone must not affect the original")
}
