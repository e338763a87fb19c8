package jsondoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocument_Null(t *testing.T) {
	doc := New(0)
	assert.True(t, doc.IsNull())
	assert.False(t, doc.Overflowed())

	b, err := doc.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, "null", string(b))

	doc.Set("temp", 21.5)
	assert.False(t, doc.IsNull())
}

func TestDocument_Fields(t *testing.T) {
	doc := New(0)
	doc.Set("temp", 21.5)
	doc.Set("unit", "C")

	b, err := doc.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `{"temp":21.5,"unit":"C"}`, string(b))
	assert.Equal(t, len(b), doc.Size())
}

func TestDocument_ReplaceKeepsOrder(t *testing.T) {
	doc := New(2)
	doc.Set("a", 1)
	doc.Set("b", 2)
	// Replacing an existing key must not count against the limit.
	doc.Set("a", 3)
	assert.False(t, doc.Overflowed())

	b, err := doc.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `{"a":3,"b":2}`, string(b))
}

func TestDocument_Overflow(t *testing.T) {
	doc := New(1)
	doc.Set("a", 1)
	assert.False(t, doc.Overflowed())

	doc.Set("b", 2)
	assert.True(t, doc.Overflowed())
	assert.False(t, doc.IsNull())

	// The field that overflowed is dropped, not truncated into the
	// document.
	b, err := doc.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(b))
}

func TestDocument_RootValue(t *testing.T) {
	doc := New(0)
	doc.SetValue(42)
	assert.False(t, doc.IsNull())

	b, err := doc.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, "42", string(b))
}
