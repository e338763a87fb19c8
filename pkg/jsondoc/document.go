// Package jsondoc provides the JSON document an RPC handler populates with
// its response.
//
// A document can be bounded to a maximum number of object fields so the
// caller knows the worst case response size up front. Writes beyond the
// bound are discarded and recorded, leaving the document in a distinct
// 'overflowed' state rather than silently truncating the response.
package jsondoc

import (
	"bytes"
	"encoding/json"
)

type field struct {
	key   string
	value interface{}
}

// Document is an ordered JSON document.
//
// A document starts null. Writing a field with Set, or a root value with
// SetValue, makes it non-null. A handler that never writes signals it does
// not want a response sent.
//
// Document is not safe for concurrent use; it is scoped to a single
// dispatch.
type Document struct {
	// limit is the maximum number of object fields, or <= 0 for no bound.
	limit int

	fields     []field
	root       interface{}
	rootSet    bool
	overflowed bool
}

// New creates a document bounded to the given maximum number of object
// fields. A limit <= 0 means unbounded.
func New(limit int) *Document {
	return &Document{limit: limit}
}

// Set writes an object field, preserving insertion order. Setting an
// existing key replaces its value in place and does not count against the
// field limit. Writes beyond the limit are dropped and mark the document
// overflowed.
func (d *Document) Set(key string, value interface{}) {
	for i := range d.fields {
		if d.fields[i].key == key {
			d.fields[i].value = value
			return
		}
	}
	if d.limit > 0 && len(d.fields) >= d.limit {
		d.overflowed = true
		return
	}
	d.fields = append(d.fields, field{key: key, value: value})
}

// SetValue replaces the whole document with a single root value, such as a
// string or number response. A root value takes precedence over any object
// fields and never overflows.
func (d *Document) SetValue(value interface{}) {
	d.root = value
	d.rootSet = true
}

// IsNull reports whether the document was never written to.
func (d *Document) IsNull() bool {
	return !d.rootSet && len(d.fields) == 0 && !d.overflowed
}

// Overflowed reports whether a write was dropped because the document was
// full.
func (d *Document) Overflowed() bool {
	return d.overflowed
}

// Limit returns the configured maximum number of object fields, or <= 0 if
// unbounded.
func (d *Document) Limit() int {
	return d.limit
}

// MarshalJSON serializes the document, preserving field insertion order.
func (d *Document) MarshalJSON() ([]byte, error) {
	if d.rootSet {
		return json.Marshal(d.root)
	}
	if len(d.fields) == 0 {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Size returns the serialized length of the document in bytes, or zero if
// the document cannot be serialized.
func (d *Document) Size() int {
	b, err := d.MarshalJSON()
	if err != nil {
		return 0
	}
	return len(b)
}
