package collection

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var errNotObject = errors.New("collection: expected a JSON object")

// Ordered is a name-keyed map that remembers insertion order. It serializes
// as a JSON object whose keys appear in that order, and decoding restores it.
type Ordered[E any] struct {
	keys []string
	m    map[string]E
}

func NewOrdered[E any]() *Ordered[E] {
	return &Ordered[E]{m: map[string]E{}}
}

func (o *Ordered[E]) Get(name string) (E, bool) {
	e, ok := o.m[name]
	return e, ok
}

func (o *Ordered[E]) Has(name string) bool {
	_, ok := o.m[name]
	return ok
}

// Put inserts or replaces. Replacing keeps the original position.
func (o *Ordered[E]) Put(name string, e E) {
	if o.m == nil {
		o.m = map[string]E{}
	}
	if _, ok := o.m[name]; !ok {
		o.keys = append(o.keys, name)
	}
	o.m[name] = e
}

func (o *Ordered[E]) Delete(name string) bool {
	if _, ok := o.m[name]; !ok {
		return false
	}
	delete(o.m, name)
	for i, k := range o.keys {
		if k == name {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

func (o *Ordered[E]) Len() int { return len(o.keys) }

func (o *Ordered[E]) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Values returns the entries in insertion order.
func (o *Ordered[E]) Values() []E {
	out := make([]E, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, o.m[k])
	}
	return out
}

// Filter drops every entry for which keep returns false and reports how many
// were dropped.
func (o *Ordered[E]) Filter(keep func(name string, e E) bool) int {
	var dropped int
	kept := o.keys[:0]
	for _, k := range o.keys {
		if keep(k, o.m[k]) {
			kept = append(kept, k)
			continue
		}
		delete(o.m, k)
		dropped++
	}
	o.keys = kept
	return dropped
}

func (o *Ordered[E]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(o.m[k])
		if err != nil {
			return nil, fmt.Errorf("collection: encode %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *Ordered[E]) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errNotObject
	}

	next := &Ordered[E]{m: map[string]E{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return errNotObject
		}

		var e E
		if err := dec.Decode(&e); err != nil {
			return fmt.Errorf("collection: decode %q: %w", key, err)
		}
		next.Put(key, e)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*o = *next
	return nil
}
