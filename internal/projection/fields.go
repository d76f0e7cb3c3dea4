// Package projection folds remote products and variants plus their
// metafields into events and tickets, and splits domain updates back into
// native fields and metafield writes. It does no I/O.
//
// Every extension-backed field is declared exactly once, in eventFields or
// ticketFields, and both directions are driven from that declaration.
package projection

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/iliyamo/event-ticketing-admin/internal/catalog"
)

const (
	NamespaceEvent  = "event"
	NamespaceCustom = "custom"
	NamespaceTicket = "ticket"

	// EventProductType marks catalog products that are events.
	EventProductType = "event"
)

// ErrSchema means the remote data cannot be projected, e.g. a known key
// carries an unrecognised type tag.
var ErrSchema = errors.New("catalog schema mismatch")

// Extension is the metafield half of a write.
type Extension struct {
	Set   []catalog.MetafieldInput
	Clear []catalog.MetafieldRef
}

func (x Extension) Empty() bool { return len(x.Set) == 0 && len(x.Clear) == 0 }

// Owned returns a copy with every entry bound to ownerID (a global id).
func (x Extension) Owned(ownerID string) Extension {
	out := Extension{
		Set:   make([]catalog.MetafieldInput, len(x.Set)),
		Clear: make([]catalog.MetafieldRef, len(x.Clear)),
	}
	for i, m := range x.Set {
		m.OwnerID = ownerID
		out.Set[i] = m
	}
	for i, r := range x.Clear {
		r.OwnerID = ownerID
		out.Clear[i] = r
	}
	return out
}

// field routes one domain field E/U to a (namespace, key, type) triple.
type field[E, U any] struct {
	name      string
	namespace string
	key       string
	typ       string
	read      func(e *E, v catalog.Value)
	// write returns the value to store, or ok=false when the update
	// leaves the field alone.
	write func(u *U) (v catalog.Value, ok bool, err error)
}

func text[E, U any](name, ns, key, typ string, get func(*E) *string, upd func(*U) *string) field[E, U] {
	return field[E, U]{
		name: name, namespace: ns, key: key, typ: typ,
		read: func(e *E, v catalog.Value) { *get(e) = v.String() },
		write: func(u *U) (catalog.Value, bool, error) {
			p := upd(u)
			if p == nil {
				return catalog.Value{}, false, nil
			}
			return catalog.StringValue(typ, *p), true, nil
		},
	}
}

func enum[E, U any, S ~string](name, ns, key string, get func(*E) *S, upd func(*U) *S) field[E, U] {
	return field[E, U]{
		name: name, namespace: ns, key: key, typ: catalog.TypeSingleLine,
		read: func(e *E, v catalog.Value) { *get(e) = S(v.String()) },
		write: func(u *U) (catalog.Value, bool, error) {
			p := upd(u)
			if p == nil {
				return catalog.Value{}, false, nil
			}
			return catalog.StringValue(catalog.TypeSingleLine, string(*p)), true, nil
		},
	}
}

func list[E, U any](name, ns, key string, get func(*E) *[]string, upd func(*U) *[]string) field[E, U] {
	return field[E, U]{
		name: name, namespace: ns, key: key, typ: catalog.TypeJSON,
		read: func(e *E, v catalog.Value) {
			var l []string
			if err := json.Unmarshal([]byte(v.Raw()), &l); err == nil && l != nil {
				*get(e) = l
			}
		},
		write: func(u *U) (catalog.Value, bool, error) {
			p := upd(u)
			if p == nil {
				return catalog.Value{}, false, nil
			}
			l := *p
			if l == nil {
				l = []string{}
			}
			v, err := catalog.JSONValue(l)
			return v, err == nil, err
		},
	}
}

func flag[E, U any](name, ns, key string, get func(*E) *bool, upd func(*U) *bool) field[E, U] {
	return field[E, U]{
		name: name, namespace: ns, key: key, typ: catalog.TypeBoolean,
		read: func(e *E, v catalog.Value) {
			if v.Kind() == catalog.ValueBoolean {
				*get(e) = v.Bool()
			} else if b, err := strconv.ParseBool(v.Raw()); err == nil {
				*get(e) = b
			}
		},
		write: func(u *U) (catalog.Value, bool, error) {
			p := upd(u)
			if p == nil {
				return catalog.Value{}, false, nil
			}
			return catalog.BoolValue(*p), true, nil
		},
	}
}

func integer[E, U any](name, ns, key string, get func(*E) *int, upd func(*U) *int) field[E, U] {
	return field[E, U]{
		name: name, namespace: ns, key: key, typ: catalog.TypeInteger,
		read: func(e *E, v catalog.Value) {
			if v.Kind() == catalog.ValueInteger {
				*get(e) = int(v.Int())
			} else if n, err := strconv.Atoi(v.Raw()); err == nil {
				*get(e) = n
			}
		},
		write: func(u *U) (catalog.Value, bool, error) {
			p := upd(u)
			if p == nil {
				return catalog.Value{}, false, nil
			}
			return catalog.IntValue(int64(*p)), true, nil
		},
	}
}

// readFields applies every declared field found in mfs. Missing keys and
// malformed values keep the zero/default; an unknown type tag is an error.
func readFields[E, U any](fields []field[E, U], mfs []catalog.Metafield, e *E, entity string) error {
	for _, f := range fields {
		mf, ok := catalog.Lookup(mfs, f.namespace, f.key)
		if !ok {
			continue
		}
		v, err := catalog.ParseValue(mf.Type, mf.Value)
		if err != nil {
			if errors.Is(err, catalog.ErrUnknownType) {
				return fmt.Errorf("%w: %s %s.%s: %w", ErrSchema, entity, f.namespace, f.key, err)
			}
			continue
		}
		f.read(e, v)
	}
	return nil
}

// writeFields collects the metafield writes for an update. Empty text
// values become deletes because the remote rejects empty metafields.
func writeFields[E, U any](fields []field[E, U], u *U) (Extension, error) {
	var x Extension
	for _, f := range fields {
		v, ok, err := f.write(u)
		if err != nil {
			return Extension{}, fmt.Errorf("%s: %w", f.name, err)
		}
		if !ok {
			continue
		}
		if v.Raw() == "" {
			x.Clear = append(x.Clear, catalog.MetafieldRef{Namespace: f.namespace, Key: f.key})
			continue
		}
		x.Set = append(x.Set, catalog.MetafieldInput{
			Namespace: f.namespace,
			Key:       f.key,
			Type:      f.typ,
			Value:     v.Raw(),
		})
	}
	return x, nil
}

func ptr[T any](v T) *T { return &v }
