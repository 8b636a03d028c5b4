package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"resumecraft/internal/types"
)

var (
	ErrInvalidPath     = errors.New("invalid field path")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrTypeMismatch    = errors.New("value does not match field type")
)

// SetAtPath returns a copy of doc with exactly the node at path replaced by
// value. Every ancestor of the node is copied; every other subtree, slice
// backing arrays included, is shared with doc. doc itself is never
// modified.
//
// Indices must address existing elements. To replace a whole array,
// address the array field and pass the new slice.
func SetAtPath(doc *types.TailoredResumeData, path Path, value any) (*types.TailoredResumeData, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrInvalidPath)
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	updated, err := setValue(reflect.ValueOf(*doc), path, 0, value)
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", path, err)
	}

	out := updated.Interface().(types.TailoredResumeData)
	return &out, nil
}

// GetAtPath returns the value of the node at path.
func GetAtPath(doc *types.TailoredResumeData, path Path) (any, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrInvalidPath)
	}

	cur := reflect.ValueOf(*doc)
	for depth := range path {
		next, err := child(cur, path, depth)
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", path, err)
		}
		cur = next
	}
	return cur.Interface(), nil
}

func setValue(cur reflect.Value, path Path, depth int, value any) (reflect.Value, error) {
	if depth == len(path) {
		return coerce(value, cur.Type())
	}

	switch cur.Kind() {
	case reflect.Struct:
		next, err := child(cur, path, depth)
		if err != nil {
			return reflect.Value{}, err
		}
		replaced, err := setValue(next, path, depth+1, value)
		if err != nil {
			return reflect.Value{}, err
		}
		idx, _ := fieldIndex(cur.Type(), path[depth].(string))
		out := reflect.New(cur.Type()).Elem()
		out.Set(cur)
		out.Field(idx).Set(replaced)
		return out, nil

	case reflect.Slice:
		next, err := child(cur, path, depth)
		if err != nil {
			return reflect.Value{}, err
		}
		replaced, err := setValue(next, path, depth+1, value)
		if err != nil {
			return reflect.Value{}, err
		}
		i, _ := toIndex(path[depth])
		out := reflect.MakeSlice(cur.Type(), cur.Len(), cur.Len())
		reflect.Copy(out, cur)
		out.Index(i).Set(replaced)
		return out, nil

	case reflect.Pointer:
		if cur.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: nil node at %s", ErrInvalidPath, path[:depth])
		}
		replaced, err := setValue(cur.Elem(), path, depth, value)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(cur.Type().Elem())
		out.Elem().Set(replaced)
		return out, nil

	default:
		return reflect.Value{}, fmt.Errorf("%w: %s is a %s and has no children", ErrInvalidPath, path[:depth], cur.Kind())
	}
}

// child resolves path[depth] against cur without copying anything.
func child(cur reflect.Value, path Path, depth int) (reflect.Value, error) {
	for cur.Kind() == reflect.Pointer {
		if cur.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: nil node at %s", ErrInvalidPath, path[:depth])
		}
		cur = cur.Elem()
	}

	switch cur.Kind() {
	case reflect.Struct:
		key, ok := path[depth].(string)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: expected field name at position %d, got %v", ErrInvalidPath, depth, path[depth])
		}
		idx, ok := fieldIndex(cur.Type(), key)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: unknown field %q", ErrInvalidPath, key)
		}
		return cur.Field(idx), nil

	case reflect.Slice:
		i, ok := toIndex(path[depth])
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: expected index at position %d, got %v", ErrInvalidPath, depth, path[depth])
		}
		if i < 0 || i >= cur.Len() {
			return reflect.Value{}, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, cur.Len())
		}
		return cur.Index(i), nil

	default:
		return reflect.Value{}, fmt.Errorf("%w: %s is a %s and has no children", ErrInvalidPath, path[:depth], cur.Kind())
	}
}

func coerce(value any, t reflect.Type) (reflect.Value, error) {
	var out reflect.Value

	switch v := value.(type) {
	case nil:
		out = reflect.Zero(t)
	case json.RawMessage:
		ptr := reflect.New(t)
		if err := json.Unmarshal(v, ptr.Interface()); err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		out = ptr.Elem()
	case map[string]any, []any:
		// Generic values from decoding into any are round-tripped through JSON.
		raw, err := json.Marshal(v)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return coerce(json.RawMessage(raw), t)
	default:
		rv := reflect.ValueOf(value)
		switch {
		case rv.Type().AssignableTo(t):
			out = rv
		case rv.Kind() == t.Kind() && rv.Type().ConvertibleTo(t):
			out = rv.Convert(t)
		default:
			return reflect.Value{}, fmt.Errorf("%w: cannot assign %s to %s", ErrTypeMismatch, rv.Type(), t)
		}
	}

	// Sequences stay non-nil so the document remains fully populated.
	if t.Kind() == reflect.Slice && out.IsNil() {
		out = reflect.MakeSlice(t, 0, 0)
	}
	return out, nil
}

func toIndex(el any) (int, bool) {
	switch v := el.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		if v == math.Trunc(v) {
			return int(v), true
		}
	}
	return 0, false
}

var fieldCache sync.Map // reflect.Type -> map[string]int

func fieldIndex(t reflect.Type, name string) (int, bool) {
	if cached, ok := fieldCache.Load(t); ok {
		idx, ok := cached.(map[string]int)[name]
		return idx, ok
	}

	fields := make(map[string]int, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				key = tagName
			}
		}
		fields[key] = i
	}
	fieldCache.Store(t, fields)

	idx, ok := fields[name]
	return idx, ok
}
