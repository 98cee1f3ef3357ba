// Package keycase converts JSON object keys between camelCase, used by application code, and
// snake_case, used by the API wire format.
//
// The deep converters walk arbitrary JSON trees (see Decode) and return new trees: arrays keep
// their length, mappings get renamed keys, everything else is returned as is. Binary and
// file-like values (see IsOpaque) are leaves and are never traversed.
//
// All functions are pure and safe for concurrent use.
package keycase

import (
	"reflect"
	"sort"
	"strings"
)

// ToCamelKey removes every underscore followed by a lowercase ASCII letter and uppercases that letter:
// "first_name" becomes "firstName". Any other character is kept, so "id", "firstName" and "level_2"
// are returned unchanged.
func ToCamelKey(key string) string {
	if strings.IndexByte(key, '_') < 0 {
		return key
	}
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == '_' && i+1 < len(key) && isLower(key[i+1]) {
			b.WriteByte(toUpper(key[i+1]))
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// ToSnakeKey replaces every uppercase ASCII letter by an underscore and its lowercase form:
// "firstName" becomes "first_name" and "candidateID" becomes "candidate_i_d".
func ToSnakeKey(key string) string {
	n := 0
	for i := 0; i < len(key); i++ {
		if isUpper(key[i]) {
			n++
		}
	}
	if n == 0 {
		return key
	}
	var b strings.Builder
	b.Grow(len(key) + n)
	for i := 0; i < len(key); i++ {
		c := key[i]
		if isUpper(c) {
			b.WriteByte('_')
			b.WriteByte(toLower(c))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// DeepToCamel returns a copy of v with every mapping key passed through ToCamelKey.
func DeepToCamel(v interface{}) interface{} {
	return deepRename(v, ToCamelKey)
}

// DeepToSnake returns a copy of v with every mapping key passed through ToSnakeKey.
func DeepToSnake(v interface{}) interface{} {
	return deepRename(v, ToSnakeKey)
}

// deepRename dispatches on the shape of v.
// Mappings whose keys collide once renamed keep the last enumerated value:
// *Object members are enumerated in order, map keys in sorted order.
func deepRename(v interface{}, rename func(string) string) interface{} {
	if v == nil || IsOpaque(v) {
		return v
	}

	switch val := v.(type) {
	case []interface{}:
		if val == nil {
			return val
		}
		out := make([]interface{}, len(val))
		for i, elem := range val {
			out[i] = deepRename(elem, rename)
		}
		return out
	case *Object:
		if val == nil {
			return val
		}
		return renameObject(val, rename)
	case Object:
		return renameObject(&val, rename)
	case map[string]interface{}:
		if val == nil {
			return val
		}
		out := make(map[string]interface{}, len(val))
		for _, key := range sortedKeys(val) {
			out[rename(key)] = deepRename(val[key], rename)
		}
		return out
	default:
		return renameReflect(reflect.ValueOf(v), rename)
	}
}

// renameReflect handles the typed containers encoding/json also accepts: slices and arrays of
// any element type and maps with string keys, eg. []map[string]interface{} or map[string]string.
// The result has the type of v.
func renameReflect(rv reflect.Value, rename func(string) string) interface{} {
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() || rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv.Interface()
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			setRenamed(out.Index(i), rv.Index(i), rename)
		}
		return out.Interface()
	case reflect.Array:
		out := reflect.New(rv.Type()).Elem()
		for i := 0; i < rv.Len(); i++ {
			setRenamed(out.Index(i), rv.Index(i), rename)
		}
		return out.Interface()
	case reflect.Map:
		if rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
			return rv.Interface()
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

		typ := rv.Type()
		out := reflect.MakeMapWithSize(typ, len(keys))
		for _, key := range keys {
			elem := reflect.New(typ.Elem()).Elem()
			setRenamed(elem, rv.MapIndex(key), rename)
			out.SetMapIndex(reflect.ValueOf(rename(key.String())).Convert(typ.Key()), elem)
		}
		return out.Interface()
	}
	return rv.Interface()
}

// setRenamed stores the renamed copy of src into dst, which has the static type of src.
func setRenamed(dst, src reflect.Value, rename func(string) string) {
	if src.Kind() == reflect.Interface && src.IsNil() {
		return
	}
	renamed := reflect.ValueOf(deepRename(src.Interface(), rename))
	switch {
	case !renamed.IsValid():
	case renamed.Type().AssignableTo(dst.Type()):
		dst.Set(renamed)
	case renamed.Kind() == reflect.Ptr && !renamed.IsNil() && renamed.Elem().Type().AssignableTo(dst.Type()):
		dst.Set(renamed.Elem()) // Object elements come back as *Object
	default:
		dst.Set(src)
	}
}

func renameObject(obj *Object, rename func(string) string) *Object {
	out := NewObject(obj.Len())
	for _, m := range obj.members {
		out.Set(rename(m.Key), deepRename(m.Value, rename))
	}
	return out
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isLower(c byte) bool { return 'a' <= c && c <= 'z' }
func isUpper(c byte) bool { return 'A' <= c && c <= 'Z' }
func toUpper(c byte) byte { return c - 'a' + 'A' }
func toLower(c byte) byte { return c - 'A' + 'a' }
