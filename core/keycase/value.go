package keycase

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrEmptyDocument = errors.New("empty JSON document")
	ErrTrailingData  = errors.New("trailing data after JSON document")
)

// Opaque is implemented by values that must go through the converters untouched.
type Opaque interface {
	OpaqueJSON()
}

// IsOpaque reports whether v is a binary or file-like leaf: byte slices, readers (files, buffers,
// multipart files), timestamps, multipart forms and file headers, url.Values and Opaque values.
func IsOpaque(v interface{}) bool {
	switch v.(type) {
	case []byte, json.RawMessage, io.Reader,
		time.Time, *time.Time,
		*multipart.Form, *multipart.FileHeader, url.Values,
		Opaque:
		return true
	}
	return false
}

// Member is a single entry of an Object.
type Member struct {
	Key   string
	Value interface{}
}

// Object is a JSON object that remembers the order its keys were first set in.
// The zero value is an empty object ready to use.
type Object struct {
	members []Member
	index   map[string]int
}

func NewObject(capacity int) *Object {
	return &Object{
		members: make([]Member, 0, capacity),
		index:   make(map[string]int, capacity),
	}
}

// ObjectOf builds an Object from alternating keys and values; it panics on a non-string key.
func ObjectOf(kvs ...interface{}) *Object {
	obj := NewObject(len(kvs) / 2)
	for i := 0; i+1 < len(kvs); i += 2 {
		obj.Set(kvs[i].(string), kvs[i+1])
	}
	return obj
}

// Set adds or replaces the value of key. A replaced key keeps its original position.
// It reports whether key was already present.
func (o *Object) Set(key string, value interface{}) bool {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	if i, ok := o.index[key]; ok {
		o.members[i].Value = value
		return true
	}
	o.index[key] = len(o.members)
	o.members = append(o.members, Member{Key: key, Value: value})
	return false
}

func (o *Object) Get(key string) (interface{}, bool) {
	if o == nil {
		return nil, false
	}
	i, ok := o.index[key]
	if !ok {
		return nil, false
	}
	return o.members[i].Value, true
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.members)
}

func (o *Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	for _, m := range o.Members() {
		keys = append(keys, m.Key)
	}
	return keys
}

// Members returns a copy of the object's entries, in order.
func (o *Object) Members() []Member {
	if o == nil {
		return nil
	}
	members := make([]Member, len(o.members))
	copy(members, o.members)
	return members
}

func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o.members {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "marshalling %q", m.Key)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *Object) UnmarshalJSON(data []byte) error {
	v, err := Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	obj, ok := v.(*Object)
	if !ok {
		return errors.Errorf("keycase: cannot unmarshal %T into Object", v)
	}
	*o = *obj
	return nil
}

// Decode parses a single JSON document into nil, bool, json.Number, string, []interface{} and *Object
// values. Object keys keep their document order; a duplicated key keeps its first position and last value.
func Decode(r io.Reader) (interface{}, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, ErrEmptyDocument
		}
		return nil, errors.Wrap(err, "decoding JSON")
	}
	v, err := decodeToken(dec, tok)
	if err != nil {
		return nil, err
	}
	if _, err = dec.Token(); err != io.EOF {
		return nil, ErrTrailingData
	}
	return v, nil
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(data []byte) (interface{}, error) {
	return Decode(bytes.NewReader(data))
}

func decodeToken(dec *json.Decoder, tok json.Token) (interface{}, error) {
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil // string, json.Number, bool or nil
	}

	switch delim {
	case '{':
		obj := NewObject(0)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, errors.Wrap(err, "decoding JSON object key")
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, errors.Errorf("decoding JSON: unexpected object key %v", keyTok)
			}
			val, err := decodeNext(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(key, val)
		}
		if _, err := dec.Token(); err != nil { // '}'
			return nil, errors.Wrap(err, "decoding JSON object")
		}
		return obj, nil
	case '[':
		arr := make([]interface{}, 0)
		for dec.More() {
			val, err := decodeNext(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil { // ']'
			return nil, errors.Wrap(err, "decoding JSON array")
		}
		return arr, nil
	default:
		return nil, errors.Errorf("decoding JSON: unexpected delimiter %q", rune(delim))
	}
}

func decodeNext(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, "decoding JSON value")
	}
	return decodeToken(dec, tok)
}

// Marshal encodes a value tree built by Decode (or any json.Marshal-able value).
func Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// CamelJSON rewrites the keys of a JSON document to camelCase.
func CamelJSON(data []byte) ([]byte, error) {
	return convertJSON(data, DeepToCamel)
}

// SnakeJSON rewrites the keys of a JSON document to snake_case.
func SnakeJSON(data []byte) ([]byte, error) {
	return convertJSON(data, DeepToSnake)
}

func convertJSON(data []byte, convert func(interface{}) interface{}) ([]byte, error) {
	v, err := DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	return Marshal(convert(v))
}

// Collisions returns the paths of the keys that rename maps onto an already used key of the same
// mapping, eg. "$.scores[0].foo_bar" when "fooBar" precedes it and rename is ToCamelKey.
// The converters keep the last value in that case; this lets callers detect it.
func Collisions(v interface{}, rename func(string) string) []string {
	var paths []string
	findCollisions(v, rename, "$", &paths)
	return paths
}

func findCollisions(v interface{}, rename func(string) string, path string, paths *[]string) {
	if v == nil || IsOpaque(v) {
		return
	}
	switch val := v.(type) {
	case []interface{}:
		for i, elem := range val {
			findCollisions(elem, rename, path+"["+strconv.Itoa(i)+"]", paths)
		}
	case *Object:
		seen := make(map[string]bool, val.Len())
		for _, m := range val.Members() {
			checkKey(m.Key, rename, seen, path, paths)
			findCollisions(m.Value, rename, path+"."+m.Key, paths)
		}
	case Object:
		findCollisions(&val, rename, path, paths)
	case map[string]interface{}:
		seen := make(map[string]bool, len(val))
		for _, key := range sortedKeys(val) {
			checkKey(key, rename, seen, path, paths)
			findCollisions(val[key], rename, path+"."+key, paths)
		}
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			if rv.Type().Elem().Kind() == reflect.Uint8 {
				return
			}
			for i := 0; i < rv.Len(); i++ {
				findCollisions(rv.Index(i).Interface(), rename, path+"["+strconv.Itoa(i)+"]", paths)
			}
		case reflect.Map:
			if rv.Type().Key().Kind() != reflect.String {
				return
			}
			keys := rv.MapKeys()
			sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
			seen := make(map[string]bool, len(keys))
			for _, key := range keys {
				checkKey(key.String(), rename, seen, path, paths)
				findCollisions(rv.MapIndex(key).Interface(), rename, path+"."+key.String(), paths)
			}
		}
	}
}

func checkKey(key string, rename func(string) string, seen map[string]bool, path string, paths *[]string) {
	renamed := rename(key)
	if seen[renamed] {
		*paths = append(*paths, path+"."+key)
	}
	seen[renamed] = true
}
