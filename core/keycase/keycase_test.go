package keycase

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"mime/multipart"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCamelKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{key: "", want: ""},
		{key: "id", want: "id"},
		{key: "first_name", want: "firstName"},
		{key: "candidate_id", want: "candidateId"},
		{key: "is_correct", want: "isCorrect"},
		{key: "gallery_images", want: "galleryImages"},
		{key: "firstName", want: "firstName"},
		{key: "level_2", want: "level_2"},
		{key: "a__b", want: "a_B"},
		{key: "_private", want: "Private"},
		{key: "trailing_", want: "trailing_"},
		{key: "already_Upper", want: "already_Upper"},
		{key: "é_é", want: "é_é"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, ToCamelKey(tt.key))
		})
	}
}

func TestToSnakeKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{key: "", want: ""},
		{key: "id", want: "id"},
		{key: "firstName", want: "first_name"},
		{key: "photoUrl", want: "photo_url"},
		{key: "candidateID", want: "candidate_i_d"},
		{key: "URL", want: "_u_r_l"},
		{key: "first_name", want: "first_name"},
		{key: "level2Score", want: "level2_score"},
		{key: "Élève", want: "Élève"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, ToSnakeKey(tt.key))
		})
	}
}

const (
	lowers = "abcdefghijklmnopqrstuvwxyz"
	digits = "0123456789"
)

// randomSnakeKey returns words of lowercase letters and digits joined by single underscores.
// Every word after the first starts with a letter.
func randomSnakeKey(rnd *rand.Rand) string {
	words := make([]string, 1+rnd.Intn(4))
	for i := range words {
		var b strings.Builder
		b.WriteByte(lowers[rnd.Intn(len(lowers))])
		for j := rnd.Intn(6); j > 0; j-- {
			chars := lowers + digits
			b.WriteByte(chars[rnd.Intn(len(chars))])
		}
		words[i] = b.String()
	}
	return strings.Join(words, "_")
}

// randomCamelKey returns a lowercase-first key of letters and digits with internal uppercase letters.
func randomCamelKey(rnd *rand.Rand) string {
	var b strings.Builder
	b.WriteByte(lowers[rnd.Intn(len(lowers))])
	for j := rnd.Intn(12); j > 0; j-- {
		switch rnd.Intn(3) {
		case 0:
			b.WriteByte(strings.ToUpper(lowers)[rnd.Intn(len(lowers))])
		case 1:
			b.WriteByte(digits[rnd.Intn(len(digits))])
		default:
			b.WriteByte(lowers[rnd.Intn(len(lowers))])
		}
	}
	return b.String()
}

func TestKeyRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		snake := randomSnakeKey(rnd)
		require.Equal(t, snake, ToSnakeKey(ToCamelKey(snake)), "snake key %q", snake)

		camel := randomCamelKey(rnd)
		require.Equal(t, camel, ToCamelKey(ToSnakeKey(camel)), "camel key %q", camel)
	}
}

func TestDeepToCamel(t *testing.T) {
	in, err := DecodeBytes([]byte(`{"candidate_id": "123", "scores": [{"is_correct": true}]}`))
	require.NoError(t, err)

	out := DeepToCamel(in)

	data, err := Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"candidateId": "123", "scores": [{"isCorrect": true}]}`, string(data))
	assert.Equal(t, []string{"candidateId", "scores"}, out.(*Object).Keys())

	// input is not mutated
	assert.Equal(t, []string{"candidate_id", "scores"}, in.(*Object).Keys())
}

func TestDeepToSnake(t *testing.T) {
	in := ObjectOf(
		"photoUrl", "x.png",
		"galleryImages", []interface{}{
			ObjectOf("imageUrl", "y.png", "order", json.Number("0")),
		},
	)

	data, err := Marshal(DeepToSnake(in))
	require.NoError(t, err)
	assert.Equal(t, `{"photo_url":"x.png","gallery_images":[{"image_url":"y.png","order":0}]}`, string(data))
}

func TestDeepScalarsAndNil(t *testing.T) {
	assert.Nil(t, DeepToCamel(nil))
	assert.Nil(t, DeepToSnake(nil))

	arr := []interface{}{json.Number("1"), json.Number("2"), json.Number("3")}
	assert.Equal(t, arr, DeepToCamel(arr))

	for _, v := range []interface{}{"first_name", true, 12.5, json.Number("7")} {
		assert.Equal(t, v, DeepToCamel(v))
		assert.Equal(t, v, DeepToSnake(v))
	}
}

func TestDeepMap(t *testing.T) {
	in := map[string]interface{}{
		"firstName": "Ada",
		"address":   map[string]interface{}{"zipCode": "1000"},
		"tags":      []interface{}{map[string]interface{}{"tagName": "math"}},
	}
	want := map[string]interface{}{
		"first_name": "Ada",
		"address":    map[string]interface{}{"zip_code": "1000"},
		"tags":       []interface{}{map[string]interface{}{"tag_name": "math"}},
	}
	assert.Equal(t, want, DeepToSnake(in))
}

type zipCode string

func TestDeepTypedContainers(t *testing.T) {
	in := map[string]interface{}{
		"galleryImages": []map[string]interface{}{{"imageUrl": "y.png", "order": 0}},
		"meta":          map[string]string{"photoUrl": "x"},
		"members":       []*Object{ObjectOf("firstName", "Ada"), nil},
		"values":        []Object{*ObjectOf("lastName", "Lovelace")},
		"codes":         map[zipCode]int{"postCode": 1000},
		"scores":        [2]map[string]bool{{"isCorrect": true}},
		"labels":        []string{"keepMe"},
	}

	out := DeepToSnake(in).(map[string]interface{})
	assert.Equal(t, []map[string]interface{}{{"image_url": "y.png", "order": 0}}, out["gallery_images"])
	assert.Equal(t, map[string]string{"photo_url": "x"}, out["meta"])
	assert.Equal(t, map[zipCode]int{"post_code": 1000}, out["codes"])
	assert.Equal(t, [2]map[string]bool{{"is_correct": true}, nil}, out["scores"])
	assert.Equal(t, []string{"keepMe"}, out["labels"])

	members := out["members"].([]*Object)
	require.Len(t, members, 2)
	assert.Equal(t, []string{"first_name"}, members[0].Keys())
	assert.Nil(t, members[1])

	values := out["values"].([]Object)
	require.Len(t, values, 1)
	assert.Equal(t, []string{"last_name"}, values[0].Keys())

	// the input is left untouched
	assert.Equal(t, map[string]string{"photoUrl": "x"}, in["meta"])

	data, err := json.Marshal(DeepToCamel(map[string][]map[string]int{"total_scores": {{"max_score": 20}}}))
	require.NoError(t, err)
	assert.Equal(t, `{"totalScores":[{"maxScore":20}]}`, string(data))
}

type upload struct{ name string }

func (upload) OpaqueJSON() {}

func TestDeepOpaqueLeaves(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "photo")
	require.NoError(t, err)
	defer f.Close()

	now := time.Now()
	buf := bytes.NewBufferString(`{"first_name":"x"}`)
	blob := []byte(`{"first_name":"x"}`)
	form := &multipart.Form{Value: map[string][]string{"first_name": {"x"}}}
	hdr := &multipart.FileHeader{Filename: "photo.png"}

	leaves := []interface{}{f, buf, blob, json.RawMessage(blob), now, &now, form, hdr, upload{name: "a_b"}}
	for _, leaf := range leaves {
		assert.True(t, IsOpaque(leaf), "%T", leaf)
		assert.True(t, sameValue(leaf, DeepToCamel(leaf)), "%T", leaf)
		assert.True(t, sameValue(leaf, DeepToSnake(leaf)), "%T", leaf)
	}

	// leaves nested in a mapping are kept as is too
	out := DeepToSnake(ObjectOf("photoFile", f, "rawBody", blob)).(*Object)
	got, _ := out.Get("photo_file")
	assert.True(t, got == interface{}(f))
	got, _ = out.Get("raw_body")
	assert.True(t, sameValue(blob, got))
}

// sameValue checks identity: same pointer for reference types, same backing array for slices.
func sameValue(a, b interface{}) bool {
	switch av := a.(type) {
	case []byte:
		bv, ok := b.([]byte)
		return ok && len(av) == len(bv) && &av[0] == &bv[0]
	case json.RawMessage:
		bv, ok := b.(json.RawMessage)
		return ok && len(av) == len(bv) && &av[0] == &bv[0]
	default:
		return a == b
	}
}

func TestDeepStructuralIsomorphism(t *testing.T) {
	doc := `{"a_b": [[1, 2, {"c_d": []}], {"e_f": {"g_h": [null, true, "x"]}}], "i_j": {}}`
	in, err := DecodeBytes([]byte(doc))
	require.NoError(t, err)

	for _, convert := range []func(interface{}) interface{}{DeepToCamel, DeepToSnake} {
		assertSameShape(t, in, convert(in))
	}
}

func assertSameShape(t *testing.T, a, b interface{}) {
	t.Helper()
	switch av := a.(type) {
	case []interface{}:
		bv, ok := b.([]interface{})
		require.True(t, ok, "want array, got %T", b)
		require.Len(t, bv, len(av))
		for i := range av {
			assertSameShape(t, av[i], bv[i])
		}
	case *Object:
		bv, ok := b.(*Object)
		require.True(t, ok, "want object, got %T", b)
		require.Equal(t, av.Len(), bv.Len())
		am, bm := av.Members(), bv.Members()
		for i := range am {
			assertSameShape(t, am[i].Value, bm[i].Value)
		}
	default:
		assert.Equal(t, a, b)
	}
}

func TestDeepCollisionLastWins(t *testing.T) {
	in := ObjectOf("fooBar", "first", "foo_bar", "second", "id", "x")

	out := DeepToCamel(in).(*Object)
	assert.Equal(t, []string{"fooBar", "id"}, out.Keys())
	got, _ := out.Get("fooBar")
	assert.Equal(t, "second", got)

	assert.Equal(t, []string{"$.foo_bar"}, Collisions(in, ToCamelKey))
	assert.Equal(t, []string{"$.foo_bar"}, Collisions(in, ToSnakeKey))
	assert.Empty(t, Collisions(ObjectOf("fooBar", 1, "fooBaz", 2), ToSnakeKey))
}

func TestCollisionsNested(t *testing.T) {
	in, err := DecodeBytes([]byte(`{"scores": [{"is_correct": true, "isCorrect": false}], "other": {"a": 1}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"$.scores[0].isCorrect"}, Collisions(in, ToCamelKey))
	assert.Equal(t, []string{"$.scores[0].isCorrect"}, Collisions(in, ToSnakeKey))

	typed := map[string]interface{}{"meta": []map[string]string{{"photo_url": "a", "photoUrl": "b"}}}
	assert.Equal(t, []string{"$.meta[0].photo_url"}, Collisions(typed, ToCamelKey))
}

func TestConcurrentUse(t *testing.T) {
	in, err := DecodeBytes([]byte(`{"first_name": "Ada", "scores": [{"is_correct": true}]}`))
	require.NoError(t, err)

	done := make(chan []byte)
	for i := 0; i < 8; i++ {
		go func() {
			data, _ := Marshal(DeepToSnake(DeepToCamel(in)))
			done <- data
		}()
	}
	for i := 0; i < 8; i++ {
		assert.JSONEq(t, `{"first_name": "Ada", "scores": [{"is_correct": true}]}`, string(<-done))
	}
}
