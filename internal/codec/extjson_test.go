package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_StripsLineComments(t *testing.T) {
	src := []byte("{\n  // a comment\n  \"a\": 1\n}")
	out, err := Normalize(src)
	require.NoError(t, err)

	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &v))
	assert.EqualValues(t, 1, v["a"])
}

func TestNormalize_StripsBlockComments(t *testing.T) {
	src := []byte(`{ /* block comment */ "a": 1 }`)
	out, err := Normalize(src)
	require.NoError(t, err)

	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &v))
	assert.EqualValues(t, 1, v["a"])
}

func TestNormalize_CommentInsideStringIsNotStripped(t *testing.T) {
	src := []byte(`{"a": "not // a comment"}`)
	out, err := Normalize(src)
	require.NoError(t, err)

	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &v))
	assert.Equal(t, "not // a comment", v["a"])
}

func TestNormalize_TrailingCommaInObject(t *testing.T) {
	src := []byte(`{"a": 1, "b": 2,}`)
	out, err := Normalize(src)
	require.NoError(t, err)

	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &v))
	assert.EqualValues(t, 2, v["b"])
}

func TestNormalize_TrailingCommaInArray(t *testing.T) {
	src := []byte(`[1, 2, 3,]`)
	out, err := Normalize(src)
	require.NoError(t, err)

	var v []interface{}
	require.NoError(t, json.Unmarshal(out, &v))
	assert.Len(t, v, 3)
}

func TestNormalize_TripleQuotedMultilineString(t *testing.T) {
	src := []byte("{\"a\": \"\"\"line one\nline two\"\"\"}")
	out, err := Normalize(src)
	require.NoError(t, err)

	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &v))
	assert.Equal(t, "line one\nline two", v["a"])
}

func TestNormalize_TripleQuotedWithEmbeddedTripleQuote(t *testing.T) {
	src := []byte(`{"a": """he said \"""hi\""" to me"""}`)
	out, err := Normalize(src)
	require.NoError(t, err)

	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &v))
	assert.Equal(t, `he said """hi""" to me`, v["a"])
}

func TestNormalize_CommentThenTrailingComma(t *testing.T) {
	src := []byte("{\n  \"a\": 1, // trailing\n}")
	out, err := Normalize(src)
	require.NoError(t, err)

	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &v))
	assert.EqualValues(t, 1, v["a"])
}

func TestWriteTripleQuoted_RoundTripsEmbeddedQuote(t *testing.T) {
	original := "before\n" + `"""` + "\nafter"

	o := NewObject()
	o.Set("a", original)
	out, err := EncodeCanonical(o, []string{"a"})
	require.NoError(t, err)

	normalized, err := Normalize(out)
	require.NoError(t, err)
	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(normalized, &v))
	assert.Equal(t, original, v["a"])
}

func TestWriteTripleQuoted_RoundTripsUnicode(t *testing.T) {
	original := "日本語\n絵文字 😀\nthird line"

	o := NewObject()
	o.Set("a", original)
	out, err := EncodeCanonical(o, []string{"a"})
	require.NoError(t, err)

	normalized, err := Normalize(out)
	require.NoError(t, err)
	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(normalized, &v))
	assert.Equal(t, original, v["a"])
}

func TestNormalize_UnterminatedStringErrors(t *testing.T) {
	_, err := Normalize([]byte(`{"a": "unterminated`))
	assert.Error(t, err)
}

func TestNormalize_UnterminatedTripleQuoteErrors(t *testing.T) {
	_, err := Normalize([]byte(`{"a": """unterminated`))
	assert.Error(t, err)
}

func TestNormalize_UnterminatedBlockCommentErrors(t *testing.T) {
	_, err := Normalize([]byte(`{"a": 1 /* oops`))
	assert.Error(t, err)
}
