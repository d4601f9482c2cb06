package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/csrd-cli/pkg/anthropic"
)

func TestExtractText(t *testing.T) {
	resp := &anthropic.MessageResponse{Content: []anthropic.ContentBlock{
		{Type: "text", Text: "hello "},
		{Type: "tool_use", Text: "ignored"},
		{Type: "text", Text: "world"},
	}}
	assert.Equal(t, "hello world", extractText(resp))
	assert.Equal(t, "", extractText(nil))
}

func TestCleanJSONStripsFences(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, cleanJSON("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, cleanJSON("```\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, cleanJSON(`  {"a": 1}  `))
}

func TestFindJSONObjectAnchored(t *testing.T) {
	text := `Here is my reasoning... {"meta": true} and the answer:
{"indicator_id": "E1", "value": 4128}`

	obj, ok := findJSONObject(text, `"indicator_id"`)
	require.True(t, ok)
	assert.JSONEq(t, `{"indicator_id": "E1", "value": 4128}`, obj)
}

func TestFindJSONObjectFallsBackToFirstBalanced(t *testing.T) {
	text := `no anchor here, but: {"value": 42, "nested": {"x": 1}} trailing`

	obj, ok := findJSONObject(text, `"indicator_id"`)
	require.True(t, ok)
	assert.JSONEq(t, `{"value": 42, "nested": {"x": 1}}`, obj)
}

func TestFindJSONObjectHonorsStringLiterals(t *testing.T) {
	text := `{"notes": "braces {inside} a string \" escaped", "value": 1}`

	obj, ok := findJSONObject(text, "")
	require.True(t, ok)
	assert.Equal(t, text, obj)
}

func TestFindJSONObjectNone(t *testing.T) {
	_, ok := findJSONObject("no json at all", `"indicator_id"`)
	assert.False(t, ok)

	_, ok = findJSONObject("unbalanced {\"a\": ", "")
	assert.False(t, ok)
}

func TestCoerceNumber(t *testing.T) {
	v, ok := coerceNumber(4128.0)
	require.True(t, ok)
	assert.Equal(t, 4128.0, v)

	v, ok = coerceNumber("4,128")
	require.True(t, ok)
	assert.Equal(t, 4128.0, v)

	v, ok = coerceNumber("101 234")
	require.True(t, ok)
	assert.Equal(t, 101234.0, v)

	_, ok = coerceNumber("n/a")
	assert.False(t, ok)

	_, ok = coerceNumber(nil)
	assert.False(t, ok)

	_, ok = coerceNumber("")
	assert.False(t, ok)
}

func TestCoerceInt(t *testing.T) {
	p, ok := coerceInt(317.0)
	require.True(t, ok)
	assert.Equal(t, 317, p)

	_, ok = coerceInt(nil)
	assert.False(t, ok)
}
