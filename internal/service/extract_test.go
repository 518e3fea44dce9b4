package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONArrayFromProse(t *testing.T) {
	raw := "Sure! Here are the questions you asked for:\n```json\n" +
		`[{"question_text": "Define recursion.", "bloom_level": "remember", "marks": 2}]` +
		"\n```\nLet me know if you need more."

	block, ok := ExtractJSON(raw, ShapeArray)
	require.True(t, ok)
	assert.JSONEq(t, `[{"question_text": "Define recursion.", "bloom_level": "remember", "marks": 2}]`, string(block))
}

func TestExtractJSONObjectFromProse(t *testing.T) {
	raw := `The evaluation is as follows: {"quality_score": 85, "feedback": "Clear and well scoped."} Hope that helps.`

	block, ok := ExtractJSON(raw, ShapeObject)
	require.True(t, ok)
	assert.JSONEq(t, `{"quality_score": 85, "feedback": "Clear and well scoped."}`, string(block))
}

func TestExtractJSONNoBrackets(t *testing.T) {
	_, ok := ExtractJSON("I could not produce any questions for this outcome.", ShapeArray)
	assert.False(t, ok)
}

func TestExtractJSONMalformedPayload(t *testing.T) {
	_, ok := ExtractJSON(`[{"question_text": "unterminated`, ShapeArray)
	assert.False(t, ok)
}

func TestExtractJSONShapeMismatch(t *testing.T) {
	// An object response where an array is expected fails, and vice versa.
	_, ok := ExtractJSON(`{"quality_score": 70}`, ShapeArray)
	assert.False(t, ok)

	_, ok = ExtractJSON(`[1, 2, 3]`, ShapeObject)
	assert.False(t, ok)
}

func TestExtractJSONGreedyScanOverCaptures(t *testing.T) {
	// Two separate arrays in one response make the first-to-last span
	// unparseable. The extractor reports failure rather than guessing.
	_, ok := ExtractJSON(`first [1, 2] and second [3, 4]`, ShapeArray)
	assert.False(t, ok)
}

func TestAsString(t *testing.T) {
	assert.Equal(t, "hello", asString("  hello  "))
	assert.Equal(t, "", asString(nil))
	assert.Equal(t, "", asString(42.0))
}

func TestAsMarks(t *testing.T) {
	assert.Equal(t, 7, asMarks(7.0, 5))
	assert.Equal(t, 5, asMarks(nil, 5))
	assert.Equal(t, 5, asMarks("7", 5))
	assert.Equal(t, 5, asMarks(-3.0, 5))
	assert.Equal(t, 5, asMarks(0.0, 5))
}
