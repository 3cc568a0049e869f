package annotation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyJSON = `[
  {
    "type": "rect",
    "left": 100.0,
    "top": 50.0,
    "width": 40.0,
    "height": 20.0,
    "fill": "rgba(255, 0, 0, 0.2)",
    "stroke": "red",
    "content": "INV-2023-0042",
    "label": "invoice_number",
    "result": false,
    "user_reviewed": 0,
    "missing_information": false,
    "wrong_datapoint": false
  }
]`

const objectJSON = `{
  "objects": [
    {
      "type": "rect",
      "left": 10,
      "top": 20,
      "width": 30,
      "height": 40,
      "fill": "rgba(255, 0, 0, 0.2)",
      "stroke": "red",
      "content": "421.50",
      "label": "ttc_amount",
      "result": false,
      "user_reviewed": 0,
      "missing_information": false,
      "wrong_datapoint": false,
      "file_name": "invoice_0042.pdf"
    }
  ],
  "user_reviewed": 0,
  "missing_information": false,
  "wrong_datapoint": false
}`

func TestDecodeRecord_SchemaDetection(t *testing.T) {
	legacy, err := DecodeRecord([]byte(legacyJSON))
	require.NoError(t, err)
	assert.Equal(t, SchemaLegacy, legacy.Schema)
	require.Len(t, legacy.Objects, 1)
	assert.Equal(t, "INV-2023-0042", legacy.Objects[0].Content)
	assert.Equal(t, 100.0, legacy.Objects[0].Left)

	obj, err := DecodeRecord([]byte(objectJSON))
	require.NoError(t, err)
	assert.Equal(t, SchemaObject, obj.Schema)
	require.Len(t, obj.Objects, 1)
	assert.Equal(t, "invoice_0042.pdf", obj.Objects[0].FileName)
	assert.Equal(t, 0, obj.UserReviewed)
}

func TestDecodeRecord_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "whitespace only", data: "  \n\t"},
		{name: "truncated array", data: `[{"type": "rect"`},
		{name: "truncated object", data: `{"objects": [`},
		{name: "scalar", data: `42`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := DecodeRecord([]byte(tt.data))
			assert.Nil(t, rec)
			require.Error(t, err)
			assert.True(t, IsParse(err), "expected parse error, got %v", err)
		})
	}
}

func TestEncodeRecord_RoundTrip(t *testing.T) {
	for _, raw := range []string{legacyJSON, objectJSON} {
		rec, err := DecodeRecord([]byte(raw))
		require.NoError(t, err)

		out, err := EncodeRecord(rec, SchemaAuto)
		require.NoError(t, err)

		again, err := DecodeRecord(out)
		require.NoError(t, err)
		assert.Equal(t, rec.Schema, again.Schema)
		assert.Equal(t, rec.Objects, again.Objects)
		assert.Equal(t, rec.UserReviewed, again.UserReviewed)
	}
}

func TestEncodeRecord_LegacyLayoutIsBareArray(t *testing.T) {
	rec, err := DecodeRecord([]byte(legacyJSON))
	require.NoError(t, err)

	out, err := EncodeRecord(rec, SchemaLegacy)
	require.NoError(t, err)

	var arr []map[string]any
	require.NoError(t, json.Unmarshal(out, &arr))
	require.Len(t, arr, 1)
	// Keys must match the existing corpus exactly.
	for _, key := range []string{
		"type", "left", "top", "width", "height", "fill", "stroke",
		"content", "label", "result", "user_reviewed",
		"missing_information", "wrong_datapoint",
	} {
		assert.Contains(t, arr[0], key)
	}
}

func TestEncodeRecord_UnknownSchema(t *testing.T) {
	_, err := EncodeRecord(&Record{Schema: SchemaObject}, Schema("csv"))
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestClone_Independent(t *testing.T) {
	rec, err := DecodeRecord([]byte(objectJSON))
	require.NoError(t, err)

	dup := rec.Clone()
	dup.Objects[0].Left = -1
	dup.UserReviewed = 1

	assert.Equal(t, 10.0, rec.Objects[0].Left)
	assert.Equal(t, 0, rec.UserReviewed)
}

func TestAssignBoxIDs(t *testing.T) {
	boxes := []BoundingBox{{BoxID: "keep-me"}, {}, {}}
	AssignBoxIDs(boxes)

	assert.Equal(t, "keep-me", boxes[0].BoxID)
	assert.NotEmpty(t, boxes[1].BoxID)
	assert.NotEmpty(t, boxes[2].BoxID)
	assert.NotEqual(t, boxes[1].BoxID, boxes[2].BoxID)
}
