package annotation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Schema identifies the on-disk shape of an annotation record. Two variants
// coexist in the record corpus: a bare array of bounding boxes (legacy) and
// an object wrapper carrying document-level review flags.
type Schema string

const (
	SchemaLegacy Schema = "legacy"
	SchemaObject Schema = "object"
	SchemaAuto   Schema = "auto"
)

// Fill colors reserved by the canvas surface to signal operator intent.
// These exact strings are a fixed protocol between the canvas and the
// review core, not styling; do not reformat them.
const (
	FillAcceptMulti  = "rgb(208, 240, 192, 0.2)"
	FillAcceptSingle = "rgb(1, 50, 32, 0.2)"
)

// BoundingBox is a single extracted field annotation. Geometry is in
// document-pixel space at the original resolution when persisted; a scaled
// copy exists only transiently for display. JSON keys are fixed for
// compatibility with the existing record corpus.
type BoundingBox struct {
	Type               string  `json:"type"`
	Left               float64 `json:"left"`
	Top                float64 `json:"top"`
	Width              float64 `json:"width"`
	Height             float64 `json:"height"`
	Fill               string  `json:"fill"`
	Stroke             string  `json:"stroke"`
	Content            string  `json:"content"`
	Label              string  `json:"label"`
	Result             bool    `json:"result"`
	UserReviewed       int     `json:"user_reviewed"`
	MissingInformation bool    `json:"missing_information"`
	WrongDatapoint     bool    `json:"wrong_datapoint"`
	FileName           string  `json:"file_name,omitempty"`

	// BoxID is an opaque identifier assigned at load time and threaded
	// through the canvas round-trip when the surface echoes it back.
	// Positional correlation remains the enforced invariant; the id exists
	// so a surface that supports metadata can survive reordering.
	BoxID string `json:"box_id,omitempty"`
}

// CanvasShape is the shape descriptor the canvas surface emits after an
// operator edit. It is positionally aligned with the geometry the core
// handed to the surface.
type CanvasShape struct {
	Type   string  `json:"type"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Fill   string  `json:"fill"`
	Stroke string  `json:"stroke"`
	BoxID  string  `json:"box_id,omitempty"`
}

// CanvasConfig is the drawing configuration handed to the canvas surface.
// Geometry is in resized space.
type CanvasConfig struct {
	BackgroundImage string        `json:"background_image"`
	Geometry        []BoundingBox `json:"geometry"`
	Width           int           `json:"width"`
	Height          int           `json:"height"`
	Mode            string        `json:"mode"`
}

// Record is the canonical in-memory annotation record. Legacy files are
// wrapped into this shape on decode; Schema remembers what was read so the
// writer can round-trip the original layout.
type Record struct {
	Objects            []BoundingBox
	UserReviewed       int
	MissingInformation bool
	WrongDatapoint     bool

	Schema Schema
}

// objectRecord is the serialized form of the object schema variant.
type objectRecord struct {
	Objects            []BoundingBox `json:"objects"`
	UserReviewed       int           `json:"user_reviewed"`
	MissingInformation bool          `json:"missing_information"`
	WrongDatapoint     bool          `json:"wrong_datapoint"`
}

// DecodeRecord parses an annotation record, detecting the schema variant
// from the leading token.
func DecodeRecord(data []byte) (*Record, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, NewParseError("record is empty", nil)
	}

	switch trimmed[0] {
	case '[':
		var boxes []BoundingBox
		if err := json.Unmarshal(data, &boxes); err != nil {
			return nil, NewParseError("malformed legacy record", err)
		}
		return &Record{Objects: boxes, Schema: SchemaLegacy}, nil
	case '{':
		var obj objectRecord
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, NewParseError("malformed object record", err)
		}
		return &Record{
			Objects:            obj.Objects,
			UserReviewed:       obj.UserReviewed,
			MissingInformation: obj.MissingInformation,
			WrongDatapoint:     obj.WrongDatapoint,
			Schema:             SchemaObject,
		}, nil
	default:
		return nil, NewParseError(fmt.Sprintf("unrecognized record layout starting with %q", trimmed[0]), nil)
	}
}

// EncodeRecord serializes a record in the requested schema. SchemaAuto
// keeps the layout the record was decoded with.
func EncodeRecord(r *Record, schema Schema) ([]byte, error) {
	if schema == SchemaAuto || schema == "" {
		schema = r.Schema
	}

	switch schema {
	case SchemaLegacy:
		return json.MarshalIndent(r.Objects, "", "  ")
	case SchemaObject:
		obj := objectRecord{
			Objects:            r.Objects,
			UserReviewed:       r.UserReviewed,
			MissingInformation: r.MissingInformation,
			WrongDatapoint:     r.WrongDatapoint,
		}
		return json.MarshalIndent(obj, "", "  ")
	default:
		return nil, NewValidationError(fmt.Sprintf("unknown schema %q", schema), nil)
	}
}

// Clone returns a deep copy of the record. Callers that scale geometry for
// display must keep the original for persistence.
func (r *Record) Clone() *Record {
	dup := *r
	dup.Objects = make([]BoundingBox, len(r.Objects))
	copy(dup.Objects, r.Objects)
	return &dup
}

// AssignBoxIDs gives every box without an id a fresh opaque identifier.
func AssignBoxIDs(boxes []BoundingBox) {
	for i := range boxes {
		if boxes[i].BoxID == "" {
			boxes[i].BoxID = uuid.NewString()
		}
	}
}
