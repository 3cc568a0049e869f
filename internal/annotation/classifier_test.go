package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyShape(t *testing.T) {
	tests := []struct {
		name   string
		fill   string
		expect Intent
	}{
		{name: "light green accepts", fill: "rgb(208, 240, 192, 0.2)", expect: IntentAcceptMulti},
		{name: "dark green accepts", fill: "rgb(1, 50, 32, 0.2)", expect: IntentAcceptSingle},
		{name: "default red is neutral", fill: "rgba(255, 0, 0, 0.2)", expect: IntentNeutral},
		{name: "empty fill is neutral", fill: "", expect: IntentNeutral},
		// The protocol is an exact string match; near misses stay neutral.
		{name: "whitespace variant is neutral", fill: "rgb(208,240,192,0.2)", expect: IntentNeutral},
		{name: "case variant is neutral", fill: "RGB(208, 240, 192, 0.2)", expect: IntentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyShape(CanvasShape{Fill: tt.fill})
			assert.Equal(t, tt.expect, got)
		})
	}
}

func TestAcceptedIndices(t *testing.T) {
	shapes := []CanvasShape{
		{Fill: "rgba(255, 0, 0, 0.2)"},
		{Fill: FillAcceptMulti},
		{Fill: ""},
		{Fill: FillAcceptMulti},
	}

	assert.Equal(t, []int{1, 3}, AcceptedIndices(shapes))
	assert.Nil(t, AcceptedIndices([]CanvasShape{{Fill: "blue"}}))
	assert.Nil(t, AcceptedIndices(nil))
}

func TestSingleAcceptedIndex(t *testing.T) {
	tests := []struct {
		name   string
		shapes []CanvasShape
		expect int
	}{
		{
			name:   "no match",
			shapes: []CanvasShape{{Fill: "red"}, {Fill: FillAcceptMulti}},
			expect: -1,
		},
		{
			name:   "single match",
			shapes: []CanvasShape{{Fill: "red"}, {Fill: FillAcceptSingle}},
			expect: 1,
		},
		{
			name: "only first of several matches is honored",
			shapes: []CanvasShape{
				{Fill: FillAcceptSingle},
				{Fill: FillAcceptSingle},
				{Fill: FillAcceptSingle},
			},
			expect: 0,
		},
		{name: "empty list", shapes: nil, expect: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, SingleAcceptedIndex(tt.shapes))
		})
	}
}
