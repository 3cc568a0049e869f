package annotation

// Intent is the semantic action a canvas shape's fill color signals.
type Intent int

const (
	// IntentNeutral leaves the corresponding box's state unchanged.
	IntentNeutral Intent = iota
	// IntentAcceptMulti marks the box accepted under the legacy
	// multi-accept convention (light green fill).
	IntentAcceptMulti
	// IntentAcceptSingle marks the box accepted under the single-winner
	// convention (dark green fill).
	IntentAcceptSingle
)

// ClassifyShape decodes the fill-color convention for one shape. The match
// is an exact string comparison; the two accept colors are a fixed
// protocol with the canvas surface.
func ClassifyShape(shape CanvasShape) Intent {
	switch shape.Fill {
	case FillAcceptMulti:
		return IntentAcceptMulti
	case FillAcceptSingle:
		return IntentAcceptSingle
	default:
		return IntentNeutral
	}
}

// AcceptedIndices returns the indices of every shape carrying the
// multi-accept fill, in order. Used by the legacy merge.
func AcceptedIndices(shapes []CanvasShape) []int {
	var accepted []int
	for i, shape := range shapes {
		if ClassifyShape(shape) == IntentAcceptMulti {
			accepted = append(accepted, i)
		}
	}
	return accepted
}

// SingleAcceptedIndex returns the index of the first shape carrying the
// single-winner fill, or -1 when none matches. Later matches are ignored
// so the single-winner merge only ever honors one shape.
func SingleAcceptedIndex(shapes []CanvasShape) int {
	for i, shape := range shapes {
		if ClassifyShape(shape) == IntentAcceptSingle {
			return i
		}
	}
	return -1
}
