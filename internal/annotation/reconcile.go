package annotation

import "fmt"

// Reconciler merges classified canvas shapes with the original annotation
// record, applying review-state transitions. The merge semantics follow
// the record's schema: legacy records use the multi-accept merge, object
// records the single-winner merge. The two are never blended.
type Reconciler struct{}

// NewReconciler creates a reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// checkAlignment enforces the positional-correspondence precondition. The
// index of a box within the record is the correlation key with the canvas
// shape list; a length mismatch means the two have drifted and nothing may
// be merged.
func checkAlignment(boxes []BoundingBox, shapes []CanvasShape) error {
	if len(shapes) != len(boxes) {
		return NewValidationError(
			fmt.Sprintf("canvas returned %d shapes for %d stored boxes", len(shapes), len(boxes)), nil)
	}
	return nil
}

// mergeShape copies a canvas shape's geometry and style onto a box,
// leaving review-state fields alone.
func mergeShape(box *BoundingBox, shape CanvasShape) {
	box.Type = shape.Type
	box.Left = shape.Left
	box.Top = shape.Top
	box.Width = shape.Width
	box.Height = shape.Height
	box.Fill = shape.Fill
	box.Stroke = shape.Stroke
}

// Merge applies the operator's canvas edit to the record, dispatching on
// the record's schema. It reports whether any box was accepted; on true
// the caller saves and advances.
func (r *Reconciler) Merge(rec *Record, shapes []CanvasShape) (bool, error) {
	if rec.Schema == SchemaLegacy {
		return r.mergeMultiAccept(rec, shapes)
	}
	return r.mergeSingleWinner(rec, shapes)
}

// mergeMultiAccept is the legacy merge: every shape is copied onto its
// box by position, every box becomes reviewed, and any light-green shape
// marks its box accepted.
func (r *Reconciler) mergeMultiAccept(rec *Record, shapes []CanvasShape) (bool, error) {
	if err := checkAlignment(rec.Objects, shapes); err != nil {
		return false, err
	}

	accepted := AcceptedIndices(shapes)
	acceptedSet := make(map[int]bool, len(accepted))
	for _, i := range accepted {
		acceptedSet[i] = true
	}

	for i := range rec.Objects {
		box := &rec.Objects[i]
		if acceptedSet[i] {
			box.Result = true
		}
		box.UserReviewed = 1
		box.MissingInformation = false
		box.WrongDatapoint = false
		mergeShape(box, shapes[i])
	}

	return len(accepted) > 0, nil
}

// mergeSingleWinner is the object-schema merge: at most one dark-green
// shape wins, its box is the only accepted one, and the document-level
// review flags are set. Zero matches leave the record untouched.
func (r *Reconciler) mergeSingleWinner(rec *Record, shapes []CanvasShape) (bool, error) {
	if err := checkAlignment(rec.Objects, shapes); err != nil {
		return false, err
	}

	winner := SingleAcceptedIndex(shapes)
	if winner < 0 {
		return false, nil
	}

	for i := range rec.Objects {
		rec.Objects[i].Result = i == winner
	}
	box := &rec.Objects[winner]
	box.UserReviewed = 1
	mergeShape(box, shapes[winner])

	rec.UserReviewed = 1
	rec.MissingInformation = false
	rec.WrongDatapoint = false

	return true, nil
}

// MarkWrongDatapoint records the operator's judgment that the extraction
// targeted the wrong value. Terminal for this visit: accepted and
// missing-information are cleared everywhere.
func (r *Reconciler) MarkWrongDatapoint(rec *Record) {
	for i := range rec.Objects {
		box := &rec.Objects[i]
		box.WrongDatapoint = true
		box.UserReviewed = 1
		box.Result = false
		box.MissingInformation = false
	}
	rec.WrongDatapoint = true
	rec.UserReviewed = 1
	rec.MissingInformation = false
}

// MarkMissingInformation records that the document does not contain the
// datapoint at all. Terminal for this visit: accepted and wrong-datapoint
// are cleared everywhere.
func (r *Reconciler) MarkMissingInformation(rec *Record) {
	for i := range rec.Objects {
		box := &rec.Objects[i]
		box.MissingInformation = true
		box.UserReviewed = 1
		box.Result = false
		box.WrongDatapoint = false
	}
	rec.MissingInformation = true
	rec.UserReviewed = 1
	rec.WrongDatapoint = false
}

// Reviewed reports whether the record has already been through a review
// visit. Used by the session to auto-skip documents on re-encounter.
func Reviewed(rec *Record) bool {
	if rec.UserReviewed == 1 {
		return true
	}
	if rec.Schema == SchemaLegacy {
		for _, box := range rec.Objects {
			if box.UserReviewed != 1 {
				return false
			}
		}
		return len(rec.Objects) > 0
	}
	return false
}
