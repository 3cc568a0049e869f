package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/curalab/invoice-curator/internal/annotation"
	"github.com/curalab/invoice-curator/internal/document"
)

// State is the session's screen state: before the first document, mid
// review, or past the last document.
type State int

const (
	StateStart State = iota
	StateReviewing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateReviewing:
		return "reviewing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// RecordStore is the persistence gateway the session drives.
type RecordStore interface {
	Load(name string) (*annotation.Record, error)
	Save(name string, rec *annotation.Record) error
	Mover
}

// ImageLocator finds the image belonging to a record stem.
type ImageLocator interface {
	FindImage(imagesDir, stem string) (string, error)
}

// DimensionProber reads a document's native dimensions.
type DimensionProber interface {
	Probe(path string) (*document.Dimensions, error)
}

// Counters summarize review progress for the navigation shell.
type Counters struct {
	Done int `json:"done"`
	Left int `json:"left"`
}

// View is the render model for the current document, handed to the
// navigation shell and canvas surface. Canvas geometry is in resized
// space; the session keeps the original-space record for persistence.
type View struct {
	Document  string                  `json:"document"`
	ImagePath string                  `json:"image_path"`
	Canvas    annotation.CanvasConfig `json:"canvas"`
	Counters  Counters                `json:"counters"`
	IsFirst   bool                    `json:"is_first"`
	IsLast    bool                    `json:"is_last"`
	Pages     int                     `json:"pages"`
}

// Options configure a review session.
type Options struct {
	ImagesDir string
	MaxWidth  int
	MaxHeight int
}

// Session runs the review loop for one operator over one label's
// documents. All operator actions are synchronous request/response
// cycles; the session performs no background work and must not be shared
// between operators.
type Session struct {
	store      RecordStore
	locator    ImageLocator
	prober     DimensionProber
	reconciler *annotation.Reconciler
	logger     *zap.Logger
	opts       Options

	cursor  *Cursor
	started bool

	// reopened lists reviewed documents the operator explicitly returned
	// to via Previous; those are shown again instead of auto-skipped.
	reopened map[string]bool

	// Per-document cache between Current and the following submit. The
	// record keeps original-space geometry; only a scaled copy is handed
	// to the canvas.
	currentName   string
	currentRecord *annotation.Record
}

// NewSession creates a session over the given record names, in review
// order.
func NewSession(
	st RecordStore,
	locator ImageLocator,
	prober DimensionProber,
	logger *zap.Logger,
	names []string,
	opts Options,
) (*Session, error) {
	if st == nil || locator == nil || prober == nil {
		return nil, annotation.NewValidationError("session dependencies cannot be nil", nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxWidth <= 0 || opts.MaxHeight <= 0 {
		return nil, annotation.NewValidationError(
			fmt.Sprintf("canvas bounds %dx%d are not positive", opts.MaxWidth, opts.MaxHeight), nil)
	}

	return &Session{
		store:      st,
		locator:    locator,
		prober:     prober,
		reconciler: annotation.NewReconciler(),
		logger:     logger,
		opts:       opts,
		cursor:     NewCursor(names, st),
		reopened:   make(map[string]bool),
	}, nil
}

// State returns the session's screen state.
func (s *Session) State() State {
	if !s.started {
		return StateStart
	}
	if s.cursor.Done() {
		return StateDone
	}
	return StateReviewing
}

// Counters returns review progress.
func (s *Session) Counters() Counters {
	done, left := s.cursor.Counts()
	return Counters{Done: done, Left: left}
}

// Current prepares the current document for display: loads its record,
// probes and fits the image, and returns the render model with geometry
// scaled into canvas space. Trivial or unreadable documents are resolved
// or skipped here; the loop is bounded by the pending queue length.
func (s *Session) Current() (*View, error) {
	if s.State() == StateStart {
		return nil, annotation.NewValidationError("session has not started yet", nil)
	}

	_, limit := s.cursor.Counts()
	for attempt := 0; attempt <= limit; attempt++ {
		if s.cursor.Done() {
			return nil, annotation.NewValidationError("review is complete", nil)
		}

		name, _ := s.cursor.Current()
		view, err := s.prepare(name)
		if err == nil {
			return view, nil
		}
		if !s.skippable(name, err) {
			return nil, err
		}
		s.invalidate()
		if advErr := s.cursor.Advance(); advErr != nil {
			return nil, advErr
		}
	}

	return nil, annotation.NewValidationError("no displayable document left", nil)
}

// skipError marks conditions Current resolves by moving on.
type skipError struct{ reason string }

func (e *skipError) Error() string { return e.reason }

// skippable decides whether a per-document failure skips the document or
// halts the session. Missing files skip; parse errors halt so the
// operator can inspect the record; write errors always halt.
func (s *Session) skippable(name string, err error) bool {
	if _, ok := err.(*skipError); ok {
		return true
	}
	if annotation.IsNotFound(err) {
		s.logger.Warn("skipping document with missing file",
			zap.String("document", name), zap.Error(err))
		s.cursor.MarkSkip(name)
		return true
	}
	return false
}

// prepare builds the view for one record, or reports why it cannot be
// displayed.
func (s *Session) prepare(name string) (*View, error) {
	rec, err := s.store.Load(name)
	if err != nil {
		return nil, err
	}

	// Already-reviewed documents are passed over on re-encounter unless
	// explicitly reopened via Previous. Guards against double processing.
	if annotation.Reviewed(rec) && !s.reopened[name] {
		s.logger.Debug("document already reviewed", zap.String("document", name))
		return nil, &skipError{reason: "already reviewed"}
	}

	// A record with no boxes cannot be reviewed on canvas; the datapoint
	// is missing by definition.
	if len(rec.Objects) == 0 {
		s.reconciler.MarkMissingInformation(rec)
		if err := s.store.Save(name, rec); err != nil {
			return nil, err
		}
		s.logger.Info("empty record resolved as missing information", zap.String("document", name))
		return nil, &skipError{reason: "empty record"}
	}

	// Single-box object records have nothing to disambiguate; they are
	// skipped rather than shown.
	if rec.Schema == annotation.SchemaObject && len(rec.Objects) == 1 {
		s.cursor.MarkSkip(name)
		s.logger.Debug("single-box record skipped", zap.String("document", name))
		return nil, &skipError{reason: "single box"}
	}

	stem := document.Stem(name)
	imagePath, err := s.locator.FindImage(s.opts.ImagesDir, stem)
	if err != nil {
		return nil, err
	}

	dims, err := s.prober.Probe(imagePath)
	if err != nil {
		return nil, err
	}

	if dims.Pages > 1 {
		s.logger.Warn("document has multiple pages, only the first is shown",
			zap.String("document", name), zap.Int("pages", dims.Pages))
	}

	fit, err := annotation.FitWithin(dims.Width, dims.Height, s.opts.MaxWidth, s.opts.MaxHeight)
	if err != nil {
		return nil, err
	}

	annotation.AssignBoxIDs(rec.Objects)
	scaled := annotation.ScaleBoxes(rec.Objects, fit.Scale)

	s.currentName = name
	s.currentRecord = rec

	counters := s.Counters()
	return &View{
		Document:  name,
		ImagePath: imagePath,
		Canvas: annotation.CanvasConfig{
			BackgroundImage: imagePath,
			Geometry:        scaled,
			Width:           fit.Width,
			Height:          fit.Height,
			Mode:            "transform",
		},
		Counters: counters,
		IsFirst:  s.cursor.AtStart(),
		IsLast:   counters.Left <= 1,
		Pages:    dims.Pages,
	}, nil
}

// SubmitCanvas reconciles the shape list the canvas surface returned for
// the current document. When the merge accepts at least one box the
// record is saved and the session advances; a failed save leaves the
// cursor where it is so the edit is not lost.
func (s *Session) SubmitCanvas(shapes []annotation.CanvasShape) (bool, error) {
	if s.currentRecord == nil {
		return false, annotation.NewValidationError("no document is loaded", nil)
	}

	accepted, err := s.reconciler.Merge(s.currentRecord, shapes)
	if err != nil {
		return false, err
	}
	if !accepted {
		return false, nil
	}

	return true, s.completeCurrent()
}

// MarkWrongDatapoint resolves the current document as a wrong
// extraction, saves and advances.
func (s *Session) MarkWrongDatapoint() error {
	if s.currentRecord == nil {
		return annotation.NewValidationError("no document is loaded", nil)
	}
	s.reconciler.MarkWrongDatapoint(s.currentRecord)
	return s.completeCurrent()
}

// MarkMissingInformation resolves the current document as missing the
// datapoint, saves and advances.
func (s *Session) MarkMissingInformation() error {
	if s.currentRecord == nil {
		return annotation.NewValidationError("no document is loaded", nil)
	}
	s.reconciler.MarkMissingInformation(s.currentRecord)
	return s.completeCurrent()
}

// completeCurrent persists the current record and advances on success.
func (s *Session) completeCurrent() error {
	name := s.currentName
	if err := s.store.Save(name, s.currentRecord); err != nil {
		s.logger.Error("save failed, pagination halted",
			zap.String("document", name), zap.Error(err))
		return err
	}

	s.invalidate()
	delete(s.reopened, name)
	if err := s.cursor.Advance(); err != nil {
		return err
	}
	s.logger.Info("document completed", zap.String("document", name))
	return nil
}

// Next moves forward without reviewing. From the start screen it begins
// the session; mid-review it advances past the current document.
func (s *Session) Next() error {
	if !s.started {
		s.started = true
		return nil
	}
	if s.cursor.Done() {
		return nil
	}
	s.invalidate()
	return s.cursor.Advance()
}

// Previous reopens the most recently completed document. At the first
// document it returns to the start screen.
func (s *Session) Previous() error {
	if !s.started {
		return nil
	}
	if s.cursor.AtStart() {
		s.started = false
		return nil
	}
	s.invalidate()
	if err := s.cursor.Retreat(); err != nil {
		return err
	}
	if name, ok := s.cursor.Current(); ok {
		s.reopened[name] = true
	}
	return nil
}

// invalidate drops the per-document cache.
func (s *Session) invalidate() {
	s.currentName = ""
	s.currentRecord = nil
}
