// Package store is the persistence gateway for annotation records. It
// reads and writes per-document JSON records and moves them between the
// pending and curated stage directories as review completes.
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/curalab/invoice-curator/internal/annotation"
)

const dirPerm = 0o750

// Store manages the records of one label: a pending directory holding
// records awaiting review and a curated directory receiving reviewed ones.
type Store struct {
	pendingDir string
	curatedDir string
	schema     annotation.Schema
}

// NewStore creates a store over the two stage directories. schema selects
// the persistence layout; SchemaAuto keeps whatever layout each record was
// loaded with.
func NewStore(pendingDir, curatedDir string, schema annotation.Schema) (*Store, error) {
	if pendingDir == "" || curatedDir == "" {
		return nil, annotation.NewValidationError("store directories cannot be empty", nil)
	}
	if err := os.MkdirAll(curatedDir, dirPerm); err != nil {
		return nil, annotation.NewWriteError(fmt.Sprintf("cannot create curated directory %s", curatedDir), err)
	}
	if schema == "" {
		schema = annotation.SchemaAuto
	}
	return &Store{pendingDir: pendingDir, curatedDir: curatedDir, schema: schema}, nil
}

// PendingPath returns the record path in the pending store.
func (s *Store) PendingPath(name string) string {
	return filepath.Join(s.pendingDir, name)
}

// CuratedPath returns the record path in the curated store.
func (s *Store) CuratedPath(name string) string {
	return filepath.Join(s.curatedDir, name)
}

// Load reads the named record from the pending store.
func (s *Store) Load(name string) (*annotation.Record, error) {
	data, err := os.ReadFile(s.PendingPath(name))
	if os.IsNotExist(err) {
		return nil, annotation.NewNotFoundError(fmt.Sprintf("record not found: %s", name), err)
	}
	if err != nil {
		return nil, annotation.NewWriteError(fmt.Sprintf("cannot read record: %s", name), err)
	}
	return annotation.DecodeRecord(data)
}

// Save persists the edited record's review state. The stored record is
// re-read and only the review-state fields are overlaid onto the stored
// geometry: the in-memory copy may carry resized coordinates and those
// must never reach disk. The write goes through a temp file and a rename
// so a failure leaves the stored record exactly as it was.
func (s *Store) Save(name string, edited *annotation.Record) error {
	stored, err := s.Load(name)
	if err != nil {
		return err
	}

	if len(stored.Objects) != len(edited.Objects) {
		return annotation.NewValidationError(
			fmt.Sprintf("edited record has %d boxes, stored record has %d: %s",
				len(edited.Objects), len(stored.Objects), name), nil)
	}

	for i := range stored.Objects {
		stored.Objects[i].Result = edited.Objects[i].Result
		stored.Objects[i].UserReviewed = edited.Objects[i].UserReviewed
		stored.Objects[i].MissingInformation = edited.Objects[i].MissingInformation
		stored.Objects[i].WrongDatapoint = edited.Objects[i].WrongDatapoint
	}
	stored.UserReviewed = edited.UserReviewed
	stored.MissingInformation = edited.MissingInformation
	stored.WrongDatapoint = edited.WrongDatapoint

	data, err := annotation.EncodeRecord(stored, s.schema)
	if err != nil {
		return err
	}

	return s.writeAtomic(s.PendingPath(name), data)
}

// writeAtomic writes data to path via a temp file in the same directory
// followed by a rename.
func (s *Store) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".record-*.json")
	if err != nil {
		return annotation.NewWriteError(fmt.Sprintf("cannot create temp file in %s", dir), err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return annotation.NewWriteError(fmt.Sprintf("cannot write record: %s", path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return annotation.NewWriteError(fmt.Sprintf("cannot sync record: %s", path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return annotation.NewWriteError(fmt.Sprintf("cannot close record: %s", path), err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return annotation.NewWriteError(fmt.Sprintf("cannot replace record: %s", path), err)
	}
	return nil
}

// Promote moves the named record from the pending store to the curated
// store. A crash mid-move leaves the record in exactly one store: the
// source is only removed after the copy has been synced.
func (s *Store) Promote(name string) error {
	return moveFile(s.PendingPath(name), s.CuratedPath(name))
}

// Demote moves the named record back from the curated store to the
// pending store. Used by "Previous" navigation.
func (s *Store) Demote(name string) error {
	return moveFile(s.CuratedPath(name), s.PendingPath(name))
}

// moveFile renames src to dst, falling back to copy-then-remove when the
// rename crosses filesystems.
func moveFile(src, dst string) error {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return annotation.NewNotFoundError(fmt.Sprintf("record not found: %s", src), err)
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return annotation.NewWriteError(fmt.Sprintf("cannot open record for move: %s", src), err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return annotation.NewWriteError(fmt.Sprintf("cannot create record at destination: %s", dst), err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return annotation.NewWriteError(fmt.Sprintf("cannot copy record to %s", dst), err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return annotation.NewWriteError(fmt.Sprintf("cannot sync record at %s", dst), err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return annotation.NewWriteError(fmt.Sprintf("cannot close record at %s", dst), err)
	}

	// The copy is durable; removing the source completes the move.
	if err := os.Remove(src); err != nil {
		return annotation.NewWriteError(fmt.Sprintf("cannot remove source record %s after copy", src), err)
	}
	return nil
}
