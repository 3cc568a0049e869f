package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/curalab/invoice-curator/internal/annotation"
)

// Validator performs basic file checks before a document is opened.
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a validator with the specified size limit.
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{maxFileSize: maxFileSize}
}

// ValidateImageFile checks that path points to a readable document image:
// a regular file with a supported extension within the size limit.
func (v *Validator) ValidateImageFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return annotation.NewNotFoundError(fmt.Sprintf("image does not exist: %s", path), err)
	}
	if err != nil {
		return annotation.NewValidationError(fmt.Sprintf("cannot access image: %s", path), err)
	}
	if info.IsDir() {
		return annotation.NewValidationError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}
	if info.Size() == 0 {
		return annotation.NewValidationError(fmt.Sprintf("image file is empty: %s", path), nil)
	}
	if info.Size() > v.maxFileSize {
		return annotation.NewValidationError(
			fmt.Sprintf("image too large: %d bytes (max: %d bytes)", info.Size(), v.maxFileSize), nil)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".pdf" && !rasterExtensions[ext] {
		return annotation.NewValidationError(fmt.Sprintf("unsupported file format: %s", ext), nil)
	}
	return nil
}

// ValidateRecordFile checks that path points to a readable annotation
// record file.
func (v *Validator) ValidateRecordFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return annotation.NewNotFoundError(fmt.Sprintf("record does not exist: %s", path), err)
	}
	if err != nil {
		return annotation.NewValidationError(fmt.Sprintf("cannot access record: %s", path), err)
	}
	if info.IsDir() {
		return annotation.NewValidationError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}
	if strings.ToLower(filepath.Ext(path)) != ".json" {
		return annotation.NewValidationError(fmt.Sprintf("record is not a JSON file: %s", path), nil)
	}
	if info.Size() > v.maxFileSize {
		return annotation.NewValidationError(
			fmt.Sprintf("record too large: %d bytes (max: %d bytes)", info.Size(), v.maxFileSize), nil)
	}
	return nil
}
