package document

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/curalab/invoice-curator/internal/annotation"
)

// Search handles discovery of labels, record files and their source
// images at session start.
type Search struct {
	validator *Validator
}

// NewSearch creates a search handler.
func NewSearch(maxFileSize int64) *Search {
	return &Search{validator: NewValidator(maxFileSize)}
}

// Labels lists the label subdirectories of the records root, sorted. Each
// label directory holds one record file per document.
func (s *Search) Labels(recordsRoot string) ([]string, error) {
	entries, err := os.ReadDir(recordsRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, annotation.NewNotFoundError(fmt.Sprintf("records directory does not exist: %s", recordsRoot), err)
		}
		return nil, annotation.NewValidationError(fmt.Sprintf("cannot read records directory: %s", recordsRoot), err)
	}

	var labels []string
	for _, entry := range entries {
		if entry.IsDir() {
			labels = append(labels, entry.Name())
		}
	}
	sort.Strings(labels)
	return labels, nil
}

// RecordFiles lists the JSON record files in a label directory, sorted by
// name. The sorted order fixes the review sequence for the session.
func (s *Search) RecordFiles(labelDir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(labelDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, annotation.NewNotFoundError(fmt.Sprintf("label directory does not exist: %s", labelDir), err)
		}
		return nil, annotation.NewValidationError(fmt.Sprintf("cannot read label directory: %s", labelDir), err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(entry.Name())) != ".json" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:         filepath.Join(labelDir, entry.Name()),
			Name:         entry.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// FindImage locates the image whose filename stem matches the record
// stem. Any supported extension qualifies; the first match in directory
// order wins.
func (s *Search) FindImage(imagesDir, stem string) (string, error) {
	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", annotation.NewNotFoundError(fmt.Sprintf("images directory does not exist: %s", imagesDir), err)
		}
		return "", annotation.NewValidationError(fmt.Sprintf("cannot read images directory: %s", imagesDir), err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if strings.TrimSuffix(name, filepath.Ext(name)) != stem {
			continue
		}
		if ext == ".pdf" || rasterExtensions[ext] {
			return filepath.Join(imagesDir, name), nil
		}
	}

	return "", annotation.NewNotFoundError(fmt.Sprintf("no image found for document %q in %s", stem, imagesDir), nil)
}

// Stem strips the extension from a record filename, yielding the document
// identity.
func Stem(recordName string) string {
	return strings.TrimSuffix(recordName, filepath.Ext(recordName))
}
