package api

import (
	"fmt"
	"path/filepath"
	"strings"

	"contentgen/internal/localfs"
)

const MaxUploadBytes int64 = 5 * 1024 * 1024

var allowedUploadExt = map[string]bool{
	".md":  true,
	".txt": true,
}

// ValidateUpload checks the name and size of a script before it is sent.
func ValidateUpload(name string, size int64) error {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return &ValidationError{Field: "file", Message: "No file selected"}
	}
	ext := strings.ToLower(filepath.Ext(base))
	if !allowedUploadExt[ext] {
		return &ValidationError{Field: "file", Message: "Please upload a .md or .txt file"}
	}
	if size < 0 {
		return &ValidationError{Field: "size", Message: fmt.Sprintf("invalid file size %d", size)}
	}
	if size > MaxUploadBytes {
		return &ValidationError{Field: "size", Message: "File size must be less than 5MB"}
	}
	return nil
}

// ValidateUploadFile stats path and validates it as an upload candidate.
func ValidateUploadFile(path string) (int64, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, &ValidationError{Field: "file", Message: "No file selected"}
	}
	if err := ValidateUpload(path, 0); err != nil {
		return 0, err
	}
	size, err := localfs.FileSize(path)
	if err != nil {
		return 0, &ValidationError{Field: "file", Message: err.Error()}
	}
	if err := ValidateUpload(path, size); err != nil {
		return 0, err
	}
	return size, nil
}
