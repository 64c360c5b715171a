package api

import (
	"errors"
	"fmt"
)

// ValidationError is a local pre-flight failure. No request was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RequestFailure means the backend could not be reached or its response could
// not be understood.
type RequestFailure struct {
	Op  string
	Err error
}

func (e *RequestFailure) Error() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return e.Err.Error()
}

func (e *RequestFailure) Unwrap() error {
	return e.Err
}

// BackendError is a reply with success:false or a non-2xx status. Message is
// the backend's own text.
type BackendError struct {
	Op      string
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s failed (%d)", e.Op, e.Status)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsRequestFailure(err error) bool {
	var r *RequestFailure
	return errors.As(err, &r)
}

func IsBackend(err error) bool {
	var b *BackendError
	return errors.As(err, &b)
}

// UploadMessage renders an upload outcome the way the status line shows it.
// UploadError carries the user-facing upload message while keeping the
// underlying ValidationError, RequestFailure or BackendError reachable.
type UploadError struct {
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	return UploadMessage(e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

func UploadMessage(filename string, err error) string {
	if err == nil {
		return "File uploaded successfully: " + filename
	}
	var b *BackendError
	if errors.As(err, &b) {
		return "Upload failed: " + b.Error()
	}
	var r *RequestFailure
	if errors.As(err, &r) {
		return "Upload error: " + r.Error()
	}
	return err.Error()
}
