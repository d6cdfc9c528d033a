package core

import (
	"fmt"

	"github.com/mikey/image-analysis-gateway/internal/allowlist"
)

// DefaultMaxFileSize is the largest accepted upload (10 MiB)
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// Validator enforces type and size limits before any classifier call
type Validator struct {
	allowed     *allowlist.Checker
	maxFileSize int64
}

// NewValidator creates a validator. A non-positive maxFileSize falls back to DefaultMaxFileSize.
func NewValidator(allowed *allowlist.Checker, maxFileSize int64) *Validator {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Validator{allowed: allowed, maxFileSize: maxFileSize}
}

// MaxFileSize returns the configured limit in bytes
func (v *Validator) MaxFileSize() int64 {
	return v.maxFileSize
}

// Validate checks presence, then type, then size
func (v *Validator) Validate(file *UploadedFile) error {
	if file == nil {
		return NewError(KindBadRequest, "No image file found in request", nil)
	}

	if !v.allowed.IsAllowed(file.ContentType) {
		return NewError(KindUnsupportedMediaType,
			"Unsupported file type. Please use JPG, PNG, or TIFF images.",
			fmt.Errorf("content type %q", file.ContentType))
	}

	size := file.Size
	if n := int64(len(file.Data)); n > size {
		size = n
	}
	if size > v.maxFileSize {
		return NewFileTooLargeError(v.maxFileSize, fmt.Errorf("size %d exceeds %d", size, v.maxFileSize))
	}

	return nil
}

// NewFileTooLargeError reports an upload over limit bytes
func NewFileTooLargeError(limit int64, cause error) *Error {
	return NewError(KindPayloadTooLarge,
		fmt.Sprintf("File too large. Maximum size is %s.", formatLimit(limit)), cause)
}

func formatLimit(n int64) string {
	const mib = 1024 * 1024
	if n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}
