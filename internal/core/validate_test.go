package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikey/image-analysis-gateway/internal/allowlist"
)

func newTestValidator() *Validator {
	return NewValidator(allowlist.NewChecker(allowlist.DefaultImageTypes, nil), DefaultMaxFileSize)
}

func TestValidator_AcceptsAllowedTypesWithinLimit(t *testing.T) {
	v := newTestValidator()
	for _, ct := range allowlist.DefaultImageTypes {
		file := &UploadedFile{ContentType: ct, Data: []byte{1, 2, 3}, Size: 3}
		assert.NoError(t, v.Validate(file), ct)
	}

	exact := &UploadedFile{ContentType: "image/png", Size: DefaultMaxFileSize}
	assert.NoError(t, v.Validate(exact))
}

func TestValidator_MissingFile(t *testing.T) {
	err := newTestValidator().Validate(nil)
	assert.Equal(t, KindBadRequest, KindOf(err))
	assert.Equal(t, "No image file found in request", MessageOf(err))
}

func TestValidator_UnsupportedType(t *testing.T) {
	v := newTestValidator()
	for _, ct := range []string{"image/gif", "application/octet-stream", "text/plain"} {
		err := v.Validate(&UploadedFile{ContentType: ct, Size: 10})
		assert.Equal(t, KindUnsupportedMediaType, KindOf(err), ct)
	}
}

func TestValidator_TypeCheckedBeforeSize(t *testing.T) {
	err := newTestValidator().Validate(&UploadedFile{ContentType: "image/gif", Size: DefaultMaxFileSize + 1})
	assert.Equal(t, KindUnsupportedMediaType, KindOf(err))
}

func TestValidator_TooLarge(t *testing.T) {
	v := newTestValidator()
	err := v.Validate(&UploadedFile{ContentType: "image/jpeg", Size: DefaultMaxFileSize + 1})
	assert.Equal(t, KindPayloadTooLarge, KindOf(err))
	assert.Equal(t, "File too large. Maximum size is 10MB.", MessageOf(err))

	// data length wins over an understated declared size
	data := make([]byte, 11)
	small := NewValidator(allowlist.NewChecker(allowlist.DefaultImageTypes, nil), 10)
	err = small.Validate(&UploadedFile{ContentType: "image/png", Data: data, Size: 1})
	assert.Equal(t, KindPayloadTooLarge, KindOf(err))
	assert.Equal(t, "File too large. Maximum size is 10 bytes.", MessageOf(err))
}
