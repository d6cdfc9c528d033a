package allowlist

import (
	"mime"
	"strings"

	"go.uber.org/zap"
)

// DefaultImageTypes are the media types accepted for analysis
var DefaultImageTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/tiff"}

// Checker provides functionality to check if media types are allowed
type Checker struct {
	types  []string
	logger *zap.Logger
}

// NewChecker creates a new allow list checker
func NewChecker(types []string, logger *zap.Logger) *Checker {
	allowed := make([]string, 0, len(types))
	for _, t := range types {
		if t = strings.TrimSpace(t); t != "" {
			allowed = append(allowed, t)
		}
	}

	if len(allowed) > 0 && logger != nil {
		logger.Info("Initialized media type allow list", zap.Strings("types", allowed))
	}

	return &Checker{
		types:  allowed,
		logger: logger,
	}
}

// Normalize lower-cases a media type and strips its parameters.
// "Image/PNG; name=x" becomes "image/png".
func Normalize(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// IsAllowed checks if the declared content type is in the allow list.
// The comparison is exact: "IMAGE/PNG" or "image/png; x=y" are rejected.
func (c *Checker) IsAllowed(contentType string) bool {
	for _, allowed := range c.types {
		if allowed == contentType {
			return true
		}
	}

	if c.logger != nil {
		c.logger.Debug("Media type is not allowed", zap.String("content_type", contentType))
	}
	return false
}

// Types returns the allowed media types
func (c *Checker) Types() []string {
	out := make([]string, len(c.types))
	copy(out, c.types)
	return out
}
