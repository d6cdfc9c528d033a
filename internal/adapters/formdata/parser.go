package formdata

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/mikey/image-analysis-gateway/internal/core"
)

const (
	// ImageFieldName is the form field carrying the upload
	ImageFieldName = "image"

	defaultPartContentType = "application/octet-stream"
)

// BoundaryFromContentType checks that the request declares multipart/form-data
// and returns its boundary parameter.
func BoundaryFromContentType(contentType string) (string, error) {
	if !strings.Contains(strings.ToLower(contentType), "multipart/form-data") {
		return "", core.NewError(core.KindBadRequest, "Content-Type must be multipart/form-data", nil)
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err == nil && mediaType == "multipart/form-data" && params["boundary"] != "" {
		return params["boundary"], nil
	}

	// Fall back to a plain scan so sloppy headers such as
	// "multipart/form-data;boundary=abc; charset" still work.
	for _, param := range strings.Split(contentType, ";") {
		param = strings.TrimSpace(param)
		if len(param) > len("boundary=") && strings.EqualFold(param[:len("boundary=")], "boundary=") {
			return strings.Trim(param[len("boundary="):], `"`), nil
		}
	}

	return "", core.NewError(core.KindBadRequest, "Missing boundary in multipart data", err)
}

// DecodeBody returns the raw body, decoding it first when the transport
// delivered it base64 encoded.
func DecodeBody(body []byte, base64Encoded bool) ([]byte, error) {
	if !base64Encoded {
		return body, nil
	}

	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(body)))
	n, err := base64.StdEncoding.Decode(decoded, bytes.TrimSpace(body))
	if err != nil {
		return nil, core.NewError(core.KindBadRequest, "Request body is not valid base64", err)
	}
	return decoded[:n], nil
}

// Parse extracts the first form part named "image" from a multipart body.
// Parts are located by their delimiter lines and decoded one at a time, so a
// malformed part is skipped and the scan carries on with the next one.
func Parse(body []byte, boundary string) (*core.UploadedFile, error) {
	for _, segment := range splitParts(body, boundary) {
		if file, ok := parsePart(segment, boundary); ok {
			return file, nil
		}
	}

	return nil, core.NewError(core.KindBadRequest, "No image file found in request", nil)
}

// splitParts returns the raw bytes between consecutive delimiter lines,
// stopping at the closing delimiter. A trailing part with no closing
// delimiter is returned as is.
func splitParts(body []byte, boundary string) [][]byte {
	delim := []byte("--" + boundary)
	crlfDelim := append([]byte("\r\n"), delim...)

	start := 0
	if !bytes.HasPrefix(body, delim) {
		i := bytes.Index(body, crlfDelim)
		if i < 0 {
			return nil
		}
		start = i + 2
	}

	var segments [][]byte
	for {
		rest := body[start+len(delim):]
		if bytes.HasPrefix(rest, []byte("--")) {
			return segments
		}

		next := bytes.Index(rest, crlfDelim)
		if next < 0 {
			return append(segments, rest)
		}
		segments = append(segments, rest[:next])
		start += len(delim) + next + 2
	}
}

// parsePart decodes a single part. ok is false when the part is malformed or
// is not the image field.
func parsePart(segment []byte, boundary string) (*core.UploadedFile, bool) {
	var framed bytes.Buffer
	framed.Grow(len(segment) + 2*len(boundary) + 12)
	framed.WriteString("--" + boundary)
	framed.Write(segment)
	framed.WriteString("\r\n--" + boundary + "--\r\n")

	// NextRawPart leaves Content-Transfer-Encoding alone so the payload
	// reaches the classifier untouched
	part, err := multipart.NewReader(&framed, boundary).NextRawPart()
	if err != nil {
		return nil, false
	}
	defer part.Close()

	if part.FormName() != ImageFieldName {
		return nil, false
	}

	data, err := io.ReadAll(part)
	if err != nil {
		return nil, false
	}

	contentType := strings.TrimSpace(part.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = defaultPartContentType
	}

	return &core.UploadedFile{
		Filename:    part.FileName(),
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}, true
}
