// Package mimetypes labels file attachments with their media type.
package mimetypes

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type MIME string

const (
	Unknown   MIME = "application/octet-stream"
	TextPlain MIME = "text/plain"
	TextHTML  MIME = "text/html"

	ApplicationPDF  MIME = "application/pdf"
	ApplicationJSON MIME = "application/json"
	ApplicationZIP  MIME = "application/zip"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"
)

// Essence drops parameters such as "; charset=utf-8" and lowercases the type.
// Anything unparsable is Unknown.
func Essence(detected string) MIME {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown
	}
	return MIME(mt)
}

// Detect sniffs the content of the file at path.
func Detect(path string) (MIME, error) {
	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return Unknown, err
	}
	return Essence(detected.String()), nil
}

// Family is the top-level type, e.g. "image" for image/png.
func (m MIME) Family() string {
	family, _, _ := strings.Cut(string(m), "/")
	return family
}

func (m MIME) IsImage() bool { return m.Family() == "image" }

func (m MIME) IsText() bool { return m.Family() == "text" }
