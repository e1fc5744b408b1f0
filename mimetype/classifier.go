// Package mimetype classifies crawled documents by MIME type, sniffing the
// content when the server does not say what it sent.
package mimetype

import (
	"mime"
	"strings"

	"github.com/fwojciec/sitecrawl"
	"github.com/gabriel-vasile/mimetype"
)

const octetStream = "application/octet-stream"

var _ sitecrawl.MIMEClassifier = (*Classifier)(nil)

// Classifier derives a bare, lowercase MIME type from a Content-Type header.
// A missing or generic application/octet-stream header falls back to
// content sniffing. Returns sitecrawl.UnknownMIME when neither tells.
type Classifier struct{}

// NewClassifier creates a new Classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

func (c *Classifier) Classify(contentType string, content []byte) string {
	if t := mediaType(contentType); t != "" && t != octetStream {
		return t
	}
	if len(content) == 0 {
		return sitecrawl.UnknownMIME
	}
	if t := mediaType(mimetype.Detect(content).String()); t != "" && t != octetStream {
		return t
	}
	return sitecrawl.UnknownMIME
}

// mediaType strips parameters such as charset. Malformed headers fall back
// to the text before the first semicolon.
func mediaType(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	t, _, err := mime.ParseMediaType(header)
	if err != nil {
		t, _, _ = strings.Cut(header, ";")
	}
	return strings.ToLower(strings.TrimSpace(t))
}
