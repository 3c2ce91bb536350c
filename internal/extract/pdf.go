// Package extract converts uploaded documents into plain text for scoring.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	ErrExtractionFailed = errors.New("EXTRACTION_FAILURE")
)

// pdfMagic is the signature every well-formed PDF starts with.
const pdfMagic = "%PDF-"

// IsPDF reports whether the content looks like a PDF document. Extraction
// is only attempted for recognized document types.
func IsPDF(content []byte) bool {
	return bytes.HasPrefix(content, []byte(pdfMagic))
}

// Text extracts the plain text of a PDF document. An empty result is not an
// error: scanned or image-only PDFs legitimately carry no text layer. A
// structurally corrupt file yields ErrExtractionFailed.
func Text(content []byte) (text string, err error) {
	// The pdf reader panics on some malformed xref tables; a corrupt
	// upload must surface as ErrExtractionFailed, not take the request down.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrExtractionFailed, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var b strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page does not condemn the document.
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String()), nil
}
