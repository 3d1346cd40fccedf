package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

var pdfMarker = []byte("%PDF-")

type pdfDocument struct{}

// PDFDocument extracts the whole document through the reader's plain text
// stream.
func PDFDocument() Strategy {
	return pdfDocument{}
}

func (pdfDocument) Name() string { return "pdf-document" }

func (pdfDocument) Attempt(_ context.Context, data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	rs, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rs); err != nil {
		return "", fmt.Errorf("copy pdf text: %w", err)
	}
	return buf.String(), nil
}

type pdfPages struct{}

// PDFPages extracts text page by page. When the reader cannot be built
// because the header is not at offset 0, the payload is cut at the first
// "%PDF-" marker and opened once more.
func PDFPages() Strategy {
	return pdfPages{}
}

func (pdfPages) Name() string { return "pdf-pages" }

func (pdfPages) Attempt(ctx context.Context, data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		idx := bytes.Index(data, pdfMarker)
		if idx <= 0 {
			return "", fmt.Errorf("open pdf: %w", err)
		}
		trimmed := data[idx:]
		r, err = pdf.NewReader(bytes.NewReader(trimmed), int64(len(trimmed)))
		if err != nil {
			return "", fmt.Errorf("open pdf after skipping %d leading bytes: %w", idx, err)
		}
	}

	var (
		builder strings.Builder
		errs    []error
	)
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			font := page.Font(name)
			fonts[name] = &font
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			errs = append(errs, fmt.Errorf("page %d: %w", i, err))
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	if builder.Len() == 0 && len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return builder.String(), nil
}
