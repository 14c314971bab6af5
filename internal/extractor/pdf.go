package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/dslipak/pdf"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const pdfFileExtension = ".pdf"

type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (pe *PDFExtractor) Extract(ctx context.Context, data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("invalid pdf: %w", err)
	}

	var buf strings.Builder
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := pageText(page)
		if err != nil {
			ctxzap.Warn(ctx, "skipping undecodable pdf page", zap.Int("page", i), zap.Error(err))
			continue
		}

		buf.WriteString(pageText)
		buf.WriteString("\n")
	}

	return buf.String(), nil
}

func pageText(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode page: %v", r)
		}
	}()
	return page.GetPlainText(nil)
}

func (pe *PDFExtractor) FileExtension() string {
	return pdfFileExtension
}
