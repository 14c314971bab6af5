package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/unidoc/unioffice/document"
)

const docxFileExtension = ".docx"

type DOCXExtractor struct{}

func NewDOCXExtractor() *DOCXExtractor {
	return &DOCXExtractor{}
}

func (de *DOCXExtractor) Extract(_ context.Context, data []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("invalid docx: %w", err)
	}
	defer doc.Close()

	var buf strings.Builder
	for _, par := range doc.Paragraphs() {
		for _, run := range par.Runs() {
			buf.WriteString(run.Text())
		}
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

func (de *DOCXExtractor) FileExtension() string {
	return docxFileExtension
}
